package types

import "time"

// RegistrationState tracks a user mid-way through the class/character
// dialogue in the bot. Lives in Redis with a TTL.
type RegistrationState struct {
	UserID      int64     `json:"user_id"`
	ChosenClass string    `json:"chosen_class,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// QuizAttempt is an in-progress quiz run: one question asked at a time,
// answers collected positionally. Lives in Redis with a TTL.
type QuizAttempt struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	QuizID    int64     `json:"quiz_id"`
	Answers   []int     `json:"answers"`
	NextIndex int       `json:"next_index"`
	CreatedAt time.Time `json:"created_at"`
}

type StateStore interface {
	GetRegistration(userID int64) (*RegistrationState, error)
	SetRegistration(state *RegistrationState) error
	ClearRegistration(userID int64) error

	GetQuizAttempt(userID int64) (*QuizAttempt, error)
	SetQuizAttempt(attempt *QuizAttempt) error
	ClearQuizAttempt(userID int64) error
}

type ScheduledPost struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	PhotoFileID string     `json:"photo_file_id,omitempty"`
	Status      PostStatus `json:"status"`
	PublishAt   time.Time  `json:"publish_at"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

type PostStore interface {
	CreatePost(post ScheduledPost) (*ScheduledPost, error)
	ListPosts(status PostStatus) ([]ScheduledPost, error)
	DuePosts(now time.Time, limit int) ([]ScheduledPost, error)
	MarkPublished(id string, at time.Time) error
	MarkFailed(id string, errMsg string) error
}
