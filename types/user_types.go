package types

import "time"

type User struct {
	UserID       int64
	ChatID       int64
	Username     string
	FirstName    string
	Class        string
	CharacterID  int64
	IsRegistered bool
	Stars        float64
	Level        string
	LastActive   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Activity struct {
	ID           int64
	UserID       int64
	StarsAmount  float64
	ActivityType ActivityType
	Description  string
	CreatedAt    time.Time
}

// GrantOutcome is what a reward-granting operation produced: the updated
// user snapshot, the single ledger entry that was appended, and whether the
// level boundary was crossed.
type GrantOutcome struct {
	User          User
	Entry         Activity
	LevelChanged  bool
	PreviousLevel string
}

type UserStore interface {
	UpsertUser(user User) error
	GetUser(userID int64) (*User, error)

	// GrantStars applies a positive star award to the user inside one
	// transaction: user row locked, total incremented, level recomputed,
	// one stars_history row appended.
	GrantStars(userID int64, amount float64, activityType ActivityType, description string) (*GrantOutcome, error)

	// RegisterUser completes a one-time class/character selection and
	// grants the registration bonus, all in one transaction.
	RegisterUser(userID int64, class string, characterID int64) (*GrantOutcome, error)

	// SubmitPhotoWork awards the flat photo-work reward with the user's
	// character bonus applied.
	SubmitPhotoWork(userID int64, description string) (*GrantOutcome, error)

	GetHistory(userID int64, limit int) ([]Activity, error)
}
