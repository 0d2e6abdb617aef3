package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fotokruzhok/star-cabinet-bot/internal/config"
	"github.com/fotokruzhok/star-cabinet-bot/internal/progression"
	"github.com/fotokruzhok/star-cabinet-bot/pkg/logger"
	"github.com/fotokruzhok/star-cabinet-bot/types"
)

type WebHandlers struct {
	users   types.UserStore
	catalog types.CatalogStore
	posts   types.PostStore
	cfg     *config.Config
}

func NewWebHandlers(users types.UserStore, catalog types.CatalogStore, posts types.PostStore, cfg *config.Config) *WebHandlers {
	return &WebHandlers{
		users:   users,
		catalog: catalog,
		posts:   posts,
		cfg:     cfg,
	}
}

// userView is the cabinet snapshot the Mini App renders.
type userView struct {
	UserID       int64            `json:"user_id"`
	Username     string           `json:"username"`
	FirstName    string           `json:"first_name"`
	Class        string           `json:"class,omitempty"`
	Character    *types.Character `json:"character,omitempty"`
	IsRegistered bool             `json:"is_registered"`
	Stars        float64          `json:"stars"`
	Level        string           `json:"level"`
	NextLevel    string           `json:"next_level,omitempty"`
	StarsToNext  float64          `json:"stars_to_next,omitempty"`
	LastActive   time.Time        `json:"last_active"`
}

func (h *WebHandlers) buildUserView(user *types.User) userView {
	view := userView{
		UserID:       user.UserID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		Class:        user.Class,
		IsRegistered: user.IsRegistered,
		Stars:        user.Stars,
		Level:        string(progression.DeriveLevel(user.Stars)),
		LastActive:   user.LastActive,
	}
	if next, missing, ok := progression.NextLevelAt(user.Stars); ok {
		view.NextLevel = string(next)
		view.StarsToNext = missing
	}
	if user.CharacterID != 0 {
		if ch, err := h.catalog.GetCharacter(user.CharacterID); err == nil {
			view.Character = ch
		}
	}
	return view
}

func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

// writeEngineError maps progression error kinds to transport responses.
func writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, progression.ErrUnknownUser):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, progression.ErrAlreadyRegistered):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "already registered"})
	case errors.Is(err, progression.ErrInvalidCharacterSelection):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid character selection"})
	case errors.Is(err, progression.ErrNonPositiveAward):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "award must be positive"})
	default:
		logger.Errorf("web: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *WebHandlers) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	user, err := h.users.GetUser(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, h.buildUserView(user))
}

func (h *WebHandlers) GetHistory(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	if _, err := h.users.GetUser(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	entries, err := h.users.GetHistory(id, limit)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	type entryView struct {
		StarsAmount  float64 `json:"stars_amount"`
		ActivityType string  `json:"activity_type"`
		Description  string  `json:"description"`
		CreatedAt    string  `json:"created_at"`
	}
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			StarsAmount:  e.StarsAmount,
			ActivityType: string(e.ActivityType),
			Description:  e.Description,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": views})
}

func (h *WebHandlers) GetClasses(c *gin.Context) {
	classes, err := h.catalog.ListClasses()
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

func (h *WebHandlers) GetCharacters(c *gin.Context) {
	characters, err := h.catalog.ListCharacters(c.Query("class"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": characters})
}

func (h *WebHandlers) RegisterUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req struct {
		Class       string `json:"class" binding:"required"`
		CharacterID int64  `json:"character_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class and character_id are required"})
		return
	}

	out, err := h.users.RegisterUser(id, req.Class, req.CharacterID)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        h.buildUserView(&out.User),
		"stars_added": out.Entry.StarsAmount,
	})
}

func (h *WebHandlers) SubmitPhotoWork(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	_ = c.ShouldBindJSON(&req)

	out, err := h.users.SubmitPhotoWork(id, req.Description)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stars_added":  out.Entry.StarsAmount,
		"total_stars":  out.User.Stars,
		"level":        out.User.Level,
		"level_change": out.LevelChanged,
	})
}

func (h *WebHandlers) GetQuizzes(c *gin.Context) {
	quizzes, err := h.catalog.ListQuizzes()
	if err != nil {
		writeEngineError(c, err)
		return
	}

	type quizView struct {
		ID        int64  `json:"id"`
		Title     string `json:"title"`
		Questions int    `json:"questions"`
	}
	views := make([]quizView, 0, len(quizzes))
	for _, q := range quizzes {
		views = append(views, quizView{ID: q.ID, Title: q.Title, Questions: len(q.Questions)})
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": views})
}

// GetQuiz returns the quiz without correct answer indexes.
func (h *WebHandlers) GetQuiz(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiz id"})
		return
	}
	quiz, err := h.catalog.GetQuiz(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}

	type questionView struct {
		Prompt  string   `json:"prompt"`
		Options []string `json:"options"`
	}
	questions := make([]questionView, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, questionView{Prompt: q.Prompt, Options: q.Options})
	}
	c.JSON(http.StatusOK, gin.H{"id": quiz.ID, "title": quiz.Title, "questions": questions})
}

func (h *WebHandlers) SubmitQuiz(c *gin.Context) {
	quizID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiz id"})
		return
	}

	var req struct {
		UserID  int64 `json:"user_id" binding:"required"`
		Answers []int `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	quiz, err := h.catalog.GetQuiz(quizID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}

	user, err := h.users.GetUser(req.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	result := progression.ScoreQuiz(*quiz, req.Answers)

	resp := gin.H{
		"correct_count":   result.CorrectCount,
		"total_questions": result.TotalQuestions,
		"stars_earned":    result.StarsEarned,
		"passed":          result.Passed,
	}

	if result.StarsEarned > 0 {
		out, err := h.users.GrantStars(user.UserID, result.StarsEarned,
			types.ActivityQuiz, progression.QuizRewardDescription(quiz.Title))
		if err != nil {
			writeEngineError(c, err)
			return
		}
		resp["new_total_stars"] = out.User.Stars
		resp["level"] = out.User.Level
	}

	c.JSON(http.StatusOK, resp)
}

func (h *WebHandlers) AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminIDStr := c.GetHeader("X-Admin-ID")
		if adminIDStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		adminID, err := strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil || !h.cfg.IsAdmin(adminID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}

		c.Set("admin_id", adminID)
		c.Next()
	}
}

func (h *WebHandlers) AdminDashboard(c *gin.Context) {
	queued, err := h.posts.ListPosts(types.PostStatusQueued)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	published, err := h.posts.ListPosts(types.PostStatusPublished)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	failed, err := h.posts.ListPosts(types.PostStatusFailed)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"queued_posts":    len(queued),
		"published_posts": len(published),
		"failed_posts":    len(failed),
	})
}

func (h *WebHandlers) GetPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(types.PostStatus(c.Query("status")))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *WebHandlers) CreatePost(c *gin.Context) {
	var req struct {
		Title       string    `json:"title" binding:"required"`
		Body        string    `json:"body"`
		PhotoFileID string    `json:"photo_file_id"`
		PublishAt   time.Time `json:"publish_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	post, err := h.posts.CreatePost(types.ScheduledPost{
		Title:       req.Title,
		Body:        req.Body,
		PhotoFileID: req.PhotoFileID,
		PublishAt:   req.PublishAt,
		CreatedBy:   c.GetInt64("admin_id"),
	})
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}
