package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/fotokruzhok/star-cabinet-bot/internal/config"
	"github.com/fotokruzhok/star-cabinet-bot/internal/progression"
	"github.com/fotokruzhok/star-cabinet-bot/pkg/logger"
	"github.com/fotokruzhok/star-cabinet-bot/store"
	"github.com/fotokruzhok/star-cabinet-bot/types"
)

// fakeStore keeps everything in memory and drives the real progression
// engine, mirroring what PostgresStore does inside its transactions.
type fakeStore struct {
	users      map[int64]*types.User
	history    map[int64][]types.Activity
	characters []types.Character
	quizzes    []types.Quiz
	posts      []types.ScheduledPost
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[int64]*types.User{},
		history: map[int64][]types.Activity{},
		characters: []types.Character{
			{ID: 1, Class: "Фотограф", Name: "Светописец", BonusType: "percent_bonus", BonusValue: "10"},
			{ID: 2, Class: "Фотограф", Name: "Репортёр", BonusType: "photo_bonus", BonusValue: "1"},
			{ID: 3, Class: "Художник", Name: "Мечтатель", BonusType: "percent_bonus", BonusValue: "15"},
		},
		quizzes: []types.Quiz{
			{ID: 1, Title: "Короткий", Questions: []types.QuizQuestion{
				{Prompt: "a", Options: []string{"x", "y"}, CorrectIndex: 0},
				{Prompt: "b", Options: []string{"x", "y"}, CorrectIndex: 1},
			}},
			{ID: 2, Title: "Длинный", Questions: []types.QuizQuestion{
				{Prompt: "1", Options: []string{"x", "y"}, CorrectIndex: 0},
				{Prompt: "2", Options: []string{"x", "y"}, CorrectIndex: 0},
				{Prompt: "3", Options: []string{"x", "y"}, CorrectIndex: 0},
				{Prompt: "4", Options: []string{"x", "y"}, CorrectIndex: 0},
				{Prompt: "5", Options: []string{"x", "y"}, CorrectIndex: 0},
			}},
		},
	}
}

func (f *fakeStore) UpsertUser(user types.User) error {
	if existing, ok := f.users[user.UserID]; ok {
		existing.Username = user.Username
		existing.FirstName = user.FirstName
		return nil
	}
	u := user
	f.users[user.UserID] = &u
	return nil
}

func (f *fakeStore) GetUser(userID int64) (*types.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) GrantStars(userID int64, amount float64, activityType types.ActivityType, description string) (*types.GrantOutcome, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, progression.ErrUnknownUser
	}
	out, err := progression.GrantStars(*u, amount, activityType, description, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	*u = out.User
	f.history[userID] = append([]types.Activity{out.Entry}, f.history[userID]...)
	return &out, nil
}

func (f *fakeStore) RegisterUser(userID int64, class string, characterID int64) (*types.GrantOutcome, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, progression.ErrUnknownUser
	}
	var character *types.Character
	for i := range f.characters {
		if f.characters[i].ID == characterID {
			character = &f.characters[i]
			break
		}
	}
	out, err := progression.Register(*u, class, character, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	*u = out.User
	f.history[userID] = append([]types.Activity{out.Entry}, f.history[userID]...)
	return &out, nil
}

func (f *fakeStore) SubmitPhotoWork(userID int64, description string) (*types.GrantOutcome, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, progression.ErrUnknownUser
	}
	var character *types.Character
	for i := range f.characters {
		if f.characters[i].ID == u.CharacterID {
			character = &f.characters[i]
			break
		}
	}
	out, err := progression.SubmitPhotoWork(*u, character, description, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	*u = out.User
	f.history[userID] = append([]types.Activity{out.Entry}, f.history[userID]...)
	return &out, nil
}

func (f *fakeStore) GetHistory(userID int64, limit int) ([]types.Activity, error) {
	entries := f.history[userID]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f *fakeStore) GetCharacter(id int64) (*types.Character, error) {
	for i := range f.characters {
		if f.characters[i].ID == id {
			c := f.characters[i]
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListCharacters(class string) ([]types.Character, error) {
	if class == "" {
		return f.characters, nil
	}
	var out []types.Character
	for _, c := range f.characters {
		if c.Class == class {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) ListClasses() ([]string, error) {
	seen := map[string]bool{}
	var classes []string
	for _, c := range f.characters {
		if !seen[c.Class] {
			seen[c.Class] = true
			classes = append(classes, c.Class)
		}
	}
	return classes, nil
}

func (f *fakeStore) GetQuiz(id int64) (*types.Quiz, error) {
	for i := range f.quizzes {
		if f.quizzes[i].ID == id {
			q := f.quizzes[i]
			return &q, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListQuizzes() ([]types.Quiz, error) {
	return f.quizzes, nil
}

func (f *fakeStore) CreatePost(post types.ScheduledPost) (*types.ScheduledPost, error) {
	post.ID = strconv.Itoa(len(f.posts) + 1)
	post.Status = types.PostStatusQueued
	post.CreatedAt = time.Now().UTC()
	f.posts = append(f.posts, post)
	return &post, nil
}

func (f *fakeStore) ListPosts(status types.PostStatus) ([]types.ScheduledPost, error) {
	if status == "" {
		return f.posts, nil
	}
	var out []types.ScheduledPost
	for _, p := range f.posts {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) DuePosts(now time.Time, limit int) ([]types.ScheduledPost, error) {
	return nil, nil
}

func (f *fakeStore) MarkPublished(id string, at time.Time) error { return nil }

func (f *fakeStore) MarkFailed(id string, errMsg string) error { return nil }

func newTestServer(fs *fakeStore) *Server {
	logger.Init("error", "text")
	cfg := &config.Config{AdminIDs: []int64{99}, WebPort: "0"}
	return NewServer(cfg, fs, fs, fs)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return m
}

func TestGetUserCabinet(t *testing.T) {
	fs := newFakeStore()
	fs.users[42] = &types.User{UserID: 42, FirstName: "Оля", Stars: 45}
	srv := newTestServer(fs)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/users/42", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	m := decode(t, w)
	if m["level"] != "Ученик" || m["next_level"] != "Искатель" {
		t.Errorf("cabinet view = %v", m)
	}
	if m["stars_to_next"].(float64) != 5 {
		t.Errorf("stars_to_next = %v, want 5", m["stars_to_next"])
	}
}

func TestGetUserNotFound(t *testing.T) {
	srv := newTestServer(newFakeStore())
	if w := doJSON(t, srv, http.MethodGet, "/api/v1/users/7", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestRegisterFlow(t *testing.T) {
	fs := newFakeStore()
	fs.users[1] = &types.User{UserID: 1}
	srv := newTestServer(fs)

	body := map[string]any{"class": "Фотограф", "character_id": 1}
	w := doJSON(t, srv, http.MethodPost, "/api/v1/users/1/register", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	m := decode(t, w)
	if m["stars_added"].(float64) != 5 {
		t.Errorf("stars_added = %v, want 5", m["stars_added"])
	}

	// Second registration is rejected and leaves the first intact.
	w = doJSON(t, srv, http.MethodPost, "/api/v1/users/1/register",
		map[string]any{"class": "Художник", "character_id": 3}, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("second register status = %d, want 422", w.Code)
	}
	if fs.users[1].CharacterID != 1 || fs.users[1].Stars != 5 {
		t.Errorf("first registration was disturbed: %+v", fs.users[1])
	}
}

func TestRegisterClassMismatch(t *testing.T) {
	fs := newFakeStore()
	fs.users[1] = &types.User{UserID: 1}
	srv := newTestServer(fs)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/users/1/register",
		map[string]any{"class": "Художник", "character_id": 1}, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestSubmitQuizShortForm(t *testing.T) {
	fs := newFakeStore()
	fs.users[5] = &types.User{UserID: 5}
	srv := newTestServer(fs)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/quizzes/1/submit",
		map[string]any{"user_id": 5, "answers": []int{0, 1}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	m := decode(t, w)
	if m["correct_count"].(float64) != 2 || m["stars_earned"].(float64) != 1 {
		t.Errorf("short quiz result = %v, want 2 correct, 1 star", m)
	}
	if m["new_total_stars"].(float64) != 1 {
		t.Errorf("new_total_stars = %v, want 1", m["new_total_stars"])
	}
}

func TestSubmitQuizLongForm(t *testing.T) {
	fs := newFakeStore()
	fs.users[5] = &types.User{UserID: 5}
	srv := newTestServer(fs)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/quizzes/2/submit",
		map[string]any{"user_id": 5, "answers": []int{0, 0, 0, 1, 1}}, nil)
	m := decode(t, w)
	if m["stars_earned"].(float64) != 2 {
		t.Errorf("3 of 5 correct should earn 2 stars, got %v", m)
	}

	w = doJSON(t, srv, http.MethodPost, "/api/v1/quizzes/2/submit",
		map[string]any{"user_id": 5, "answers": []int{1, 1, 1, 1, 1}}, nil)
	m = decode(t, w)
	if m["stars_earned"].(float64) != 0 || m["passed"].(bool) {
		t.Errorf("no correct answers should earn nothing, got %v", m)
	}
}

func TestQuizViewHidesAnswers(t *testing.T) {
	srv := newTestServer(newFakeStore())
	w := doJSON(t, srv, http.MethodGet, "/api/v1/quizzes/1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("correct")) {
		t.Errorf("quiz view leaks correct answers: %s", w.Body.String())
	}
}

func TestSubmitPhotoWork(t *testing.T) {
	fs := newFakeStore()
	fs.users[8] = &types.User{UserID: 8, IsRegistered: true, CharacterID: 2, Class: "Фотограф"}
	srv := newTestServer(fs)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/users/8/photo-works",
		map[string]any{"description": "Туман над рекой"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	m := decode(t, w)
	// Репортёр carries photo_bonus "+1": 3 base + 1.
	if m["stars_added"].(float64) != 4 {
		t.Errorf("stars_added = %v, want 4", m["stars_added"])
	}

	if w := doJSON(t, srv, http.MethodPost, "/api/v1/users/404/photo-works", map[string]any{}, nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d, want 404", w.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	srv := newTestServer(newFakeStore())

	if w := doJSON(t, srv, http.MethodGet, "/api/v1/admin/dashboard", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no header status = %d, want 401", w.Code)
	}
	if w := doJSON(t, srv, http.MethodGet, "/api/v1/admin/dashboard", nil, map[string]string{"X-Admin-ID": "1"}); w.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", w.Code)
	}
	if w := doJSON(t, srv, http.MethodGet, "/api/v1/admin/dashboard", nil, map[string]string{"X-Admin-ID": "99"}); w.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", w.Code)
	}
}

func TestAdminCreatePost(t *testing.T) {
	fs := newFakeStore()
	srv := newTestServer(fs)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/admin/posts",
		map[string]any{"title": "Анонс встречи", "body": "Суббота, 12:00"},
		map[string]string{"X-Admin-ID": "99"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if len(fs.posts) != 1 || fs.posts[0].CreatedBy != 99 {
		t.Errorf("posts = %+v", fs.posts)
	}
}
