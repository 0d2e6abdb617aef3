package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/fotokruzhok/star-cabinet-bot/internal/config"
	"github.com/fotokruzhok/star-cabinet-bot/internal/progression"
	"github.com/fotokruzhok/star-cabinet-bot/pkg/logger"
	"github.com/fotokruzhok/star-cabinet-bot/types"
)

// photoStore records photo-work submissions and drives the real engine.
type photoStore struct {
	submitted   bool
	description string
}

func (s *photoStore) UpsertUser(types.User) error        { return nil }
func (s *photoStore) GetUser(int64) (*types.User, error) { return nil, nil }

func (s *photoStore) GetHistory(int64, int) ([]types.Activity, error) {
	return nil, nil
}

func (s *photoStore) GrantStars(int64, float64, types.ActivityType, string) (*types.GrantOutcome, error) {
	return nil, nil
}

func (s *photoStore) RegisterUser(int64, string, int64) (*types.GrantOutcome, error) {
	return nil, nil
}

func (s *photoStore) SubmitPhotoWork(userID int64, description string) (*types.GrantOutcome, error) {
	s.submitted = true
	s.description = description
	out, err := progression.SubmitPhotoWork(
		types.User{UserID: userID, IsRegistered: true}, nil, description, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// apiRecorder fakes the Bot API endpoint and keeps every request body.
type apiRecorder struct {
	mu   sync.Mutex
	sent []string
}

func (r *apiRecorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func newTestBot(t *testing.T) (*bot.Bot, *apiRecorder) {
	t.Helper()
	rec := &apiRecorder{}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		rec.mu.Lock()
		rec.sent = append(rec.sent, string(body))
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":5,"type":"private"}}}`))
	}))
	t.Cleanup(api.Close)

	b, err := bot.New("test-token", bot.WithServerURL(api.URL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("bot.New: %v", err)
	}
	return b, rec
}

func photoUpdate(caption string) *models.Update {
	return &models.Update{Message: &models.Message{
		Chat:    models.Chat{ID: 5},
		Photo:   []models.PhotoSize{{FileID: "f1"}},
		Caption: caption,
	}}
}

func TestHandlePhotoRequiresRegistration(t *testing.T) {
	logger.Init("error", "text")
	store := &photoStore{}
	h := NewHandlers(store, nil, nil, nil, &config.Config{})
	b, rec := newTestBot(t)

	h.HandlePhoto(context.Background(), b, photoUpdate("Туман"), &types.User{UserID: 9})

	if store.submitted {
		t.Error("photo work must not be submitted before registration")
	}
	msgs := rec.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "завершите регистрацию") {
		t.Errorf("sent = %v, want a single registration prompt", msgs)
	}
}

func TestHandlePhotoSubmitsForRegisteredUser(t *testing.T) {
	logger.Init("error", "text")
	store := &photoStore{}
	h := NewHandlers(store, nil, nil, nil, &config.Config{})
	b, rec := newTestBot(t)

	user := &types.User{UserID: 9, IsRegistered: true}
	h.HandlePhoto(context.Background(), b, photoUpdate("Туман над рекой"), user)

	if !store.submitted || store.description != "Туман над рекой" {
		t.Errorf("submission = %v %q, want the caption passed through", store.submitted, store.description)
	}
	msgs := rec.messages()
	if len(msgs) == 0 || !strings.Contains(msgs[0], "Фоторабота принята") {
		t.Errorf("sent = %v, want the acceptance message", msgs)
	}
}
