package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/fotokruzhok/star-cabinet-bot/types"
)

// stateClient is the slice of RedisClient the state store needs.
type stateClient interface {
	Key(keys ...string) string
	Set(key string, value interface{}, ttl time.Duration) error
	Get(key string, dest interface{}) error
	Del(key string) error
}

// RedisStateStore keeps transient bot dialogue state: a registration in
// progress and the current quiz attempt. Everything expires on its own.
// A cache miss reads as (nil, nil); transport errors are surfaced so an
// outage does not silently restart a user's dialogue.
type RedisStateStore struct {
	client stateClient
	ttl    time.Duration
}

func NewRedisStateStore(client stateClient, ttlHours int) *RedisStateStore {
	ttl := time.Duration(ttlHours) * time.Hour
	if ttlHours <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStateStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *RedisStateStore) GetRegistration(userID int64) (*types.RegistrationState, error) {
	key := s.client.Key("registration", fmt.Sprintf("%d", userID))
	var state types.RegistrationState
	if err := s.client.Get(key, &state); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (s *RedisStateStore) SetRegistration(state *types.RegistrationState) error {
	key := s.client.Key("registration", fmt.Sprintf("%d", state.UserID))
	return s.client.Set(key, state, s.ttl)
}

func (s *RedisStateStore) ClearRegistration(userID int64) error {
	key := s.client.Key("registration", fmt.Sprintf("%d", userID))
	return s.client.Del(key)
}

func (s *RedisStateStore) GetQuizAttempt(userID int64) (*types.QuizAttempt, error) {
	key := s.client.Key("quiz_attempt", fmt.Sprintf("%d", userID))
	var attempt types.QuizAttempt
	if err := s.client.Get(key, &attempt); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (s *RedisStateStore) SetQuizAttempt(attempt *types.QuizAttempt) error {
	key := s.client.Key("quiz_attempt", fmt.Sprintf("%d", attempt.UserID))
	return s.client.Set(key, attempt, s.ttl)
}

func (s *RedisStateStore) ClearQuizAttempt(userID int64) error {
	key := s.client.Key("quiz_attempt", fmt.Sprintf("%d", userID))
	return s.client.Del(key)
}
