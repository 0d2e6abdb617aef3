package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/fotokruzhok/star-cabinet-bot/internal/progression"
	"github.com/fotokruzhok/star-cabinet-bot/types"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

var ErrNotFound = errors.New("not found")

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = buildPostgresDSNFromEnv()
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func buildPostgresDSNFromEnv() string {
	host := strings.TrimSpace(os.Getenv("POSTGRES_HOST"))
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(os.Getenv("POSTGRES_PORT"))
	if port == "" {
		port = "5432"
	}
	db := strings.TrimSpace(os.Getenv("POSTGRES_DB"))
	if db == "" {
		db = "star_cabinet"
	}
	user := strings.TrimSpace(os.Getenv("POSTGRES_USER"))
	if user == "" {
		user = "star_cabinet"
	}
	pass := os.Getenv("POSTGRES_PASSWORD")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", urlEscape(user), urlEscape(pass), host, port, db)
}

func urlEscape(s string) string {
	r := strings.NewReplacer(
		"%", "%25",
		":", "%3A",
		"/", "%2F",
		"@", "%40",
		"?", "%3F",
		"#", "%23",
		"[", "%5B",
		"]", "%5D",
	)
	return r.Replace(s)
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func (s *PostgresStore) UpsertUser(user types.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO users (user_id, chat_id, username, first_name, level)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
  chat_id = EXCLUDED.chat_id,
  username = EXCLUDED.username,
  first_name = EXCLUDED.first_name,
  updated_at = NOW();
`, user.UserID, user.ChatID, strings.TrimSpace(user.Username), strings.TrimSpace(user.FirstName), string(progression.DeriveLevel(0)))
	return err
}

func (s *PostgresStore) GetUser(userID int64) (*types.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	u, err := scanUser(s.pool.QueryRow(ctx, userSelect+`WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

const userSelect = `
SELECT user_id, chat_id, username, first_name, class, character_id,
       is_registered, stars, level, last_active, created_at, updated_at
FROM users
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*types.User, error) {
	var u types.User
	err := row.Scan(&u.UserID, &u.ChatID, &u.Username, &u.FirstName, &u.Class,
		&u.CharacterID, &u.IsRegistered, &u.Stars, &u.Level, &u.LastActive,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GrantStars runs the full award inside one transaction: the user row is
// locked, the new total and level are computed by the progression engine,
// and exactly one ledger row is appended. Concurrent grants for the same
// user serialize on the row lock.
func (s *PostgresStore) GrantStars(userID int64, amount float64, activityType types.ActivityType, description string) (*types.GrantOutcome, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := s.lockUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	out, err := progression.GrantStars(*user, amount, activityType, description, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.applyOutcome(ctx, tx, &out); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PostgresStore) RegisterUser(userID int64, class string, characterID int64) (*types.GrantOutcome, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := s.lockUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	character, err := s.characterInTx(ctx, tx, characterID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	out, err := progression.Register(*user, class, character, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
UPDATE users
SET class = $2, character_id = $3, is_registered = TRUE, updated_at = NOW()
WHERE user_id = $1
`, userID, out.User.Class, out.User.CharacterID)
	if err != nil {
		return nil, err
	}

	if err := s.applyOutcome(ctx, tx, &out); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PostgresStore) SubmitPhotoWork(userID int64, description string) (*types.GrantOutcome, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := s.lockUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	var character *types.Character
	if user.CharacterID != 0 {
		character, err = s.characterInTx(ctx, tx, user.CharacterID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	out, err := progression.SubmitPhotoWork(*user, character, description, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.applyOutcome(ctx, tx, &out); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PostgresStore) lockUser(ctx context.Context, tx pgx.Tx, userID int64) (*types.User, error) {
	u, err := scanUser(tx.QueryRow(ctx, userSelect+`WHERE user_id = $1 FOR UPDATE`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, progression.ErrUnknownUser
		}
		return nil, err
	}
	return u, nil
}

func (s *PostgresStore) applyOutcome(ctx context.Context, tx pgx.Tx, out *types.GrantOutcome) error {
	_, err := tx.Exec(ctx, `
UPDATE users
SET stars = $2, level = $3, last_active = $4, updated_at = NOW()
WHERE user_id = $1
`, out.User.UserID, out.User.Stars, out.User.Level, out.User.LastActive)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
INSERT INTO stars_history (user_id, stars_amount, activity_type, description, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, out.Entry.UserID, out.Entry.StarsAmount, string(out.Entry.ActivityType), out.Entry.Description, out.Entry.CreatedAt).Scan(&out.Entry.ID)
	return err
}

func (s *PostgresStore) GetHistory(userID int64, limit int) ([]types.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, stars_amount, activity_type, description, created_at
FROM stars_history
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []types.Activity
	for rows.Next() {
		var a types.Activity
		var activityType string
		if err := rows.Scan(&a.ID, &a.UserID, &a.StarsAmount, &activityType, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ActivityType = types.ActivityType(activityType)
		entries = append(entries, a)
	}
	return entries, rows.Err()
}
