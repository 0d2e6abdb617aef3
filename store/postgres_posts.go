package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fotokruzhok/star-cabinet-bot/types"
)

func (s *PostgresStore) CreatePost(post types.ScheduledPost) (*types.ScheduledPost, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Status == "" {
		post.Status = types.PostStatusQueued
	}
	if post.PublishAt.IsZero() {
		post.PublishAt = time.Now().UTC()
	}

	err := s.pool.QueryRow(ctx, `
INSERT INTO scheduled_posts (id, title, body, photo_file_id, status, publish_at, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at
`, post.ID, strings.TrimSpace(post.Title), post.Body, post.PhotoFileID,
		string(post.Status), post.PublishAt, post.CreatedBy).Scan(&post.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

const postSelect = `
SELECT id, title, body, photo_file_id, status, publish_at, created_by,
       created_at, published_at, last_error
FROM scheduled_posts
`

func (s *PostgresStore) ListPosts(status types.PostStatus) ([]types.ScheduledPost, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := postSelect + `ORDER BY publish_at DESC`
	args := []any{}
	if status != "" {
		query = postSelect + `WHERE status = $1 ORDER BY publish_at DESC`
		args = append(args, string(status))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []types.ScheduledPost
	for rows.Next() {
		var p types.ScheduledPost
		var st string
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.PhotoFileID, &st, &p.PublishAt,
			&p.CreatedBy, &p.CreatedAt, &p.PublishedAt, &p.LastError); err != nil {
			return nil, err
		}
		p.Status = types.PostStatus(st)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *PostgresStore) DuePosts(now time.Time, limit int) ([]types.ScheduledPost, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, postSelect+`
WHERE status = 'queued' AND publish_at <= $1
ORDER BY publish_at
LIMIT $2
`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []types.ScheduledPost
	for rows.Next() {
		var p types.ScheduledPost
		var st string
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.PhotoFileID, &st, &p.PublishAt,
			&p.CreatedBy, &p.CreatedAt, &p.PublishedAt, &p.LastError); err != nil {
			return nil, err
		}
		p.Status = types.PostStatus(st)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *PostgresStore) MarkPublished(id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
UPDATE scheduled_posts
SET status = 'published', published_at = $2, last_error = ''
WHERE id = $1
`, id, at)
	return err
}

func (s *PostgresStore) MarkFailed(id string, errMsg string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
UPDATE scheduled_posts
SET status = 'failed', last_error = $2
WHERE id = $1
`, id, errMsg)
	return err
}
