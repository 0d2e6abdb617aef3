package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fotokruzhok/star-cabinet-bot/types"
)

func (s *PostgresStore) GetCharacter(id int64) (*types.Character, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.characterInTx(ctx, nil, id)
}

type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) characterInTx(ctx context.Context, tx pgx.Tx, id int64) (*types.Character, error) {
	var q pgxQuerier = s.pool
	if tx != nil {
		q = tx
	}
	var c types.Character
	err := q.QueryRow(ctx, `
SELECT id, class, name, description, bonus_type, bonus_value
FROM characters
WHERE id = $1
`, id).Scan(&c.ID, &c.Class, &c.Name, &c.Description, &c.BonusType, &c.BonusValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) ListCharacters(class string) ([]types.Character, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
SELECT id, class, name, description, bonus_type, bonus_value
FROM characters
ORDER BY class, id
`
	args := []any{}
	if strings.TrimSpace(class) != "" {
		query = `
SELECT id, class, name, description, bonus_type, bonus_value
FROM characters
WHERE class = $1
ORDER BY id
`
		args = append(args, strings.TrimSpace(class))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var characters []types.Character
	for rows.Next() {
		var c types.Character
		if err := rows.Scan(&c.ID, &c.Class, &c.Name, &c.Description, &c.BonusType, &c.BonusValue); err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}
	return characters, rows.Err()
}

func (s *PostgresStore) ListClasses() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT DISTINCT class FROM characters ORDER BY class`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (s *PostgresStore) GetQuiz(id int64) (*types.Quiz, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var quiz types.Quiz
	err := s.pool.QueryRow(ctx, `SELECT id, title FROM quizzes WHERE id = $1`, id).
		Scan(&quiz.ID, &quiz.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
SELECT prompt, options, correct_index
FROM quiz_questions
WHERE quiz_id = $1
ORDER BY position
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var q types.QuizQuestion
		if err := rows.Scan(&q.Prompt, &q.Options, &q.CorrectIndex); err != nil {
			return nil, err
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (s *PostgresStore) ListQuizzes() ([]types.Quiz, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT id, title FROM quizzes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []types.Quiz
	for rows.Next() {
		var q types.Quiz
		if err := rows.Scan(&q.ID, &q.Title); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range quizzes {
		full, err := s.GetQuiz(quizzes[i].ID)
		if err != nil {
			return nil, err
		}
		quizzes[i].Questions = full.Questions
	}
	return quizzes, nil
}
