package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz-service/internal/domain"
)

// QuestionSetStore persists authored question sets; questions are stored as JSONB.
type QuestionSetStore struct {
	pool *pgxpool.Pool
}

func NewQuestionSetStore(pool *pgxpool.Pool) *QuestionSetStore {
	return &QuestionSetStore{pool: pool}
}

func (s *QuestionSetStore) SaveSet(ctx context.Context, set domain.QuestionSet) error {
	data, err := json.Marshal(set.Questions)
	if err != nil {
		return fmt.Errorf("marshal question set: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO question_sets (id, title, source, data, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, source = EXCLUDED.source, data = EXCLUDED.data`,
		set.ID, set.Title, set.Source, data, set.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save question set: %w", err)
	}
	return nil
}

func (s *QuestionSetStore) GetSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	set := domain.QuestionSet{ID: setID}
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT title, source, data, created_at FROM question_sets WHERE id=$1`, setID,
	).Scan(&set.Title, &set.Source, &raw, &set.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("load question set: %w", err)
	}
	if err := json.Unmarshal(raw, &set.Questions); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("unmarshal question set: %w", err)
	}
	set.CreatedAt = set.CreatedAt.UTC()
	return set, nil
}
