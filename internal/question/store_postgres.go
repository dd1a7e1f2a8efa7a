package question

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore persists admin-managed questions. The file partitions remain
// the read path for quizzes; this store backs the editing surface and drops
// the catalog cache after every mutation.
type PostgresStore struct {
	pool    *pgxpool.Pool
	catalog *Catalog
}

// NewPostgresStore creates the admin question store. catalog may be nil when
// no cache needs invalidating.
func NewPostgresStore(pool *pgxpool.Pool, catalog *Catalog) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool, catalog: catalog}, nil
}

func (s *PostgresStore) invalidateCatalog() {
	if s.catalog != nil {
		s.catalog.Invalidate()
	}
}

func (s *PostgresStore) Add(q Question) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if q.Title == "" {
		return "", fmt.Errorf("title is required")
	}
	if q.Part == "" {
		return "", fmt.Errorf("part is required")
	}
	if q.ID == "" {
		q.ID = surrogateID(q)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO questions (id, part, chapter, standard, title, description, keywords, model_answer, explanation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		q.ID,
		q.Part,
		q.Chapter,
		q.Standard,
		q.Title,
		q.Description,
		q.Keywords,
		q.ModelAnswer,
		nullIfEmpty(q.Explanation),
	)
	if err != nil {
		return "", fmt.Errorf("insert question: %w", err)
	}

	s.invalidateCatalog()
	return q.ID, nil
}

func (s *PostgresStore) Update(q Question) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if q.ID == "" {
		return fmt.Errorf("id is required")
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE questions
		 SET part = $2, chapter = $3, standard = $4, title = $5, description = $6,
		     keywords = $7, model_answer = $8, explanation = $9, updated_at = NOW()
		 WHERE id = $1`,
		q.ID,
		q.Part,
		q.Chapter,
		q.Standard,
		q.Title,
		q.Description,
		q.Keywords,
		q.ModelAnswer,
		nullIfEmpty(q.Explanation),
	)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, q.ID)
	}

	s.invalidateCatalog()
	return nil
}

func (s *PostgresStore) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.invalidateCatalog()
	return nil
}

func (s *PostgresStore) Get(id string) (*Question, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	q, err := s.scanOne(s.pool.QueryRow(ctx,
		`SELECT id, part, chapter, standard, title, description, keywords, model_answer, explanation
		 FROM questions
		 WHERE id = $1
		 LIMIT 1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get question: %w", err)
	}

	return q, nil
}

func (s *PostgresStore) List(part string) ([]Question, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, part, chapter, standard, title, description, keywords, model_answer, explanation
		 FROM questions
		 WHERE ($1 = '' OR part = $1)
		 ORDER BY part, chapter, standard, title`,
		part,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		q, err := s.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	return questions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row rowScanner) (*Question, error) {
	q := &Question{}
	var explanation *string
	if err := row.Scan(
		&q.ID,
		&q.Part,
		&q.Chapter,
		&q.Standard,
		&q.Title,
		&q.Description,
		&q.Keywords,
		&q.ModelAnswer,
		&explanation,
	); err != nil {
		return nil, err
	}
	if explanation != nil {
		q.Explanation = *explanation
	}
	return q, nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
