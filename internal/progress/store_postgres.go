package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Register(username, password string) (*User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`,
		username,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{Username: username, Role: RoleMember, Level: 1}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, role, level, exp)
		 VALUES ($1, $2, $3, 1, 0)
		 RETURNING id, created_at`,
		username,
		string(hash),
		string(RoleMember),
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (s *PostgresStore) Authenticate(username, password string) (*User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	user, err := s.getUser(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrBadCredential
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredential
	}

	return user, nil
}

func (s *PostgresStore) GetUser(username string) (*User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	return s.getUser(ctx, username)
}

func (s *PostgresStore) getUser(ctx context.Context, username string) (*User, error) {
	user := &User{}
	var role string
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, level, exp, created_at
		 FROM users
		 WHERE username = $1
		 LIMIT 1`,
		username,
	).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&role,
		&user.Level,
		&user.Experience,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	user.Role = Role(role)

	return user, nil
}

func (s *PostgresStore) UpdateProgress(username string, p Progress) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE users SET level = $2, exp = $3 WHERE username = $1`,
		username,
		p.Level,
		p.Experience,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	return nil
}

func (s *PostgresStore) UpdateRole(username string, role Role) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if !role.Valid() {
		return fmt.Errorf("invalid role: %s", role)
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE users SET role = $2 WHERE username = $1`,
		username,
		string(role),
	)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	return nil
}

func (s *PostgresStore) Users() ([]User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, username, password_hash, role, level, exp, created_at
		 FROM users
		 ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var role string
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.Level, &u.Experience, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = Role(role)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (s *PostgresStore) SaveReviewNote(note ReviewNote) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	createdAt := note.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO review_notes (username, part, chapter, standard_code, title, question, model_answer, explanation, score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		note.Username,
		note.Part,
		note.Chapter,
		note.Standard,
		note.Title,
		note.Question,
		note.ModelAnswer,
		note.Explanation,
		note.Score,
		createdAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save review note: %w", err)
	}

	return id, nil
}

func (s *PostgresStore) ReviewNotes(username string) ([]ReviewNote, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, username, part, chapter, standard_code, title, question, model_answer, explanation, score, created_at
		 FROM review_notes
		 WHERE username = $1
		 ORDER BY created_at DESC`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("query review notes: %w", err)
	}
	defer rows.Close()

	var notes []ReviewNote
	for rows.Next() {
		var n ReviewNote
		if err := rows.Scan(&n.ID, &n.Username, &n.Part, &n.Chapter, &n.Standard, &n.Title, &n.Question, &n.ModelAnswer, &n.Explanation, &n.Score, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review notes: %w", err)
	}

	return notes, nil
}

func (s *PostgresStore) DeleteReviewNote(id int) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, `DELETE FROM review_notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review note: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrNoteNotFound, id)
	}

	return nil
}

func (s *PostgresStore) SaveQuizRecord(record QuizRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_history (username, part, chapter, standard_code, questions, total_score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.Username,
		record.Part,
		record.Chapter,
		record.Standard,
		record.Questions,
		record.TotalScore,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("save quiz record: %w", err)
	}

	return nil
}

func (s *PostgresStore) QuizHistory(username string) ([]QuizRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, username, part, chapter, standard_code, questions, total_score, created_at
		 FROM quiz_history
		 WHERE username = $1
		 ORDER BY created_at DESC`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("query quiz history: %w", err)
	}
	defer rows.Close()

	var records []QuizRecord
	for rows.Next() {
		var r QuizRecord
		if err := rows.Scan(&r.ID, &r.Username, &r.Part, &r.Chapter, &r.Standard, &r.Questions, &r.TotalScore, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quiz history: %w", err)
	}

	return records, nil
}

func (s *PostgresStore) TopUsers(limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT username, role, level, exp
		 FROM users
		 ORDER BY exp DESC, username ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var role string
		if err := rows.Scan(&e.Username, &role, &e.Level, &e.Experience); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		e.Role = Role(role)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}

	return entries, nil
}
