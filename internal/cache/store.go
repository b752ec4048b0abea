package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"outreach/internal/domain"

	_ "modernc.org/sqlite"
)

// Store keeps scraped profiles and campaign run history in SQLite. Profile
// entries expire by age; fallback profiles are never stored.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache migration failed: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		url         TEXT PRIMARY KEY,
		name        TEXT,
		company     TEXT,
		job_title   TEXT,
		about       TEXT,
		location    TEXT,
		posts       TEXT,
		experiences TEXT,
		fallback    INTEGER DEFAULT 0,
		fetched_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at  DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		total       INTEGER NOT NULL,
		sent        INTEGER NOT NULL,
		failed      INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_recipients (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		email        TEXT NOT NULL,
		linkedin_url TEXT,
		stage        TEXT NOT NULL,
		error        TEXT,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_run_recipients_run ON run_recipients(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

// normalizeURL makes cache keys insensitive to trailing slashes.
func normalizeURL(u string) string { return strings.TrimRight(u, "/") }

// GetProfile returns the cached profile for a URL if it was fetched within
// maxAge; returns (nil, nil) on a miss or stale entry.
func (s *Store) GetProfile(ctx context.Context, profileURL string, maxAge time.Duration) (*domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, company, job_title, about, location, posts, experiences, fallback, fetched_at
		FROM profiles WHERE url = ?`, normalizeURL(profileURL))

	var p domain.Profile
	var posts, experiences sql.NullString
	var fallback int
	var fetchedAt time.Time
	err := row.Scan(&p.Name, &p.Company, &p.JobTitle, &p.About, &p.Location, &posts, &experiences, &fallback, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	if maxAge > 0 && time.Since(fetchedAt) > maxAge {
		return nil, nil
	}

	p.Fallback = fallback != 0
	if posts.Valid && posts.String != "" {
		if err := json.Unmarshal([]byte(posts.String), &p.RecentPosts); err != nil {
			s.logger.Warn("corrupt cached posts, dropping", "url", profileURL, "err", err)
		}
	}
	if experiences.Valid && experiences.String != "" {
		if err := json.Unmarshal([]byte(experiences.String), &p.Experiences); err != nil {
			s.logger.Warn("corrupt cached experiences, dropping", "url", profileURL, "err", err)
		}
	}
	return &p, nil
}

// PutProfile upserts a scraped profile. Fallback profiles are not cached:
// they carry no information worth reusing and would mask recovery.
func (s *Store) PutProfile(ctx context.Context, profileURL string, p *domain.Profile) error {
	if p == nil || p.Fallback {
		return nil
	}
	posts, err := json.Marshal(p.RecentPosts)
	if err != nil {
		return fmt.Errorf("marshal posts: %w", err)
	}
	experiences, err := json.Marshal(p.Experiences)
	if err != nil {
		return fmt.Errorf("marshal experiences: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (url, name, company, job_title, about, location, posts, experiences, fallback, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, CURRENT_TIMESTAMP)
		ON CONFLICT(url) DO UPDATE SET
			name = excluded.name,
			company = excluded.company,
			job_title = excluded.job_title,
			about = excluded.about,
			location = excluded.location,
			posts = excluded.posts,
			experiences = excluded.experiences,
			fetched_at = CURRENT_TIMESTAMP`,
		normalizeURL(profileURL), p.Name, p.Company, p.JobTitle, p.About, p.Location,
		string(posts), string(experiences))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// RecipientRecord is one recipient's outcome within a recorded run.
type RecipientRecord struct {
	Email       string
	LinkedInURL string
	Stage       string
	Error       string
}

// RunRecord is a completed campaign run.
type RunRecord struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Sent       int
	Failed     int
	Recipients []RecipientRecord
}

// RecordRun persists a campaign run and its per-recipient outcomes.
func (s *Store) RecordRun(ctx context.Context, run RunRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (started_at, finished_at, total, sent, failed)
		VALUES (?, ?, ?, ?, ?)`,
		run.StartedAt, run.FinishedAt, run.Total, run.Sent, run.Failed)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, r := range run.Recipients {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_recipients (run_id, email, linkedin_url, stage, error)
			VALUES (?, ?, ?, ?, ?)`,
			runID, r.Email, r.LinkedInURL, r.Stage, r.Error); err != nil {
			return 0, fmt.Errorf("insert recipient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT started_at, finished_at, total, sent, failed
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.StartedAt, &r.FinishedAt, &r.Total, &r.Sent, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
