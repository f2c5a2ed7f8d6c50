// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/redditradar/redditradar/internal/radar"
)

// permalinkShape is the expected URL shape for the source; anything else is
// refused before it reaches the insert.
var permalinkShape = regexp.MustCompile(`(?i)^(?:https?://(?:www\.)?reddit\.com)?/r/[A-Za-z0-9_]+/comments/[A-Za-z0-9]+`)

// Config controls the Postgres connection pool used by the store.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxContentChars int
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store writes run and post rows into Postgres. It implements radar.Store.
type Store struct {
	pool       pgxPool
	fp         radar.Fingerprinter
	logger     *zap.Logger
	maxContent int
}

// NewStore creates a Postgres-backed Store using the provided config.
func NewStore(ctx context.Context, cfg Config, fp radar.Fingerprinter, logger *zap.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newStore(pool, fp, logger, cfg.MaxContentChars), nil
}

// NewStoreWithPool constructs a Store from an existing pool (primarily for
// testing with pgxmock).
func NewStoreWithPool(pool pgxPool, fp radar.Fingerprinter, logger *zap.Logger, maxContentChars int) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newStore(pool, fp, logger, maxContentChars), nil
}

func newStore(pool pgxPool, fp radar.Fingerprinter, logger *zap.Logger, maxContent int) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxContent <= 0 {
		maxContent = 10000
	}
	return &Store{pool: pool, fp: fp, logger: logger, maxContent: maxContent}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateRun inserts the run row in running state.
func (s *Store) CreateRun(ctx context.Context, run radar.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	query := `
INSERT INTO runs (id, status, window_from, window_to, posts_found, started_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.pool.Exec(ctx, query,
		run.ID, run.Status, run.WindowFrom, run.WindowTo, run.PostsFound, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// CompleteRun finalizes the run row with its outcome.
func (s *Store) CompleteRun(
	ctx context.Context,
	runID string,
	status radar.RunStatus,
	postsFound int,
	errText string,
	finishedAt time.Time,
) error {
	query := `
UPDATE runs
SET status = $2, posts_found = $3, error_text = $4, finished_at = $5
WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, runID, status, postsFound, nullableText(errText), finishedAt)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return radar.ErrNotFound
	}
	return nil
}

// GetRun retrieves a single run by its ID.
func (s *Store) GetRun(ctx context.Context, runID string) (radar.Run, error) {
	query := `
SELECT id, status, window_from, window_to, posts_found, COALESCE(error_text, ''), started_at, finished_at
FROM runs
WHERE id = $1`
	var run radar.Run
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&run.ID,
		&run.Status,
		&run.WindowFrom,
		&run.WindowTo,
		&run.PostsFound,
		&run.ErrorText,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return radar.Run{}, radar.ErrNotFound
		}
		return radar.Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]radar.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT id, status, window_from, window_to, posts_found, COALESCE(error_text, ''), started_at, finished_at
FROM runs
ORDER BY started_at DESC
LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []radar.Run
	for rows.Next() {
		var run radar.Run
		err := rows.Scan(
			&run.ID,
			&run.Status,
			&run.WindowFrom,
			&run.WindowTo,
			&run.PostsFound,
			&run.ErrorText,
			&run.StartedAt,
			&run.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// InsertPosts persists the batch, one upsert per post keyed on the content
// fingerprint. A fingerprint collision means "already stored": the row is
// skipped, nothing is overwritten, and the inserted count does not move.
// Individual failures are logged and the rest of the batch continues.
func (s *Store) InsertPosts(ctx context.Context, runID string, posts []radar.Post) (radar.WriteResult, error) {
	var result radar.WriteResult
	query := `
INSERT INTO run_posts (
	run_id,
	source_id,
	title,
	content,
	author,
	url,
	created_at,
	content_hash,
	dedup_key,
	metadata
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)
ON CONFLICT (content_hash) DO NOTHING`

	for _, post := range posts {
		if reason := validateForWrite(post); reason != "" {
			result.Rejected++
			s.logger.Warn("post refused before write",
				zap.String("run_id", runID),
				zap.String("source_id", post.SourceID),
				zap.String("reason", reason),
			)
			continue
		}
		content := truncate(post.Content, s.maxContent)
		fingerprint := s.fp.Fingerprint(content, post.SourceID)
		dedupKey := post.Community + ":" + post.SourceID
		metadata, err := json.Marshal(map[string]any{
			"community":     post.Community,
			"score":         post.Score,
			"comment_count": post.CommentCount,
			"keywords":      post.MatchedKeywords,
		})
		if err != nil {
			result.Failed++
			s.logger.Error("marshal post metadata", zap.String("source_id", post.SourceID), zap.Error(err))
			continue
		}
		tag, err := s.pool.Exec(ctx, query,
			runID,
			post.SourceID,
			post.Title,
			content,
			post.Author,
			post.URL,
			post.CreatedAt,
			fingerprint,
			dedupKey,
			metadata,
		)
		if err != nil {
			result.Failed++
			s.logger.Error("insert post",
				zap.String("run_id", runID),
				zap.String("source_id", post.SourceID),
				zap.Error(err),
			)
			continue
		}
		if tag.RowsAffected() == 0 {
			result.Duplicates++
			continue
		}
		result.Inserted++
	}
	return result, nil
}

// ListPosts retrieves stored posts for a run, newest first.
func (s *Store) ListPosts(ctx context.Context, runID string) ([]radar.StoredPost, error) {
	query := `
SELECT id, run_id, source_id, title, content, author, url, created_at, content_hash, dedup_key, metadata, stored_at
FROM run_posts
WHERE run_id = $1
ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []radar.StoredPost
	for rows.Next() {
		var post radar.StoredPost
		var metadata []byte
		err := rows.Scan(
			&post.ID,
			&post.RunID,
			&post.SourceID,
			&post.Title,
			&post.Content,
			&post.Author,
			&post.URL,
			&post.CreatedAt,
			&post.Fingerprint,
			&post.DedupKey,
			&metadata,
			&post.StoredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &post.Metadata); err != nil {
				return nil, fmt.Errorf("decode post metadata: %w", err)
			}
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post rows: %w", err)
	}
	return posts, nil
}

// validateForWrite re-checks fields the admission pipeline already
// guarantees. The store refuses bad rows on its own so a pipeline regression
// cannot reintroduce unattributable posts.
func validateForWrite(post radar.Post) string {
	if strings.EqualFold(strings.TrimSpace(post.Author), "unknown") {
		return "generic unknown author"
	}
	if post.URL == "" {
		return "missing url"
	}
	if strings.Contains(strings.ToLower(post.URL), "/r/unknown") {
		return "unknown community in url"
	}
	if !permalinkShape.MatchString(post.URL) {
		return "url does not match permalink shape"
	}
	return ""
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
