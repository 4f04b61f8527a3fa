package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// AnalysisSnapshot is one persisted analysis result. Payload is the
// msgpack-encoded full result; score and grade are duplicated as columns
// so history listings never need to decode the blob.
type AnalysisSnapshot struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Score     int       `json:"score"`
	Grade     string    `json:"grade"`
	Payload   []byte    `json:"-"`
}

// AnalysisRepository stores analysis snapshots
type AnalysisRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *sql.DB, log zerolog.Logger) *AnalysisRepository {
	return &AnalysisRepository{
		db:  db,
		log: log.With().Str("repo", "analysis").Logger(),
	}
}

// Save inserts a snapshot
func (r *AnalysisRepository) Save(snapshot AnalysisSnapshot) error {
	_, err := r.db.Exec(`
		INSERT INTO analysis_snapshots (id, created_at, score, grade, payload)
		VALUES (?, ?, ?, ?, ?)
	`, snapshot.ID, snapshot.CreatedAt.UTC().Format(time.RFC3339), snapshot.Score, snapshot.Grade, snapshot.Payload)
	if err != nil {
		return fmt.Errorf("failed to save analysis snapshot: %w", err)
	}
	return nil
}

// Recent returns the newest snapshots, newest first.
func (r *AnalysisRepository) Recent(limit int) ([]AnalysisSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, created_at, score, grade, payload
		FROM analysis_snapshots
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []AnalysisSnapshot
	for rows.Next() {
		var s AnalysisSnapshot
		var createdAt string
		if err := rows.Scan(&s.ID, &createdAt, &s.Score, &s.Grade, &s.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan analysis snapshot: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			s.CreatedAt = t
		}
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis snapshots: %w", err)
	}

	return snapshots, nil
}

// Prune deletes snapshots older than maxAge and returns the count removed.
func (r *AnalysisRepository) Prune(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)

	result, err := r.db.Exec(`
		DELETE FROM analysis_snapshots WHERE created_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune analysis snapshots: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}
	return removed, nil
}

// Count returns the total number of stored snapshots.
func (r *AnalysisRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM analysis_snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analysis snapshots: %w", err)
	}
	return count, nil
}
