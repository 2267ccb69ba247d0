// Package resultstore persists diff-profiling results to sqlite so verdicts
// and their statistics can be inspected and compared across runs.
package resultstore

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/depthcheck/internal/profile"
)

//go:embed schema.sql
var schemaSQL string

// ProfileRecord is one persisted profiling outcome: the statistics of a
// single frame's difference sequence plus the thresholds it was judged
// against and the verdict.
type ProfileRecord struct {
	ProfileID     string  `json:"profile_id"`
	Fixture       string  `json:"fixture"`
	FrameIndex    int     `json:"frame_index"`
	Pixels        int     `json:"pixels"`
	Mean          float64 `json:"mean"`
	StdDev        float64 `json:"std_dev"`
	NonZeroCount  int     `json:"non_zero_count"`
	FirstIndex    int     `json:"first_index"`
	FirstValue    float64 `json:"first_value"`
	MaxIndex      int     `json:"max_index"`
	MaxValue      float64 `json:"max_value"`
	MaxAllowedStd float64 `json:"max_allowed_std"`
	Outlier       float64 `json:"outlier"`
	Pass          bool    `json:"pass"`
	CreatedAt     int64   `json:"created_at"`
}

// NewProfileRecord builds a record from a profiling result.
func NewProfileRecord(fixture string, frameIdx int, r *profile.Result, maxStd, outlier float64) *ProfileRecord {
	return &ProfileRecord{
		Fixture:       fixture,
		FrameIndex:    frameIdx,
		Pixels:        r.Pixels,
		Mean:          r.Mean,
		StdDev:        r.StdDev,
		NonZeroCount:  r.NonZeroCount,
		FirstIndex:    r.FirstIndex,
		FirstValue:    r.FirstValue,
		MaxIndex:      r.MaxIndex,
		MaxValue:      r.MaxValue,
		MaxAllowedStd: maxStd,
		Outlier:       outlier,
		Pass:          r.Pass,
	}
}

// Store provides persistence for profiling results.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply result store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert persists a new profiling record. If ProfileID is empty a UUID is
// generated; if CreatedAt is zero the current time is used.
func (s *Store) Insert(r *ProfileRecord) error {
	if r.ProfileID == "" {
		r.ProfileID = uuid.New().String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UnixNano()
	}

	_, err := s.db.Exec(`
		INSERT INTO profile_results (
			profile_id, fixture, frame_index, pixels, mean, std_dev,
			non_zero_count, first_index, first_value, max_index, max_value,
			max_allowed_std, outlier, pass, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ProfileID, r.Fixture, r.FrameIndex, r.Pixels, r.Mean, r.StdDev,
		r.NonZeroCount, r.FirstIndex, r.FirstValue, r.MaxIndex, r.MaxValue,
		r.MaxAllowedStd, r.Outlier, r.Pass, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile record: %w", err)
	}
	return nil
}

// ListByFixture returns all records for a fixture, newest first.
func (s *Store) ListByFixture(fixture string) ([]*ProfileRecord, error) {
	rows, err := s.db.Query(`
		SELECT profile_id, fixture, frame_index, pixels, mean, std_dev,
		       non_zero_count, first_index, first_value, max_index, max_value,
		       max_allowed_std, outlier, pass, created_at
		FROM profile_results
		WHERE fixture = ?
		ORDER BY created_at DESC`, fixture)
	if err != nil {
		return nil, fmt.Errorf("query profile records: %w", err)
	}
	defer rows.Close()

	var records []*ProfileRecord
	for rows.Next() {
		r := &ProfileRecord{}
		if err := rows.Scan(
			&r.ProfileID, &r.Fixture, &r.FrameIndex, &r.Pixels, &r.Mean, &r.StdDev,
			&r.NonZeroCount, &r.FirstIndex, &r.FirstValue, &r.MaxIndex, &r.MaxValue,
			&r.MaxAllowedStd, &r.Outlier, &r.Pass, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan profile record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
