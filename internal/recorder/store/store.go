// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     store
// Description: SQLite persistence for titled recordings
// Author:      Mike Stoffels with Claude
// Created:     2025-12-09
// License:     MIT
// ============================================================================

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/msto63/meetrec/internal/recorder/transcribe"
	"github.com/msto63/meetrec/pkg/core/apperr"
	"github.com/msto63/meetrec/pkg/core/logging"
)

// Recording is a saved clip with its transcript
type Recording struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	AudioRef        string             `json:"audio_ref"` // source clip on save, stored copy afterwards
	Transcription   string             `json:"transcription"`
	Topics          []transcribe.Topic `json:"topics"`
	Summary         []string           `json:"summary,omitempty"`
	DurationSeconds float64            `json:"duration_seconds"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Store persists recordings
type Store interface {
	Save(ctx context.Context, rec Recording) (string, error)
	List(ctx context.Context, limit int) ([]*Recording, error)
	Get(ctx context.Context, id string) (*Recording, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Config holds configuration for the SQLite store
type Config struct {
	Path     string
	AudioDir string
	Logger   *logging.Logger
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Path:     "./data/recordings.db",
		AudioDir: "./data/recordings",
	}
}

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db       *sql.DB
	mu       sync.RWMutex
	audioDir string
	logger   *logging.Logger
}

// New opens (or creates) the recordings database
func New(cfg Config) (*SQLiteStore, error) {
	defaults := DefaultConfig()
	if cfg.Path == "" {
		cfg.Path = defaults.Path
	}
	if cfg.AudioDir == "" {
		cfg.AudioDir = defaults.AudioDir
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New("store")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeConfigError, "failed to create database directory")
	}
	if err := os.MkdirAll(cfg.AudioDir, 0755); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeConfigError, "failed to create audio directory")
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeConfigError, "failed to open database")
	}

	s := &SQLiteStore{db: db, audioDir: cfg.AudioDir, logger: cfg.Logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, apperr.Wrap(err, apperr.CodeConfigError, "failed to initialize schema")
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recordings (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		audio_path TEXT NOT NULL,
		transcription TEXT NOT NULL DEFAULT '',
		topics TEXT,
		summary TEXT,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_recordings_created ON recordings(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// AudioFileName returns the stored file name for a title
func AudioFileName(title string, at time.Time) string {
	return fmt.Sprintf("%d-%s.wav", at.UnixMilli(), unsafeChars.ReplaceAllString(title, "_"))
}

// Save copies the clip into the audio directory and inserts a row
func (s *SQLiteStore) Save(ctx context.Context, rec Recording) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Title == "" {
		return "", apperr.New(apperr.CodeInvalidInput, "title is required")
	}
	if rec.AudioRef == "" {
		return "", saveFailed(nil, "recording has no audio")
	}

	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.ID = uuid.New().String()

	dest := filepath.Join(s.audioDir, AudioFileName(rec.Title, rec.CreatedAt))
	if err := copyFile(rec.AudioRef, dest); err != nil {
		return "", saveFailed(err, "failed to store audio")
	}

	topicsJSON, err := json.Marshal(nonNilTopics(rec.Topics))
	if err != nil {
		os.Remove(dest)
		return "", saveFailed(err, "failed to encode topics")
	}
	var summary sql.NullString
	if len(rec.Summary) > 0 {
		summaryJSON, err := json.Marshal(rec.Summary)
		if err != nil {
			os.Remove(dest)
			return "", saveFailed(err, "failed to encode summary")
		}
		summary = sql.NullString{String: string(summaryJSON), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recordings (id, title, audio_path, transcription, topics, summary, duration, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Title, dest, rec.Transcription, string(topicsJSON), summary, rec.DurationSeconds, rec.CreatedAt)
	if err != nil {
		os.Remove(dest)
		return "", saveFailed(err, "failed to insert recording")
	}

	s.logger.Info("Recording saved", "id", rec.ID, "title", rec.Title, "path", dest)
	return rec.ID, nil
}

// List returns recordings newest first
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, audio_path, transcription, topics, summary, duration, created_at
		FROM recordings
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, saveFailed(err, "failed to list recordings")
	}
	defer rows.Close()

	var recordings []*Recording
	for rows.Next() {
		rec, err := s.scanRecording(rows)
		if err != nil {
			return nil, saveFailed(err, "failed to scan recording")
		}
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, saveFailed(err, "failed to list recordings")
	}

	return recordings, nil
}

// Get retrieves a recording by ID
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, audio_path, transcription, topics, summary, duration, created_at
		FROM recordings WHERE id = ?
	`, id)

	rec, err := s.scanRecording(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.Newf(apperr.CodeNotFound, "recording not found: %s", id)
		}
		return nil, saveFailed(err, "failed to get recording")
	}
	return rec, nil
}

// Delete removes a recording and its audio file
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var path string
	err := s.db.QueryRowContext(ctx, `SELECT audio_path FROM recordings WHERE id = ?`, id).Scan(&path)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperr.Newf(apperr.CodeNotFound, "recording not found: %s", id)
		}
		return saveFailed(err, "failed to delete recording")
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, id); err != nil {
		return saveFailed(err, "failed to delete recording")
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove audio file", "path", path, "error", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecording reads one row. Undecodable topics or summary are logged
// and left empty so the recording itself stays readable.
func (s *SQLiteStore) scanRecording(row scanner) (*Recording, error) {
	var rec Recording
	var topicsJSON, summaryJSON sql.NullString

	err := row.Scan(&rec.ID, &rec.Title, &rec.AudioRef, &rec.Transcription,
		&topicsJSON, &summaryJSON, &rec.DurationSeconds, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if topicsJSON.Valid {
		if err := json.Unmarshal([]byte(topicsJSON.String), &rec.Topics); err != nil {
			s.logger.Warn("Failed to decode stored topics", "id", rec.ID, "error", err)
			rec.Topics = nil
		}
	}
	if summaryJSON.Valid {
		if err := json.Unmarshal([]byte(summaryJSON.String), &rec.Summary); err != nil {
			s.logger.Warn("Failed to decode stored summary", "id", rec.ID, "error", err)
			rec.Summary = nil
		}
	}
	rec.Topics = nonNilTopics(rec.Topics)

	return &rec, nil
}

func nonNilTopics(topics []transcribe.Topic) []transcribe.Topic {
	if topics == nil {
		return []transcribe.Topic{}
	}
	return topics
}

func saveFailed(err error, reason string) error {
	if err == nil {
		return apperr.New(apperr.CodeSaveFailed, "Save failed").WithReason(reason)
	}
	return apperr.Wrap(err, apperr.CodeSaveFailed, "Save failed").WithReason(reason + ": " + err.Error())
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
