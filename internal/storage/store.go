package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// CaptionCacheEntry represents a cached alt text result.
type CaptionCacheEntry struct {
	Caption   string
	Provider  string
	CreatedAt time.Time
}

// UploadRecord is one successfully published asset.
type UploadRecord struct {
	ID         int64
	RunID      string
	Note       string
	Asset      string
	Key        string
	URL        string
	Caption    string
	UploadedAt time.Time
}

// Store defines the interface for local persistence.
type Store interface {
	// Caption cache methods
	GetCaptionCache(imageHash, provider string) (*CaptionCacheEntry, error)
	SetCaptionCache(imageHash, provider, caption string) error

	// Upload history methods
	RecordUpload(rec *UploadRecord) error
	RecentUploads(limit int) ([]UploadRecord, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based store.
// The dbPath is the path to the SQLite database file; its directory is
// created if needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Configure SQLite with WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions (only works once the file exists)
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		log.Debug().Err(err).Str("dbPath", dbPath).Msg("failed to restrict database permissions")
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	captionCacheQuery := `
	CREATE TABLE IF NOT EXISTS caption_cache (
		image_hash TEXT NOT NULL,
		provider TEXT NOT NULL,
		caption TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (image_hash, provider)
	);
	`
	if _, err := s.db.Exec(captionCacheQuery); err != nil {
		return fmt.Errorf("failed to create caption_cache table: %w", err)
	}

	uploadsQuery := `
	CREATE TABLE IF NOT EXISTS uploads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		note TEXT NOT NULL,
		asset TEXT NOT NULL,
		object_key TEXT NOT NULL,
		url TEXT NOT NULL,
		caption TEXT,
		uploaded_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(uploadsQuery); err != nil {
		return fmt.Errorf("failed to create uploads table: %w", err)
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_uploads_uploaded_at ON uploads(uploaded_at)"); err != nil {
		return fmt.Errorf("failed to create uploads index: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetCaptionCache retrieves a cached caption by image hash and provider.
// Returns nil, nil if no cache entry exists.
func (s *SQLiteStore) GetCaptionCache(imageHash, provider string) (*CaptionCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry := CaptionCacheEntry{Provider: provider}
	err := s.db.QueryRow(
		"SELECT caption, created_at FROM caption_cache WHERE image_hash = ? AND provider = ?",
		imageHash, provider,
	).Scan(&entry.Caption, &entry.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query caption cache: %w", err)
	}
	return &entry, nil
}

// SetCaptionCache stores a caption for an image hash and provider.
func (s *SQLiteStore) SetCaptionCache(imageHash, provider, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO caption_cache (image_hash, provider, caption, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(image_hash, provider) DO UPDATE SET
			caption = excluded.caption,
			created_at = excluded.created_at
	`, imageHash, provider, caption, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save caption cache: %w", err)
	}
	return nil
}

// RecordUpload appends an entry to the upload history.
func (s *SQLiteStore) RecordUpload(rec *UploadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`
		INSERT INTO uploads (run_id, note, asset, object_key, url, caption, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.Note, rec.Asset, rec.Key, rec.URL, rec.Caption, rec.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// RecentUploads returns up to limit uploads, newest first.
func (s *SQLiteStore) RecentUploads(limit int) ([]UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, run_id, note, asset, object_key, url, caption, uploaded_at
		FROM uploads
		ORDER BY uploaded_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	var records []UploadRecord
	for rows.Next() {
		var rec UploadRecord
		var caption sql.NullString
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Note, &rec.Asset, &rec.Key, &rec.URL, &caption, &rec.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		rec.Caption = caption.String
		records = append(records, rec)
	}
	return records, rows.Err()
}
