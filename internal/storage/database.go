package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/studyparse/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// ErrNotFound is returned by deletes that matched no row.
var ErrNotFound = errors.New("not found")

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
	// Now is the clock used for new items and scan timestamps.
	Now func() time.Time
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db, Now: time.Now}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) now() time.Time {
	return db.Now().UTC()
}

// Item is a saved study record together with its review state.
type Item struct {
	Hash        string
	ContentType domain.ContentType
	Title       string
	Topic       string
	Payload     json.RawMessage
	Stability   float64
	Difficulty  float64
	DueDate     time.Time
	LastReview  sql.NullTime // Use NullTime for nullable last_review
	State       int          // 0: New, 1: Learning, 2: Review
	SourceID    sql.NullInt64
}

const itemColumns = `hash, content_type, title, topic, payload, stability, difficulty, due_date, last_review, state, source_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (Item, error) {
	var (
		it      Item
		ct      string
		payload string
	)
	err := row.Scan(
		&it.Hash,
		&ct,
		&it.Title,
		&it.Topic,
		&payload,
		&it.Stability,
		&it.Difficulty,
		&it.DueDate,
		&it.LastReview,
		&it.State,
		&it.SourceID,
	)
	it.ContentType = domain.ContentType(ct)
	it.Payload = json.RawMessage(payload)
	return it, err
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	defer rows.Close()
	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// InsertItem inserts a new item into the database.
// It also sets initial FSRS values: the item is new and due immediately.
// A sourceID of 0 stores an item saved directly rather than from a source.
func (db *DB) InsertItem(item Item, sourceID int64) error {
	_, err := db.conn.Exec(`
		INSERT INTO items (hash, content_type, title, topic, payload, stability, difficulty, due_date, state, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.Hash,
		string(item.ContentType),
		item.Title,
		item.Topic,
		string(item.Payload),
		0.0,      // Initial stability
		0.0,      // Initial difficulty
		db.now(), // Initial due date (today)
		0,        // Initial state: New
		sql.NullInt64{Int64: sourceID, Valid: sourceID != 0},
	)
	if err != nil {
		return fmt.Errorf("failed to insert item %s: %w", item.Hash, err)
	}
	return nil
}

// FindItemByHash retrieves an item from the database by its hash.
func (db *DB) FindItemByHash(hash string) (*Item, error) {
	row := db.conn.QueryRow(`SELECT `+itemColumns+` FROM items WHERE hash = ?`, hash)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Item not found
		}
		return nil, fmt.Errorf("failed to find item by hash %s: %w", hash, err)
	}
	return &it, nil
}

// UpdateItemState updates an existing item's FSRS state and review information.
func (db *DB) UpdateItemState(it *Item) error {
	_, err := db.conn.Exec(`
		UPDATE items
		SET stability = ?, difficulty = ?, due_date = ?, last_review = ?, state = ?
		WHERE hash = ?
	`,
		it.Stability,
		it.Difficulty,
		it.DueDate.UTC(),
		it.LastReview,
		it.State,
		it.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to update item state for hash %s: %w", it.Hash, err)
	}
	return nil
}

// ListItems returns the saved items of one content type, or of every type
// when ct is empty, oldest due first.
func (db *DB) ListItems(ct domain.ContentType) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any
	if ct != "" {
		query += ` WHERE content_type = ?`
		args = append(args, string(ct))
	}
	query += ` ORDER BY due_date, hash`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// DueItems returns up to limit items due at or before now, most overdue
// first. A limit of 0 returns every due item.
func (db *DB) DueItems(now time.Time, limit int) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE due_date <= ? ORDER BY due_date, hash`
	args := []any{now.UTC()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get due items: %w", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get due items: %w", err)
	}
	return items, nil
}

// GetItemsBySourceID retrieves all items associated with a specific source ID.
func (db *DB) GetItemsBySourceID(sourceID int64) ([]Item, error) {
	rows, err := db.conn.Query(`SELECT `+itemColumns+` FROM items WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for source ID %d: %w", sourceID, err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for source ID %d: %w", sourceID, err)
	}
	return items, nil
}

// DeleteItemByHash removes an item from the database by its hash.
func (db *DB) DeleteItemByHash(hash string) error {
	_, err := db.conn.Exec(`
		DELETE FROM items
		WHERE hash = ?
	`, hash)
	if err != nil {
		return fmt.Errorf("failed to delete item with hash %s: %w", hash, err)
	}
	return nil
}

// InsertReviewLog records a single review of an item.
func (db *DB) InsertReviewLog(log domain.ReviewLog) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_logs (item_hash, reviewed_at, grade)
		VALUES (?, ?, ?)
	`, log.ItemHash, log.Timestamp.UTC(), log.Grade)
	if err != nil {
		return fmt.Errorf("failed to insert review log for %s: %w", log.ItemHash, err)
	}
	return nil
}

// ReviewLogs returns the review history of an item, oldest first.
func (db *DB) ReviewLogs(hash string) ([]domain.ReviewLog, error) {
	rows, err := db.conn.Query(`
		SELECT item_hash, reviewed_at, grade
		FROM review_logs WHERE item_hash = ?
		ORDER BY reviewed_at, id
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get review logs for %s: %w", hash, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var l domain.ReviewLog
		if err := rows.Scan(&l.ItemHash, &l.Timestamp, &l.Grade); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// Source types.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// Source represents an item source, either a local path or a Git URL.
type Source struct {
	ID          int64        `json:"id"`
	Path        string       `json:"path"`
	Type        string       `json:"type"`
	LastScanned sql.NullTime `json:"-"`
}

// InsertSource inserts a new source path into the database and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type)
		VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources from the database.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned
		FROM sources ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, db.now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source together with the items it produced.
func (db *DB) DeleteSource(sourceID int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete of source ID %d: %w", sourceID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM items WHERE source_id = ?`, sourceID); err != nil {
		return fmt.Errorf("failed to delete items of source ID %d: %w", sourceID, err)
	}
	res, err := tx.Exec(`DELETE FROM sources WHERE id = ?`, sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete source ID %d: %w", sourceID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("source ID %d: %w", sourceID, ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete of source ID %d: %w", sourceID, err)
	}
	return nil
}
