package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/roach88/morph/internal/lexicon"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on analyses(word, seq)
const currentSchemaVersion = 1

// DefaultCacheSize is the number of reconstituted words kept in memory.
const DefaultCacheSize = 4096

// Store provides durable storage for lexicon words and analysis results.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db     *sql.DB
	h      *lexicon.Hierarchy
	logger *zap.Logger

	cache  *lru.Cache[string, *lexicon.Word]
	// mu serializes everything that can add to or evict from cache, so an
	// evicted word is pinned before another lookup can miss on its name.
	mu     sync.Mutex
	// saved holds, per cached name, the entry JSON last loaded or written.
	saved  map[string]string
	// pinned holds evicted words whose entry differs from saved. They stay
	// the word for their name until PutWord writes them.
	pinned map[string]*lexicon.Word
}

var _ lexicon.Lexicon = (*Store)(nil)

type config struct {
	cacheSize int
	logger    *zap.Logger
}

// Option configures a Store.
type Option func(*config)

// WithCacheSize sets the word cache capacity. Default: DefaultCacheSize.
func WithCacheSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

// WithLogger sets the logger for lookup failures. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Open creates or opens a SQLite database at the given path. Stored entries
// are reconstituted against h. Applies required pragmas and migrations
// automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string, h *lexicon.Hierarchy, opts ...Option) (*Store, error) {
	cfg := config{cacheSize: DefaultCacheSize, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{
		db:     db,
		h:      h,
		logger: cfg.logger,
		saved:  make(map[string]string),
		pinned: make(map[string]*lexicon.Word),
	}
	s.cache, err = lru.NewWithEvict[string, *lexicon.Word](cfg.cacheSize, s.evicted)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return s, nil
}

// evicted runs with s.mu held. A word changed since it was last loaded or
// written is pinned; an unchanged one is dropped.
func (s *Store) evicted(name string, w *lexicon.Word) {
	cur, err := marshalEntry(w.Crush())
	if err == nil && cur == s.saved[name] {
		delete(s.saved, name)
		return
	}
	s.pinned[name] = w
	s.logger.Debug("pinned evicted word with unsaved changes", zap.String("word", name))
}

// cacheWord makes w the word for name. s.mu must be held.
func (s *Store) cacheWord(name string, w *lexicon.Word, entryJSON string) {
	delete(s.pinned, name)
	s.saved[name] = entryJSON
	s.cache.Add(name, w)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// GetWord implements lexicon.Lexicon. A lookup that fails is logged and
// reported as a missing word.
func (s *Store) GetWord(name string) (*lexicon.Word, bool) {
	w, ok, err := s.LookupWord(context.Background(), name)
	if err != nil {
		s.logger.Warn("word lookup failed", zap.String("word", name), zap.Error(err))
		return nil, false
	}
	return w, ok
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes the analysis log by word for ReadAnalyses.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_analyses_word
		ON analyses(word, seq)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
