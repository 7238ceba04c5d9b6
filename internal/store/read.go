package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/morph/internal/lexicon"
)

// LookupWord returns the word called name, reconstituting it from its
// stored entry on a cache miss. Category names the hierarchy no longer
// defines are dropped with a warning; the word is still returned.
//
// Repeated lookups of a name return the same *lexicon.Word while it is
// cached, and after eviction as long as it has changes PutWord has not
// written yet. An unchanged evicted word is rebuilt from its entry.
func (s *Store) LookupWord(ctx context.Context, name string) (*lexicon.Word, bool, error) {
	if w, ok := s.cache.Get(name); ok {
		return w, true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another lookup may have filled the cache while this one waited.
	if w, ok := s.cache.Get(name); ok {
		return w, true, nil
	}
	if w, ok := s.pinned[name]; ok {
		s.cacheWord(name, w, s.saved[name])
		return w, true, nil
	}

	var entryJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT entry FROM words WHERE name = ?
	`, name).Scan(&entryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup word %q: %w", name, err)
	}

	entry, err := unmarshalEntry(entryJSON)
	if err != nil {
		return nil, false, fmt.Errorf("lookup word %q: %w", name, err)
	}
	w, err := lexicon.Reconstitute(entry, s.h)
	if err != nil {
		s.logger.Warn("stored entry partly reconstituted",
			zap.String("word", name),
			zap.Error(err))
	}

	loaded, err := marshalEntry(w.Crush())
	if err != nil {
		return nil, false, fmt.Errorf("lookup word %q: %w", name, err)
	}
	s.cacheWord(name, w, loaded)
	return w, true, nil
}

// CountWords returns the number of stored words.
func (s *Store) CountWords(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return n, nil
}

// ReadAnalyses returns the logged analyses of word.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the word was never analyzed.
func (s *Store) ReadAnalyses(ctx context.Context, word string) ([]AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, word, status, rule_set, rule, roots, split
		FROM analyses
		WHERE word = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, word)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	records := []AnalysisRecord{}
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}

	return records, nil
}

// MaxSeq returns the highest logged sequence number, 0 for an empty log.
// Engines continue numbering from it with engine.WithSeqAfter.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM analyses`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq, nil
}

func scanAnalysis(rows *sql.Rows) (AnalysisRecord, error) {
	var rec AnalysisRecord
	var rootsJSON string
	if err := rows.Scan(&rec.ID, &rec.Seq, &rec.Word, &rec.Status, &rec.RuleSet, &rec.Rule, &rootsJSON, &rec.Split); err != nil {
		return AnalysisRecord{}, fmt.Errorf("scan analysis: %w", err)
	}
	roots, err := unmarshalRoots(rootsJSON)
	if err != nil {
		return AnalysisRecord{}, err
	}
	rec.Roots = roots
	return rec, nil
}
