package store

import (
	"context"
	"fmt"

	"github.com/roach88/morph/internal/engine"
	"github.com/roach88/morph/internal/lexicon"
)

// AnalysisRecord is one row of the analysis log.
type AnalysisRecord struct {
	ID      string   `json:"id"`
	Seq     int64    `json:"seq"`
	Word    string   `json:"word"`
	Status  string   `json:"status"`
	RuleSet string   `json:"rule_set,omitempty"`
	Rule    string   `json:"rule,omitempty"`
	Roots   []string `json:"roots"`
	// Split is "left+right" for compound results, empty otherwise.
	Split string `json:"split,omitempty"`
}

// RecordOf converts an engine result to its log record.
func RecordOf(res engine.Result) AnalysisRecord {
	rec := AnalysisRecord{
		ID:      res.ID,
		Seq:     res.Seq,
		Status:  string(res.Status),
		RuleSet: res.RuleSet,
		Rule:    res.Rule,
		Roots:   res.Roots,
	}
	if res.Word != nil {
		rec.Word = res.Word.Name()
	}
	if res.Split != nil {
		rec.Split = res.Split.Left + "+" + res.Split.Right
	}
	return rec
}

// PutWord writes the crushed form of w, replacing any stored entry with the
// same name, and makes w the cached word for that name.
func (s *Store) PutWord(ctx context.Context, w *lexicon.Word) error {
	entryJSON, err := marshalEntry(w.Crush())
	if err != nil {
		return fmt.Errorf("put word %q: %w", w.Name(), err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO words (name, entry)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			entry = excluded.entry,
			revision = words.revision + 1
	`, w.Name(), entryJSON)
	if err != nil {
		return fmt.Errorf("put word %q: %w", w.Name(), err)
	}

	s.mu.Lock()
	s.cacheWord(w.Name(), w, entryJSON)
	s.mu.Unlock()
	return nil
}

// ImportLexicon writes every word of lex in one transaction and returns the
// number written. The word cache is cleared afterwards.
func (s *Store) ImportLexicon(ctx context.Context, lex *lexicon.MemoryLexicon) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("import lexicon: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO words (name, entry)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			entry = excluded.entry,
			revision = words.revision + 1
	`)
	if err != nil {
		return 0, fmt.Errorf("import lexicon: prepare: %w", err)
	}
	defer stmt.Close()

	var n int
	var importErr error
	lex.Range(func(w *lexicon.Word) bool {
		entryJSON, err := marshalEntry(w.Crush())
		if err != nil {
			importErr = fmt.Errorf("import lexicon: word %q: %w", w.Name(), err)
			return false
		}
		if _, err := stmt.ExecContext(ctx, w.Name(), entryJSON); err != nil {
			importErr = fmt.Errorf("import lexicon: word %q: %w", w.Name(), err)
			return false
		}
		n++
		return true
	})
	if importErr != nil {
		return 0, importErr
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import lexicon: commit: %w", err)
	}

	s.mu.Lock()
	s.cache.Purge()
	clear(s.saved)
	clear(s.pinned)
	s.mu.Unlock()
	return n, nil
}

// WriteAnalysis appends an analysis record to the log.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteAnalysis(ctx context.Context, rec AnalysisRecord) error {
	rootsJSON, err := marshalRoots(rec.Roots)
	if err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses
		(id, seq, word, status, rule_set, rule, roots, split)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Seq,
		rec.Word,
		rec.Status,
		rec.RuleSet,
		rec.Rule,
		rootsJSON,
		rec.Split,
	)
	if err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}

	return nil
}
