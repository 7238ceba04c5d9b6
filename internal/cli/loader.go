package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"
	"go.uber.org/zap"

	"github.com/roach88/morph/internal/compiler"
	"github.com/roach88/morph/internal/engine"
	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/lexicon"
)

// Inputs are the compiled tables and seed lexicon a command runs against.
type Inputs struct {
	Tables   *ir.Tables
	Warnings []compiler.Warning
	// Lexicon is empty when no lexicon path was given.
	Lexicon *lexicon.MemoryLexicon
}

// LoadError represents an error that occurred while loading tables or a
// lexicon.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadTables compiles the tables at path against the default operation
// catalogue. Rule warnings are logged to logger and returned.
func LoadTables(path string, logger *zap.Logger) (*ir.Tables, []compiler.Warning, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("tables not found: %s", path)}
		}
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing tables: %v", err)}
	}

	tables, warnings, err := compiler.LoadTables(path, compiler.Options{
		Catalogue: engine.DefaultCatalogue(),
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, convertCompileError(err, path)
	}
	return tables, warnings, nil
}

// LoadInputs compiles the tables at tablesPath and seeds a lexicon from
// lexiconPath against their hierarchy.
func LoadInputs(tablesPath, lexiconPath string, logger *zap.Logger) (*Inputs, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tables, warnings, err := LoadTables(tablesPath, logger)
	if err != nil {
		return nil, err
	}

	in := &Inputs{Tables: tables, Warnings: warnings, Lexicon: lexicon.NewMemoryLexicon()}
	if lexiconPath == "" {
		return in, nil
	}
	if _, err := os.Stat(lexiconPath); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("lexicon not found: %s", lexiconPath)}
	}
	lex, err := lexicon.LoadSeedFile(lexiconPath, tables.Hierarchy())
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLexicon, Message: err.Error()}
	}
	in.Lexicon = lex
	logger.Debug("lexicon loaded", zap.String("path", lexiconPath), zap.Int("words", lex.Len()))
	return in, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeLexicon     = "E008" // Lexicon seed could not be read

	// Table compilation errors
	ErrCodeUnknownCategory = "E101" // Rule set names an undeclared category
	ErrCodePenalty         = "E102" // Rule set penalty out of range
	ErrCodeDefaultSet      = "E103" // Default rule set not defined
	ErrCodeCategoryList    = "E104" // Inflection or name category undeclared
	ErrCodeCompound        = "E105" // Compound section malformed
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeLoadFailed
	case field == "default":
		return ErrCodeDefaultSet
	case field == "inflections", field == "names":
		return ErrCodeCategoryList
	case strings.HasPrefix(field, "compound"):
		return ErrCodeCompound
	case strings.HasPrefix(field, "ruleset.") && strings.HasSuffix(field, ".penalty"):
		return ErrCodePenalty
	case strings.HasPrefix(field, "ruleset.") &&
		(strings.HasSuffix(field, ".category") || strings.HasSuffix(field, ".root")):
		return ErrCodeUnknownCategory
	default:
		return ErrCodeGeneric
	}
}
