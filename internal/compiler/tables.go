package compiler

import (
	"fmt"
	"maps"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"go.uber.org/zap"

	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/lexicon"
)

// Options configures table compilation.
type Options struct {
	// Catalogue resolves "@name" actions. Nil means no operations.
	Catalogue ir.Catalogue
	// Logger receives one warn entry per rule warning. Nil means no logging.
	Logger *zap.Logger
	// Atoms interns category names. Nil gives the tables a private table.
	Atoms *lexicon.AtomTable
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

type categorySource struct {
	Root bool     `json:"root"`
	Subs []string `json:"subs"`
}

type ruleSetSource struct {
	Suffix   string            `json:"suffix"`
	Category string            `json:"category"`
	Root     string            `json:"root"`
	Penalty  int               `json:"penalty"`
	Classes  map[string]string `json:"classes"`
	Rules    []string          `json:"rules"`
}

type compoundSource struct {
	Rules           []string `json:"rules"`
	LeftExceptions  []string `json:"leftExceptions"`
	RightExceptions []string `json:"rightExceptions"`
	IllegalPrefixes []string `json:"illegalPrefixes"`
	IllegalSuffixes []string `json:"illegalSuffixes"`
	IllegalRoots    []string `json:"illegalRoots"`
	Vowels          string   `json:"vowels"`
	MinLength       int      `json:"minLength"`
}

// CompileTablesSource compiles CUE table source text. filename is used only
// in error positions.
func CompileTablesSource(filename string, src []byte, opts Options) (*ir.Tables, []Warning, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompileTables(v, opts)
}

// CompileTables builds immutable tables from a CUE value with the fields
// classes, categories, inflections, names, ruleset, default, rule and
// compound. Rule-level problems come back as warnings; structural problems
// (bad types, unknown category or default references) as an error.
func CompileTables(v cue.Value, opts Options) (*ir.Tables, []Warning, error) {
	if err := v.Err(); err != nil {
		return nil, nil, formatCUEError(err)
	}
	log := opts.logger()

	var classes map[string]string
	if err := decodeOptional(v, "classes", &classes); err != nil {
		return nil, nil, err
	}

	h, err := compileCategories(v, opts.Atoms)
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	record := func(ws []Warning) {
		for _, w := range ws {
			log.Warn("rule compiled with fallback",
				zap.String("code", w.Code),
				zap.String("ruleset", w.RuleSet),
				zap.String("rule", w.Rule),
				zap.String("detail", w.Message))
		}
		warnings = append(warnings, ws...)
	}

	sets, err := compileRuleSets(v, h, classes, opts.Catalogue, record)
	if err != nil {
		return nil, nil, err
	}

	var defName string
	if err := decodeOptional(v, "default", &defName); err != nil {
		return nil, nil, err
	}
	var def *ir.RuleSet
	var ordered []*ir.RuleSet
	for _, s := range sets {
		if s.Name == defName {
			def = s
			continue
		}
		ordered = append(ordered, s)
	}
	if defName != "" && def == nil {
		return nil, nil, &CompileError{
			Field:   "default",
			Message: fmt.Sprintf("default rule set %q is not defined", defName),
			Pos:     v.LookupPath(cue.ParsePath("default")).Pos(),
		}
	}

	named, err := compileNamedRules(v, classes, opts.Catalogue, record)
	if err != nil {
		return nil, nil, err
	}

	compound, err := compileCompound(v, h, record)
	if err != nil {
		return nil, nil, err
	}

	return ir.NewTables(h, ordered, def, named, compound), warnings, nil
}

func decodeOptional(v cue.Value, path string, out any) error {
	field := v.LookupPath(cue.ParsePath(path))
	if !field.Exists() {
		return nil
	}
	if err := field.Decode(out); err != nil {
		return formatCUEError(err)
	}
	return nil
}

func compileCategories(v cue.Value, atoms *lexicon.AtomTable) (*lexicon.Hierarchy, error) {
	h := lexicon.NewHierarchy(atoms)

	catsVal := v.LookupPath(cue.ParsePath("categories"))
	if catsVal.Exists() {
		iter, err := catsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			var src categorySource
			if err := iter.Value().Decode(&src); err != nil {
				return nil, formatCUEError(err)
			}
			if src.Root {
				h.DefineRoot(iter.Label(), src.Subs...)
			} else {
				h.Define(iter.Label(), src.Subs...)
			}
		}
	}

	h.AssignBits()
	return h, nil
}

func compileRuleSets(v cue.Value, h *lexicon.Hierarchy, classes map[string]string, cat ir.Catalogue, record func([]Warning)) ([]*ir.RuleSet, error) {
	setsVal := v.LookupPath(cue.ParsePath("ruleset"))
	if !setsVal.Exists() {
		return nil, nil
	}
	iter, err := setsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var sets []*ir.RuleSet
	for iter.Next() {
		name := iter.Label()
		val := iter.Value()

		var src ruleSetSource
		if err := val.Decode(&src); err != nil {
			return nil, formatCUEError(err)
		}

		set := &ir.RuleSet{Name: name, Suffix: src.Suffix, Penalty: lexicon.Level(src.Penalty)}
		if !set.Penalty.Valid() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("ruleset.%s.penalty", name),
				Message: fmt.Sprintf("penalty %d out of range 0-3", src.Penalty),
				Pos:     val.Pos(),
			}
		}
		if set.Category, err = lookupCategory(h, src.Category, "ruleset."+name+".category", val); err != nil {
			return nil, err
		}
		if set.Root, err = lookupCategory(h, src.Root, "ruleset."+name+".root", val); err != nil {
			return nil, err
		}

		merged := maps.Clone(classes)
		if merged == nil {
			merged = make(map[string]string)
		}
		maps.Copy(merged, src.Classes)

		for i, expr := range src.Rules {
			rule, ws := CompileRule(expr, RuleContext{
				RuleSet:   name,
				Index:     i,
				Classes:   merged,
				Catalogue: cat,
			})
			record(ws)
			if rule != nil {
				set.Rules = append(set.Rules, rule)
			}
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func lookupCategory(h *lexicon.Hierarchy, name, field string, at cue.Value) (*lexicon.Category, error) {
	if name == "" {
		return nil, nil
	}
	c, ok := h.Lookup(name)
	if !ok {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unknown category %q", name),
			Pos:     at.Pos(),
		}
	}
	return c, nil
}

func compileNamedRules(v cue.Value, classes map[string]string, cat ir.Catalogue, record func([]Warning)) (map[string]*ir.Rule, error) {
	rulesVal := v.LookupPath(cue.ParsePath("rule"))
	named := make(map[string]*ir.Rule)
	if !rulesVal.Exists() {
		return named, nil
	}
	iter, err := rulesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		expr, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		name := iter.Label()
		rule, ws := CompileRule(expr, RuleContext{
			RuleSet:   "rule",
			Name:      name,
			Classes:   classes,
			Catalogue: cat,
		})
		record(ws)
		if rule != nil {
			named[name] = rule
		}
	}
	return named, nil
}

func compileCompound(v cue.Value, h *lexicon.Hierarchy, record func([]Warning)) (*ir.CompoundConfig, error) {
	cfg := &ir.CompoundConfig{}

	var inflections []string
	if err := decodeOptional(v, "inflections", &inflections); err != nil {
		return nil, err
	}
	for _, name := range inflections {
		c, err := lookupCategory(h, name, "inflections", v.LookupPath(cue.ParsePath("inflections")))
		if err != nil {
			return nil, err
		}
		cfg.Inflections = append(cfg.Inflections, c)
	}

	var names string
	if err := decodeOptional(v, "names", &names); err != nil {
		return nil, err
	}
	c, err := lookupCategory(h, names, "names", v.LookupPath(cue.ParsePath("names")))
	if err != nil {
		return nil, err
	}
	cfg.Names = c

	var src compoundSource
	if err := decodeOptional(v, "compound", &src); err != nil {
		return nil, err
	}
	for _, expr := range src.Rules {
		rule, ws := CompileCompoundRule(expr, h)
		record(ws)
		if rule != nil {
			cfg.Rules = append(cfg.Rules, rule)
		}
	}
	cfg.LeftExceptions = stringSet(src.LeftExceptions)
	cfg.RightExceptions = stringSet(src.RightExceptions)
	cfg.IllegalRoots = stringSet(src.IllegalRoots)
	cfg.IllegalPrefixes = src.IllegalPrefixes
	cfg.IllegalSuffixes = src.IllegalSuffixes
	cfg.Vowels = src.Vowels
	cfg.MinLength = src.MinLength
	return cfg, nil
}

func stringSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}
