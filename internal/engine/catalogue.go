package engine

import (
	"errors"

	"github.com/roach88/morph/internal/ir"
)

// DefaultCatalogue returns the operations tables may reference with
// "@name":
//
//	@keep            propose the matched word unchanged
//	@prefix(p)       propose p + stem
//	@undouble(sfx)   if the stem ends in a doubled letter, propose the stem
//	                 without its last letter + sfx
//	@restore(sfx)    propose prefix + stem + sfx, undoing a left kill
func DefaultCatalogue() ir.Catalogue {
	return ir.Catalogue{
		"keep":     opKeep,
		"prefix":   opPrefix,
		"undouble": opUndouble,
		"restore":  opRestore,
	}
}

func opKeep(ctx ir.OpContext, _ string) error {
	ctx.Propose(ctx.Word())
	return nil
}

func opPrefix(ctx ir.OpContext, arg string) error {
	if arg == "" {
		return errors.New("prefix: missing argument")
	}
	ctx.Propose(arg + ctx.Stem())
	return nil
}

func opUndouble(ctx ir.OpContext, arg string) error {
	stem := []rune(ctx.Stem())
	n := len(stem)
	if n < 2 || stem[n-1] != stem[n-2] {
		return nil
	}
	ctx.Propose(string(stem[:n-1]) + arg)
	return nil
}

func opRestore(ctx ir.OpContext, arg string) error {
	ctx.Propose(ctx.Prefix() + ctx.Stem() + arg)
	return nil
}
