// Package clarifier performs the first pipeline rewrite: a single
// pre-order traversal turning a raw, parser-produced AST into the clarified
// form the estimator, checker, and analyzer consume. It disambiguates bare
// `Name` nodes into their builtin category variants and mangles
// user-defined names.
package clarifier

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/angellang/angelc/internal/ast"
)

// builtinFuncs is the closed set of builtin function names.
var builtinFuncs = map[string]bool{"print": true, "read": true}

// Clarifier rewrites a raw AST in place, field by field, in a single
// pre-order pass. Mangling is disabled in REPL mode so names stay stable
// across prompts.
type Clarifier struct {
	mangle bool
	hash   string
}

// New creates a Clarifier over src, the full source text of the
// compilation unit, used to derive the per-unit mangling hash. Pass
// mangle=false for REPL mode.
func New(src string, mangle bool) *Clarifier {
	c := &Clarifier{mangle: mangle}
	if mangle {
		sum := md5.Sum([]byte(src))
		c.hash = hex.EncodeToString(sum[:])[:6]
	}
	return c
}

// ClarifyFile rewrites every top-level declaration of file in place and
// returns it.
func (c *Clarifier) ClarifyFile(file *ast.File) *ast.File {
	for i, d := range file.Decls {
		file.Decls[i] = c.stmt(d)
	}
	return file
}

// mangled produces the angel_<hash>_<name> form, or the bare name when
// mangling is disabled.
func (c *Clarifier) mangled(name string) string {
	if !c.mangle {
		return name
	}
	return "angel_" + c.hash + "_" + name
}

// clarifyName tries each builtin category in fixed order, first match
// wins; remaining Names are mangled.
//
// A Name matching the BuiltinType category cannot itself become an
// *ast.BuiltinType here: that node is a TypeExpr, not an Expr, so a bare
// builtin-type name used in value position (e.g. the `Optional` qualifier
// in `Optional.Some(1)`) stays an *ast.Name, just never mangled. The
// Field/FunctionCall rewrites below recognize that unmangled spelling
// directly; that is what "resolves to the builtin Optional type" means
// for a pre-resolution structural pass.
func (c *Clarifier) clarifyName(n *ast.Name) ast.Expr {
	switch {
	case isBuiltinTypeName(n.Member):
		return &ast.Name{Member: n.Member, Pos: n.Pos}
	case builtinFuncs[n.Member]:
		return &ast.BuiltinFunc{Name: n.Member, Pos: n.Pos}
	case n.Member == "true":
		return &ast.Literal{Kind: ast.BoolLit, Bool: true, Pos: n.Pos}
	case n.Member == "false":
		return &ast.Literal{Kind: ast.BoolLit, Bool: false, Pos: n.Pos}
	case n.Member == "self":
		return &ast.SpecialName{Pos: n.Pos}
	case ast.SpecialMethodNames[n.Member]:
		return &ast.Name{Member: n.Member, Pos: n.Pos}
	default:
		return &ast.Name{Member: c.mangled(n.Member), Unmangled: n.Member, Mangled: c.mangle, Pos: n.Pos}
	}
}
