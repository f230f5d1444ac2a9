package diag

import (
	"os"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/checker"
	"github.com/angellang/angelc/internal/parser"
	"github.com/angellang/angelc/internal/types"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

// TestRenderTypeErrorSnapshot snapshot-tests the rendered multi-line
// diagnostic for a TypeError.
func TestRenderTypeErrorSnapshot(t *testing.T) {
	src := "let x: U8 = 300\n"
	err := &checker.Error{
		Kind:     checker.TypeError,
		Pos:      ast.Pos{File: "test.angel", Line: 1, Column: 13},
		Message:  "300 is not in range [0; 255]",
		Expected: &types.BuiltinType{Name: types.U8},
		Actual:   &types.BuiltinType{Name: types.I32},
	}
	report := FromCheckerError(err, src)
	snaps.MatchSnapshot(t, Render(report, false))
}

// TestRenderWrongArgumentsIncludesDiff exercises the go-difflib-backed
// suggestion between the attempted call and the nearest candidate.
func TestRenderWrongArgumentsIncludesDiff(t *testing.T) {
	err := &checker.Error{
		Kind:       checker.WrongArguments,
		Pos:        ast.Pos{File: "test.angel", Line: 4, Column: 1},
		Message:    "no matching initializer for Point",
		Candidates: []string{"(x y)", "(x y z)"},
		Attempted:  "(x)",
	}
	report := FromCheckerError(err, "Point(x: 1)\n")
	require.NotEmpty(t, report.Diff)
	rendered := Render(report, false)
	assert.Contains(t, rendered, "diff:")
}

func TestRenderSyntaxErrorHasSourceExcerpt(t *testing.T) {
	perr := &parser.Error{
		Message: "unexpected token",
		Pos:     ast.Pos{File: "test.angel", Line: 2, Column: 5},
		Line:    "    ++",
	}
	report := FromSyntaxError(perr)
	rendered := Render(report, false)
	assert.Contains(t, rendered, "SyntaxError: unexpected token")
	assert.Contains(t, rendered, "    ++")
}
