// Package diag renders checker/parser errors as the multi-line diagnostic
// for the CLI and REPL: a headline naming the error kind, one or two
// lines of elaboration, and an excerpt of the offending source line.
package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/checker"
	"github.com/angellang/angelc/internal/parser"
)

// Code is a stable diagnostic code, one per checker.Kind plus a handful of
// driver-level codes not owned by the checker.
type Code string

const (
	CodeSyntaxError            Code = "SYN001"
	CodeTypeError              Code = "TYP001"
	CodeNameError              Code = "TYP002"
	CodeFieldError             Code = "TYP003"
	CodeConstructorError       Code = "TYP004"
	CodeSubscriptError         Code = "TYP005"
	CodeWrongArguments         Code = "TYP006"
	CodeNoncallableCall        Code = "TYP007"
	CodeUnsatisfiedWhereClause Code = "TYP008"
	CodeConstantReassignment   Code = "TYP009"
	CodePrivateFieldsNoInit    Code = "TYP010"
	CodeMissingInterfaceMember Code = "TYP011"
	CodeInterfaceFieldError    Code = "TYP012"
	CodeInterfaceMethodError   Code = "TYP013"
	CodeDivByZero              Code = "TYP014"
)

var kindCodes = map[checker.Kind]Code{
	checker.TypeError:                            CodeTypeError,
	checker.NameError:                            CodeNameError,
	checker.FieldError:                           CodeFieldError,
	checker.ConstructorError:                     CodeConstructorError,
	checker.SubscriptError:                       CodeSubscriptError,
	checker.WrongArguments:                       CodeWrongArguments,
	checker.NoncallableCall:                      CodeNoncallableCall,
	checker.UnsatisfiedWhereClause:               CodeUnsatisfiedWhereClause,
	checker.ConstantReassignment:                 CodeConstantReassignment,
	checker.PrivateFieldsNotInitializedAndNoInit: CodePrivateFieldsNoInit,
	checker.MissingInterfaceMember:               CodeMissingInterfaceMember,
	checker.InterfaceFieldError:                  CodeInterfaceFieldError,
	checker.InterfaceMethodError:                 CodeInterfaceMethodError,
	checker.DivByZero:                            CodeDivByZero,
}

// Report is the rendered diagnostic: headline, elaboration, source excerpt,
// and (for WrongArguments/interface errors) the candidate list, plus an
// optional suggestion.
type Report struct {
	Code       Code
	Headline   string
	Elaborate  []string
	Pos        ast.Pos
	SourceLine string
	Candidates []string
	Suggestion string
	Diff       string // unified diff of the attempted call vs. the nearest candidate
}

// FromCheckerError builds a Report from a *checker.Error, pulling the
// offending line out of src by 1-indexed line number.
func FromCheckerError(err *checker.Error, src string) *Report {
	code, ok := kindCodes[err.Kind]
	if !ok {
		code = CodeTypeError
	}
	r := &Report{
		Code:       code,
		Headline:   fmt.Sprintf("%s: %s", err.Kind, err.Message),
		Pos:        err.Pos,
		SourceLine: lineAt(src, err.Pos.Line),
		Candidates: err.Candidates,
	}
	if err.Expected != nil && err.Actual != nil {
		r.Elaborate = append(r.Elaborate, fmt.Sprintf("expected %s, got %s", err.Expected, err.Actual))
	}
	if err.Member != "" {
		if err.Origin != "" {
			r.Elaborate = append(r.Elaborate, fmt.Sprintf("member %q (inherited from %s)", err.Member, err.Origin))
		} else {
			r.Elaborate = append(r.Elaborate, fmt.Sprintf("member %q", err.Member))
		}
	}
	if err.Kind == checker.WrongArguments {
		r.Suggestion = nearestArity(err.Candidates)
		r.Diff = nearestArgDiff(err.Attempted, err.Candidates)
	}
	return r
}

// nearestArgDiff renders a unified diff between the attempted call's
// argument list and whichever candidate has the fewest differing lines,
// using go-difflib the same way go-snaps renders snapshot mismatches.
func nearestArgDiff(attempted string, candidates []string) string {
	if attempted == "" || len(candidates) == 0 {
		return ""
	}
	var best string
	bestCost := -1
	for _, cand := range candidates {
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(attempted),
			B:        difflib.SplitLines(cand),
			FromFile: "attempted",
			ToFile:   "candidate",
			Context:  1,
		}
		text, err := difflib.GetUnifiedDiffString(diff)
		if err != nil {
			continue
		}
		cost := strings.Count(text, "\n")
		if bestCost == -1 || cost < bestCost {
			bestCost = cost
			best = text
		}
	}
	return best
}

// FromSyntaxError builds a Report from the parser's *parser.Error.
func FromSyntaxError(err *parser.Error) *Report {
	return &Report{
		Code:       CodeSyntaxError,
		Headline:   "SyntaxError: " + err.Message,
		Pos:        err.Pos,
		SourceLine: err.Line,
	}
}

func lineAt(src string, line int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// nearestArity turns the candidate list into a suggestion naming every
// candidate; it does not single one out.
func nearestArity(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	return fmt.Sprintf("did you mean one of %s?", strings.Join(candidates, ", "))
}

// Render formats the report as a multi-line diagnostic (red headline, cyan
// location marker, yellow suggestion).
func Render(r *Report, useColor bool) string {
	headline := color.New(color.FgRed, color.Bold).Sprint(r.Headline)
	excerptMarker := color.New(color.FgCyan).Sprint("-->")
	if !useColor {
		color.NoColor = true
		defer func() { color.NoColor = false }()
		headline = r.Headline
		excerptMarker = "-->"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", r.Code, headline)
	fmt.Fprintf(&b, "  %s %s:%d:%d\n", excerptMarker, r.Pos.File, r.Pos.Line, r.Pos.Column)
	if r.SourceLine != "" {
		fmt.Fprintf(&b, "  %4d | %s\n", r.Pos.Line, r.SourceLine)
	}
	for _, line := range r.Elaborate {
		fmt.Fprintf(&b, "  = %s\n", line)
	}
	if len(r.Candidates) > 0 {
		fmt.Fprintf(&b, "  = candidates: %s\n", strings.Join(r.Candidates, ", "))
	}
	if r.Suggestion != "" {
		suggestion := r.Suggestion
		if useColor {
			suggestion = color.New(color.FgYellow).Sprint(r.Suggestion)
		}
		fmt.Fprintf(&b, "  = suggestion: %s\n", suggestion)
	}
	if r.Diff != "" {
		fmt.Fprintf(&b, "  = diff:\n")
		for _, line := range strings.Split(strings.TrimRight(r.Diff, "\n"), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String()
}
