// Package replloop implements the interactive session behind `angelc repl`: a
// persistent analyzer session that accumulates declarations across lines,
// printing accumulated target text on `:gencpp`. Line editing and history
// go through liner; the session state itself is just the clarify/analyze
// pipeline run incrementally.
package replloop

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/angellang/angelc/internal/analyzer"
	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/checker"
	"github.com/angellang/angelc/internal/clarifier"
	"github.com/angellang/angelc/internal/config"
	"github.com/angellang/angelc/internal/diag"
	"github.com/angellang/angelc/internal/emit"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/estimator"
	"github.com/angellang/angelc/internal/parser"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

// Loop is a REPL session: one Env/Checker/Estimator/Analyzer quadruple plus
// the accumulated source lines, so `:gencpp` can re-render everything
// analyzed so far and `:undo` can drop the most recent accepted line.
type Loop struct {
	cfg   config.Config
	lines []string // accepted source lines, one per successful input
	env   *env.Env
	an    *analyzer.Analyzer
	file  *ast.File // accumulated, already-analyzed declarations
}

// New creates an empty REPL session. Mangling is always off in REPL mode,
// regardless of cfg.Mangle, so user-visible names stay stable across
// prompts.
func New(cfg config.Config) *Loop {
	est := estimator.New()
	chk := checker.New(est)
	return &Loop{
		cfg:  cfg,
		env:  env.New(),
		an:   analyzer.New(chk, est),
		file: &ast.File{Path: "<repl>"},
	}
}

// Start runs the read-eval-print loop against in/out until an exit command
// or EOF. Commands: `:gencpp`, `:clear`, `:undo`,
// `:exit`/`:quit`/`:q`/`:e`.
func (l *Loop) Start(in io.Reader, out io.Writer) int {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(false)

	fmt.Fprintln(out, bold("angelc"), dim("REPL — :help for commands"))

	prompt := l.cfg.Prompt
	if prompt == "" {
		prompt = "angel> "
	}

	for {
		input, err := line.Prompt(prompt)
		if err == io.EOF {
			fmt.Fprintln(out, green("\nbye"))
			return 0
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			switch strings.Fields(input)[0] {
			case ":exit", ":quit", ":q", ":e":
				fmt.Fprintln(out, green("bye"))
				return 0
			case ":gencpp":
				fmt.Fprint(out, emit.New(l.an).File(l.file))
			case ":clear":
				l.reset()
				fmt.Fprintln(out, dim("buffer cleared"))
			case ":undo":
				l.undo(out)
			case ":help":
				fmt.Fprintln(out, ":gencpp  print accumulated translation")
				fmt.Fprintln(out, ":clear   drop buffer")
				fmt.Fprintln(out, ":undo    drop last line")
				fmt.Fprintln(out, ":exit/:quit/:q/:e   terminate")
			default:
				fmt.Fprintf(out, "%s: unknown command %s\n", red("error"), input)
			}
			continue
		}

		l.eval(input, out)
	}
}

// eval parses, clarifies, and analyzes one line, appending it to the
// session on success. Errors are caught at this boundary and printed; the
// REPL keeps accepting input.
func (l *Loop) eval(src string, out io.Writer) {
	file, err := parser.ParseFile(src, "<repl>")
	if err != nil {
		if perr, ok := err.(*parser.Error); ok {
			fmt.Fprint(out, diag.Render(diag.FromSyntaxError(perr), l.cfg.Color))
			return
		}
		fmt.Fprintf(out, "%s: %v\n", red("error"), err)
		return
	}
	file = clarifier.New(src, false).ClarifyFile(file)

	for _, d := range file.Decls {
		if err := l.an.AnalyzeTopLevel(d, l.env); err != nil {
			if cerr, ok := err.(*checker.Error); ok {
				fmt.Fprint(out, diag.Render(diag.FromCheckerError(cerr, src), l.cfg.Color))
			} else {
				fmt.Fprintf(out, "%s: %v\n", red("error"), err)
			}
			return
		}
	}

	l.lines = append(l.lines, src)
	l.file.Decls = append(l.file.Decls, file.Decls...)
	fmt.Fprintln(out, green("ok"))
}

func (l *Loop) reset() {
	l.lines = nil
	l.file = &ast.File{Path: "<repl>"}
	est := estimator.New()
	chk := checker.New(est)
	l.env = env.New()
	l.an = analyzer.New(chk, est)
}

// undo drops the last accepted line and replays everything before it
// through a fresh session, since the environment/checker have no
// per-declaration rollback of their own; undo discards the session and
// rebuilds rather than trying to unwind in place.
func (l *Loop) undo(out io.Writer) {
	if len(l.lines) == 0 {
		fmt.Fprintln(out, dim("nothing to undo"))
		return
	}
	kept := l.lines[:len(l.lines)-1]
	l.reset()
	for _, src := range kept {
		l.eval(src, io.Discard)
	}
	fmt.Fprintln(out, dim("last line dropped"))
}
