// Command angelc is the compiler CLI: one positional source-file
// argument translates that file and writes the target text to stdout; with
// no argument it launches the REPL. Exit code is 0 on success, 1 on any
// reported error.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/angellang/angelc/internal/analyzer"
	"github.com/angellang/angelc/internal/checker"
	"github.com/angellang/angelc/internal/clarifier"
	"github.com/angellang/angelc/internal/config"
	"github.com/angellang/angelc/internal/diag"
	"github.com/angellang/angelc/internal/emit"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/estimator"
	"github.com/angellang/angelc/internal/parser"
	"github.com/angellang/angelc/internal/replloop"
)

var (
	Version = "dev"

	red  = color.New(color.FgRed).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		versionFlag = flag.Bool("version", false, "print version information")
		helpFlag    = flag.Bool("help", false, "show help")
		noMangle    = flag.Bool("no-mangle", false, "disable name mangling")
		noColor     = flag.Bool("no-color", false, "disable colored diagnostics")
		configPath  = flag.String("config", "", "path to a YAML config file")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println(bold("angelc"), Version)
		return 0
	}
	if *helpFlag {
		printHelp()
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		return 1
	}
	if *noMangle {
		cfg.Mangle = false
	}
	if *noColor {
		cfg.Color = false
	}

	if flag.NArg() == 0 {
		return replloop.New(cfg).Start(os.Stdin, os.Stdout)
	}

	// Subcommands dispatched by flag.Arg(0).
	switch flag.Arg(0) {
	case "repl":
		return replloop.New(cfg).Start(os.Stdin, os.Stdout)
	case "run":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing file argument\nUsage: angelc run <file.angel>\n", red("error"))
			return 1
		}
		return compileFile(flag.Arg(1), cfg)
	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing path pattern\nUsage: angelc check <pattern...>\n", red("error"))
			return 1
		}
		return checkFiles(flag.Args()[1:], cfg)
	default:
		// Bare `angelc file.angel` (no subcommand) still works.
		return compileFile(flag.Arg(0), cfg)
	}
}

// checkFiles expands glob patterns with doublestar, then clarify+analyze (but do
// not emit) each resolved file, reporting pass/fail per file and returning
// 1 if any failed.
func checkFiles(patterns []string, cfg config.Config) int {
	files, err := config.ExpandSources(patterns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "%s: no files matched %v\n", red("error"), patterns)
		return 1
	}

	green := color.New(color.FgGreen).SprintFunc()
	status := 0
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
			status = 1
			continue
		}

		file, perr := parser.ParseFile(string(src), path)
		if perr != nil {
			reportParseOrAnalysisError(path, perr, string(src), cfg)
			status = 1
			continue
		}
		file = clarifier.New(string(src), cfg.Mangle).ClarifyFile(file)

		est := estimator.New()
		chk := checker.New(est)
		an := analyzer.New(chk, est)
		if aerr := an.AnalyzeFile(file, env.New()); aerr != nil {
			reportParseOrAnalysisError(path, aerr, string(src), cfg)
			status = 1
			continue
		}
		fmt.Printf("%s %s\n", green("ok"), path)
	}
	return status
}

func reportParseOrAnalysisError(path string, err error, src string, cfg config.Config) {
	fmt.Printf("%s %s\n", red("FAIL"), path)
	switch e := err.(type) {
	case *parser.Error:
		fmt.Fprint(os.Stderr, diag.Render(diag.FromSyntaxError(e), cfg.Color))
	case *checker.Error:
		fmt.Fprint(os.Stderr, diag.Render(diag.FromCheckerError(e, src), cfg.Color))
	default:
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
	}
}

func compileFile(path string, cfg config.Config) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		return 1
	}

	file, perr := parser.ParseFile(string(src), path)
	if perr != nil {
		if syn, ok := perr.(*parser.Error); ok {
			fmt.Fprint(os.Stderr, diag.Render(diag.FromSyntaxError(syn), cfg.Color))
		} else {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), perr)
		}
		return 1
	}

	file = clarifier.New(string(src), cfg.Mangle).ClarifyFile(file)

	est := estimator.New()
	chk := checker.New(est)
	an := analyzer.New(chk, est)
	e := env.New()

	if aerr := an.AnalyzeFile(file, e); aerr != nil {
		if cerr, ok := aerr.(*checker.Error); ok {
			fmt.Fprint(os.Stderr, diag.Render(diag.FromCheckerError(cerr, string(src)), cfg.Color))
		} else {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), aerr)
		}
		return 1
	}

	fmt.Print(emit.New(an).File(file))
	return 0
}

func printHelp() {
	fmt.Println(bold("angelc") + " — compiles a source file to C++, or launches the REPL")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  angelc [file.angel]          translate file.angel and print the result")
	fmt.Println("  angelc run <file.angel>      same as above, explicit subcommand")
	fmt.Println("  angelc check <pattern...>    type-check (no emission) every file matching pattern(s)")
	fmt.Println("  angelc repl                  start the REPL")
	fmt.Println("  angelc                       start the REPL")
	fmt.Println()
	flag.PrintDefaults()
}
