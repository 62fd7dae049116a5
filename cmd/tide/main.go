// Command tide is the CLI entry point for the tide-lang toolchain.
//
// Usage:
//
//	tide tokens <file> [--json]    Print tokens
//	tide parse  <file> [--yaml]    Print the AST as JSON (or YAML)
//	tide fmt    <file>             Print the source in canonical form
//	tide run    <file>             Run a source file
//	tide repl                      Start interactive REPL
//
// Every command accepts --config <path>; otherwise tide.yaml is looked up
// in the working directory and then in the user config directory.
package main

import (
	"errors"
	"fmt"
	"os"

	"tide-lang/internal/ast"
	"tide-lang/internal/config"
	"tide-lang/internal/diag"
	"tide-lang/internal/lexer"
	"tide-lang/internal/parser"
	"tide-lang/internal/runtime"
)

func main() {
	args, configPath, err := splitConfigFlag(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg := loadConfig(configPath)

	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	command, rest := args[0], args[1:]
	if command == "repl" {
		cmdRepl(cfg)
		return
	}

	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "error: missing file argument")
		os.Exit(1)
	}
	filename := rest[0]
	errs := reporter{w: os.Stderr, color: cfg.UseColor(isTerminal(os.Stderr))}

	switch command {
	case "tokens":
		cmdTokens(readFile(filename), filename, hasFlag(rest, "--json"), errs)
	case "parse":
		cmdParse(readFile(filename), filename, hasFlag(rest, "--yaml"), errs)
	case "fmt":
		cmdFmt(readFile(filename), filename, errs)
	case "run":
		cmdRun(readFile(filename), filename, cfg, errs)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command '%s'\n", command)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  tide tokens <file> [--json]   Tokenize and print tokens")
	fmt.Fprintln(os.Stderr, "  tide parse  <file> [--yaml]   Parse and print AST (JSON by default)")
	fmt.Fprintln(os.Stderr, "  tide fmt    <file>            Print the formatted source")
	fmt.Fprintln(os.Stderr, "  tide run    <file>            Run a source file")
	fmt.Fprintln(os.Stderr, "  tide repl                     Start interactive REPL")
	fmt.Fprintln(os.Stderr, "Flags:")
	fmt.Fprintln(os.Stderr, "  --config <path>               Use this tide.yaml")
}

// splitConfigFlag removes --config <path> (or --config=<path>) from args.
func splitConfigFlag(args []string) ([]string, string, error) {
	var rest []string
	path := ""
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config":
			if i+1 >= len(args) {
				return nil, "", errors.New("--config needs a path")
			}
			path = args[i+1]
			i++
		case len(arg) > len("--config=") && arg[:len("--config=")] == "--config=":
			path = arg[len("--config="):]
		default:
			rest = append(rest, arg)
		}
	}
	return rest, path, nil
}

func loadConfig(path string) *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func readFile(filename string) string {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return string(source)
}

func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}

// parseSource runs the scanner and the parser. Scanner warnings are
// returned even when parsing fails.
func parseSource(source, filename string) (*ast.Program, []diag.Diagnostic, error) {
	l := lexer.New(source, filename)
	tokens, err := l.Tokenize()
	if err != nil {
		return nil, l.Warnings(), err
	}
	prog, err := parser.New(tokens).ParseProgram()
	return prog, l.Warnings(), err
}

// ---- tokens command ----

func cmdTokens(source, filename string, jsonMode bool, errs reporter) {
	l := lexer.New(source, filename)
	tokens, err := l.Tokenize()

	diags := l.Warnings()
	var d diag.Diagnostic
	if errors.As(err, &d) {
		diags = append(diags, d)
	}

	if jsonMode {
		printTokensJSON(tokens, diags)
	} else {
		printTokensText(os.Stdout, tokens)
		errs.diagnostics(filename, diags)
	}

	if err != nil {
		os.Exit(1)
	}
}

// ---- parse command ----

func cmdParse(source, filename string, yamlMode bool, errs reporter) {
	prog, warnings, err := parseSource(source, filename)

	diags := warnings
	var d diag.Diagnostic
	if errors.As(err, &d) {
		diags = append(diags, d)
	}

	output := map[string]interface{}{
		"ast":         nil,
		"diagnostics": diagsToSlice(diags),
	}
	if prog != nil {
		output["ast"] = ast.NodeToMap(prog)
	}
	if yamlMode {
		printYAML(output)
	} else {
		printJSON(output)
	}

	if err != nil {
		os.Exit(1)
	}
}

// ---- fmt command ----

func cmdFmt(source, filename string, errs reporter) {
	prog, warnings, err := parseSource(source, filename)
	errs.diagnostics(filename, warnings)
	if err != nil {
		errs.failure(filename, err)
		os.Exit(1)
	}
	fmt.Print(ast.Format(prog))
}

// ---- run command ----

func cmdRun(source, filename string, cfg *config.Config, errs reporter) {
	prog, warnings, err := parseSource(source, filename)
	errs.diagnostics(filename, warnings)
	if err != nil {
		errs.failure(filename, err)
		os.Exit(1)
	}

	interp := runtime.NewInterpreter(os.Stdout)
	result, err := interp.Run(prog)
	if err != nil {
		errs.failure(filename, err)
		os.Exit(1)
	}
	if _, isNull := result.(runtime.NullVal); cfg.Run.PrintResult && !isNull {
		fmt.Println(result)
	}
}
