package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"tide-lang/internal/diag"
	"tide-lang/internal/runtime"
	"tide-lang/internal/token"
)

// ---- ANSI colors ----

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// reporter writes diagnostics and runtime errors, coloured when enabled.
type reporter struct {
	w     io.Writer
	color bool
}

func (r reporter) paint(color, text string) string {
	if !r.color {
		return text
	}
	return color + text + colorReset
}

func (r reporter) diagnostic(filename string, d diag.Diagnostic) {
	color := colorRed
	if d.Severity == diag.Warning {
		color = colorYellow
	}
	fmt.Fprintf(r.w, "%s: %s\n", filename, r.paint(color, d.String()))
}

func (r reporter) diagnostics(filename string, diags []diag.Diagnostic) {
	for _, d := range diags {
		r.diagnostic(filename, d)
	}
}

// failure reports any error from the pipeline in its most specific form.
func (r reporter) failure(filename string, err error) {
	var d diag.Diagnostic
	if errors.As(err, &d) {
		r.diagnostic(filename, d)
		return
	}
	var raised *runtime.RaiseError
	if errors.As(err, &raised) {
		fmt.Fprintf(r.w, "%s: %s\n", filename, r.paint(colorBold+colorRed, raised.Error()))
		return
	}
	fmt.Fprintf(r.w, "%s: %s\n", filename, r.paint(colorRed, err.Error()))
}

// ---- structured output ----

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: JSON encoding failed: %v\n", err)
		os.Exit(1)
	}
}

func printYAML(v interface{}) {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: YAML encoding failed: %v\n", err)
		os.Exit(1)
	}
	enc.Close()
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		result[i] = map[string]interface{}{
			"code":     d.Code,
			"severity": d.Severity.String(),
			"message":  d.Message,
			"line":     d.Span.Start.Line,
			"column":   d.Span.Start.Column,
			"offset":   d.Span.Start.Offset,
		}
		if d.Hint != "" {
			result[i]["hint"] = d.Hint
		}
	}
	return result
}

// ---- token output ----

func printTokensText(w io.Writer, tokens []token.Token) {
	for _, tok := range tokens {
		fmt.Fprintf(w, "%-12s %-20s %d:%d\n", tok.Kind, tok.Lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
}

func printTokensJSON(tokens []token.Token, diags []diag.Diagnostic) {
	type tokenJSON struct {
		Kind   string `json:"kind"`
		Lexeme string `json:"lexeme"`
		Line   int    `json:"line"`
		Column int    `json:"column"`
		Offset int    `json:"offset"`
	}

	toks := make([]tokenJSON, 0, len(tokens))
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:   tok.Kind.String(),
			Lexeme: tok.Lexeme,
			Line:   tok.Span.Start.Line,
			Column: tok.Span.Start.Column,
			Offset: tok.Span.Start.Offset,
		})
	}

	printJSON(map[string]interface{}{
		"tokens":      toks,
		"diagnostics": diagsToSlice(diags),
	})
}
