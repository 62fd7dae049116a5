package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"tide-lang/internal/ast"
	"tide-lang/internal/config"
	"tide-lang/internal/runtime"
)

const replSource = "<repl>"

// session keeps one interpreter alive across REPL inputs and buffers
// lines until brackets balance.
type session struct {
	interp  *runtime.Interpreter
	out     io.Writer
	errs    reporter
	pending strings.Builder
}

func newSession(out, errOut io.Writer, color bool) *session {
	return &session{
		interp: runtime.NewInterpreter(out),
		out:    out,
		errs:   reporter{w: errOut, color: color},
	}
}

// feed adds a line. It returns true once the buffered input is complete
// and has been evaluated.
func (s *session) feed(line string) bool {
	if s.pending.Len() > 0 {
		s.pending.WriteByte('\n')
	}
	s.pending.WriteString(line)

	source := s.pending.String()
	if bracketDepth(source) > 0 {
		return false
	}
	s.pending.Reset()
	if strings.TrimSpace(source) != "" {
		s.eval(source)
	}
	return true
}

// reset drops any buffered partial input.
func (s *session) reset() {
	s.pending.Reset()
}

func (s *session) eval(source string) {
	prog, warnings, err := parseSource(source, replSource)
	s.errs.diagnostics(replSource, warnings)
	if err != nil {
		s.errs.failure(replSource, err)
		return
	}

	result, err := s.interp.Run(prog)
	if err != nil {
		s.errs.failure(replSource, err)
		return
	}
	if _, isNull := result.(runtime.NullVal); isNull || declares(prog) {
		return
	}
	fmt.Fprintln(s.out, s.errs.paint(colorGreen, result.String()))
}

// declares reports whether the input ends with a variable or function
// declaration, whose value is not echoed.
func declares(prog *ast.Program) bool {
	if len(prog.Body) == 0 {
		return false
	}
	switch prog.Body[len(prog.Body)-1].(type) {
	case *ast.VarDecl, *ast.FuncDecl:
		return true
	}
	return false
}

// command handles REPL meta commands such as exit and :env.
func (s *session) command(line string) (handled, quit bool) {
	switch strings.TrimSpace(line) {
	case "exit", ":quit", ":q":
		return true, true
	case ":env":
		for _, name := range s.interp.Env().Names() {
			value, _ := s.interp.Env().Lookup(name)
			fmt.Fprintf(s.out, "%s %s\n", s.errs.paint(colorCyan, name), value)
		}
		return true, false
	case ":reset":
		s.reset()
		return true, false
	}
	return false, false
}

// bracketDepth counts unclosed ( { [ outside of strings and comments.
func bracketDepth(source string) int {
	depth := 0
	var quote byte // 0 outside strings
	for i := 0; i < len(source); i++ {
		c := source[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '/':
			if i+1 < len(source) && source[i+1] == '*' {
				end := strings.Index(source[i+2:], "*/")
				if end < 0 {
					// unterminated comment keeps the input open
					return depth + 1
				}
				i += end + 3
			}
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		}
	}
	return depth
}

func cmdRepl(cfg *config.Config) {
	if !isTerminal(os.Stdin) {
		runBasicREPL(cfg)
		return
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cfg.Repl.Prompt,
		HistoryFile:       cfg.HistoryPath(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot start REPL: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	color := cfg.UseColor(isTerminal(os.Stdout))
	s := newSession(rl.Stdout(), rl.Stderr(), color)
	continuation := strings.Repeat(".", len(strings.TrimRight(cfg.Repl.Prompt, " "))) + " "

	fmt.Fprintln(rl.Stdout(), s.errs.paint(colorGray, "tide REPL. Type 'exit' or Ctrl-D to quit, ':env' to list globals."))

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.reset()
			rl.SetPrompt(cfg.Repl.Prompt)
			continue
		}
		if err != nil {
			// io.EOF
			return
		}

		if s.pending.Len() == 0 {
			if handled, quit := s.command(line); handled {
				if quit {
					return
				}
				continue
			}
		}

		if s.feed(line) {
			rl.SetPrompt(cfg.Repl.Prompt)
		} else {
			rl.SetPrompt(continuation)
		}
	}
}

// runBasicREPL reads from a pipe or file without line editing.
func runBasicREPL(cfg *config.Config) {
	s := newSession(os.Stdout, os.Stderr, cfg.UseColor(false))
	reader := bufio.NewReader(os.Stdin)
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" || err == nil {
			if s.pending.Len() == 0 {
				if handled, quit := s.command(line); handled {
					if quit {
						return
					}
					continue
				}
			}
			s.feed(line)
		}
		if err != nil {
			if s.pending.Len() > 0 {
				s.errs.failure(replSource, errors.New("unexpected end of input"))
			}
			return
		}
	}
}
