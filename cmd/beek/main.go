package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"fortio.org/log"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/peterh/liner"

	"github.com/zephyrtronium/beek"
)

func main() {
	var (
		inname, script, histname string
		verbose, echo, version   bool
		given                    []beek.EnvOption
	)
	addgiven := func(s string) error {
		opt, err := parseGiven(s)
		if err != nil {
			return err
		}
		given = append(given, opt)
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file to run as a script (- for stdin)")
	flag.StringVar(&script, "e", "", "statements to run as a script")
	flag.StringVar(&histname, "history", defaultHistory(), "history file for interactive mode")
	flag.Func("given", "name=value variable definition (any number of times)", addgiven)
	flag.BoolVar(&verbose, "v", false, "log bindings and evaluation steps")
	flag.BoolVar(&echo, "echo", false, "print each script line before its response")
	flag.BoolVar(&version, "version", false, "print the version and exit")
	flag.Parse()
	if version {
		fmt.Println(beek.Version())
		return
	}
	if verbose {
		log.SetLogLevel(log.Debug)
	}
	if script != "" && inname != "" {
		log.Fatalf("-e and -in are mutually exclusive")
	}

	s := beek.NewSession(given...)
	switch {
	case script != "":
		runScript(s, strings.NewReader(script), echo)
	case flag.NArg() > 0:
		runScript(s, strings.NewReader(strings.Join(flag.Args(), "\n")), echo)
	case inname != "" && inname != "-":
		f, err := os.Open(inname)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer f.Close()
		runScript(s, f, echo)
	case inname == "-", !interactive():
		runScript(s, os.Stdin, echo)
	default:
		repl(s, histname)
	}
}

// parseGiven parses a name=value definition into an immediate variable. The
// value may be any expression of constants and natives.
func parseGiven(s string) (beek.EnvOption, error) {
	d := strings.SplitN(s, "=", 2)
	if len(d) != 2 {
		return nil, fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
	}
	name, val := strings.TrimSpace(d[0]), strings.TrimSpace(d[1])
	st, err := beek.ParseStatement(name + " := " + val)
	if err != nil {
		return nil, fmt.Errorf("bad definition %q: %w", s, err)
	}
	if st.Kind != beek.StmtImmediate {
		return nil, fmt.Errorf("bad variable name %q", name)
	}
	env := beek.NewEnv()
	if b, ok := env.Lookup(name); ok {
		return nil, fmt.Errorf("cannot set %s %q", b.Kind, name)
	}
	v, err := env.Reduce(st.Expr)
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", name, err)
	}
	return beek.SetVar(name, v), nil
}

// interactive reports whether stdin is a terminal.
func interactive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0 && liner.TerminalSupported()
}

func defaultHistory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".beek_history")
}

// runScript evaluates each line of in and prints the responses.
func runScript(s *beek.Session, in io.Reader, echo bool) {
	sc := bufio.NewScanner(in)
	for sc.Scan() && !s.Done() {
		line := sc.Text()
		if echo {
			fmt.Println(">", line)
		}
		r := s.Evaluate(line)
		if r.Message != "" {
			fmt.Println(r.Message)
		}
	}
	if err := sc.Err(); err != nil {
		log.Fatalf("reading input: %v", err)
	}
}

// repl runs an interactive session with line editing and completion.
func repl(s *beek.Session, histname string) {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetWordCompleter(func(line string, pos int) (string, []string, string) {
		r := []rune(line)
		start := pos
		for start > 0 && isWordRune(r[start-1]) {
			start--
		}
		head, prefix := string(r[:start]), string(r[start:pos])
		return head, complete(s.CompletionCandidates(), prefix), string(r[pos:])
	})
	if histname != "" {
		if f, err := os.Open(histname); err == nil {
			_, _ = ln.ReadHistory(f)
			f.Close()
		}
		defer func() {
			f, err := os.Create(histname)
			if err != nil {
				log.Warnf("saving history: %v", err)
				return
			}
			_, _ = ln.WriteHistory(f)
			f.Close()
		}()
	}

	fmt.Println(beek.Version(), "- type help for commands")
	for !s.Done() {
		line, err := ln.Prompt("> ")
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
				log.Errf("reading input: %v", err)
			}
			fmt.Println()
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		r := s.Evaluate(line)
		if r.Kind == beek.ClearScreen {
			fmt.Print("\x1bc")
		}
		if r.Message != "" {
			fmt.Println(r.Message)
		}
	}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// complete finds the candidates starting with prefix. If none do, it falls
// back to fuzzy matches so that a misspelled name still completes.
func complete(cands []string, prefix string) []string {
	if prefix == "" {
		return nil
	}
	var r []string
	for _, c := range cands {
		if strings.HasPrefix(c, prefix) {
			r = append(r, c)
		}
	}
	if len(r) != 0 {
		return r
	}
	return fuzzy.FindFold(prefix, cands)
}
