package beek

import (
	"strings"

	"fortio.org/log"
)

// cmd is a REPL command.
type cmd int8

const (
	cmdNone cmd = iota
	cmdHelp
	cmdList
	cmdDelete
	cmdReset
	cmdClear
	cmdQuit
)

// commands maps each command word and alias to its command.
var commands = map[string]cmd{
	"help":   cmdHelp,
	"?":      cmdHelp,
	"list":   cmdList,
	"ls":     cmdList,
	"ll":     cmdList,
	"dir":    cmdList,
	"delete": cmdDelete,
	"del":    cmdDelete,
	"rm":     cmdDelete,
	"reset":  cmdReset,
	"clear":  cmdClear,
	"cls":    cmdClear,
	"quit":   cmdQuit,
	"exit":   cmdQuit,
}

const helptext = `commands: help list delete reset clear quit
  x := expr       assign the value of expr to x
  x = expr        define x as expr, recomputed whenever x is used
  f(a, b) = expr  define a function
  list            show user definitions
  delete x...     remove definitions
  reset           remove all user definitions
  clear           clear the screen
  quit            end the session
separate statements with ; and start comments with #`

// command recognizes a command statement: a command word followed by zero or
// more names. Anything else is an ordinary statement.
func command(stmt string) (cmd, []string, bool) {
	f := strings.Fields(stmt)
	if len(f) == 0 {
		return cmdNone, nil, false
	}
	c := commands[strings.ToLower(f[0])]
	if c == cmdNone {
		return cmdNone, nil, false
	}
	for _, a := range f[1:] {
		if !isIdent(a) {
			return cmdNone, nil, false
		}
	}
	return c, f[1:], true
}

// exec runs a command and returns its response line.
func (s *Session) exec(c cmd, args []string) (string, ResponseKind) {
	log.Debugf("command %d %v", c, args)
	switch c {
	case cmdHelp:
		return helptext, Normal
	case cmdList:
		return s.list(), Normal
	case cmdDelete:
		if len(args) == 0 {
			return "error: delete needs at least one name", Normal
		}
		var errs []string
		for _, name := range args {
			if err := s.env.Delete(name); err != nil {
				errs = append(errs, "error: "+err.Error())
			}
		}
		return strings.Join(errs, "\n"), Normal
	case cmdReset:
		s.env.Reset()
		return "", ResetEnvironment
	case cmdClear:
		return "", ClearScreen
	case cmdQuit:
		s.done = true
		return "", Normal
	default:
		panic("beek: invalid command")
	}
}

// list describes the result names and every user binding.
func (s *Session) list() string {
	ans, _ := s.env.Lookup(resultnames[0])
	lines := []string{strings.Join(resultnames[:], " = ") + " := " + FormatNumber(ans.Value)}
	for _, name := range s.env.UserNames() {
		lines = append(lines, s.env.Describe(name))
	}
	return strings.Join(lines, "\n")
}
