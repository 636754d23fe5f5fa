package repl

import (
	"sort"
	"strings"
)

// builtins are handled by the loop itself.
var builtins = []string{"exit", "history", "quit"}

// Completer suggests command paths such as "metadata remove".
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over commands plus the loop builtins.
func NewCompleter(commands []string) *Completer {
	all := append(append([]string(nil), commands...), builtins...)
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns the commands that start with prefix. Whitespace in the
// prefix is normalized.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.Join(strings.Fields(prefix), " ")
	var out []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			out = append(out, cmd)
		}
	}
	return out
}
