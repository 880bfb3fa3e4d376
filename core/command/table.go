// Package command recognises command literals embedded in free text.
//
// Literals are tried in a fixed priority order and matched by prefix; the
// first hit wins. A literal with Params is parameterized: it must be followed
// by exactly one digit from Params and an optional "|" separator, e.g.
// "#vajatts:2|สวัสดี".
package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/m3rciful/aiftbot/core/config"
)

// ErrUnknownCommand is returned when a menu selection names no registered command.
var ErrUnknownCommand = errors.New("command: unknown command")

// ParamSeparator optionally follows the parameter of a parameterized literal.
const ParamSeparator = "|"

// Entry is one registered command literal.
type Entry struct {
	Literal string
	Service string
	Params  []string
}

// Parameterized reports whether the literal expects a digit parameter.
func (e Entry) Parameterized() bool {
	return len(e.Params) > 0
}

// ParamError reports a parameterized literal followed by a missing or
// disallowed parameter.
type ParamError struct {
	Literal string
	Param   string
	Allowed []string
}

func (e *ParamError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("command %s: missing parameter, expected one of %s", e.Literal, strings.Join(e.Allowed, ","))
	}
	return fmt.Sprintf("command %s: parameter %q not in %s", e.Literal, e.Param, strings.Join(e.Allowed, ","))
}

// Table is an immutable, ordered set of command literals.
type Table struct {
	entries         []Entry
	namespace       string
	selectionMarker string
}

// NewTable copies entries into a Table. Order is match priority.
func NewTable(entries []Entry, namespace, selectionMarker string) (*Table, error) {
	t := &Table{
		namespace:       strings.TrimSpace(namespace),
		selectionMarker: strings.TrimSpace(selectionMarker),
		entries:         make([]Entry, 0, len(entries)),
	}
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		lit := strings.TrimSpace(e.Literal)
		if lit == "" {
			return nil, fmt.Errorf("command: entry %d has empty literal", i)
		}
		if _, dup := seen[lit]; dup {
			return nil, fmt.Errorf("command: duplicate literal %q", lit)
		}
		seen[lit] = struct{}{}
		t.entries = append(t.entries, Entry{
			Literal: lit,
			Service: e.Service,
			Params:  slices.Clone(e.Params),
		})
	}
	return t, nil
}

// Entries returns a copy of the registered entries in priority order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = Entry{Literal: e.Literal, Service: e.Service, Params: slices.Clone(e.Params)}
	}
	return out
}

// Lookup returns the entry registered for literal.
func (t *Table) Lookup(literal string) (Entry, bool) {
	for _, e := range t.entries {
		if e.Literal == literal {
			return e, true
		}
	}
	return Entry{}, false
}

// FromConfig builds the table described by the dispatch section.
func FromConfig(cfg config.DispatchConfig) (*Table, error) {
	entries := make([]Entry, 0, len(cfg.Commands))
	for _, c := range cfg.Commands {
		entries = append(entries, Entry{Literal: c.Literal, Service: c.Service, Params: c.Params})
	}
	return NewTable(entries, cfg.Namespace, cfg.SelectionMarker)
}

// Service resolves a canonical command token, such as "#vajatts:2", to its
// service identifier.
func (t *Table) Service(command string) (string, bool) {
	m, err := t.Parse(command)
	if err != nil || !m.Matched || m.Namespaced {
		return "", false
	}
	return m.Service, true
}
