package command

import (
	"slices"
	"strings"
)

// Match is the result of Parse.
type Match struct {
	// Matched is false when no literal matched; Argument then holds the
	// trimmed input without namespace, which is not the same as a match with
	// an empty argument.
	Matched bool
	// Command is the canonical token: the literal plus its parameter, if any.
	Command    string
	Literal    string
	Service    string
	Param      string
	Argument   string
	Namespaced bool
}

// NeedsArgument reports a matched command that carries no text yet.
func (m Match) NeedsArgument() bool {
	return m.Matched && m.Argument == ""
}

// Selection is a command chosen from a menu rather than typed.
type Selection struct {
	Name    string
	Command string
	Service string
}

// Parse strips the optional namespace and matches the remaining text against
// the table. The only error is *ParamError, returned together with a Match
// describing the literal that was hit.
func (t *Table) Parse(text string) (Match, error) {
	text = strings.TrimSpace(text)
	body := text
	namespaced := false
	if t.namespace != "" && strings.HasPrefix(body, t.namespace) {
		body = strings.TrimSpace(strings.TrimPrefix(body, t.namespace))
		namespaced = true
	}

	for _, e := range t.entries {
		if !strings.HasPrefix(body, e.Literal) {
			continue
		}
		rest := body[len(e.Literal):]
		m := Match{
			Matched:    true,
			Command:    e.Literal,
			Literal:    e.Literal,
			Service:    e.Service,
			Namespaced: namespaced,
		}
		if e.Parameterized() {
			if rest == "" || rest[0] < '0' || rest[0] > '9' {
				return m, &ParamError{Literal: e.Literal, Allowed: slices.Clone(e.Params)}
			}
			m.Param = rest[:1]
			if !slices.Contains(e.Params, m.Param) {
				return m, &ParamError{Literal: e.Literal, Param: m.Param, Allowed: slices.Clone(e.Params)}
			}
			m.Command = e.Literal + m.Param
			rest = strings.TrimPrefix(rest[1:], ParamSeparator)
		}
		m.Argument = strings.TrimSpace(rest)
		return m, nil
	}
	return Match{Argument: body, Namespaced: namespaced}, nil
}

// IsCommandForm reports whether text is addressed to the command toolkit:
// it carries the namespace prefix or starts with a registered literal.
func (t *Table) IsCommandForm(text string) bool {
	text = strings.TrimSpace(text)
	if t.namespace != "" && strings.HasPrefix(text, t.namespace) {
		return true
	}
	for _, e := range t.entries {
		if strings.HasPrefix(text, e.Literal) {
			return true
		}
	}
	return false
}

// ParseSelection recognises "<marker><name>" as produced by a menu button.
// ok is false when the marker is absent. The bare name is lowercased and
// prefixed with "#" before validation, and must name a command without any
// trailing text.
func (t *Table) ParseSelection(text string) (sel Selection, ok bool, err error) {
	text = strings.TrimSpace(text)
	if t.selectionMarker == "" || !strings.HasPrefix(text, t.selectionMarker) {
		return Selection{}, false, nil
	}
	name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(text, t.selectionMarker)))
	sel = Selection{Name: name}
	if name == "" {
		return sel, true, ErrUnknownCommand
	}
	canonical := "#" + strings.TrimPrefix(name, "#")

	m, perr := t.Parse(canonical)
	if perr != nil {
		return sel, true, perr
	}
	if !m.Matched || m.Argument != "" || m.Namespaced {
		return sel, true, ErrUnknownCommand
	}
	sel.Command = m.Command
	sel.Service = m.Service
	return sel, true, nil
}
