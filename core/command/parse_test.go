package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/aiftbot/core/config"
)

func defaultTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := FromConfig(config.DefaultDispatch())
	require.NoError(t, err)
	return tbl
}

func TestParseCommandWithArgument(t *testing.T) {
	tbl := defaultTable(t)

	m, err := tbl.Parse("#g2p สวัสดี")
	require.NoError(t, err)
	assert.True(t, m.Matched)
	assert.Equal(t, "#g2p", m.Command)
	assert.Equal(t, "g2p", m.Service)
	assert.Equal(t, "สวัสดี", m.Argument)
	assert.False(t, m.Namespaced)
}

func TestParseStripsNamespace(t *testing.T) {
	tbl := defaultTable(t)

	for _, in := range []string{"#nlp#tner นายกรัฐมนตรี", "#nlp #tner นายกรัฐมนตรี"} {
		m, err := tbl.Parse(in)
		require.NoError(t, err, in)
		assert.True(t, m.Matched, in)
		assert.True(t, m.Namespaced, in)
		assert.Equal(t, "tner", m.Service, in)
		assert.Equal(t, "นายกรัฐมนตรี", m.Argument, in)
	}
}

func TestParseNamespaceWithoutCommand(t *testing.T) {
	tbl := defaultTable(t)

	m, err := tbl.Parse("#nlp hello")
	require.NoError(t, err)
	assert.False(t, m.Matched)
	assert.True(t, m.Namespaced)
	assert.True(t, tbl.IsCommandForm("#nlp hello"))
}

func TestParsePlainTextIsNoMatch(t *testing.T) {
	tbl := defaultTable(t)

	m, err := tbl.Parse("  what is the weather  ")
	require.NoError(t, err)
	assert.False(t, m.Matched)
	assert.Equal(t, "what is the weather", m.Argument)
	assert.False(t, tbl.IsCommandForm("what is the weather"))
}

func TestParseEmptyArgument(t *testing.T) {
	tbl := defaultTable(t)

	m, err := tbl.Parse("#textsum")
	require.NoError(t, err)
	assert.True(t, m.NeedsArgument())
}

func TestParsePriorityOrder(t *testing.T) {
	tbl := defaultTable(t)

	m, err := tbl.Parse("#trexplus คำ")
	require.NoError(t, err)
	assert.Equal(t, "trexplus", m.Service)

	m, err = tbl.Parse("#trex++ คำ")
	require.NoError(t, err)
	assert.Equal(t, "trexplusplus", m.Service)
}

func TestParseFirstMatchWins(t *testing.T) {
	tbl, err := NewTable([]Entry{
		{Literal: "#ab", Service: "short"},
		{Literal: "#abc", Service: "long"},
	}, "", "")
	require.NoError(t, err)

	m, err := tbl.Parse("#abc x")
	require.NoError(t, err)
	assert.Equal(t, "short", m.Service)
	assert.Equal(t, "c x", m.Argument)
}

func TestParseParameterized(t *testing.T) {
	tbl := defaultTable(t)

	cases := map[string]struct{ param, arg string }{
		"#vajatts:2|สวัสดี":  {"2", "สวัสดี"},
		"#vajatts:0 สวัสดี":  {"0", "สวัสดี"},
		"#vajatts:3":         {"3", ""},
		"#vajatts:1|":        {"1", ""},
		"#nlp#vajatts:1|abc": {"1", "abc"},
	}
	for in, want := range cases {
		m, err := tbl.Parse(in)
		require.NoError(t, err, in)
		assert.True(t, m.Matched, in)
		assert.Equal(t, "vajatts", m.Service, in)
		assert.Equal(t, want.param, m.Param, in)
		assert.Equal(t, "#vajatts:"+want.param, m.Command, in)
		assert.Equal(t, want.arg, m.Argument, in)
	}
}

func TestParseParameterOutOfRange(t *testing.T) {
	tbl := defaultTable(t)

	m, err := tbl.Parse("#vajatts:7|สวัสดี")
	require.Error(t, err)
	var perr *ParamError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "7", perr.Param)
	assert.Equal(t, "#vajatts:", perr.Literal)
	assert.Equal(t, []string{"0", "1", "2", "3"}, perr.Allowed)
	assert.True(t, m.Matched)
	assert.Equal(t, "vajatts", m.Service)
}

func TestParseParameterMissing(t *testing.T) {
	tbl := defaultTable(t)

	for _, in := range []string{"#vajatts:", "#vajatts:x"} {
		_, err := tbl.Parse(in)
		var perr *ParamError
		require.True(t, errors.As(err, &perr), in)
		assert.Empty(t, perr.Param, in)
		assert.Contains(t, perr.Error(), "missing parameter")
	}
}

func TestParseAwaitingReparse(t *testing.T) {
	tbl := defaultTable(t)

	m, err := tbl.Parse("#vajatts:2" + "สวัสดี")
	require.NoError(t, err)
	assert.Equal(t, "2", m.Param)
	assert.Equal(t, "สวัสดี", m.Argument)

	m, err = tbl.Parse("#tner" + "นายก")
	require.NoError(t, err)
	assert.Equal(t, "tner", m.Service)
	assert.Equal(t, "นายก", m.Argument)
}

func TestParseSelection(t *testing.T) {
	tbl := defaultTable(t)

	sel, ok, err := tbl.ParseSelection("SELECT:TNER")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "#tner", sel.Command)
	assert.Equal(t, "tner", sel.Service)

	sel, ok, err = tbl.ParseSelection("SELECT:vajatts:2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "#vajatts:2", sel.Command)
}

func TestParseSelectionRejects(t *testing.T) {
	tbl := defaultTable(t)

	_, ok, err := tbl.ParseSelection("hello")
	assert.False(t, ok)
	assert.NoError(t, err)

	for _, in := range []string{"SELECT:", "SELECT:nosuch", "SELECT:tnerxyz", "SELECT:vajatts"} {
		_, ok, err := tbl.ParseSelection(in)
		assert.True(t, ok, in)
		assert.ErrorIs(t, err, ErrUnknownCommand, in)
	}

	_, ok, err = tbl.ParseSelection("SELECT:vajatts:9")
	assert.True(t, ok)
	var perr *ParamError
	assert.True(t, errors.As(err, &perr))
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable([]Entry{{Literal: "#a"}, {Literal: " #a "}}, "", "")
	assert.Error(t, err)

	_, err = NewTable([]Entry{{Literal: "  "}}, "", "")
	assert.Error(t, err)
}

func TestEntriesIsACopy(t *testing.T) {
	tbl := defaultTable(t)
	entries := tbl.Entries()
	entries[0].Literal = "#mutated"

	_, ok := tbl.Lookup("#trexplus")
	assert.True(t, ok)
	_, ok = tbl.Lookup("#mutated")
	assert.False(t, ok)
}

func TestServiceLookup(t *testing.T) {
	tbl := defaultTable(t)

	svc, ok := tbl.Service("#vajatts:2")
	assert.True(t, ok)
	assert.Equal(t, "vajatts", svc)

	_, ok = tbl.Service("#vajatts:9")
	assert.False(t, ok)
	_, ok = tbl.Service("#unknown")
	assert.False(t, ok)
}
