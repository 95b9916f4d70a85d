package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type squadTable [][]string

func (squadTable) Headers() []string  { return []string{"Name", "Nationality"} }
func (t squadTable) Rows() [][]string { return t }

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestPrinterTable(t *testing.T) {
	var buf bytes.Buffer
	data := squadTable{{"Alisson", "Brazil"}, {"Rodri", "Spain"}}
	require.NoError(t, NewPrinter(&buf, FormatTable).Print(data))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "NATIONALITY")
	assert.Contains(t, out, "Rodri")
	assert.Contains(t, out, "Spain")
}

func TestPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON).Print(map[string]int{"goals": 9}))
	assert.JSONEq(t, `{"goals": 9}`, buf.String())

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatTable).Print([]string{"no", "table"}))
	assert.JSONEq(t, `["no", "table"]`, buf.String())
}

func TestKeyValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, KeyValues(&buf, [][2]string{{"Goals", "9"}, {"Assists", "5"}}))
	assert.Contains(t, buf.String(), "Goals")
	assert.Contains(t, buf.String(), "Assists")
	assert.Contains(t, buf.String(), "5")
}
