package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestTextPlain(t *testing.T) {
	got, err := Text("notes.TXT", []byte("  สวัสดีครับ\n"))
	require.NoError(t, err)
	assert.Equal(t, "สวัสดีครับ", got)
}

func TestTextPlainRejectsInvalidUTF8(t *testing.T) {
	_, err := Text("bad.txt", []byte{0xff, 0xfe, 0x00})
	assert.Error(t, err)
}

func TestTextDocx(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>บรรทัดสอง</w:t></w:r></w:p>`)

	got, err := Text("report.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\nบรรทัดสอง", got)
}

func TestTextDocxEmpty(t *testing.T) {
	data := buildDocx(t, `<w:p></w:p>`)
	_, err := Text("empty.docx", data)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestTextDocxNotZip(t *testing.T) {
	_, err := Text("broken.docx", []byte("not a zip"))
	assert.Error(t, err)
}

func TestTextPDFGarbage(t *testing.T) {
	_, err := Text("broken.pdf", []byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestTextUnsupported(t *testing.T) {
	_, err := Text("sheet.xlsx", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, Supported("sheet.xlsx"))
	assert.True(t, Supported("A.PDF"))
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0b1c.txt")
	require.NoError(t, os.WriteFile(path, []byte("body"), 0o600))

	got, err := File(path, "original.txt")
	require.NoError(t, err)
	assert.Equal(t, "body", got)

	_, err = File(path, "original.bin")
	assert.ErrorIs(t, err, ErrUnsupported)
}
