// Package extract pulls plain text out of uploaded documents.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupported is returned for extensions other than .txt, .pdf and .docx.
	ErrUnsupported = errors.New("extract: unsupported file type")
	// ErrEmpty is returned when a supported document holds no text.
	ErrEmpty = errors.New("extract: no text found")
)

// Supported reports whether name has an extension Text can handle.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".pdf", ".docx":
		return true
	}
	return false
}

// Text returns the text content of data, choosing the decoder by the
// extension of name.
func Text(name string, data []byte) (string, error) {
	var (
		out string
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".txt":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("extract: %s is not valid UTF-8", name)
		}
		out = string(data)
	case ".pdf":
		out, err = pdfText(bytes.NewReader(data), int64(len(data)))
	case ".docx":
		out, err = docxText(bytes.NewReader(data), int64(len(data)))
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmpty
	}
	return out, nil
}

// File reads path and extracts its text. name supplies the extension, since
// stored attachments may be renamed.
func File(path, name string) (string, error) {
	if !Supported(name) {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(name))
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("extract: open: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("extract: read: %w", err)
	}
	return Text(name, data)
}
