package workflow

import (
	"github.com/m3rciful/aiftbot/core/artifact"
	"github.com/m3rciful/aiftbot/core/extract"
)

// MaxDocumentRunes caps how much extracted text is sent to the chat service.
const MaxDocumentRunes = 4000

// Documents extracts text from uploaded .txt, .pdf and .docx files.
type Documents struct {
	maxRunes int
}

// NewDocuments returns an extractor that truncates to maxRunes (0 = MaxDocumentRunes).
func NewDocuments(maxRunes int) *Documents {
	if maxRunes <= 0 {
		maxRunes = MaxDocumentRunes
	}
	return &Documents{maxRunes: maxRunes}
}

// Extract implements dispatch.Extractor.
func (d *Documents) Extract(a artifact.Artifact) (string, error) {
	text, err := extract.File(a.Path, a.Name)
	if err != nil {
		return "", err
	}
	if r := []rune(text); len(r) > d.maxRunes {
		text = string(r[:d.maxRunes])
	}
	return text, nil
}
