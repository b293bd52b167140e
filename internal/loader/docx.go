// ABOUTME: DOCX loader built on go-docx
// ABOUTME: Joins non-blank paragraphs into a single segment
package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/harper/multimodal-rag/internal/models"
)

func (l *Loader) loadDOCX(path string) (doc models.Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	// go-docx panics on some malformed parts
	defer func() {
		if r := recover(); r != nil {
			doc, err = models.Document{}, corrupt(path, fmt.Errorf("%v", r))
		}
	}()

	parsed, err := docx.Parse(f, info.Size())
	if err != nil {
		return models.Document{}, corrupt(path, err)
	}

	var paragraphs []string
	for _, item := range parsed.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		if text := p.String(); strings.TrimSpace(text) != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	meta := baseMetadata(path, "docx")
	meta.Paragraphs = len(paragraphs)

	return models.Document{
		Segments: []models.Segment{{
			Content:  strings.Join(paragraphs, "\n\n"),
			Metadata: meta,
		}},
	}, nil
}
