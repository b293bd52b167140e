// ABOUTME: Plain text and Markdown loaders
// ABOUTME: Invalid UTF-8 is replaced rather than rejected
package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/harper/multimodal-rag/internal/models"
)

func (l *Loader) loadText(path string) (models.Document, error) {
	return readTextFile(path, "txt")
}

func (l *Loader) loadMarkdown(path string) (models.Document, error) {
	return readTextFile(path, "markdown")
}

func readTextFile(path, fileType string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := strings.ToValidUTF8(string(data), "\uFFFD")
	content = strings.TrimPrefix(content, "\uFEFF")

	return models.Document{
		Segments: []models.Segment{{
			Content:  content,
			Metadata: baseMetadata(path, fileType),
		}},
	}, nil
}
