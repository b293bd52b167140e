// ABOUTME: Document loader that dispatches on file extension to format-specific parsers
// ABOUTME: Returns text segments and embedded images with provenance metadata
package loader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/models"
)

type parseFunc func(l *Loader, path string) (models.Document, error)

var parsers = map[string]parseFunc{
	".pdf":      (*Loader).loadPDF,
	".docx":     (*Loader).loadDOCX,
	".pptx":     (*Loader).loadPPTX,
	".txt":      (*Loader).loadText,
	".md":       (*Loader).loadMarkdown,
	".markdown": (*Loader).loadMarkdown,
	".png":      (*Loader).loadImage,
	".jpg":      (*Loader).loadImage,
	".jpeg":     (*Loader).loadImage,
	".gif":      (*Loader).loadImage,
	".bmp":      (*Loader).loadImage,
	".webp":     (*Loader).loadImage,
}

// Loader reads documents from disk. It is safe for concurrent use.
type Loader struct {
	logger *log.Logger
}

// New creates a loader. A nil logger uses the package default.
func New(logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{logger: logger}
}

// Load parses the file at path. The extension alone selects the parser.
func (l *Loader) Load(path string) (models.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	parse, ok := parsers[ext]
	if !ok {
		return models.Document{}, errs.E("load", errs.ErrUnsupportedFormat, fmt.Errorf("%q", ext))
	}

	doc, err := parse(l, path)
	if err != nil {
		return models.Document{}, err
	}

	l.logger.Debug("document loaded", "file", filepath.Base(path), "segments", len(doc.Segments), "images", len(doc.Images))
	return doc, nil
}

// SupportedExtensions returns the sorted list of extensions the loader accepts
func SupportedExtensions() []string {
	exts := make([]string, 0, len(parsers))
	for ext := range parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IsSupported reports whether ext (with leading dot, any case) has a parser
func IsSupported(ext string) bool {
	_, ok := parsers[strings.ToLower(ext)]
	return ok
}

func corrupt(path string, err error) error {
	return errs.E("load "+filepath.Base(path), errs.ErrCorruptDocument, err)
}

func baseMetadata(path, fileType string) models.Metadata {
	return models.Metadata{
		SourceFile: filepath.Base(path),
		FileType:   fileType,
	}
}
