// ABOUTME: Provenance metadata carried by segments, chunks and vector payloads
// ABOUTME: Converts between the typed struct and the flat payload map stored in vector databases
package models

// ContentType marks chunks synthesized from images
type ContentType string

const (
	ContentTypeText    ContentType = ""
	ContentTypeOCR     ContentType = "ocr"
	ContentTypeCaption ContentType = "caption"
)

// IsValid reports whether the content type is one of the known values
func (c ContentType) IsValid() bool {
	switch c {
	case ContentTypeText, ContentTypeOCR, ContentTypeCaption:
		return true
	}
	return false
}

// Payload keys
const (
	KeyContent     = "page_content"
	KeySourceFile  = "source_file"
	KeyFileType    = "file_type"
	KeyPage        = "page"
	KeySlideNumber = "slide_number"
	KeyContentType = "content_type"
	KeyParagraphs  = "paragraphs"
	KeyImageIndex  = "image_index"
	KeyImageFormat = "image_format"
	KeyFormat      = "format"
	KeySize        = "size"
	KeyMode        = "mode"
)

// Metadata describes where a piece of content came from
type Metadata struct {
	SourceFile  string      `json:"source_file"`
	FileType    string      `json:"file_type,omitempty"`
	Page        *int        `json:"page,omitempty"`
	SlideNumber *int        `json:"slide_number,omitempty"`
	ContentType ContentType `json:"content_type,omitempty"`

	Paragraphs  int    `json:"paragraphs,omitempty"`
	ImageIndex  *int   `json:"image_index,omitempty"`
	ImageFormat string `json:"image_format,omitempty"`
	Format      string `json:"format,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Mode        string `json:"mode,omitempty"`
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}

// WithContentType returns a copy of m tagged with the given content type
func (m Metadata) WithContentType(ct ContentType) Metadata {
	m.ContentType = ct
	return m
}

// ToPayload flattens metadata into a map of JSON-friendly values. Absent fields are omitted.
func (m Metadata) ToPayload() map[string]any {
	p := map[string]any{
		KeySourceFile: m.SourceFile,
	}
	if m.FileType != "" {
		p[KeyFileType] = m.FileType
	}
	if m.Page != nil {
		p[KeyPage] = int64(*m.Page)
	}
	if m.SlideNumber != nil {
		p[KeySlideNumber] = int64(*m.SlideNumber)
	}
	if m.ContentType != ContentTypeText {
		p[KeyContentType] = string(m.ContentType)
	}
	if m.Paragraphs > 0 {
		p[KeyParagraphs] = int64(m.Paragraphs)
	}
	if m.ImageIndex != nil {
		p[KeyImageIndex] = int64(*m.ImageIndex)
	}
	if m.ImageFormat != "" {
		p[KeyImageFormat] = m.ImageFormat
	}
	if m.Format != "" {
		p[KeyFormat] = m.Format
	}
	if m.Width > 0 || m.Height > 0 {
		p[KeySize] = []any{int64(m.Width), int64(m.Height)}
	}
	if m.Mode != "" {
		p[KeyMode] = m.Mode
	}
	return p
}

// MetadataFromPayload rebuilds metadata from a payload map. Numbers may arrive as
// int, int64 or float64 depending on the backend. Unknown content types read as text.
func MetadataFromPayload(p map[string]any) Metadata {
	m := Metadata{
		SourceFile:  stringValue(p[KeySourceFile]),
		FileType:    stringValue(p[KeyFileType]),
		ImageFormat: stringValue(p[KeyImageFormat]),
		Format:      stringValue(p[KeyFormat]),
		Mode:        stringValue(p[KeyMode]),
	}
	if ct := ContentType(stringValue(p[KeyContentType])); ct.IsValid() {
		m.ContentType = ct
	}
	if n, ok := intValue(p[KeyPage]); ok {
		m.Page = IntPtr(n)
	}
	if n, ok := intValue(p[KeySlideNumber]); ok {
		m.SlideNumber = IntPtr(n)
	}
	if n, ok := intValue(p[KeyImageIndex]); ok {
		m.ImageIndex = IntPtr(n)
	}
	if n, ok := intValue(p[KeyParagraphs]); ok {
		m.Paragraphs = n
	}
	if size, ok := p[KeySize].([]any); ok && len(size) == 2 {
		m.Width, _ = intValue(size[0])
		m.Height, _ = intValue(size[1])
	}
	return m
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	}
	return 0, false
}
