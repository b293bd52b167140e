// ABOUTME: Segments, image segments and chunks produced during ingestion
// ABOUTME: Chunks are the unit that is embedded and stored as a vector record
package models

// Segment is one logical unit of extracted document content
type Segment struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// ImageSegment holds raw image bytes extracted from a document or loaded from an image file
type ImageSegment struct {
	Data     []byte   `json:"-"`
	Metadata Metadata `json:"metadata"`
}

// Chunk is a size-bounded piece of a segment, or a synthetic OCR/caption annotation
type Chunk struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// ToPayload returns the vector-store payload for the chunk: content plus flattened metadata
func (c Chunk) ToPayload() map[string]any {
	p := c.Metadata.ToPayload()
	p[KeyContent] = c.Content
	return p
}

// ChunkFromPayload rebuilds a chunk from a stored payload
func ChunkFromPayload(id string, p map[string]any) Chunk {
	return Chunk{
		ID:       id,
		Content:  stringValue(p[KeyContent]),
		Metadata: MetadataFromPayload(p),
	}
}

// Document is everything a loader extracted from one file
type Document struct {
	Segments []Segment
	Images   []ImageSegment
}

// IsEmpty reports whether the document produced neither text nor images
func (d Document) IsEmpty() bool {
	return len(d.Segments) == 0 && len(d.Images) == 0
}
