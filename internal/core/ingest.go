// ABOUTME: Ingestor drives one file through loading, chunking, image annotation, embedding and storage
// ABOUTME: Recovers from a dimension mismatch by recreating the collection exactly once
package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/models"
	"github.com/harper/multimodal-rag/internal/util"
)

const (
	ocrPrefix     = "[IMAGE OCR] "
	captionPrefix = "[IMAGE DESCRIPTION] "
)

// IngestOptions tunes the ingestion pipeline
type IngestOptions struct {
	VisionConcurrency int
	DetailedCaptions  bool
	EmbedMaxRetries   int
	EmbedRetryDelay   time.Duration
}

// DefaultIngestOptions returns the default pipeline tuning
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{
		VisionConcurrency: 2,
		DetailedCaptions:  true,
		EmbedMaxRetries:   2,
		EmbedRetryDelay:   time.Second,
	}
}

// Ingestor indexes files into the vector store
type Ingestor struct {
	loader   DocumentLoader
	chunker  *Chunker
	vision   VisionExtractor
	embedder Embedder
	store    VectorStore
	opts     IngestOptions
	logger   *log.Logger
}

// NewIngestor creates an Ingestor. vision may be nil, in which case images are skipped.
func NewIngestor(loader DocumentLoader, chunker *Chunker, vision VisionExtractor, embedder Embedder, store VectorStore, opts IngestOptions, logger *log.Logger) *Ingestor {
	if logger == nil {
		logger = log.Default()
	}
	if opts.VisionConcurrency <= 0 {
		opts.VisionConcurrency = 1
	}
	return &Ingestor{
		loader:   loader,
		chunker:  chunker,
		vision:   vision,
		embedder: embedder,
		store:    store,
		opts:     opts,
		logger:   logger,
	}
}

// Run ingests the file at path and returns the number of chunks stored.
// The file itself is never modified or removed.
func (i *Ingestor) Run(ctx context.Context, path string) (int, error) {
	name := filepath.Base(path)
	logger := i.logger.With("file", name)
	start := time.Now()

	logger.Debug("ingest stage", "stage", "loading")
	doc, err := i.loader.Load(path)
	if err != nil {
		return 0, err
	}
	if doc.IsEmpty() {
		return 0, errs.E("ingest", errs.ErrEmptyDocument, fmt.Errorf("no content extracted from %s", name))
	}

	logger.Debug("ingest stage", "stage", "chunking", "segments", len(doc.Segments))
	var chunks []models.Chunk
	for _, seg := range doc.Segments {
		chunks = append(chunks, i.chunker.Split(seg)...)
	}
	textChunks := len(chunks)

	logger.Debug("ingest stage", "stage", "annotating", "images", len(doc.Images))
	imageChunks, err := i.annotate(ctx, doc.Images)
	if err != nil {
		return 0, err
	}
	chunks = append(chunks, imageChunks...)

	if len(chunks) == 0 {
		return 0, errs.E("ingest", errs.ErrEmptyDocument, fmt.Errorf("no text or image content in %s", name))
	}

	if err := i.store.EnsureCollection(ctx); err != nil {
		return 0, fmt.Errorf("failed to prepare collection: %w", err)
	}

	logger.Debug("ingest stage", "stage", "embedding", "chunks", len(chunks))
	vectors, err := i.embed(ctx, chunks)
	if err != nil {
		return 0, err
	}

	logger.Debug("ingest stage", "stage", "storing")
	err = i.store.Upsert(ctx, chunks, vectors, false)
	if errors.Is(err, errs.ErrDimensionMismatch) {
		logger.Warn("collection dimension does not match embedder, recreating collection; previously indexed documents will be lost",
			"error", err)
		err = i.store.Upsert(ctx, chunks, vectors, true)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	logger.Info("indexed document",
		"chunks", len(chunks),
		"text_chunks", textChunks,
		"image_chunks", len(imageChunks),
		"duration", time.Since(start).Round(time.Millisecond))
	return len(chunks), nil
}

// annotate transcribes and describes images concurrently, preserving image order
func (i *Ingestor) annotate(ctx context.Context, images []models.ImageSegment) ([]models.Chunk, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if i.vision == nil {
		i.logger.Warn("no vision extractor configured, skipping images", "images", len(images))
		return nil, nil
	}

	results := make([][]models.Chunk, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.VisionConcurrency)

	for idx, img := range images {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[idx] = i.annotateImage(gctx, img)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for _, r := range results {
		chunks = append(chunks, r...)
	}
	return chunks, nil
}

func (i *Ingestor) annotateImage(ctx context.Context, img models.ImageSegment) []models.Chunk {
	var chunks []models.Chunk
	if text := i.vision.Transcribe(ctx, img.Data); text != nil {
		chunks = append(chunks, models.Chunk{
			ID:       uuid.New().String(),
			Content:  ocrPrefix + *text,
			Metadata: img.Metadata.WithContentType(models.ContentTypeOCR),
		})
	}
	if caption := i.vision.Describe(ctx, img.Data, i.opts.DetailedCaptions); caption != nil {
		chunks = append(chunks, models.Chunk{
			ID:       uuid.New().String(),
			Content:  captionPrefix + *caption,
			Metadata: img.Metadata.WithContentType(models.ContentTypeCaption),
		})
	}
	return chunks
}

// embed embeds chunk contents, retrying transient embedding failures with backoff
func (i *Ingestor) embed(ctx context.Context, chunks []models.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for idx, c := range chunks {
		texts[idx] = c.Content
	}

	var vectors [][]float32
	attempt := 0
	err := util.Retry(ctx, i.opts.EmbedMaxRetries, i.opts.EmbedRetryDelay,
		func(err error) bool { return errors.Is(err, errs.ErrEmbedding) },
		func() error {
			attempt++
			if attempt > 1 {
				i.logger.Warn("retrying embedding request", "attempt", attempt)
			}
			var err error
			vectors, err = i.embedder.EmbedBatch(ctx, texts)
			return err
		})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}
