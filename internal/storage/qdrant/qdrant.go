// ABOUTME: Vector store backed by a Qdrant collection over the official gRPC client
// ABOUTME: Cosine distance; chunk IDs are used as point UUIDs and payloads carry content plus metadata
package qdrant

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	qc "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/models"
	"github.com/harper/multimodal-rag/internal/storage/vecmath"
)

// upsertBatchSize caps the points sent in one upsert request
const upsertBatchSize = 256

// Config holds connection settings for a Qdrant collection
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimension  int
}

// Store is a single Qdrant collection
type Store struct {
	client     *qc.Client
	collection string
	dim        int
	logger     *log.Logger
}

// New connects to Qdrant. The connection is lazy; the first call surfaces connectivity errors.
func New(cfg Config, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	client, err := qc.NewClient(&qc.Config{
		Host:                   cfg.Host,
		Port:                   cfg.Port,
		APIKey:                 cfg.APIKey,
		UseTLS:                 cfg.UseTLS,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, errs.E("qdrant connect", errs.ErrVectorStoreUnavailable, err)
	}
	return &Store{
		client:     client,
		collection: cfg.Collection,
		dim:        cfg.Dimension,
		logger:     logger,
	}, nil
}

// classify tags transport failures as vector store unavailability
func classify(op string, err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Unauthenticated, codes.PermissionDenied:
		return errs.E(op, errs.ErrVectorStoreUnavailable, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

// dimension returns the collection's vector size, or 0 when it does not exist
func (s *Store) dimension(ctx context.Context) (int, error) {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return 0, classify("check collection", err)
	}
	if !exists {
		return 0, nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, classify("read collection info", err)
	}
	return int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()), nil
}

// State reports whether the collection exists and matches the configured dimension
func (s *Store) State(ctx context.Context) (models.CollectionState, error) {
	dim, err := s.dimension(ctx)
	if err != nil {
		return models.CollectionAbsent, err
	}
	switch {
	case dim == 0:
		return models.CollectionAbsent, nil
	case dim != s.dim:
		return models.CollectionIncompatible, nil
	default:
		return models.CollectionCompatible, nil
	}
}

// EnsureCollection creates the collection when it is absent
func (s *Store) EnsureCollection(ctx context.Context) error {
	dim, err := s.dimension(ctx)
	if err != nil {
		return err
	}
	if dim != 0 {
		return nil
	}
	return s.create(ctx, s.dim)
}

func (s *Store) create(ctx context.Context, dim int) error {
	err := s.client.CreateCollection(ctx, &qc.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qc.NewVectorsConfig(&qc.VectorParams{
			Size:     uint64(dim),
			Distance: qc.Distance_Cosine,
		}),
	})
	if err != nil {
		return classify("create collection", err)
	}
	s.logger.Info("created collection", "collection", s.collection, "dimension", dim)
	return nil
}

// Upsert writes chunk vectors as points, waiting for the write to be applied
func (s *Store) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32, forceRecreate bool) error {
	dim, err := vecmath.BatchDimension(len(chunks), vectors)
	if err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", s.collection, err)
	}
	if dim == 0 {
		return nil
	}

	existing, err := s.dimension(ctx)
	if err != nil {
		return err
	}
	switch {
	case existing == 0:
		if err := s.create(ctx, dim); err != nil {
			return err
		}
	case existing != dim && !forceRecreate:
		return &errs.DimensionMismatchError{Collection: s.collection, Existing: existing, Requested: dim}
	case existing != dim:
		s.logger.Warn("recreating collection with new dimension; all indexed data is deleted",
			"collection", s.collection, "existing", existing, "requested", dim)
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return classify("delete collection", err)
		}
		if err := s.create(ctx, dim); err != nil {
			return err
		}
	}

	points := make([]*qc.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		payload, err := qc.TryValueMap(chunk.ToPayload())
		if err != nil {
			return fmt.Errorf("failed to encode payload for %s: %w", chunk.ID, err)
		}
		points = append(points, &qc.PointStruct{
			Id:      qc.NewIDUUID(chunk.ID),
			Vectors: qc.NewVectors(vectors[i]...),
			Payload: payload,
		})
	}

	for start := 0; start < len(points); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(points))
		_, err := s.client.Upsert(ctx, &qc.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qc.PtrOf(true),
			Points:         points[start:end],
		})
		if err != nil {
			return classify("upsert points", err)
		}
	}
	return nil
}

// Search returns the k nearest points by cosine similarity
func (s *Store) Search(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error) {
	if k <= 0 {
		return models.RetrievalResult{}, nil
	}
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return nil, classify("check collection", err)
	}
	if !exists {
		return models.RetrievalResult{}, nil
	}

	points, err := s.client.Query(ctx, &qc.QueryPoints{
		CollectionName: s.collection,
		Query:          qc.NewQuery(vector...),
		Limit:          qc.PtrOf(uint64(k)),
		WithPayload:    qc.NewWithPayload(true),
	})
	if err != nil {
		return nil, classify("query points", err)
	}

	results := make(models.RetrievalResult, 0, len(points))
	for _, p := range points {
		chunk := models.ChunkFromPayload(pointID(p.GetId()), FromValueMap(p.GetPayload()))
		results = append(results, models.ScoredChunk{Chunk: chunk, Score: float64(p.GetScore())})
	}
	return results, nil
}

func pointID(id *qc.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}

// DeleteCollection drops the collection; deleting an absent collection is a no-op
func (s *Store) DeleteCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return classify("check collection", err)
	}
	if !exists {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return classify("delete collection", err)
	}
	return nil
}

// Close releases the gRPC connections
func (s *Store) Close() error {
	return s.client.Close()
}

// FromValueMap converts a Qdrant payload into plain Go values
func FromValueMap(m map[string]*qc.Value) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = fromValue(v)
	}
	return out
}

func fromValue(v *qc.Value) any {
	switch kind := v.GetKind().(type) {
	case *qc.Value_StringValue:
		return kind.StringValue
	case *qc.Value_IntegerValue:
		return kind.IntegerValue
	case *qc.Value_DoubleValue:
		return kind.DoubleValue
	case *qc.Value_BoolValue:
		return kind.BoolValue
	case *qc.Value_ListValue:
		values := kind.ListValue.GetValues()
		list := make([]any, len(values))
		for i, item := range values {
			list[i] = fromValue(item)
		}
		return list
	case *qc.Value_StructValue:
		return FromValueMap(kind.StructValue.GetFields())
	default:
		return nil
	}
}
