// ABOUTME: Benchmark runner: indexes scenario documents into a fresh in-memory store and scores the answer
// ABOUTME: Drives the same ingestion and query pipelines as the CLI and HTTP server
package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/multimodal-rag/internal/app"
	"github.com/harper/multimodal-rag/internal/config"
	"github.com/harper/multimodal-rag/internal/llm"
	"github.com/harper/multimodal-rag/internal/models"
	"github.com/harper/multimodal-rag/internal/storage"
)

// BenchmarkRunner executes benchmark scenarios
type BenchmarkRunner struct {
	cfg     *config.Config
	client  *llm.OpenAIClient
	metrics *MetricsCalculator
	logger  *log.Logger
	out     io.Writer
	verbose bool
}

// NewBenchmarkRunner creates a runner. Progress is written to out.
func NewBenchmarkRunner(cfg *config.Config, logger *log.Logger, out io.Writer, verbose bool) (*BenchmarkRunner, error) {
	if logger == nil {
		logger = log.Default()
	}
	client := llm.NewOpenAIClient(llm.ConfigFrom(cfg), logger.WithPrefix("llm"))
	if !client.Available() {
		return nil, fmt.Errorf("an API key is required for benchmarks")
	}

	return &BenchmarkRunner{
		cfg:     cfg,
		client:  client,
		metrics: NewMetricsCalculator(),
		logger:  logger,
		out:     out,
		verbose: verbose,
	}, nil
}

// RunTest executes one scenario against a fresh in-memory collection
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario TestScenario) (TestResult, error) {
	if r.verbose {
		fmt.Fprintf(r.out, "\n========================================\n")
		fmt.Fprintf(r.out, "RUNNING: %s\n", scenario.Name)
		fmt.Fprintf(r.out, "========================================\n")
		fmt.Fprintf(r.out, "Description: %s\n\n", scenario.Description)
	}

	tmpDir, err := os.MkdirTemp("", "rag_bench_"+scenario.ID+"_")
	if err != nil {
		return TestResult{}, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	store := storage.NewMemoryStore(r.cfg.CollectionName, r.client.Dimension(), r.logger.WithPrefix("store"))
	a, err := app.NewWithStore(r.cfg, r.client, store, r.logger)
	if err != nil {
		return TestResult{}, err
	}
	defer a.Close()

	for _, doc := range scenario.Documents {
		path := filepath.Join(tmpDir, doc.Name)
		if err := os.WriteFile(path, []byte(doc.Content), 0o644); err != nil {
			return TestResult{}, fmt.Errorf("failed to write %s: %w", doc.Name, err)
		}
		count, err := a.Ingestor.Run(ctx, path)
		if err != nil {
			return TestResult{}, fmt.Errorf("ingest %s failed: %w", doc.Name, err)
		}
		if r.verbose {
			fmt.Fprintf(r.out, "[Ingest] %s: %d chunks\n", doc.Name, count)
		}
	}

	start := time.Now()
	var answer models.Answer
	switch scenario.Mode {
	case ModeSummarize:
		answer, err = a.Querier.Summarize(ctx, scenario.Question)
	default:
		answer, err = a.Querier.Answer(ctx, scenario.Question, scenario.K)
	}
	if err != nil {
		return TestResult{}, fmt.Errorf("query failed: %w", err)
	}
	latency := time.Since(start)

	if r.verbose {
		fmt.Fprintf(r.out, "[Question] %s\n", scenario.Question)
		fmt.Fprintf(r.out, "[Answer] %s\n\n", truncateRunes(answer.Text, 150))
	}

	retrieved, sources := contextAndSources(answer.Sources)
	result := r.metrics.EvaluateTest(scenario, answer.Text, retrieved, sources)
	result.Details["latency_ms"] = latency.Milliseconds()

	if r.verbose {
		fmt.Fprintf(r.out, "Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Fprintf(r.out, "Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Fprintf(r.out, "Source Recall: %.2f\n", result.SourceRecallScore)
		fmt.Fprintf(r.out, "Status: %s\n", result.Status)
	}

	return result, nil
}

// RunAllTests executes every scenario. A scenario that errors is recorded as failed.
func (r *BenchmarkRunner) RunAllTests(ctx context.Context) []TestResult {
	scenarios := GetAllTests()
	results := make([]TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			r.logger.Error("scenario failed", "test", scenario.ID, "error", err)
			result = TestResult{
				TestID:       scenario.ID,
				TestName:     scenario.Name,
				Status:       StatusFail,
				ErrorMessage: err.Error(),
			}
		}
		results = append(results, result)
	}
	return results
}

// Summary aggregates a benchmark run
type Summary struct {
	Timestamp  string       `json:"timestamp"`
	TotalTests int          `json:"total_tests"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Results    []TestResult `json:"results"`
}

// Summarize counts passes and failures
func Summarize(results []TestResult) Summary {
	s := Summary{
		Timestamp:  time.Now().Format(time.RFC3339),
		TotalTests: len(results),
		Results:    results,
	}
	for _, r := range results {
		if r.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// ExportResults writes the run summary as JSON
func ExportResults(results []TestResult, outputPath string) error {
	data, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

// contextAndSources returns chunk texts and the distinct source files in retrieval order
func contextAndSources(results models.RetrievalResult) ([]string, []string) {
	texts := make([]string, 0, len(results))
	var sources []string
	for _, sc := range results {
		texts = append(texts, sc.Chunk.Content)
		if !slices.Contains(sources, sc.Chunk.Metadata.SourceFile) {
			sources = append(sources, sc.Chunk.Metadata.SourceFile)
		}
	}
	return texts, sources
}
