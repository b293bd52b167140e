// ABOUTME: Command-line benchmark runner for retrieval and answer quality
// ABOUTME: Runs scenarios against the configured model endpoint and writes JSON results
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harper/multimodal-rag/benchmarks/ragas"
	"github.com/harper/multimodal-rag/internal/config"
	"github.com/harper/multimodal-rag/internal/logging"
)

func main() {
	testID := flag.String("test", "", "Run a specific scenario (lookup, cross, vi, summary). If empty, runs all.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found", "error", err)
	}

	cfg, err := config.LoadFile(os.Getenv("RAG_CONFIG"))
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.Setup(logging.Options{Level: level, Format: cfg.LogFormat})
	if err != nil {
		log.Fatal("failed to set up logging", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("========================================")
	fmt.Println("Multimodal RAG Benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	runner, err := ragas.NewBenchmarkRunner(cfg, logger, os.Stdout, *verbose)
	if err != nil {
		logger.Fatal("failed to create benchmark runner", "error", err)
	}

	var results []ragas.TestResult
	if *testID == "" {
		fmt.Println("Running all benchmark scenarios...")
		results = runner.RunAllTests(ctx)
	} else {
		scenario, err := ragas.GetTest(*testID)
		if err != nil {
			logger.Fatal("invalid scenario", "error", err)
		}
		fmt.Printf("Running test: %s\n", scenario.Name)

		result, err := runner.RunTest(ctx, scenario)
		if err != nil {
			logger.Fatal("test failed", "error", err)
		}
		results = []ragas.TestResult{result}
	}

	summary := ragas.Summarize(results)

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")
	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		if result.ErrorMessage != "" {
			fmt.Printf("  Error: %s\n", result.ErrorMessage)
		}
		fmt.Printf("  Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Printf("  Source Recall: %.2f\n", result.SourceRecallScore)
		fmt.Printf("  Overall: %.2f\n", result.OverallScore)
		fmt.Printf("  Status: %s\n", result.Status)
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", summary.TotalTests)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Println("========================================")

	if err := ragas.ExportResults(results, *outputPath); err != nil {
		logger.Fatal("failed to export results", "error", err)
	}
	fmt.Printf("✓ Results exported to: %s\n", *outputPath)

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
