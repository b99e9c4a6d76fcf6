package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"listing-parser/parser"
	"listing-parser/services"
	"listing-parser/storage"
	"listing-parser/utils"
)

var (
	explainRules bool
	saveRecords  bool
	exportPath   string
)

func init() {
	parseCmd.Flags().BoolVar(&explainRules, "explain", false, "include the rule that produced each field")
	parseCmd.Flags().BoolVar(&saveRecords, "save", false, "store each parsed listing")
	fetchCmd.Flags().BoolVar(&explainRules, "explain", false, "include the rule that produced each field")
	fetchCmd.Flags().BoolVar(&saveRecords, "save", false, "store each parsed listing")
	exportCmd.Flags().StringVar(&exportPath, "out", "", "CSV output path (default csv_output_path)")
}

var parseCmd = &cobra.Command{
	Use:   "parse [file...]",
	Short: "Parse listing text from files or stdin",
	Long: `Parse listing text and print the extracted fields as JSON, one object per line.

Examples:
  # Parse a file
  listing-parser parse listing.txt

  # Parse from stdin and show which rule produced each field
  cat listing.txt | listing-parser parse --explain -

  # Parse several files and store the results
  listing-parser parse --save listings/*.txt`,
	RunE: runParse,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>...",
	Short: "Render listing pages in a headless browser and parse them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFetch,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all stored listings to CSV",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print insights over all stored listings",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

// parseOutput is one line of parse/fetch output.
type parseOutput struct {
	Source  string         `json:"source"`
	Parsed  *parser.Fields `json:"parsed,omitempty"`
	ID      int64          `json:"id,omitempty"`
	Matches []parser.Match `json:"matches,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// input is a named piece of listing text to parse.
type input struct {
	source    string
	sourceURL string
	load      func(ctx context.Context) (string, error)
}

func runParse(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"-"}
	}

	inputs := make([]input, 0, len(args))
	for _, path := range args {
		path := path
		inputs = append(inputs, input{source: path, load: func(context.Context) (string, error) {
			return readInput(cmd.InOrStdin(), path)
		}})
	}
	return processInputs(cmd, inputs, 0)
}

func runFetch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	f := a.newFetcher()
	if f == nil {
		return errors.New("fetch: browser_enabled is false")
	}

	seen := utils.NewURLSet()
	var inputs []input
	for _, raw := range args {
		raw := raw
		if !seen.Add(raw) {
			a.logger.Warn("[fetch] Skipping duplicate URL %s", raw)
			continue
		}
		inputs = append(inputs, input{source: raw, sourceURL: raw, load: func(ctx context.Context) (string, error) {
			page, err := f.Fetch(ctx, raw)
			if err != nil {
				return "", err
			}
			return page.Text, nil
		}})
	}
	a.logger.Info("[fetch] %d unique URLs | concurrency: %d | rate: %dms",
		seen.Size(), a.cfg.MaxConcurrency, a.cfg.RateLimitMs)

	return processWithApp(cmd, a, inputs, time.Duration(a.cfg.RateLimitMs)*time.Millisecond)
}

func processInputs(cmd *cobra.Command, inputs []input, interval time.Duration) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return processWithApp(cmd, a, inputs, interval)
}

// processWithApp loads, parses and optionally stores every input on the
// worker pool, then prints results in input order.
func processWithApp(cmd *cobra.Command, a *app, inputs []input, interval time.Duration) error {
	ctx := cmd.Context()

	var store storage.RecordStore = storage.NewMemoryStore()
	if saveRecords {
		s, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}
	ingestor := services.NewIngestor(store, a.logger, a.cfg.MaxTextBytes)

	results := make([]parseOutput, len(inputs))
	pool := utils.NewWorkerPool(a.cfg.MaxConcurrency, interval)
	var mu sync.Mutex
	failed := 0

	for i, in := range inputs {
		i, in := i, in
		pool.Submit(func() {
			out := parseOne(ctx, ingestor, in)
			if out.Error != "" {
				a.logger.Error("[parse] %s: %s", in.source, out.Error)
				mu.Lock()
				failed++
				mu.Unlock()
			}
			results[i] = out
		})
	}
	pool.Wait()

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, out := range results {
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("parse: write output: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("parse: %d of %d inputs failed", failed, len(inputs))
	}
	return nil
}

func parseOne(ctx context.Context, ingestor *services.Ingestor, in input) parseOutput {
	out := parseOutput{Source: in.source}

	text, err := in.load(ctx)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	if saveRecords {
		res, err := ingestor.Ingest(ctx, text, in.sourceURL)
		if err != nil {
			out.Error = err.Error()
			return out
		}
		out.Parsed, out.ID = &res.Record.Fields, res.Record.ID
		if explainRules {
			out.Matches = res.Matches
		}
		return out
	}

	_, fields, matches, err := ingestor.Preview(text)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Parsed = &fields
	if explainRules {
		out.Matches = matches
	}
	return out
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.All(ctx)
	if err != nil {
		return fmt.Errorf("export: load listings: %w", err)
	}

	path := exportPath
	if path == "" {
		path = a.cfg.CSVOutputPath
	}
	var w storage.RecordExporter
	w, err = storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.WriteRecords(records); err != nil {
		return err
	}
	a.logger.Info("[export] %d listings written to %s", len(records), path)
	return nil
}

func runSummary(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.All(ctx)
	if err != nil {
		return fmt.Errorf("summary: load listings: %w", err)
	}

	insights := services.NewInsightService(a.logger)
	insights.Print(cmd.OutOrStdout(), insights.Generate(records))
	return nil
}
