// Command probe runs the extraction pipeline against product URLs and prints
// what each one yields. It is used to check selectors after a shop changes
// its markup.
//
//	go run ./scripts/probe -renderer http https://24h.pchome.com.tw/prod/XXXX
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/use-agent/pricewatch/config"
	"github.com/use-agent/pricewatch/extract"
	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/render"
)

// CLI flags
var (
	renderer = flag.String("renderer", "browser", "Page renderer: browser or http")
	timeout  = flag.Duration("timeout", extract.DefaultLoadTimeout, "Load timeout per URL")
	runs     = flag.Int("runs", 1, "Number of runs per URL")
	output   = flag.String("output", "", "Optional JSON output file path")
	verbose  = flag.Bool("v", false, "Log every strategy attempt")
)

type runResult struct {
	Run       int                      `json:"run"`
	ElapsedMs int64                    `json:"elapsed_ms"`
	Result    *models.ExtractionResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

type urlResult struct {
	URL  string      `json:"url"`
	Runs []runResult `json:"runs"`
}

type probeReport struct {
	Timestamp string      `json:"timestamp"`
	Renderer  string      `json:"renderer"`
	Results   []urlResult `json:"results"`
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: probe [flags] URL...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Load()
	cfg.Browser.Renderer = *renderer

	r, closeRenderer, err := render.New(cfg.Browser, cfg.Scraper)
	if err != nil {
		fmt.Fprintf(os.Stderr, "renderer: %v\n", err)
		os.Exit(1)
	}
	defer closeRenderer()

	extractor := extract.New(r, extract.WithTimeout(*timeout))
	report := probeReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Renderer:  r.Name(),
	}

	for _, url := range flag.Args() {
		ur := urlResult{URL: url}
		for i := 1; i <= *runs; i++ {
			start := time.Now()
			res, err := extractor.Extract(context.Background(), url)
			rr := runResult{Run: i, ElapsedMs: time.Since(start).Milliseconds(), Result: res}
			if err != nil {
				rr.Error = err.Error()
			}
			ur.Runs = append(ur.Runs, rr)
		}
		report.Results = append(report.Results, ur)
	}

	printTable(report)

	if *output != "" {
		if err := writeJSON(*output, report); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *output, err)
			os.Exit(1)
		}
		fmt.Printf("\nresults written to %s\n", *output)
	}
}

func printTable(report probeReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tRUN\tPLATFORM\tPRICE\tIMAGE\tMS\tTITLE / ERROR")
	for _, ur := range report.Results {
		for _, rr := range ur.Runs {
			if rr.Result == nil {
				fmt.Fprintf(w, "%s\t%d\t-\t-\t-\t%d\t%s\n", truncate(ur.URL, 50), rr.Run, rr.ElapsedMs, rr.Error)
				continue
			}
			hasImage := "no"
			if rr.Result.ImageURL != nil {
				hasImage = "yes"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%d\t%s\n",
				truncate(ur.URL, 50), rr.Run, rr.Result.Platform, rr.Result.Price,
				hasImage, rr.ElapsedMs, truncate(rr.Result.Title, 40))
		}
	}
	w.Flush()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
