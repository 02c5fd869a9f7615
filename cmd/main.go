// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// RedactQC scans folders of already-redacted PDFs for PII the redaction
// missed. Default mode serves the local dashboard; -scan runs one batch from
// the command line and prints a summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"

	"redact-qc/internal/batch"
	"redact-qc/internal/config"
	"redact-qc/internal/extract"
	"redact-qc/internal/parallel"
	"redact-qc/internal/paths"
	"redact-qc/internal/pii"
	"redact-qc/internal/query"
	"redact-qc/internal/reports"
	"redact-qc/internal/store"
	"redact-qc/internal/web"
)

const version = "1.0.0"

func main() {
	scanDir := flag.String("scan", "", "Scan a folder of PDFs and exit (default: serve the dashboard)")
	resumeID := flag.String("resume", "", "Resume an interrupted batch by id and exit")
	configFile := flag.String("config", "", "Path to configuration file (YAML)")
	dataDir := flag.String("data-dir", "", "Data directory (default: platform data dir)")
	port := flag.Int("port", 0, "Dashboard port (default: 8000)")
	workers := flag.Int("workers", 0, "Worker count (default: CPU count - 1)")
	threshold := flag.Float64("threshold", 0, "Confidence threshold in [0,1] (default: 0.4)")
	logLevel := flag.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("redact-qc %s\n", version)
		return
	}
	if *noColor {
		color.NoColor = true
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fatal(err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *workers != 0 {
		cfg.WorkerCount = *workers
	}
	if *threshold != 0 {
		cfg.ConfidenceThreshold = *threshold
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "redact-qc",
		Level: hclog.LevelFromString(*logLevel),
	})

	app, err := newApp(cfg, log)
	if err != nil {
		fatal(err)
	}
	defer app.close()

	switch {
	case *scanDir != "":
		err = app.runScan(*scanDir)
	case *resumeID != "":
		err = app.runResume(*resumeID)
	default:
		err = app.serve()
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	color.Red("error: %v", err)
	os.Exit(1)
}

// app wires the store, scan manager, query service, and report generator.
type app struct {
	cfg     config.Config
	log     hclog.Logger
	store   *store.Store
	scans   *batch.Manager
	queries *query.Service
	reports *reports.Generator
}

func newApp(cfg config.Config, log hclog.Logger) (*app, error) {
	if err := paths.EnsureDirs(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("preparing data directory: %w", err)
	}
	st, err := store.Open(paths.DBPath(cfg.DataDir), log)
	if err != nil {
		return nil, err
	}

	scans := batch.New(st, batch.Options{
		Workers:   parallel.ClampWorkers(cfg.WorkerCount),
		Threshold: cfg.ConfidenceThreshold,
		Extract: extract.Options{
			NativeMinChars: cfg.NativeMinChars,
			DPI:            cfg.OCRDPI,
			OCRTimeout:     time.Duration(cfg.OCRTimeoutSeconds) * time.Second,
		},
	}, log)

	return &app{
		cfg:     cfg,
		log:     log,
		store:   st,
		scans:   scans,
		queries: query.New(st),
		reports: reports.New(st, paths.ReportsDir(cfg.DataDir), log),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Error("closing store", "error", err)
	}
}

// serve runs the dashboard until interrupted.
func (a *app) serve() error {
	server := web.New(a.cfg.Port, a.scans, a.queries, a.reports, a.log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	color.Cyan("RedactQC dashboard: http://127.0.0.1:%d", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// runScan processes one folder to completion and prints the summary.
func (a *app) runScan(dir string) error {
	id, err := a.scans.StartScan("", dir)
	if err != nil {
		return err
	}
	color.Cyan("Scanning %s (batch %s)", dir, id[:8])
	a.scans.Wait(id)
	return a.printSummary(id)
}

// runResume finishes an interrupted batch and prints the summary.
func (a *app) runResume(batchID string) error {
	if err := a.scans.Resume(batchID); err != nil {
		return err
	}
	a.scans.Wait(batchID)
	return a.printSummary(batchID)
}

func (a *app) printSummary(batchID string) error {
	b, err := a.queries.GetBatch(batchID)
	if err != nil {
		return err
	}
	dist, err := a.queries.BatchDistribution(batchID)
	if err != nil {
		return err
	}

	fmt.Println()
	statusColor(b.Status).Printf("Batch %s: %s\n", b.Name, b.Status)
	fmt.Printf("  Documents: %d/%d processed, %d with findings\n",
		b.ProcessedDocs, b.TotalDocs, b.DocsWithFindings)

	if len(dist) == 0 {
		color.Green("  No PII found.")
		return nil
	}
	fmt.Println("  Findings by type:")
	for _, row := range dist {
		severityColor(pii.SeverityFor(row.PIIType)).Printf("    %-22s %5d  (avg confidence %.2f)\n",
			row.PIIType, row.Count, row.AvgConfidence)
	}
	return nil
}

func statusColor(status string) *color.Color {
	switch status {
	case store.BatchCompleted:
		return color.New(color.FgGreen)
	case store.BatchError:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func severityColor(severity int) *color.Color {
	switch {
	case severity >= 4:
		return color.New(color.FgRed)
	case severity == 3:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}
