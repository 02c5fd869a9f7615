// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package web serves the local dashboard API. The server binds to the
// loopback interface only; there is no auth and no remote access.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"

	"redact-qc/internal/batch"
	"redact-qc/internal/query"
	"redact-qc/internal/reports"
)

// Server is the dashboard HTTP server.
type Server struct {
	port    int
	log     hclog.Logger
	scans   *batch.Manager
	queries *query.Service
	reports *reports.Generator

	httpServer *http.Server
}

// New builds a dashboard server on the given port.
func New(port int, scans *batch.Manager, queries *query.Service, rg *reports.Generator, log hclog.Logger) *Server {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Server{
		port:    port,
		log:     log.Named("web"),
		scans:   scans,
		queries: queries,
		reports: rg,
	}
}

// Handler returns the API routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("GET /api/batches", s.handleListBatches)
	mux.HandleFunc("GET /api/batches/{id}", s.handleGetBatch)
	mux.HandleFunc("DELETE /api/batches/{id}", s.handleDeleteBatch)
	mux.HandleFunc("GET /api/batches/{id}/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/batches/{id}/pii-types", s.handleBatchPIITypes)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /api/documents/{id}/findings", s.handleListFindings)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/pii-types", s.handlePIITypes)
	mux.HandleFunc("POST /api/reports/generate", s.handleGenerateReport)
	mux.HandleFunc("GET /api/reports/{id}", s.handleGetReport)
	mux.HandleFunc("GET /api/reports/{id}/download", s.handleDownloadReport)

	return mux
}

// Start listens on 127.0.0.1 and serves until Shutdown. The loopback bind is
// deliberate: the tool processes sensitive documents and must never be
// reachable from the network.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.log.Info("dashboard listening", "addr", "http://"+addr)
	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
