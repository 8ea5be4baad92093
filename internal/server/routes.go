package server

import "net/http"

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Analysis
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/frontier", s.handleFrontier)
	mux.HandleFunc("/api/frontier/chart", s.handleFrontierChart)
	mux.HandleFunc("/api/drawdown/chart", s.handleDrawdownChart)
}
