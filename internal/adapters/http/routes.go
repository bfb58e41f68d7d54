package web

import "net/http"

func (s *server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /page", s.handlePage)
	mux.HandleFunc("POST /api/progress/complete", s.handleComplete)
	mux.HandleFunc("GET /api/progress", s.handleProgress)
	mux.HandleFunc("GET /api/progress/module", s.handleModuleProgress)
	mux.HandleFunc("GET /api/catalogue", s.handleCatalogue)
	mux.HandleFunc("GET /fragments/progress", s.handleProgressFragment)
	mux.HandleFunc("GET /api/perf", s.handlePerf)
}
