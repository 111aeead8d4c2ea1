package api

import (
	"log"
	"net/http"
)

// handleDetectJob runs move detection once and returns its report.
func (s *Server) handleDetectJob(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Detector.Run(r.Context())
	if err != nil {
		log.Printf("api: detect job failed: %v", err)
		JSONError(w, http.StatusInternalServerError, "detect job failed")
		return
	}
	OK(w, report)
}

// handleEnqueueJob creates pending alerts for unalerted events.
func (s *Server) handleEnqueueJob(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Enqueuer.Run(r.Context())
	if err != nil {
		log.Printf("api: enqueue job failed: %v", err)
		JSONError(w, http.StatusInternalServerError, "enqueue job failed")
		return
	}
	OK(w, report)
}

// handleDispatchJob delivers a batch of pending alerts.
func (s *Server) handleDispatchJob(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Dispatcher.Run(r.Context())
	if err != nil {
		log.Printf("api: dispatch job failed: %v", err)
		JSONError(w, http.StatusInternalServerError, "dispatch job failed")
		return
	}
	OK(w, report)
}

// handleRefreshJob refreshes stored OAuth credentials.
func (s *Server) handleRefreshJob(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Refresher.Run(r.Context())
	if err != nil {
		log.Printf("api: refresh job failed: %v", err)
		JSONError(w, http.StatusInternalServerError, "refresh job failed")
		return
	}
	OK(w, report)
}
