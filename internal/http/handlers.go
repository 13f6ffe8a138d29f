package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"wealthwarriors/internal/engine"
	"wealthwarriors/internal/middleware/trace"
	"wealthwarriors/internal/services"
)

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	action, err := engine.Decode(body)
	if err != nil {
		slog.WarnContext(r.Context(), "Malformed action",
			"request_id", trace.GetRequestID(r.Context()),
			"error", err)
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.svc.Dispatch(r.Context(), action)
	if err != nil {
		s.metrics.actionsRejected.Add(1)
		status := http.StatusUnprocessableEntity
		if errors.Is(err, services.ErrParentPinRequired) {
			status = http.StatusForbidden
		}
		writeJSON(w, r, status, rejectionResponse{State: publicState(state), Error: err.Error()})
		return
	}

	s.metrics.actionsApplied.Add(1)
	writeJSON(w, r, http.StatusOK, publicState(state))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, publicState(s.svc.State()))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Progress(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, engine.ErrKidNotFound) {
			writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

type unlockRequest struct {
	Pin string `json:"pin"`
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := s.svc.UnlockParent(r.Context(), req.Pin)
	switch {
	case errors.Is(err, services.ErrWrongPin):
		writeJSON(w, r, http.StatusForbidden, rejectionResponse{State: publicState(state), Error: err.Error()})
	case err != nil:
		writeJSON(w, r, http.StatusUnprocessableEntity, rejectionResponse{State: publicState(state), Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusOK, publicState(state))
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		"request_id", trace.GetRequestID(r.Context()),
		"client_ip", s.securityDetector.ExtractClientIP(r),
		"path", r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}
