package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"wealthwarriors/internal/core"
	"wealthwarriors/internal/middleware/trace"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// rejectionResponse carries the unchanged state next to the reason an action
// was refused.
type rejectionResponse struct {
	State stateResponse `json:"state"`
	Error string        `json:"error"`
}

// stateResponse is the state as clients see it. The parent pin hash never
// leaves the server; HasParentPin says whether one is set.
type stateResponse struct {
	core.State
	HasParentPin bool `json:"hasParentPin"`
}

func publicState(st core.State) stateResponse {
	out := stateResponse{State: st}
	if st.Family != nil {
		f := *st.Family
		out.HasParentPin = f.Settings.ParentPin != ""
		f.Settings.ParentPin = ""
		out.Family = &f
	}
	return out
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response",
			"request_id", trace.GetRequestID(r.Context()),
			"error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{
		Error:     msg,
		RequestID: trace.GetRequestID(r.Context()),
	})
}
