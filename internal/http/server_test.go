package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"wealthwarriors/internal/core"
	"wealthwarriors/internal/engine"
	"wealthwarriors/internal/services"
	"wealthwarriors/internal/storage/memory"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	n := 0
	e := engine.New(
		engine.WithClock(func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }),
		engine.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	svc := services.NewFamilyService(memory.NewStore(),
		services.WithEngine(e),
		services.WithPinCost(bcrypt.MinCost))
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 1000
	}
	s := NewServer(":0", svc, opts)
	t.Cleanup(func() { s.rateLimiter.Stop() })
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)
	return rr
}

func dispatch(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, s, http.MethodPost, "/api/actions", body)
}

func decodeState(t *testing.T, rr *httptest.ResponseRecorder) core.State {
	t.Helper()
	var st core.State
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode state: %v (body %s)", err, rr.Body.String())
	}
	return st
}

func seedFamily(t *testing.T, s *Server) {
	t.Helper()
	for _, body := range []string{
		`{"type":"create_family","payload":{"name":"Lannister"}}`,
		`{"type":"add_kid","payload":{"name":"Tommen","age":8,"avatar":"🦁"}}`,
	} {
		if rr := dispatch(t, s, body); rr.Code != http.StatusOK {
			t.Fatalf("seed %s: status %d body %s", body, rr.Code, rr.Body.String())
		}
	}
}

func TestDispatch(t *testing.T) {
	s := newTestServer(t, Options{})
	seedFamily(t, s)

	rr := dispatch(t, s, `{"type":"grant_money","payload":{"kidId":"id-2","amount":1000,"description":"Chores"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("grant status = %d, body %s", rr.Code, rr.Body.String())
	}
	st := decodeState(t, rr)
	if p := st.Family.Kids[0].PendingAllocation; p == nil || *p != core.Dollars(10) {
		t.Fatalf("pending = %v", p)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantErr    string
	}{
		{
			name:       "allocation mismatch",
			body:       `{"type":"allocate_money","payload":{"kidId":"id-2","save":100,"spend":100,"share":100}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantErr:    engine.ErrAllocationMismatch.Error(),
		},
		{
			name:       "unknown kid",
			body:       `{"type":"grant_money","payload":{"kidId":"ghost","amount":100}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantErr:    engine.ErrKidNotFound.Error(),
		},
		{
			name:       "unknown action",
			body:       `{"type":"launch_rocket"}`,
			wantStatus: http.StatusBadRequest,
			wantErr:    "unknown action",
		},
		{
			name:       "not json",
			body:       `grant 5`,
			wantStatus: http.StatusBadRequest,
			wantErr:    "malformed action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := dispatch(t, s, tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			var resp struct {
				State *core.State `json:"state"`
				Error string      `json:"error"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(resp.Error, tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", resp.Error, tt.wantErr)
			}
			if tt.wantStatus == http.StatusUnprocessableEntity {
				if resp.State == nil || resp.State.Family == nil {
					t.Fatal("rejection must carry the unchanged state")
				}
				if p := resp.State.Family.Kids[0].PendingAllocation; p == nil || *p != core.Dollars(10) {
					t.Errorf("state changed on rejection: pending = %v", p)
				}
			}
		})
	}

	rr = dispatch(t, s, `{"type":"allocate_money","payload":{"kidId":"id-2","save":600,"spend":300,"share":100}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("allocate status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := decodeState(t, do(t, s, http.MethodGet, "/api/state", "")); got.Family.Kids[0].Buckets.Save.Balance != core.Dollars(6) {
		t.Errorf("save balance = %s", got.Family.Kids[0].Buckets.Save.Balance)
	}
}

func TestProgress(t *testing.T) {
	s := newTestServer(t, Options{})
	seedFamily(t, s)
	dispatch(t, s, `{"type":"add_xp","payload":{"kidId":"id-2","amount":150}}`)

	rr := do(t, s, http.MethodGet, "/api/kids/id-2/progress", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var p core.Progress
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.TotalXP != 150 || p.Rank.Rank != 2 {
		t.Errorf("progress = %+v", p)
	}

	if rr := do(t, s, http.MethodGet, "/api/kids/nobody/progress", ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing kid status = %d, want 404", rr.Code)
	}
}

func TestParentUnlock(t *testing.T) {
	s := newTestServer(t, Options{})
	seedFamily(t, s)

	for _, body := range []string{
		`{"type":"set_parent_pin","payload":{"pin":"1234"}}`,
		`{"type":"switch_mode","payload":{"mode":"kid"}}`,
	} {
		if rr := dispatch(t, s, body); rr.Code != http.StatusOK {
			t.Fatalf("%s: status %d", body, rr.Code)
		}
	}

	if rr := dispatch(t, s, `{"type":"switch_mode","payload":{"mode":"parent"}}`); rr.Code != http.StatusForbidden {
		t.Errorf("switch to parent without pin status = %d, want 403", rr.Code)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMode   core.Mode
	}{
		{"wrong pin", `{"pin":"0000"}`, http.StatusForbidden, core.ModeKid},
		{"bad body", `{"pin":`, http.StatusBadRequest, ""},
		{"right pin", `{"pin":"1234"}`, http.StatusOK, core.ModeParent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, s, http.MethodPost, "/api/parent/unlock", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantMode != "" && s.svc.State().CurrentMode != tt.wantMode {
				t.Errorf("mode = %s, want %s", s.svc.State().CurrentMode, tt.wantMode)
			}
		})
	}

	// The stored pin is a hash, never the raw value.
	if got := s.svc.State().Family.Settings.ParentPin; got == "1234" || got == "" {
		t.Errorf("stored pin = %q", got)
	}
}

func TestKidModeRejectsParentActions(t *testing.T) {
	s := newTestServer(t, Options{})
	seedFamily(t, s)
	for _, body := range []string{
		`{"type":"set_parent_pin","payload":{"pin":"1234"}}`,
		`{"type":"switch_mode","payload":{"mode":"kid"}}`,
	} {
		if rr := dispatch(t, s, body); rr.Code != http.StatusOK {
			t.Fatalf("%s: status %d", body, rr.Code)
		}
	}
	hash := s.svc.State().Family.Settings.ParentPin

	tests := []struct {
		name string
		body string
	}{
		{"replace pin", `{"type":"set_parent_pin","payload":{"pin":"0000"}}`},
		{"load state", `{"type":"load_state","payload":{"state":{"family":null,"currentMode":"parent","selectedKidId":null}}}`},
		{"reset", `{"type":"reset"}`},
		{"grant", `{"type":"grant_money","payload":{"kidId":"id-2","amount":10000}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := dispatch(t, s, tt.body)
			if rr.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want 403 (body %s)", rr.Code, rr.Body.String())
			}
			st := s.svc.State()
			if st.Family == nil || st.Family.Settings.ParentPin != hash || st.CurrentMode != core.ModeKid {
				t.Error("rejected action changed the state")
			}
		})
	}
}

func TestStateResponsesHideParentPin(t *testing.T) {
	s := newTestServer(t, Options{})
	seedFamily(t, s)
	if rr := dispatch(t, s, `{"type":"set_parent_pin","payload":{"pin":"1234"}}`); rr.Code != http.StatusOK {
		t.Fatalf("set pin status %d", rr.Code)
	}
	hash := s.svc.State().Family.Settings.ParentPin

	responses := map[string]*httptest.ResponseRecorder{
		"state":    do(t, s, http.MethodGet, "/api/state", ""),
		"dispatch": dispatch(t, s, `{"type":"switch_mode","payload":{"mode":"kid"}}`),
		"rejected": dispatch(t, s, `{"type":"reset"}`),
		"unlock":   do(t, s, http.MethodPost, "/api/parent/unlock", `{"pin":"1234"}`),
	}
	for name, rr := range responses {
		t.Run(name, func(t *testing.T) {
			body := rr.Body.String()
			if strings.Contains(body, hash) || strings.Contains(body, "parentPin") {
				t.Errorf("pin leaked: %s", body)
			}
			if !strings.Contains(body, `"hasParentPin":true`) {
				t.Errorf("hasParentPin missing: %s", body)
			}
		})
	}
	if got := s.svc.State().Family.Settings.ParentPin; got != hash {
		t.Error("redaction changed the stored pin")
	}
}

func TestHealthAndReady(t *testing.T) {
	failing := errors.New("db down")
	s := newTestServer(t, Options{ReadyChecks: map[string]ReadyCheck{
		"store": func(context.Context) error { return failing },
	}})

	if rr := do(t, s, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rr.Code)
	}

	rr := do(t, s, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d, want 503", rr.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "not_ready" || body.Checks["store"] != "failed: db down" || body.Checks["family"] != "empty" {
		t.Errorf("readyz body = %+v", body)
	}

	ok := newTestServer(t, Options{ReadyChecks: map[string]ReadyCheck{
		"store": func(context.Context) error { return nil },
	}})
	if rr := do(t, ok, http.MethodGet, "/readyz", ""); rr.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", rr.Code)
	}
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, Options{})
	seedFamily(t, s)
	dispatch(t, s, `{"type":"grant_money","payload":{"kidId":"ghost","amount":1}}`)

	rr := do(t, s, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	for _, want := range []string{
		"actions_applied_total 2\n",
		"actions_rejected_total 1\n",
		"kids 1\n",
		"# TYPE http_requests_total counter\n",
	} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("metrics missing %q:\n%s", want, rr.Body.String())
		}
	}
}

func TestRateLimitOnlyAppliesToPosts(t *testing.T) {
	s := newTestServer(t, Options{RateLimitPerMinute: 2})

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, dispatch(t, s, `{"type":"reset"}`).Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("statuses = %v", codes)
	}
	if rr := do(t, s, http.MethodGet, "/api/state", ""); rr.Code != http.StatusOK {
		t.Errorf("GET after limit status = %d", rr.Code)
	}
}

func TestResponseHeaders(t *testing.T) {
	s := newTestServer(t, Options{})
	rr := do(t, s, http.MethodGet, "/api/state", "")

	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rr.Header().Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'none'") {
		t.Errorf("CSP = %q", got)
	}
	if !strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_") {
		t.Errorf("X-Request-ID = %q", rr.Header().Get("X-Request-ID"))
	}
	if rr := do(t, s, http.MethodDelete, "/api/state", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d, want 405", rr.Code)
	}
}
