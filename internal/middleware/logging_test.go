package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"inkpress/internal/models"
)

// captureLogs routes the default logger to a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// logEntries decodes every JSON log line in buf.
func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var e map[string]any
		if err := dec.Decode(&e); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		out = append(out, e)
	}
	return out
}

func TestLoggerRecordsRequest(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus float64
		wantBytes  float64
		wantLevel  string
	}{
		{
			name:       "implicit 200",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("hello")) },
			wantStatus: 200, wantBytes: 5, wantLevel: "INFO",
		},
		{
			name:       "client error",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			wantStatus: 404, wantBytes: 0, wantLevel: "INFO",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				WriteError(w, http.StatusBadGateway, "upstream down")
			},
			wantStatus: 502, wantBytes: float64(len(`{"error":"upstream down"}` + "\n")), wantLevel: "WARN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			rr := httptest.NewRecorder()
			Logger(tt.handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

			entries := logEntries(t, buf)
			if len(entries) != 1 {
				t.Fatalf("log lines: got %d, want 1", len(entries))
			}
			e := entries[0]
			if e["msg"] != "http request" || e["level"] != tt.wantLevel {
				t.Errorf("msg/level: got %v/%v", e["msg"], e["level"])
			}
			if e["status"] != tt.wantStatus {
				t.Errorf("status: got %v, want %v", e["status"], tt.wantStatus)
			}
			if e["bytes"] != tt.wantBytes {
				t.Errorf("bytes: got %v, want %v", e["bytes"], tt.wantBytes)
			}
			if e["path"] != "/api/posts" || e["method"] != "GET" {
				t.Errorf("request fields: got %v %v", e["method"], e["path"])
			}
			if _, ok := e["user_id"]; ok {
				t.Error("anonymous request should not log a user id")
			}
		})
	}
}

func TestLoggerIncludesUser(t *testing.T) {
	buf := captureLogs(t)
	id := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/comic/generate", nil)
	req = req.WithContext(WithCaller(req.Context(), &Caller{User: &models.User{ID: id}}))
	Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})).ServeHTTP(httptest.NewRecorder(), req)

	entries := logEntries(t, buf)
	if len(entries) != 1 || entries[0]["user_id"] != id.String() {
		t.Errorf("user_id: got %v, want %s", entries, id)
	}
}

func TestStatusRecorder(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := newStatusRecorder(rr)

	if rec.started || rec.status != http.StatusOK {
		t.Fatalf("fresh recorder: started=%v status=%d", rec.started, rec.status)
	}

	rec.WriteHeader(http.StatusAccepted)
	rec.WriteHeader(http.StatusInternalServerError) // ignored
	rec.Write([]byte("abc"))
	rec.Write([]byte("de"))

	if rec.status != http.StatusAccepted {
		t.Errorf("status: got %d, want first WriteHeader", rec.status)
	}
	if rec.bytes != 5 {
		t.Errorf("bytes: got %d, want 5", rec.bytes)
	}
	if rec.Unwrap() != rr {
		t.Error("Unwrap should return the wrapped writer")
	}
}
