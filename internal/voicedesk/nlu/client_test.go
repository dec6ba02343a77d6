package nlu_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bdobrica/voicedesk/internal/voicedesk/nlu"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *nlu.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return nlu.NewClient(nlu.Config{
		BaseURL:     srv.URL,
		Username:    "svc-user",
		Password:    "svc-pass",
		WorkspaceID: "ws-123",
	})
}

func TestMessage_ReturnsReplacementContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/workspaces/ws-123/message" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "svc-user" || pass != "svc-pass" {
			t.Error("missing or wrong basic auth")
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		input := req["input"].(map[string]any)
		if input["text"] != "what is my cpu" {
			t.Errorf("unexpected input text %v", input["text"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"context": map[string]any{"ACTION": "CPU", "userprf": "jdoe"},
			"output":  map[string]any{"text": []string{"Let me check.", "One moment."}},
		})
	})

	prev := nlu.DialogContext{"userprf": "jdoe"}
	resp, err := client.Message(context.Background(), nlu.MessageRequest{
		Input:   "what is my cpu",
		Context: prev,
	})
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if resp.Context.Action() != "CPU" {
		t.Errorf("expected ACTION CPU, got %q", resp.Context.Action())
	}
	if len(resp.Output) != 2 || resp.Output[0] != "Let me check." {
		t.Errorf("unexpected output %v", resp.Output)
	}
	// The request context must not have been mutated.
	if len(prev) != 1 || prev.User() != "jdoe" {
		t.Errorf("request context mutated: %v", prev)
	}
}

func TestMessage_EngineErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{"error": "workspace unavailable"})
	})

	_, err := client.Message(context.Background(), nlu.MessageRequest{Input: "hello"})
	if !errors.Is(err, nlu.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestMessage_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	client := nlu.NewClient(nlu.Config{BaseURL: srv.URL, WorkspaceID: "ws"})
	_, err := client.Message(context.Background(), nlu.MessageRequest{Input: "hello"})
	if !errors.Is(err, nlu.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestMessage_MissingContextYieldsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"output": map[string]any{"text": []string{"Hi."}},
		})
	})

	resp, err := client.Message(context.Background(), nlu.MessageRequest{Input: "start skill"})
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if resp.Context == nil {
		t.Fatal("expected non-nil empty context")
	}
}

func TestProbe(t *testing.T) {
	probed := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/v1/workspaces/ws-123" {
			probed = true
			w.Write([]byte(`{"workspace_id":"ws-123"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	if err := client.Probe(context.Background()); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !probed {
		t.Error("probe endpoint was not called")
	}
}
