package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"junkobot/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "gpt-4o",
		Timeout: 5 * time.Second,
	}, nil)
	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return client, srv
}

func TestComplete_ReturnsFirstChoice(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Upupupu, blue, obviously!"}}]}`))
	})

	history := []core.ConversationTurn{
		{Role: core.TurnRoleUser, Content: "what color is the sky"},
	}
	reply, err := client.Complete(context.Background(), history)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "Upupupu, blue, obviously!" {
		t.Fatalf("unexpected reply %q", reply)
	}

	if gotBody.Model != "gpt-4o" {
		t.Fatalf("unexpected model %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Role != "user" {
		t.Fatalf("expected the full history in the request, got %+v", gotBody.Messages)
	}
}

func TestComplete_SendsWholeHistory(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Messages) != 3 {
			t.Errorf("expected 3 messages, got %d", len(body.Messages))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	})

	history := []core.ConversationTurn{
		{Role: core.TurnRoleUser, Content: "first"},
		{Role: core.TurnRoleAssistant, Content: "reply"},
		{Role: core.TurnRoleUser, Content: "second"},
	}
	if _, err := client.Complete(context.Background(), history); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
}

func TestComplete_BadStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	_, err := client.Complete(context.Background(), []core.ConversationTurn{
		{Role: core.TurnRoleUser, Content: "hi"},
	})
	var completionErr *core.CompletionError
	if !errors.As(err, &completionErr) {
		t.Fatalf("expected *core.CompletionError, got %v", err)
	}
	if completionErr.Kind != core.CompletionBadStatus {
		t.Fatalf("expected bad_status kind, got %s", completionErr.Kind)
	}
	if completionErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", completionErr.Status)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Complete(context.Background(), []core.ConversationTurn{
		{Role: core.TurnRoleUser, Content: "hi"},
	})
	var completionErr *core.CompletionError
	if !errors.As(err, &completionErr) {
		t.Fatalf("expected *core.CompletionError, got %v", err)
	}
	if completionErr.Kind != core.CompletionEmptyChoices {
		t.Fatalf("expected empty_choices kind, got %s", completionErr.Kind)
	}
}

func TestComplete_TransportFailure(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.Complete(context.Background(), []core.ConversationTurn{
		{Role: core.TurnRoleUser, Content: "hi"},
	})
	var completionErr *core.CompletionError
	if !errors.As(err, &completionErr) {
		t.Fatalf("expected *core.CompletionError, got %v", err)
	}
	if completionErr.Kind != core.CompletionTransport {
		t.Fatalf("expected transport kind, got %s", completionErr.Kind)
	}
}

func TestComplete_NotInitialized(t *testing.T) {
	client := NewClient(Config{APIKey: "k"}, nil)

	_, err := client.Complete(context.Background(), nil)
	var completionErr *core.CompletionError
	if !errors.As(err, &completionErr) {
		t.Fatalf("expected *core.CompletionError, got %v", err)
	}
}

func TestInitialize_RequiresAPIKey(t *testing.T) {
	client := NewClient(Config{}, nil)
	if err := client.Initialize(context.Background()); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
