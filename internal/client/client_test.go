package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ashureev/digital-twin/internal/domain"
	"github.com/ashureev/digital-twin/internal/flow"
	"github.com/ashureev/digital-twin/internal/identity"
	"github.com/ashureev/digital-twin/internal/quiz"
)

var _ flow.Relay = (*Client)(nil)

func TestGeneratePersona(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate-persona" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get(identity.SessionHeaderName) != "tab-1" {
			t.Errorf("missing session header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"persona":"Chill • Emojis"}`)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithSessionID("tab-1"))
	persona, err := c.GeneratePersona(context.Background(), "bio text", quiz.Answers{"q1": "a"})
	if err != nil {
		t.Fatalf("GeneratePersona: %v", err)
	}
	if persona != "Chill • Emojis" {
		t.Fatalf("persona = %q", persona)
	}
	if got["bio"] != "bio text" {
		t.Fatalf("request body = %v", got)
	}
}

func TestGeneratePersonaErrorIsClassifiable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"Failed to generate persona","reason":"googleapi: API_KEY_INVALID"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GeneratePersona(context.Background(), "bio", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Message != "Failed to generate persona" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if got := flow.ClassifyGenerationError(err); got != flow.MessageInvalidCredential {
		t.Fatalf("classification = %q", got)
	}
}

func TestChatStreamsFragments(t *testing.T) {
	t.Parallel()

	var payload struct {
		Persona string               `json:"persona"`
		History []domain.ChatMessage `json:"history"`
		Message string               `json:"message"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		flusher := w.(http.Flusher)
		for _, part := range []string{"Hey", " there", "!"} {
			_, _ = io.WriteString(w, part)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	history := []domain.ChatMessage{domain.NewUserMessage("hi")}
	var b strings.Builder
	for frag, err := range New(srv.URL).Chat(context.Background(), "P", history, "hi") {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		b.WriteString(frag)
	}
	if b.String() != "Hey there!" {
		t.Fatalf("reply = %q", b.String())
	}
	if payload.Persona != "P" || payload.Message != "hi" || len(payload.History) != 1 {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestChatNeverSplitsCharacters(t *testing.T) {
	t.Parallel()

	reply := "héllo 👋 wörld 🚀"
	raw := []byte(reply)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flusher := w.(http.Flusher)
		// One byte at a time splits every multi-byte character.
		for i := range raw {
			_, _ = w.Write(raw[i : i+1])
			flusher.Flush()
			time.Sleep(time.Millisecond)
		}
	}))
	defer srv.Close()

	var b strings.Builder
	for frag, err := range New(srv.URL).Chat(context.Background(), "P", nil, "hi") {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		if !utf8.ValidString(frag) {
			t.Fatalf("fragment %q is not valid UTF-8", frag)
		}
		b.WriteString(frag)
	}
	if b.String() != reply {
		t.Fatalf("reply = %q, want %q", b.String(), reply)
	}
}

func TestChatEstablishFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"Failed to process chat message"}`)
	}))
	defer srv.Close()

	var errs int
	for frag, err := range New(srv.URL).Chat(context.Background(), "P", nil, "hi") {
		if err == nil {
			t.Fatalf("unexpected fragment %q", frag)
		}
		errs++
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
			t.Fatalf("unexpected error %v", err)
		}
	}
	if errs != 1 {
		t.Fatalf("expected exactly one error, got %d", errs)
	}
}

func TestChatDrivesConversationApology(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	conv := flow.NewConversation()
	msg, err := conv.Exchange(context.Background(), New(srv.URL), "P", "hi", nil)
	if !errors.Is(err, flow.ErrRelayFailed) {
		t.Fatalf("expected ErrRelayFailed, got %v", err)
	}
	if msg.Text != flow.ApologyMessage || conv.Turns() != 1 {
		t.Fatalf("msg=%q turns=%d", msg.Text, conv.Turns())
	}
}

func TestSubmitFeedbackAndQuestions(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/feedback", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Ratings domain.Ratings `json:"ratings"`
			Turns   int            `json:"turns"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Ratings.Accuracy != 4 || body.Turns != 3 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"fb-1"}`)
	})
	mux.HandleFunc("GET /api/questions", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"questions": quiz.DefaultQuestions()})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	id, err := c.SubmitFeedback(context.Background(), "P", domain.Ratings{Accuracy: 4, Consciousness: 2, Note: "felt robotic"}, 3)
	if err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if id != "fb-1" {
		t.Fatalf("id = %q", id)
	}

	qs, err := c.Questions(context.Background())
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(qs) != 6 || qs[5].Number != 6 {
		t.Fatalf("questions = %+v", qs)
	}
}

func TestSplitComplete(t *testing.T) {
	t.Parallel()

	wave := []byte("👋")
	tests := []struct {
		in       []byte
		wantDone string
		wantRest int
	}{
		{[]byte("abc"), "abc", 0},
		{append([]byte("a"), wave[:1]...), "a", 1},
		{append([]byte("a"), wave[:3]...), "a", 3},
		{append([]byte("a"), wave...), "a👋", 0},
		{[]byte("é")[:1], "", 1},
		{nil, "", 0},
	}
	for _, tt := range tests {
		done, rest := splitComplete(tt.in)
		if string(done) != tt.wantDone || len(rest) != tt.wantRest {
			t.Errorf("splitComplete(%q) = %q, %d rest; want %q, %d", tt.in, done, len(rest), tt.wantDone, tt.wantRest)
		}
	}
}

func TestAPIErrorMessage(t *testing.T) {
	t.Parallel()

	err := &APIError{Status: 500, Message: "Failed to generate persona", Reason: "Region not supported"}
	if !strings.Contains(err.Error(), "Region not supported") {
		t.Fatalf("Error() = %q", err.Error())
	}
	if got := (&APIError{Status: 502}).Error(); !strings.Contains(got, "Bad Gateway") {
		t.Fatalf("Error() = %q", got)
	}
}
