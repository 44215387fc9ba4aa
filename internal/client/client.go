// Package client is the HTTP client for the digital twin proxy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"unicode/utf8"

	"github.com/ashureev/digital-twin/internal/domain"
	"github.com/ashureev/digital-twin/internal/identity"
	"github.com/ashureev/digital-twin/internal/quiz"
)

const readBufferSize = 4096

// APIError is a non-2xx response from the proxy. Reason carries the upstream
// failure text when the proxy supplied one.
type APIError struct {
	Status  int
	Message string
	Reason  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s (status %d): %s", msg, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.Status)
}

// Client talks to the proxy endpoints.
type Client struct {
	baseURL   string
	http      *http.Client
	sessionID string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSessionID tags every request with a tab session id.
func WithSessionID(id string) Option {
	return func(c *Client) { c.sessionID = id }
}

// New creates a client for the proxy at baseURL. The default HTTP client
// keeps cookies so the anonymous identity is stable across calls. It sets no
// timeout; use the context to bound a call.
func New(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionID != "" {
		req.Header.Set(identity.SessionHeaderName, c.sessionID)
	}
	return req, nil
}

// do sends req and decodes a JSON success body into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Message = body.Error
		apiErr.Reason = body.Reason
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// GeneratePersona asks the proxy for a persona tag. It makes one attempt.
func (c *Client) GeneratePersona(ctx context.Context, source string, answers quiz.Answers) (string, error) {
	if answers == nil {
		answers = quiz.Answers{}
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/generate-persona", map[string]any{
		"bio":     source,
		"answers": answers,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		Persona string `json:"persona"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.Persona, nil
}

// Chat streams the twin's reply. history must end with message. Fragments are
// always whole UTF-8 sequences: a character split across reads is held back
// until the rest arrives.
func (c *Client) Chat(ctx context.Context, persona string, history []domain.ChatMessage, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if history == nil {
			history = []domain.ChatMessage{}
		}
		req, err := c.newRequest(ctx, http.MethodPost, "/api/chat", map[string]any{
			"persona": persona,
			"history": history,
			"message": message,
		})
		if err != nil {
			yield("", err)
			return
		}

		resp, err := c.http.Do(req)
		if err != nil {
			yield("", fmt.Errorf("chat request failed: %w", err))
			return
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			yield("", decodeAPIError(resp))
			return
		}

		buf := make([]byte, readBufferSize)
		var carry []byte
		for {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				data := make([]byte, 0, len(carry)+n)
				data = append(data, carry...)
				data = append(data, buf[:n]...)

				complete, rest := splitComplete(data)
				carry = append([]byte(nil), rest...)
				if len(complete) > 0 && !yield(string(complete), nil) {
					return
				}
			}
			if errors.Is(readErr, io.EOF) {
				if len(carry) > 0 {
					yield(string(carry), nil)
				}
				return
			}
			if readErr != nil {
				yield("", fmt.Errorf("chat stream error: %w", readErr))
				return
			}
		}
	}
}

// splitComplete splits b before a trailing incomplete UTF-8 sequence.
func splitComplete(b []byte) (complete, rest []byte) {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		start := len(b) - i
		if !utf8.RuneStart(b[start]) {
			continue
		}
		if !utf8.FullRune(b[start:]) {
			return b[:start], b[start:]
		}
		break
	}
	return b, nil
}

// SubmitFeedback records the user's ratings and returns the stored id.
func (c *Client) SubmitFeedback(ctx context.Context, persona string, ratings domain.Ratings, turns int) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/feedback", map[string]any{
		"persona": persona,
		"ratings": ratings,
		"turns":   turns,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Questions fetches the questionnaire.
func (c *Client) Questions(ctx context.Context) ([]quiz.Question, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/questions", nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Questions []quiz.Question `json:"questions"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}
