package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/digital-twin/internal/api"
	"github.com/ashureev/digital-twin/internal/identity"
	"github.com/ashureev/digital-twin/internal/quiz"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20 // 1MB

// PersonaGenerator turns a writing sample and quiz answers into a persona tag.
type PersonaGenerator interface {
	Generate(ctx context.Context, source string, answers quiz.Answers) (string, error)
}

// Handler serves the persona and chat endpoints.
type Handler struct {
	agent       *Service
	personas    PersonaGenerator
	log         ConversationLogger
	maxBodySize int64
}

// NewHandler creates a new agent handler. A nil conversationLogger discards
// events; a non-positive maxBodySize falls back to 1MB.
func NewHandler(agentService *Service, personas PersonaGenerator, conversationLogger ConversationLogger, maxBodySize int64) *Handler {
	if conversationLogger == nil {
		conversationLogger = noopConversationLogger{}
	}
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxRequestBodySize
	}
	return &Handler{
		agent:       agentService,
		personas:    personas,
		log:         conversationLogger,
		maxBodySize: maxBodySize,
	}
}

// RegisterRoutes registers the persona and chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/generate-persona", h.HandleGeneratePersona)
	r.Post("/api/chat", h.HandleChat)
}

// Close releases handler resources.
func (h *Handler) Close() {
	if h.agent != nil {
		h.agent.Close()
	}
	if h.log != nil {
		if err := h.log.Close(); err != nil {
			slog.Warn("failed to close conversation logger", "error", err)
		}
	}
}

// decodeBody reads a size-capped JSON body into v. It writes the error
// response itself and reports whether decoding succeeded.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// HandleGeneratePersona handles POST /api/generate-persona.
func (h *Handler) HandleGeneratePersona(w http.ResponseWriter, r *http.Request) {
	var req PersonaRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Bio) == "" || req.Answers == nil {
		api.Error(w, http.StatusBadRequest, "Missing bio or answers")
		return
	}

	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	reqID := chiMiddleware.GetReqID(r.Context())

	slog.Info("Persona generation request",
		"user_id", userID,
		"session_id", sessionID,
		"bio_length", len(req.Bio),
		"answers", len(req.Answers),
	)

	persona, err := h.personas.Generate(r.Context(), req.Bio, req.Answers)
	if err != nil {
		slog.Error("Persona generation failed", "error", err, "user_id", userID)
		api.JSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:  "Failed to generate persona",
			Reason: err.Error(),
		})
		return
	}

	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		UserID:     userID,
		SessionID:  sessionID,
		Channel:    "persona_http",
		Direction:  "inbound",
		EventType:  "persona_generated",
		ContentRaw: persona,
		Meta: map[string]any{
			"request_id": reqID,
			"bio_length": len(req.Bio),
		},
	})

	api.JSON(w, http.StatusOK, PersonaResponse{Persona: persona})
}

// HandleChat handles POST /api/chat. The reply is streamed as plain text and
// flushed per fragment. A failure before the first fragment is a 500; after
// that the connection is aborted without writing anything further.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatPayload
	if !h.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Persona) == "" || req.History == nil || strings.TrimSpace(req.Message) == "" {
		api.Error(w, http.StatusBadRequest, "Missing persona, history, or message")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	reqID := chiMiddleware.GetReqID(r.Context())

	slog.Info("Chat request",
		"user_id", userID,
		"session_id", sessionID,
		"history_length", len(req.History),
		"message_length", len(req.Message),
	)
	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		UserID:     userID,
		SessionID:  sessionID,
		Channel:    "chat_http",
		Direction:  "outbound",
		EventType:  "chat_user_message",
		ContentRaw: req.Message,
		Content:    cleanForReadability(req.Message),
		Meta: map[string]any{
			"request_id": reqID,
			"persona":    req.Persona,
		},
	})

	var reply strings.Builder
	streamChunks := 0
	started := false
	streamErrMsg := ""

	for chunk, err := range h.agent.Chat(r.Context(), req.Persona, req.History, req.Message) {
		if err != nil {
			streamErrMsg = err.Error()
			slog.Error("Chat stream failed", "error", err, "user_id", userID, "chunks", streamChunks)
			h.logAssistantMessage(userID, sessionID, reply.String(), streamChunks, true, streamErrMsg, reqID)
			if !started {
				api.Error(w, http.StatusInternalServerError, "Failed to process chat message")
				return
			}
			// Abort the connection so the client sees a truncated body
			// instead of a cleanly terminated one.
			panic(http.ErrAbortHandler)
		}

		if !started {
			writeStreamHeaders(w)
			started = true
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			slog.Warn("failed to write chat chunk", "error", err, "user_id", userID)
			streamErrMsg = err.Error()
			break
		}
		flusher.Flush()
		streamChunks++
		reply.WriteString(chunk)
	}

	if !started {
		writeStreamHeaders(w)
	}
	h.logAssistantMessage(userID, sessionID, reply.String(), streamChunks, streamErrMsg != "", streamErrMsg, reqID)
}

func writeStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) logAssistantMessage(userID, sessionID, content string, streamChunks int, partial bool, streamErrMsg, requestID string) {
	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		UserID:     userID,
		SessionID:  sessionID,
		Channel:    "chat_http",
		Direction:  "inbound",
		EventType:  "chat_assistant_message",
		ContentRaw: content,
		Content:    cleanForReadability(content),
		Meta: map[string]any{
			"stream_chunks": streamChunks,
			"partial":       partial,
			"stream_error":  streamErrMsg,
			"request_id":    requestID,
		},
	})
}
