package agent

import (
	"container/list"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
)

// ConversationLogEvent is one NDJSON line of a conversation log.
type ConversationLogEvent struct {
	Timestamp  string         `json:"ts"`
	UserID     string         `json:"user_id"`
	SessionID  string         `json:"session_id"`
	Channel    string         `json:"channel"`
	Direction  string         `json:"direction"`
	EventType  string         `json:"event_type"`
	ContentRaw string         `json:"content_raw"`
	Content    string         `json:"content"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// ConversationLogConfig controls where conversation logs go.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
	// MaxOpenFiles bounds the per-session files kept open at once. The least
	// recently written file is closed first.
	MaxOpenFiles int
}

const defaultMaxOpenFiles = 64

// ConversationLogger records chat traffic. Log never blocks the caller.
type ConversationLogger interface {
	Log(event ConversationLogEvent)
	Close() error
}

type noopConversationLogger struct{}

func (noopConversationLogger) Log(ConversationLogEvent) {}
func (noopConversationLogger) Close() error             { return nil }

var (
	ansiPattern    = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
	pathUnsafeChar = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// cleanForReadability strips ANSI escapes and control characters, keeping
// newlines and tabs.
func cleanForReadability(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func safePathComponent(s string) string {
	s = pathUnsafeChar.ReplaceAllString(s, "_")
	if s == "" || s == "." || s == ".." {
		return "unknown"
	}
	return s
}

type fileConversationLogger struct {
	cfg     ConversationLogConfig
	logger  *slog.Logger
	queue   chan ConversationLogEvent
	wg      *conc.WaitGroup
	mu      sync.RWMutex
	closed  bool
	files   map[string]*list.Element // path -> element holding *openLogFile
	lru     *list.List               // most recently written at the front
	global  *os.File
	dropped atomic.Int64
}

// NewConversationLogger returns a logger writing one NDJSON file per
// user/session under cfg.Dir and, optionally, every event to cfg.GlobalPath.
// A disabled config yields a logger that discards everything.
func NewConversationLogger(cfg ConversationLogConfig, logger *slog.Logger) (ConversationLogger, error) {
	if !cfg.Enabled {
		return noopConversationLogger{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.MaxOpenFiles <= 0 {
		cfg.MaxOpenFiles = defaultMaxOpenFiles
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create conversation log dir: %w", err)
	}

	l := &fileConversationLogger{
		cfg:    cfg,
		logger: logger,
		queue:  make(chan ConversationLogEvent, cfg.QueueSize),
		wg:     conc.NewWaitGroup(),
		files:  make(map[string]*list.Element),
		lru:    list.New(),
	}

	if cfg.GlobalEnabled {
		if err := os.MkdirAll(filepath.Dir(cfg.GlobalPath), 0o750); err != nil {
			return nil, fmt.Errorf("create global conversation log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.GlobalPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return nil, fmt.Errorf("open global conversation log: %w", err)
		}
		l.global = f
	}

	l.wg.Go(l.run)
	return l, nil
}

func (l *fileConversationLogger) Log(event ConversationLogEvent) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if event.Content == "" {
		event.Content = cleanForReadability(event.ContentRaw)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- event:
	default:
		if n := l.dropped.Add(1); n == 1 || n%100 == 0 {
			l.logger.Warn("conversation log queue full, dropping events", "dropped", n)
		}
	}
}

func (l *fileConversationLogger) run() {
	for event := range l.queue {
		line, err := json.Marshal(event)
		if err != nil {
			l.logger.Warn("failed to marshal conversation log event", "error", err)
			continue
		}
		line = append(line, '\n')

		if err := l.writeSession(event, line); err != nil {
			l.logger.Warn("failed to write conversation log", "error", err, "user_id", event.UserID)
		}
		if l.global != nil {
			if _, err := l.global.Write(line); err != nil {
				l.logger.Warn("failed to write global conversation log", "error", err)
			}
		}
	}
}

type openLogFile struct {
	path string
	f    *os.File
}

func (l *fileConversationLogger) writeSession(event ConversationLogEvent, line []byte) error {
	userDir := filepath.Join(l.cfg.Dir, safePathComponent(event.UserID))
	path := filepath.Join(userDir, safePathComponent(event.SessionID)+".ndjson")

	if el, ok := l.files[path]; ok {
		l.lru.MoveToFront(el)
		_, err := el.Value.(*openLogFile).f.Write(line)
		return err
	}

	if err := os.MkdirAll(userDir, 0o750); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	for l.lru.Len() >= l.cfg.MaxOpenFiles {
		l.evictOldest()
	}
	l.files[path] = l.lru.PushFront(&openLogFile{path: path, f: f})

	_, err = f.Write(line)
	return err
}

func (l *fileConversationLogger) evictOldest() {
	el := l.lru.Back()
	if el == nil {
		return
	}
	of := l.lru.Remove(el).(*openLogFile)
	delete(l.files, of.path)
	if err := of.f.Close(); err != nil {
		l.logger.Warn("failed to close conversation log", "error", err, "path", of.path)
	}
}

// Close drains the queue and closes every open file.
func (l *fileConversationLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	l.wg.Wait()

	var errs []error
	for el := l.lru.Front(); el != nil; el = el.Next() {
		errs = append(errs, el.Value.(*openLogFile).f.Close())
	}
	l.lru.Init()
	clear(l.files)
	if l.global != nil {
		errs = append(errs, l.global.Close())
	}
	return errors.Join(errs...)
}
