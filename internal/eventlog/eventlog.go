package eventlog

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage"
)

// DefaultMaxMessageLen is the bound applied to event messages before they
// reach the durable log.
const DefaultMaxMessageLen = 2000

// Sink receives build progress events. Appending is fire-and-forget: a sink
// must never block or fail the calling step.
type Sink interface {
	Append(ctx context.Context, buildID, message string, severity model.EventSeverity)
}

// Noop is a sink that discards all events.
var Noop Sink = noop(0)

type noop int

func (noop) Append(context.Context, string, string, model.EventSeverity) {}

// Truncate bounds a message to max bytes without splitting a UTF-8 rune.
func Truncate(msg string, max int) string {
	if max <= 0 || len(msg) <= max {
		return msg
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

// StoreSinkConfig is the configuration for the store-backed sink.
type StoreSinkConfig struct {
	Repository    storage.Repository
	MaxMessageLen int
	Logger        log.Logger
}

func (c *StoreSinkConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.MaxMessageLen == 0 {
		c.MaxMessageLen = DefaultMaxMessageLen
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "eventlog.StoreSink"})
	return nil
}

// StoreSink persists events through a storage repository. Persistence errors
// are swallowed and logged, logging is best-effort by contract.
type StoreSink struct {
	repo   storage.Repository
	maxLen int
	logger log.Logger
}

// NewStoreSink creates a new store-backed sink.
func NewStoreSink(cfg StoreSinkConfig) (*StoreSink, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &StoreSink{
		repo:   cfg.Repository,
		maxLen: cfg.MaxMessageLen,
		logger: cfg.Logger,
	}, nil
}

// Append persists one progress event.
func (s *StoreSink) Append(ctx context.Context, buildID, message string, severity model.EventSeverity) {
	e := model.ProgressEvent{
		ID:        ulid.Make().String(),
		BuildID:   buildID,
		Message:   Truncate(message, s.maxLen),
		Severity:  severity,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.AppendEvent(ctx, e); err != nil {
		s.logger.Warningf("Could not append progress event for build %s: %v", buildID, err)
	}
}
