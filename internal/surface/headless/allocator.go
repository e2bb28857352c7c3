package headless

import (
	"time"

	"github.com/google/uuid"
	"github.com/hearthdesk/hearth/backend/internal/infrastructure/logging"
	"github.com/hearthdesk/hearth/backend/internal/surface"
	"go.uber.org/zap"
)

// Allocator creates headless surfaces sharing one prober.
type Allocator struct {
	prober        *Prober
	scriptTimeout time.Duration
	log           *logging.Logger
}

// NewAllocator creates a headless surface allocator.
func NewAllocator(prober *Prober, scriptTimeout time.Duration, log *logging.Logger) *Allocator {
	if log == nil {
		log = logging.NewNop()
	}
	return &Allocator{
		prober:        prober,
		scriptTimeout: scriptTimeout,
		log:           log.Named("surface"),
	}
}

// Allocate creates a surface for appID with a fresh content id.
func (a *Allocator) Allocate(appID string, opts surface.Options, sink surface.EventSink) (surface.Surface, error) {
	contentID := uuid.New().String()
	s, err := newSurface(contentID, appID, opts, sink, a.prober, a.scriptTimeout, a.log)
	if err != nil {
		return nil, err
	}
	a.log.Debug("Surface allocated",
		zap.String("app_id", appID),
		zap.String("content_id", contentID),
		zap.Bool("sandbox", opts.Sandbox))
	return s, nil
}
