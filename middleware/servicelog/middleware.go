// Package servicelog logs every request-reply call between modules with its duration.
package servicelog

import (
	"context"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// DefaultSlowThreshold is the duration above which a call is logged as slow.
const DefaultSlowThreshold = 500 * time.Millisecond

// Stats counts calls to one service.
type Stats struct {
	Calls  int64
	Errors int64
	Slow   int64
}

// Middleware wraps request-reply handlers with call logging.
type Middleware struct {
	logger        types.Logger
	slowThreshold time.Duration
	now           func() time.Time

	mu    sync.Mutex
	stats map[string]*Stats
}

// Compile-time interface checks
var _ mono.Module = (*Middleware)(nil)
var _ mono.MiddlewareModule = (*Middleware)(nil)

// New creates the middleware. A non-positive slowThreshold selects DefaultSlowThreshold.
func New(slowThreshold time.Duration, logger types.Logger) *Middleware {
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}
	return &Middleware{
		logger:        logger.WithModule("servicelog"),
		slowThreshold: slowThreshold,
		now:           time.Now,
		stats:         make(map[string]*Stats),
	}
}

// Name returns the middleware name.
func (m *Middleware) Name() string {
	return "servicelog"
}

func (m *Middleware) Start(_ context.Context) error {
	m.logger.Info("service call logging enabled", "slow_threshold", m.slowThreshold)
	return nil
}

func (m *Middleware) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, s := range m.stats {
		m.logger.Info("service call totals", "service", name, "calls", s.Calls, "errors", s.Errors, "slow", s.Slow)
	}
	return nil
}

// Stats returns a copy of the counters for service.
func (m *Middleware) Stats(service string) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stats[service]; ok {
		return *s
	}
	return Stats{}
}

func (m *Middleware) record(service string, err error, slow bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[service]
	if !ok {
		s = &Stats{}
		m.stats[service] = s
	}
	s.Calls++
	if err != nil {
		s.Errors++
	}
	if slow {
		s.Slow++
	}
}

// OnServiceRegistration wraps request-reply handlers with timing and logging.
func (m *Middleware) OnServiceRegistration(
	_ context.Context,
	reg types.ServiceRegistration,
) types.ServiceRegistration {
	if reg.Type != types.ServiceTypeRequestReply || reg.RequestHandler == nil {
		return reg
	}

	service := reg.Name
	original := reg.RequestHandler

	reg.RequestHandler = func(ctx context.Context, req *types.Msg) ([]byte, error) {
		start := m.now()
		resp, err := original(ctx, req)
		elapsed := m.now().Sub(start)
		slow := elapsed > m.slowThreshold
		m.record(service, err, slow)

		switch {
		case err != nil:
			m.logger.Error("service call failed", "service", service, "duration", elapsed, "error", err)
		case slow:
			m.logger.Warn("slow service call", "service", service, "duration", elapsed)
		default:
			m.logger.Debug("service call", "service", service, "duration", elapsed, "request_bytes", len(req.Data), "response_bytes", len(resp))
		}
		return resp, err
	}

	return reg
}

// OnModuleLifecycle passes through module lifecycle events unchanged.
func (m *Middleware) OnModuleLifecycle(
	_ context.Context,
	event types.ModuleLifecycleEvent,
) types.ModuleLifecycleEvent {
	return event
}

// OnConfigurationChange passes through configuration changes unchanged.
func (m *Middleware) OnConfigurationChange(
	_ context.Context,
	event types.ConfigurationEvent,
) types.ConfigurationEvent {
	return event
}

// OnOutgoingMessage passes through outgoing messages unchanged.
func (m *Middleware) OnOutgoingMessage(
	octx types.OutgoingMessageContext,
) types.OutgoingMessageContext {
	return octx
}

// OnEventConsumerRegistration passes through event consumer registrations unchanged.
func (m *Middleware) OnEventConsumerRegistration(
	_ context.Context,
	entry types.EventConsumerEntry,
) types.EventConsumerEntry {
	return entry
}

// OnEventStreamConsumerRegistration passes through event stream consumer registrations unchanged.
func (m *Middleware) OnEventStreamConsumerRegistration(
	_ context.Context,
	entry types.EventStreamConsumerEntry,
) types.EventStreamConsumerEntry {
	return entry
}
