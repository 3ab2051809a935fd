package telemetry

import (
	"context"

	"go.uber.org/zap"
)

// Service drains the telemetry pipeline: every event is logged, journaled
// when a journal is configured, and forwarded to OnEvent when set.
type Service struct {
	logger  *zap.Logger
	events  <-chan Event
	journal *Journal

	// OnEvent, when non-nil, receives every drained event. The live event
	// feed hooks in here. Must be set before Run.
	OnEvent func(Event)
}

// NewService wires a drain loop to the sender's channel. journal may be
// nil to run without persistence.
func NewService(logger *zap.Logger, events <-chan Event, journal *Journal) *Service {
	return &Service{
		logger:  logger.Named("telemetry"),
		events:  events,
		journal: journal,
	}
}

// Run drains events until ctx is cancelled or the sender channel closes.
// Journal failures are logged and do not stop the loop.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-s.events:
			if !ok {
				return
			}
			s.handle(ctx, e)
		}
	}
}

func (s *Service) handle(ctx context.Context, e Event) {
	s.logger.Debug("telemetry event", zap.String("kind", e.Kind()), zap.Any("event", e))
	if s.journal != nil {
		if err := s.journal.Insert(ctx, e); err != nil {
			s.logger.Error("journal telemetry event", zap.Error(err))
		}
	}
	if s.OnEvent != nil {
		s.OnEvent(e)
	}
}
