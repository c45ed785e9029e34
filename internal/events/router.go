package events

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sapliy/emergency-dispatch/internal/dispatch"
	"github.com/sapliy/emergency-dispatch/pkg/observability"
)

var EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dispatch_events_total",
	Help: "Document change events received, by routing result",
}, []string{"result"})

const (
	resultRouted    = "routed"
	resultIgnored   = "ignored"
	resultMalformed = "malformed"
)

type EmergencyHandler interface {
	HandleEmergencyCreated(ctx context.Context, requestID string, snapshot *dispatch.EmergencyRequest) error
}

type UserDeletionHandler interface {
	HandleUserDeleted(ctx context.Context, userID string) error
}

// Router maps (collection, type) pairs to handlers.
type Router struct {
	emergencies EmergencyHandler
	users       UserDeletionHandler
	logger      *observability.Logger
}

func NewRouter(emergencies EmergencyHandler, users UserDeletionHandler, logger *observability.Logger) *Router {
	return &Router{emergencies: emergencies, users: users, logger: logger}
}

// Handle decodes a raw message and dispatches it. Malformed payloads are logged
// and dropped so the consumer does not redeliver them forever.
func (r *Router) Handle(ctx context.Context, key string, value []byte) error {
	e, err := Decode(value)
	if err != nil {
		EventsTotal.WithLabelValues(resultMalformed).Inc()
		r.logger.WithContext(ctx).Error("dropping malformed event", "key", key, "error", err)
		return nil
	}
	return r.Dispatch(ctx, e)
}

// Dispatch routes a decoded event.
func (r *Router) Dispatch(ctx context.Context, e *Event) error {
	log := r.logger.WithContext(ctx).With(
		"event_id", e.ID,
		"collection", e.Collection,
		"type", e.Type,
		"document_id", e.DocumentID,
	)

	switch {
	case e.Collection == CollectionEmergencyRequests && e.Type == TypeDocumentCreated:
		snapshot, err := e.EmergencyRequest()
		if err != nil {
			EventsTotal.WithLabelValues(resultMalformed).Inc()
			log.Error("dropping event with unreadable snapshot", "error", err)
			return nil
		}
		EventsTotal.WithLabelValues(resultRouted).Inc()
		return r.emergencies.HandleEmergencyCreated(ctx, e.DocumentID, snapshot)

	case e.Collection == CollectionUsers && e.Type == TypeDocumentDeleted:
		EventsTotal.WithLabelValues(resultRouted).Inc()
		return r.users.HandleUserDeleted(ctx, e.DocumentID)

	default:
		EventsTotal.WithLabelValues(resultIgnored).Inc()
		log.Debug("no handler for event")
		return nil
	}
}
