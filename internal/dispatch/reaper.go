package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sapliy/emergency-dispatch/pkg/observability"
)

// DeadLetter is the record published when an identity could not be removed.
type DeadLetter struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// Reaper removes the authentication identity of a deleted user.
type Reaper struct {
	identity    IdentityProvider
	deadLetters DeadLetterPublisher
	queue       string
	alerter     Alerter
	logger      *observability.Logger
	now         func() time.Time
}

// NewReaper wires a reaper. deadLetters and alerter are optional.
func NewReaper(identity IdentityProvider, deadLetters DeadLetterPublisher, queue string, alerter Alerter, logger *observability.Logger) *Reaper {
	return &Reaper{
		identity:    identity,
		deadLetters: deadLetters,
		queue:       queue,
		alerter:     alerter,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleUserDeleted deletes the identity for userID. Failures are logged and
// reported out of band; the trigger itself always succeeds.
func (r *Reaper) HandleUserDeleted(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "dispatch.HandleUserDeleted")
	defer span.End()

	log := r.logger.WithContext(ctx).With("user_id", userID)
	if userID == "" {
		log.Warn("user deletion event without id, ignoring")
		return nil
	}

	err := r.identity.DeleteIdentity(ctx, userID)
	switch {
	case err == nil:
		log.Info("authentication identity deleted")
		ReaperDeletions.WithLabelValues(reapDeleted).Inc()
	case errors.Is(err, ErrIdentityNotFound):
		log.Info("authentication identity already removed")
		ReaperDeletions.WithLabelValues(reapNotFound).Inc()
	default:
		span.RecordError(err)
		log.Error("failed to delete authentication identity", "error", err)
		ReaperDeletions.WithLabelValues(reapFailed).Inc()
		r.escalate(ctx, userID, err)
	}
	return nil
}

func (r *Reaper) escalate(ctx context.Context, userID string, cause error) {
	log := r.logger.WithContext(ctx).With("user_id", userID)

	if r.deadLetters != nil {
		body, err := json.Marshal(DeadLetter{
			ID:       uuid.NewString(),
			UserID:   userID,
			Error:    cause.Error(),
			FailedAt: r.now().UTC(),
		})
		if err == nil {
			err = r.deadLetters.Publish(ctx, r.queue, body)
		}
		if err != nil {
			log.Error("failed to publish reaper dead letter", "queue", r.queue, "error", err)
		}
	}

	if r.alerter != nil {
		subject := "Identity deletion failed"
		body := fmt.Sprintf("Could not delete the authentication identity of user %s.\n\nError: %v", userID, cause)
		if err := r.alerter.Alert(ctx, subject, body); err != nil {
			log.Error("failed to send operator alert", "error", err)
		}
	}
}
