package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/sapliy/emergency-dispatch/internal/config"
	"github.com/sapliy/emergency-dispatch/internal/notification"
	"github.com/sapliy/emergency-dispatch/pkg/observability"
)

var tracer = otel.Tracer("github.com/sapliy/emergency-dispatch/internal/dispatch")

// Notifier fans an emergency request out to every eligible responder.
type Notifier struct {
	directory DirectoryStore
	gateway   MessageGateway
	claims    ClaimStore
	messaging config.Messaging
	cfg       config.Dispatch
	template  string
	logger    *observability.Logger
}

// NewNotifier wires a notifier. claims may be nil, which disables de-duplication.
func NewNotifier(directory DirectoryStore, gateway MessageGateway, claims ClaimStore, messaging config.Messaging, cfg config.Dispatch, logger *observability.Logger) *Notifier {
	return &Notifier{
		directory: directory,
		gateway:   gateway,
		claims:    claims,
		messaging: messaging,
		cfg:       cfg,
		template:  notification.TemplateEmergencyAlert,
		logger:    logger,
	}
}

// WithTemplate returns a copy of the notifier that renders templateID instead
// of the default alert. Used for drills.
func (n *Notifier) WithTemplate(templateID string) *Notifier {
	cp := *n
	cp.template = templateID
	return &cp
}

// HandleEmergencyCreated is the trigger entry point for a new emergency-request
// document. It never returns an error: every failure here is either unfixable by
// redelivery or already isolated per responder.
func (n *Notifier) HandleEmergencyCreated(ctx context.Context, requestID string, snapshot *EmergencyRequest) error {
	if snapshot == nil {
		n.logger.WithContext(ctx).Info("emergency request event carried no data, nothing to do", "request_id", requestID)
		InvocationsTotal.WithLabelValues(resultNoPayload).Inc()
		return nil
	}

	req := *snapshot
	if req.ID == "" {
		req.ID = requestID
	}
	n.Notify(ctx, &req)
	return nil
}

// Notify runs one dispatch pass for req and reports what happened.
func (n *Notifier) Notify(ctx context.Context, req *EmergencyRequest) Summary {
	ctx, span := tracer.Start(ctx, "dispatch.Notify", trace.WithAttributes(
		attribute.String("request.id", req.ID),
		attribute.String("request.service_type", string(req.ServiceType)),
	))
	defer span.End()

	log := n.logger.WithContext(ctx).With("request_id", req.ID)
	summary := Summary{RequestID: req.ID}

	if err := n.messaging.Validate(); err != nil {
		log.Error("messaging credentials missing, emergency notifications are disabled", "error", err)
		InvocationsTotal.WithLabelValues(resultUnconfigured).Inc()
		return summary
	}

	responders, err := n.directory.ListByRole(ctx, RoleEmergencyServices)
	if err != nil {
		log.Error("failed to query emergency responders", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "directory query failed")
		InvocationsTotal.WithLabelValues(resultDirectoryError).Inc()
		return summary
	}
	summary.Found = len(responders)
	if len(responders) == 0 {
		log.Warn("no emergency responders found in directory")
		InvocationsTotal.WithLabelValues(resultNoResponders).Inc()
		return summary
	}

	targets := make([]Responder, 0, len(responders))
	for _, r := range responders {
		if ok, reason := eligible(r); !ok {
			log.Info("skipping responder", "responder_id", r.ID, "name", r.Name, "reason", reason)
			RespondersSkipped.WithLabelValues(reason).Inc()
			summary.Skipped++
			continue
		}
		targets = append(targets, r)
	}
	summary.Eligible = len(targets)
	if len(targets) == 0 {
		log.Warn("no eligible emergency responders", "found", summary.Found)
		InvocationsTotal.WithLabelValues(resultNoEligible).Inc()
		return summary
	}

	body, err := ComposeMessage(n.template, n.cfg.Organization, req)
	if err != nil {
		log.Error("failed to compose emergency message", "error", err)
		InvocationsTotal.WithLabelValues(resultTemplateError).Inc()
		return summary
	}

	outcomes := n.fanOut(ctx, req.ID, targets, body)
	for _, o := range outcomes {
		switch {
		case o.Duplicate:
			summary.Duplicates++
		case o.Err != nil:
			summary.Failed++
		default:
			summary.Sent++
		}
	}

	span.SetAttributes(
		attribute.Int("dispatch.sent", summary.Sent),
		attribute.Int("dispatch.failed", summary.Failed),
	)
	log.Info("emergency notification dispatch complete",
		"found", summary.Found,
		"eligible", summary.Eligible,
		"skipped", summary.Skipped,
		"sent", summary.Sent,
		"failed", summary.Failed,
		"duplicates", summary.Duplicates,
	)
	InvocationsTotal.WithLabelValues(resultDispatched).Inc()
	return summary
}

// fanOut sends body to every target concurrently and waits for all sends to settle.
// Sends never report errors to the group, so one failure cannot cancel the others.
func (n *Notifier) fanOut(ctx context.Context, requestID string, targets []Responder, body string) []Outcome {
	start := time.Now()
	defer func() { FanoutDuration.Observe(time.Since(start).Seconds()) }()

	var g errgroup.Group
	if n.cfg.MaxConcurrency > 0 {
		g.SetLimit(n.cfg.MaxConcurrency)
	}

	outcomes := make([]Outcome, len(targets))
	for i, r := range targets {
		g.Go(func() error {
			outcomes[i] = n.send(ctx, requestID, r, body)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (n *Notifier) send(ctx context.Context, requestID string, r Responder, body string) Outcome {
	ctx, span := tracer.Start(ctx, "dispatch.send", trace.WithAttributes(
		attribute.String("responder.id", r.ID),
	))
	defer span.End()

	log := n.logger.WithContext(ctx).With("request_id", requestID, "responder_id", r.ID, "name", r.Name, "phone", r.Phone)
	out := Outcome{ResponderID: r.ID, Phone: r.Phone}

	key := claimKey(requestID, r.ID)
	claimed := false
	if n.claims != nil {
		ok, err := n.claims.Claim(ctx, key, n.cfg.DedupTTL)
		switch {
		case err != nil:
			log.Warn("claim store unavailable, sending without de-duplication", "error", err)
		case !ok:
			log.Info("responder already alerted for this request, skipping")
			NotificationsTotal.WithLabelValues(outcomeDuplicate).Inc()
			out.Duplicate = true
			return out
		default:
			claimed = true
		}
	}

	if err := n.deliver(ctx, body, r.Phone); err != nil {
		out.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		log.Error("failed to send emergency SMS", "error", err)
		NotificationsTotal.WithLabelValues(outcomeFailed).Inc()
		if claimed {
			if rerr := n.claims.Release(ctx, key); rerr != nil {
				log.Warn("failed to release claim after send failure", "error", rerr)
			}
		}
		return out
	}

	log.Info("emergency SMS sent")
	NotificationsTotal.WithLabelValues(outcomeSent).Inc()
	return out
}

// deliver calls the gateway, turning a panic into an error so it stays local to one responder.
func (n *Notifier) deliver(ctx context.Context, body, to string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("gateway panic: %v", p)
		}
	}()
	return n.gateway.Send(ctx, body, n.messaging.FromNumber, to)
}
