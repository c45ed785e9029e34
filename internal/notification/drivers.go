package notification

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/sapliy/emergency-dispatch/internal/config"
	"github.com/sapliy/emergency-dispatch/pkg/observability"
)

// SMSSender sends a single SMS. Implementations are safe for concurrent use.
type SMSSender interface {
	Send(ctx context.Context, body, from, to string) error
}

// NewSMSSender builds the process-wide SMS gateway. With incomplete credentials
// it logs a warning and returns a sender that drops every message.
func NewSMSSender(m config.Messaging, logger *observability.Logger) SMSSender {
	if err := m.Validate(); err != nil {
		logger.Warn("SMS gateway disabled, messages will not be sent", "reason", err.Error())
		return NewNoopSMSDriver(logger)
	}
	return NewTwilioSMSDriver(m, logger)
}

// twilioMessages is the slice of the Twilio REST API used here.
type twilioMessages interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSMSDriver delivers SMS through the Twilio Messages API.
type TwilioSMSDriver struct {
	api    twilioMessages
	logger *observability.Logger
}

func NewTwilioSMSDriver(m config.Messaging, logger *observability.Logger) *TwilioSMSDriver {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: m.AccountSID,
		Password: m.AuthToken,
	})
	return &TwilioSMSDriver{api: client.Api, logger: logger}
}

func (d *TwilioSMSDriver) Send(ctx context.Context, body, from, to string) error {
	// The Twilio client has no context support; honor cancellation before the call.
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := d.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message to %s: %w", to, err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	d.logger.WithContext(ctx).Debug("SMS accepted by gateway", "to", to, "sid", sid)
	return nil
}

// NoopSMSDriver stands in for the gateway when credentials are missing.
type NoopSMSDriver struct {
	logger  *observability.Logger
	dropped atomic.Int64
}

func NewNoopSMSDriver(logger *observability.Logger) *NoopSMSDriver {
	return &NoopSMSDriver{logger: logger}
}

func (d *NoopSMSDriver) Send(ctx context.Context, body, from, to string) error {
	d.dropped.Add(1)
	d.logger.WithContext(ctx).Warn("SMS gateway not configured, message dropped", "to", to)
	return nil
}

// Dropped returns how many messages were discarded.
func (d *NoopSMSDriver) Dropped() int64 {
	return d.dropped.Load()
}

// LogSMSDriver prints messages instead of sending them. Used for dry runs.
type LogSMSDriver struct {
	logger *observability.Logger
}

func NewLogSMSDriver(logger *observability.Logger) *LogSMSDriver {
	return &LogSMSDriver{logger: logger}
}

func (d *LogSMSDriver) Send(ctx context.Context, body, from, to string) error {
	d.logger.WithContext(ctx).Info("[DRY RUN] SMS", "from", from, "to", to, "body", body)
	return nil
}
