package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sapliy/emergency-dispatch/internal/dispatch"
)

// Type is the kind of document change an event reports.
type Type string

const (
	TypeDocumentCreated Type = "document.created"
	TypeDocumentDeleted Type = "document.deleted"
)

// Collections the router knows about.
const (
	CollectionEmergencyRequests = "emergency_requests"
	CollectionUsers             = "users"
)

var ErrMalformedEvent = errors.New("malformed event")

// Event is the envelope for a document change, as published on the change
// stream topic or pushed to /v1/events.
type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	Collection string          `json:"collection"`
	DocumentID string          `json:"document_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an envelope with a fresh id. A nil data produces an event
// without a snapshot.
func NewEvent(collection string, eventType Type, documentID string, data any) (*Event, error) {
	e := &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Collection: collection,
		DocumentID: documentID,
		Timestamp:  time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal event data: %w", err)
		}
		e.Data = raw
	}
	return e, nil
}

// Decode parses and validates an envelope.
func Decode(payload []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (e *Event) Validate() error {
	switch {
	case e.Type == "":
		return fmt.Errorf("%w: missing type", ErrMalformedEvent)
	case e.Collection == "":
		return fmt.Errorf("%w: missing collection", ErrMalformedEvent)
	case e.DocumentID == "":
		return fmt.Errorf("%w: missing document_id", ErrMalformedEvent)
	}
	return nil
}

// HasData reports whether the event carries a document snapshot.
func (e *Event) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

// EmergencyRequest decodes the snapshot. It returns nil, nil when the event
// has no snapshot.
func (e *Event) EmergencyRequest() (*dispatch.EmergencyRequest, error) {
	if !e.HasData() {
		return nil, nil
	}
	var req dispatch.EmergencyRequest
	if err := json.Unmarshal(e.Data, &req); err != nil {
		return nil, fmt.Errorf("%w: emergency request data: %v", ErrMalformedEvent, err)
	}
	return &req, nil
}
