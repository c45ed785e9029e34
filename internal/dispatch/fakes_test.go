package dispatch

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sapliy/emergency-dispatch/internal/config"
	"github.com/sapliy/emergency-dispatch/pkg/observability"
)

type fakeDirectory struct {
	responders []Responder
	err        error
	calls      atomic.Int32
	lastRole   string
}

func (f *fakeDirectory) ListByRole(ctx context.Context, role string) ([]Responder, error) {
	f.calls.Add(1)
	f.lastRole = role
	return f.responders, f.err
}

type sentMessage struct {
	Body, From, To string
}

type fakeGateway struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]error
	panicTo string
	calls   atomic.Int32
}

func (f *fakeGateway) Send(ctx context.Context, body, from, to string) error {
	f.calls.Add(1)
	if to == f.panicTo && to != "" {
		panic("gateway exploded")
	}
	if err, ok := f.failFor[to]; ok {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{Body: body, From: from, To: to})
	return nil
}

func (f *fakeGateway) recipients() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]bool, len(f.sent))
	for _, m := range f.sent {
		out[m.To] = true
	}
	return out
}

type fakeClaims struct {
	mu       sync.Mutex
	keys     map[string]bool
	err      error
	released []string
}

func newFakeClaims(preclaimed ...string) *fakeClaims {
	c := &fakeClaims{keys: make(map[string]bool)}
	for _, k := range preclaimed {
		c.keys[k] = true
	}
	return c
}

func (c *fakeClaims) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

func (c *fakeClaims) Release(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	c.released = append(c.released, key)
	return nil
}

type fakeIdentity struct {
	mu       sync.Mutex
	existing map[string]bool
	err      error
	calls    int
}

func (f *fakeIdentity) DeleteIdentity(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if !f.existing[userID] {
		return ErrIdentityNotFound
	}
	delete(f.existing, userID)
	return nil
}

type fakePublisher struct {
	queue string
	body  []byte
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, queue string, body []byte) error {
	f.queue = queue
	f.body = body
	return f.err
}

type fakeAlerter struct {
	subject, body string
}

func (f *fakeAlerter) Alert(ctx context.Context, subject, body string) error {
	f.subject = subject
	f.body = body
	return nil
}

func validMessaging() config.Messaging {
	return config.Messaging{AccountSID: "AC123", AuthToken: "token", FromNumber: "+15550001111"}
}

func testDispatchConfig() config.Dispatch {
	return config.Dispatch{Organization: "Sapliy Health", DedupTTL: time.Hour}
}

// newTestLogger returns a logger writing JSON lines into the returned buffer.
func newTestLogger(t *testing.T) (*observability.Logger, *syncBuffer) {
	t.Helper()
	buf := &syncBuffer{}
	return observability.NewLoggerTo(buf, "dispatch-test", slog.LevelDebug), buf
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
