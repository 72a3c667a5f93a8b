// Package dispatch keeps the registry of live calls and routes every
// transport request to the right session.
//
// Turns for one call are serialised by a per-call lock; different calls
// run in parallel. Delivery is triggered when an order is confirmed and
// again when the call ends (hang-up, idle expiry or shutdown), so sinks
// see at least one payload per call.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/ordertaker/internal/delivery"
	"github.com/nadzzz/ordertaker/internal/message"
	"github.com/nadzzz/ordertaker/internal/policy"
	"github.com/nadzzz/ordertaker/internal/session"
	"github.com/nadzzz/ordertaker/internal/stt"
	"github.com/nadzzz/ordertaker/internal/transcript"
)

var (
	ErrCallNotFound  = errors.New("call not found")
	ErrCallExists    = errors.New("call already exists")
	ErrEmptyTurn     = errors.New("turn has no text and no audio")
	ErrAudioDisabled = errors.New("audio turns need speech-to-text, which is disabled")
	ErrInvalidTurn   = errors.New("invalid turn")
)

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (*stt.Result, error)
}

const (
	defaultIdleTimeout  = 5 * time.Minute
	defaultReapInterval = 30 * time.Second
	deliveryTimeout     = time.Minute
)

type call struct {
	mu      sync.Mutex
	session *session.Session
	ended   bool
}

// Dispatcher is the call registry.
type Dispatcher struct {
	kit         *session.Kit
	sink        delivery.Sink
	transcriber Transcriber // nil if STT is disabled

	idleTimeout  time.Duration
	reapInterval time.Duration
	newID        func() string

	mu    sync.Mutex
	calls map[string]*call

	deliveries sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTranscriber enables audio turns.
func WithTranscriber(t Transcriber) Option {
	return func(d *Dispatcher) { d.transcriber = t }
}

// WithIdleTimeout sets how long a silent call stays open.
func WithIdleTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.idleTimeout = timeout
		}
	}
}

// WithReapInterval sets how often idle calls are looked for.
func WithReapInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.reapInterval = interval
		}
	}
}

// WithIDGenerator replaces UUID call IDs.
func WithIDGenerator(f func() string) Option {
	return func(d *Dispatcher) { d.newID = f }
}

// New creates a dispatcher. A nil sink falls back to logging payloads.
func New(kit *session.Kit, sink delivery.Sink, opts ...Option) *Dispatcher {
	if sink == nil {
		sink = delivery.LogSink{}
	}
	d := &Dispatcher{
		kit:          kit,
		sink:         sink,
		idleTimeout:  defaultIdleTimeout,
		reapInterval: defaultReapInterval,
		newID:        uuid.NewString,
		calls:        make(map[string]*call),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Active returns the number of open calls.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

// StartCall opens a call and returns its greeting.
func (d *Dispatcher) StartCall(ctx context.Context, req *message.StartRequest) (*message.TurnResult, error) {
	pacing, err := policy.ParsePacing(req.Pacing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTurn, err)
	}

	id := req.CallID
	if id == "" {
		id = d.newID()
	}

	s, err := d.kit.Open(id)
	if err != nil {
		return nil, err
	}
	s.SetPacing(pacing)

	c := &call{session: s}
	c.mu.Lock()
	defer c.mu.Unlock()

	d.mu.Lock()
	if _, ok := d.calls[id]; ok {
		d.mu.Unlock()
		return nil, fmt.Errorf("starting %s: %w", id, ErrCallExists)
	}
	d.calls[id] = c
	d.mu.Unlock()

	slog.Info("call started", "call_id", id, "caller", req.Caller, "pacing", pacing)
	return result(s, s.Greeting(), ""), nil
}

// HandleTurn runs one utterance through the call's session.
func (d *Dispatcher) HandleTurn(ctx context.Context, callID string, t *message.Turn) (*message.TurnResult, error) {
	role := transcript.Customer
	if t.Speaker != "" {
		role = transcript.Role(t.Speaker)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: unknown speaker %q", ErrInvalidTurn, t.Speaker)
		}
	}
	pacing, err := policy.ParsePacing(t.Pacing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTurn, err)
	}
	if !t.HasAudio() && t.Text == "" {
		return nil, ErrEmptyTurn
	}
	if t.HasAudio() && d.transcriber == nil {
		return nil, ErrAudioDisabled
	}

	c, err := d.lock(callID)
	if err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	logger := slog.With("call_id", callID)

	text, heard := t.Text, ""
	if t.HasAudio() {
		logger.Debug("transcribing audio", "content_type", t.ContentType, "bytes", len(t.Audio))
		res, err := d.transcriber.Transcribe(ctx, t.Audio, t.ContentType)
		if err != nil {
			logger.Error("transcription failed", "error", err)
			return nil, fmt.Errorf("transcribing turn: %w", err)
		}
		text, heard = res.Text, res.Text
		logger.Info("transcription complete", "text_length", len(text), "language", res.Language)
	}

	if t.Pacing != "" {
		c.session.SetPacing(pacing)
	}
	wasClosed := c.session.Closed()
	a := c.session.HandleUtterance(text, role)
	if a.Kind == policy.Confirm && !wasClosed {
		d.deliver(c.session.Payload(), "confirmed")
	}
	return result(c.session, a, heard), nil
}

// HandleDigits answers a keypad selection.
func (d *Dispatcher) HandleDigits(ctx context.Context, callID, digits string) (*message.TurnResult, error) {
	if digits == "" {
		return nil, fmt.Errorf("%w: no digits", ErrInvalidTurn)
	}
	c, err := d.lock(callID)
	if err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	return result(c.session, c.session.HandleDigits(digits), ""), nil
}

// Order returns the call's current payload without delivering it.
func (d *Dispatcher) Order(ctx context.Context, callID string) (*message.Order, error) {
	c, err := d.lock(callID)
	if err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	return c.session.Payload(), nil
}

// EndCall closes a call, delivers its payload and returns it.
func (d *Dispatcher) EndCall(ctx context.Context, callID string) (*message.Order, error) {
	c, err := d.lock(callID)
	if err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	return d.end(c, "hangup"), nil
}

// Run reaps idle calls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := d.reap(d.kit.Now()); n > 0 {
				slog.Info("idle calls ended", "count", n)
			}
		}
	}
}

// Shutdown ends every open call, delivering each, and waits for pending
// deliveries or ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	for _, c := range d.snapshot() {
		c.mu.Lock()
		if !c.ended {
			d.end(c, "shutdown")
		}
		c.mu.Unlock()
	}

	done := make(chan struct{})
	go func() {
		d.deliveries.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for deliveries: %w", ctx.Err())
	}
}

func (d *Dispatcher) reap(now time.Time) int {
	n := 0
	for _, c := range d.snapshot() {
		c.mu.Lock()
		if !c.ended && now.Sub(c.session.LastActive()) >= d.idleTimeout {
			d.end(c, "idle")
			n++
		}
		c.mu.Unlock()
	}
	return n
}

// lock returns the call locked. The caller unlocks it.
func (d *Dispatcher) lock(callID string) (*call, error) {
	d.mu.Lock()
	c, ok := d.calls[callID]
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("call %s: %w", callID, ErrCallNotFound)
	}
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return nil, fmt.Errorf("call %s: %w", callID, ErrCallNotFound)
	}
	return c, nil
}

// end removes c from the registry and delivers it. c must be locked.
func (d *Dispatcher) end(c *call, reason string) *message.Order {
	c.ended = true
	id := c.session.ID()

	d.mu.Lock()
	delete(d.calls, id)
	d.mu.Unlock()

	p := c.session.Payload()
	slog.Info("call ended", "call_id", id, "reason", reason, "closed", p.Closed, "turns", len(p.Transcript))
	d.deliver(p, reason)
	return p
}

func (d *Dispatcher) snapshot() []*call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*call, 0, len(d.calls))
	for _, c := range d.calls {
		out = append(out, c)
	}
	return out
}

// deliver hands p to the sink in the background. Failures are logged only;
// the call has already been answered.
func (d *Dispatcher) deliver(p *delivery.Payload, reason string) {
	d.deliveries.Add(1)
	go func() {
		defer d.deliveries.Done()
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		if err := d.sink.Deliver(ctx, p); err != nil {
			slog.Error("delivery failed", "call_id", p.CallID, "sink", d.sink.Name(), "reason", reason, "error", err)
		}
	}()
}

func result(s *session.Session, a policy.Action, heard string) *message.TurnResult {
	return &message.TurnResult{
		CallID:     s.ID(),
		Transcript: heard,
		Action:     a,
		Phase:      s.Phase(),
		Closed:     s.Closed(),
	}
}
