// Package session ties the engine pieces together for one phone call.
//
// A Session owns the order state, the transcript and the conversation
// policy of a single call. It is not safe for concurrent use; the
// dispatcher serialises turns per call.
package session

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/nadzzz/ordertaker/internal/delivery"
	"github.com/nadzzz/ordertaker/internal/extract"
	"github.com/nadzzz/ordertaker/internal/fold"
	"github.com/nadzzz/ordertaker/internal/locale"
	"github.com/nadzzz/ordertaker/internal/order"
	"github.com/nadzzz/ordertaker/internal/policy"
	"github.com/nadzzz/ordertaker/internal/transcript"
	"github.com/nadzzz/ordertaker/internal/utterance"
)

// Options configures every session opened from a Kit.
type Options struct {
	Pacing   policy.Pacing
	Scope    extract.Scope
	Location *time.Location
	Clock    func() time.Time
}

// Kit holds the immutable pieces shared by all calls: the pack, the
// normalizer, the extraction engine and the shaper.
type Kit struct {
	bundle   *locale.Bundle
	norm     *utterance.Normalizer
	engine   *extract.Engine
	shaper   *policy.Shaper
	pacing   policy.Pacing
	location *time.Location
	now      func() time.Time
}

// NewKit prepares the shared engine for a pack.
func NewKit(b *locale.Bundle, opts Options) *Kit {
	tag, err := language.Parse(b.Language)
	if err != nil {
		tag = language.Portuguese
	}
	scope := opts.Scope
	if scope == "" {
		scope = extract.ScopeAll
	}
	k := &Kit{
		bundle:   b,
		norm:     utterance.New(b.Catalog, b.Lexicon, tag),
		engine:   extract.New(b.Catalog, extract.WithScope(scope)),
		shaper:   policy.NewShaper(b.Lexicon),
		pacing:   opts.Pacing,
		location: opts.Location,
		now:      opts.Clock,
	}
	if k.pacing == "" {
		k.pacing = policy.PacingNormal
	}
	if k.location == nil {
		k.location = time.Local
	}
	if k.now == nil {
		k.now = time.Now
	}
	return k
}

// Bundle returns the pack the kit was built from.
func (k *Kit) Bundle() *locale.Bundle { return k.bundle }

// Now returns the kit's clock reading.
func (k *Kit) Now() time.Time { return k.now() }

// Open starts a session for call id.
func (k *Kit) Open(id string) (*Session, error) {
	p, err := policy.New(k.bundle.Catalog, k.bundle.Lexicon)
	if err != nil {
		return nil, fmt.Errorf("opening session %s: %w", id, err)
	}
	now := k.now()
	return &Session{
		id:         id,
		kit:        k,
		state:      order.New(),
		log:        transcript.New(transcript.WithClock(k.now)),
		policy:     p,
		pacing:     k.pacing,
		logger:     slog.With("call_id", id),
		started:    now,
		lastActive: now,
	}, nil
}

// Session is one call.
type Session struct {
	id     string
	kit    *Kit
	state  *order.State
	log    *transcript.Log
	policy *policy.Policy
	pacing policy.Pacing
	logger *slog.Logger

	started    time.Time
	lastActive time.Time
}

// ID returns the call identifier.
func (s *Session) ID() string { return s.id }

// Started returns when the session was opened.
func (s *Session) Started() time.Time { return s.started }

// LastActive returns the time of the last turn.
func (s *Session) LastActive() time.Time { return s.lastActive }

// Phase returns the conversation phase.
func (s *Session) Phase() policy.Phase { return s.policy.Phase() }

// Closed reports whether the order was confirmed.
func (s *Session) Closed() bool { return s.policy.Phase() == policy.Closed }

// SetPacing changes the pacing for this and later turns.
func (s *Session) SetPacing(p policy.Pacing) {
	if p != "" {
		s.pacing = p
	}
}

// Order returns a copy of the current order.
func (s *Session) Order() *order.State { return s.state.Clone() }

// Transcript returns a copy of the turns so far.
func (s *Session) Transcript() []transcript.Entry { return s.log.Entries() }

// Greeting opens the call. The greeting is recorded like any other
// assistant line.
func (s *Session) Greeting() policy.Action {
	s.touch()
	a := s.policy.Greeting(s.kit.now(), s.kit.location)
	s.record(a.Text)
	return a
}

// HandleUtterance processes one turn and returns the assistant's reply.
// Assistant turns are only recorded and mined for name and time; they
// never produce a reply.
func (s *Session) HandleUtterance(raw string, role transcript.Role) policy.Action {
	s.touch()
	text := strings.TrimSpace(raw)

	if role == transcript.Assistant {
		s.record(text)
		return policy.Action{Kind: policy.Silent}
	}

	if s.kit.bundle.Lexicon.IsNoise(fold.String(text)) {
		s.logger.Debug("ignoring noise", "text", text)
		return policy.Action{Kind: policy.Silent}
	}

	s.log.Append(transcript.Customer, text)
	s.apply(text, transcript.Customer)

	a := s.policy.Next(s.state, text)
	a = s.kit.shaper.Shape(a, s.pacing, text)
	s.logger.Info("turn handled", "action", a.Kind, "phase", s.policy.Phase(), "items", len(s.state.Items))
	s.record(a.Text)
	return a
}

// HandleDigits answers a keypad press. The reply is recorded; the digits
// themselves are not part of the transcript.
func (s *Session) HandleDigits(digits string) policy.Action {
	s.touch()
	a := s.policy.Digits(strings.TrimSpace(digits))
	s.logger.Info("digits handled", "digits", digits, "action", a.Kind)
	s.record(a.Text)
	return a
}

// Payload snapshots the call for delivery.
func (s *Session) Payload() *delivery.Payload {
	return delivery.Build(s.id, s.log.Entries(), s.state, s.kit.bundle.Lexicon.Phrases.Summary, s.Closed())
}

// record appends an assistant line and runs extraction over it.
func (s *Session) record(text string) {
	if text == "" {
		return
	}
	s.log.Append(transcript.Assistant, text)
	s.apply(text, transcript.Assistant)
	s.policy.Sync(s.state)
}

// apply runs the engine on text. Once the order is confirmed the engine
// runs on a copy so the confirmed order stays as delivered.
func (s *Session) apply(text string, role transcript.Role) {
	target := s.state
	if s.Closed() {
		target = s.state.Clone()
	}
	u := s.kit.norm.Normalize(text)
	if role == transcript.Assistant {
		u = s.kit.norm.NormalizeReply(text)
	}
	res := s.kit.engine.Apply(u, target, role)
	if !res.Changed() {
		return
	}
	s.logger.Debug("order updated",
		"role", role,
		"added", res.Added,
		"updated", res.Updated,
		"modifiers", len(res.Modifiers),
		"name_set", res.NameSet,
		"pickup_time_set", res.PickupTimeSet,
		"discarded", target != s.state,
	)
}

func (s *Session) touch() {
	s.lastActive = s.kit.now()
}
