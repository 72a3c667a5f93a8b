// Package message defines the wire types exchanged with callers over every
// transport.
package message

import (
	"github.com/nadzzz/ordertaker/internal/delivery"
	"github.com/nadzzz/ordertaker/internal/policy"
)

// StartRequest opens a call.
type StartRequest struct {
	// CallID lets the telephony side reuse its own channel identifier.
	// A UUID is generated when empty.
	CallID string `json:"call_id,omitempty"`

	// Caller is the caller's number, for logs only.
	Caller string `json:"caller,omitempty"`

	// Pacing sets the initial pacing: "normal", "concise", "detailed" or "auto".
	Pacing string `json:"pacing,omitempty"`
}

// Turn is one utterance within a call.
type Turn struct {
	// CallID identifies the call. Transports that carry the ID in the path
	// ignore it.
	CallID string `json:"call_id,omitempty"`

	// Speaker is "customer" (default) or "assistant". Assistant turns are
	// recorded when the telephony side speaks lines of its own.
	Speaker string `json:"speaker,omitempty"`

	// Text is the already transcribed utterance.
	Text string `json:"text,omitempty"`

	// Audio is a raw recording to transcribe instead of Text.
	Audio []byte `json:"audio,omitempty"`

	// ContentType is the MIME type of Audio (e.g. "audio/wav").
	ContentType string `json:"content_type,omitempty"`

	// Pacing overrides the call's pacing from this turn on.
	Pacing string `json:"pacing,omitempty"`
}

// HasAudio reports whether the turn carries audio.
func (t *Turn) HasAudio() bool {
	return len(t.Audio) > 0
}

// DigitsRequest carries a DTMF selection.
type DigitsRequest struct {
	CallID string `json:"call_id,omitempty"`
	Digits string `json:"digits"`
}

// CallRef names a call.
type CallRef struct {
	CallID string `json:"call_id"`
}

// TurnResult is the assistant's answer to a turn.
type TurnResult struct {
	CallID string `json:"call_id"`

	// Transcript is the text heard when the turn was audio.
	Transcript string `json:"transcript,omitempty"`

	// Action is what the assistant does next. Text is what to speak.
	Action policy.Action `json:"action"`

	Phase  policy.Phase `json:"phase"`
	Closed bool         `json:"closed"`

	// Error is set on streaming transports where a turn fails but the
	// stream stays open.
	Error string `json:"error,omitempty"`
}

// Order is the current state of a call as it would be delivered.
type Order = delivery.Payload
