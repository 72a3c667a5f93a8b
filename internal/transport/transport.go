// Package transport defines the contract between network front-ends and
// the call dispatcher.
//
// Each transport (HTTP/WebSocket, gRPC) decodes its own wire format and
// calls the Handler. The handler does not care how turns arrive.
package transport

import (
	"context"
	"errors"

	"github.com/nadzzz/ordertaker/internal/dispatch"
	"github.com/nadzzz/ordertaker/internal/message"
)

// Handler is the call API every transport exposes. *dispatch.Dispatcher
// implements it.
type Handler interface {
	StartCall(ctx context.Context, req *message.StartRequest) (*message.TurnResult, error)
	HandleTurn(ctx context.Context, callID string, t *message.Turn) (*message.TurnResult, error)
	HandleDigits(ctx context.Context, callID, digits string) (*message.TurnResult, error)
	Order(ctx context.Context, callID string) (*message.Order, error)
	EndCall(ctx context.Context, callID string) (*message.Order, error)
}

var _ Handler = (*dispatch.Dispatcher)(nil)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier ("http", "grpc").
	Name() string

	// Listen accepts requests and hands them to h. It blocks until the
	// context is cancelled.
	Listen(ctx context.Context, h Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}

// Class groups handler errors the way callers should see them.
type Class int

const (
	ClassInternal Class = iota
	ClassNotFound
	ClassInvalid
	ClassConflict
	ClassUnavailable
)

// Classify maps a handler error to a Class.
func Classify(err error) Class {
	switch {
	case errors.Is(err, dispatch.ErrCallNotFound):
		return ClassNotFound
	case errors.Is(err, dispatch.ErrEmptyTurn), errors.Is(err, dispatch.ErrInvalidTurn):
		return ClassInvalid
	case errors.Is(err, dispatch.ErrCallExists):
		return ClassConflict
	case errors.Is(err, dispatch.ErrAudioDisabled):
		return ClassUnavailable
	default:
		return ClassInternal
	}
}
