package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/nadzzz/ordertaker/internal/message"
)

// Client calls the call service over an existing connection.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, grpc.CallContentSubtype(codecName))
}

// StartCall opens a call.
func (c *Client) StartCall(ctx context.Context, req *message.StartRequest) (*message.TurnResult, error) {
	out := new(message.TurnResult)
	if err := c.invoke(ctx, "StartCall", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendTurn sends one utterance. t.CallID is required.
func (c *Client) SendTurn(ctx context.Context, t *message.Turn) (*message.TurnResult, error) {
	out := new(message.TurnResult)
	if err := c.invoke(ctx, "SendTurn", t, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendDigits sends a DTMF selection.
func (c *Client) SendDigits(ctx context.Context, req *message.DigitsRequest) (*message.TurnResult, error) {
	out := new(message.TurnResult)
	if err := c.invoke(ctx, "SendDigits", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrder returns the order so far.
func (c *Client) GetOrder(ctx context.Context, callID string) (*message.Order, error) {
	out := new(message.Order)
	if err := c.invoke(ctx, "GetOrder", &message.CallRef{CallID: callID}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// EndCall hangs up and returns the final payload.
func (c *Client) EndCall(ctx context.Context, callID string) (*message.Order, error) {
	out := new(message.Order)
	if err := c.invoke(ctx, "EndCall", &message.CallRef{CallID: callID}, out); err != nil {
		return nil, err
	}
	return out, nil
}
