// Package delivery builds the end-of-call payload and hands it to a sink,
// usually an automation webhook.
package delivery

import (
	"time"

	"github.com/nadzzz/ordertaker/internal/lexicon"
	"github.com/nadzzz/ordertaker/internal/order"
	"github.com/nadzzz/ordertaker/internal/transcript"
)

// Turn is one transcript entry as delivered.
type Turn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Item is one order line as delivered.
type Item struct {
	Item      string            `json:"item"`
	Quantity  int               `json:"quantity"`
	Modifiers map[string]string `json:"modifiers"`
}

// OrderDetails carries the structured order. Unset fields are empty strings.
type OrderDetails struct {
	CustomerName string `json:"customer_name"`
	PickupTime   string `json:"pickup_time"`
	Items        []Item `json:"items"`
}

// Payload is the JSON document posted when a call confirms or ends.
type Payload struct {
	CallID       string       `json:"call_id"`
	Closed       bool         `json:"closed"`
	Transcript   []Turn       `json:"transcript"`
	OrderDetails OrderDetails `json:"order_details"`
	OrderSummary string       `json:"order_summary"`
}

// Build snapshots a call. It never fails; an empty order yields an empty
// item list and the localized "empty" summary.
func Build(callID string, entries []transcript.Entry, state *order.State, labels lexicon.SummaryLabels, closed bool) *Payload {
	p := &Payload{
		CallID:     callID,
		Closed:     closed,
		Transcript: make([]Turn, 0, len(entries)),
		OrderDetails: OrderDetails{
			CustomerName: state.CustomerName,
			PickupTime:   state.PickupTime,
			Items:        make([]Item, 0, len(state.Items)),
		},
		OrderSummary: state.Summary(labels),
	}
	for _, e := range entries {
		p.Transcript = append(p.Transcript, Turn{
			Role:      string(e.Role),
			Content:   e.Text,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	for _, it := range state.Items {
		mods := make(map[string]string, len(it.Modifiers))
		for k, v := range it.Modifiers {
			mods[string(k)] = v
		}
		p.OrderDetails.Items = append(p.OrderDetails.Items, Item{
			Item:      it.Name,
			Quantity:  it.Quantity,
			Modifiers: mods,
		})
	}
	return p
}
