package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/ordertaker/internal/delivery"
	"github.com/nadzzz/ordertaker/internal/dispatch"
	"github.com/nadzzz/ordertaker/internal/locale"
	"github.com/nadzzz/ordertaker/internal/message"
	"github.com/nadzzz/ordertaker/internal/policy"
	"github.com/nadzzz/ordertaker/internal/session"
)

type discardSink struct{}

func (discardSink) Name() string                                     { return "discard" }
func (discardSink) Deliver(context.Context, *delivery.Payload) error { return nil }

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	b, err := locale.Default()
	require.NoError(t, err)
	d := dispatch.New(session.NewKit(b, session.Options{Location: time.UTC}), discardSink{})

	srv := httptest.NewServer(New(0).Routes(d))
	t.Cleanup(func() {
		srv.Close()
		_ = d.Shutdown(context.Background())
	})
	return srv
}

func do(t *testing.T, method, url, contentType string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func startCall(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/calls", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decode[message.TurnResult](t, resp)
	require.NotEmpty(t, res.CallID)
	return res.CallID
}

func TestCallOverREST(t *testing.T) {
	srv := newServer(t)
	id := startCall(t, srv)

	turn := `{"text":"quero um frango do churrasco com molho da casa e picante, para as 15h30, em nome de Maria Silva"}`
	resp := do(t, http.MethodPost, srv.URL+"/calls/"+id+"/turns", "application/json", []byte(turn))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[message.TurnResult](t, resp)
	assert.Equal(t, policy.Summarize, res.Action.Kind)
	assert.Equal(t, policy.AwaitingCompletion, res.Phase)

	resp = do(t, http.MethodPost, srv.URL+"/calls/"+id+"/dtmf", "application/json", []byte(`{"digits":"4"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, policy.Speak, decode[message.TurnResult](t, resp).Action.Kind)

	resp = do(t, http.MethodGet, srv.URL+"/calls/"+id, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decode[delivery.Payload](t, resp)
	assert.Equal(t, "Maria Silva", p.OrderDetails.CustomerName)
	assert.Equal(t, "15:30", p.OrderDetails.PickupTime)

	resp = do(t, http.MethodDelete, srv.URL+"/calls/"+id, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, decode[delivery.Payload](t, resp).CallID)

	resp = do(t, http.MethodGet, srv.URL+"/calls/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartCallWithBody(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/calls", "application/json", []byte(`{"call_id":"sip-7","pacing":"concise"}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "sip-7", decode[message.TurnResult](t, resp).CallID)

	resp = do(t, http.MethodPost, srv.URL+"/calls", "application/json", []byte(`{"call_id":"sip-7"}`))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/calls", "application/json", []byte(`{"pacing":"slow"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTurnErrors(t *testing.T) {
	srv := newServer(t)
	id := startCall(t, srv)

	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		want        int
	}{
		{"malformed json", "/calls/" + id + "/turns", "application/json", "{", http.StatusBadRequest},
		{"empty turn", "/calls/" + id + "/turns", "application/json", "{}", http.StatusBadRequest},
		{"bad speaker", "/calls/" + id + "/turns", "application/json", `{"text":"olá","speaker":"bot"}`, http.StatusBadRequest},
		{"audio without stt", "/calls/" + id + "/turns", "audio/wav", "RIFF", http.StatusServiceUnavailable},
		{"unknown call", "/calls/nope/turns", "application/json", `{"text":"olá"}`, http.StatusNotFound},
		{"unknown call dtmf", "/calls/nope/dtmf", "application/json", `{"digits":"1"}`, http.StatusNotFound},
		{"missing digits", "/calls/" + id + "/dtmf", "application/json", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+tt.path, tt.contentType, []byte(tt.body))
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	resp := do(t, http.MethodDelete, srv.URL+"/calls/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOversizedAudioIsRejected(t *testing.T) {
	defer func(n int64) { maxAudioBytes = n }(maxAudioBytes)
	maxAudioBytes = 16

	srv := newServer(t)
	id := startCall(t, srv)

	resp := do(t, http.MethodPost, srv.URL+"/calls/"+id+"/turns", "audio/wav", bytes.Repeat([]byte{1}, 17))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/calls/"+id+"/turns", "audio/wav", bytes.Repeat([]byte{1}, 16))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "audio at the limit reaches the dispatcher")
}

func TestWebSocketStream(t *testing.T) {
	srv := newServer(t)
	id := startCall(t, srv)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/calls/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(message.Turn{Text: "dois frangos com molho de alho e sem picante"}))
	var res message.TurnResult
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, "Anotado, 2x Frango do Churrasco. Mais alguma coisa?", res.Action.Text)

	require.NoError(t, conn.WriteJSON(message.Turn{}))
	res = message.TurnResult{}
	require.NoError(t, conn.ReadJSON(&res))
	assert.NotEmpty(t, res.Error, "a bad turn is reported without closing the stream")

	require.NoError(t, conn.WriteJSON(message.Turn{Text: "é tudo"}))
	res = message.TurnResult{}
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, policy.AskMissingField, res.Action.Kind)
}

func TestWebSocketUnknownCall(t *testing.T) {
	srv := newServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/calls/nope/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSwaggerUI(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/swagger/index.html", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
