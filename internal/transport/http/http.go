// Package http implements the HTTP/WebSocket transport.
//
// It exposes a small REST API for call control, a WebSocket endpoint that
// streams turns for one call, and the Swagger UI. It is what telephony
// bridges (Asterisk AGI scripts, SIP gateways) talk to.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/ordertaker/internal/message"
	"github.com/nadzzz/ordertaker/internal/transport"
)

var maxAudioBytes int64 = 25 << 20

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	port     int
	server   *http.Server
	upgrader websocket.Upgrader
}

// New creates a new HTTP transport on the given port.
func New(port int) *Transport {
	return &Transport{
		port: port,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Routes returns the API mux bound to h.
func (t *Transport) Routes(h transport.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /calls", func(w http.ResponseWriter, r *http.Request) {
		t.handleStart(w, r, h)
	})
	mux.HandleFunc("POST /calls/{id}/turns", func(w http.ResponseWriter, r *http.Request) {
		t.handleTurn(w, r, h)
	})
	mux.HandleFunc("POST /calls/{id}/dtmf", func(w http.ResponseWriter, r *http.Request) {
		t.handleDigits(w, r, h)
	})
	mux.HandleFunc("GET /calls/{id}", func(w http.ResponseWriter, r *http.Request) {
		t.handleOrder(w, r, h)
	})
	mux.HandleFunc("DELETE /calls/{id}", func(w http.ResponseWriter, r *http.Request) {
		t.handleEnd(w, r, h)
	})
	mux.HandleFunc("GET /calls/{id}/ws", func(w http.ResponseWriter, r *http.Request) {
		t.handleStream(w, r, h)
	})

	// Swagger UI serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return mux
}

// Listen starts the HTTP server and routes incoming requests to h.
func (t *Transport) Listen(ctx context.Context, h transport.Handler) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Routes(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

// handleStart opens a call.
//
// @Summary     Start a call
// @Description Opens a call session and returns the greeting to speak.
// @Tags        calls
// @Accept      json
// @Produce     json
// @Param       request  body      message.StartRequest  false  "Optional call ID, caller and pacing"
// @Success     201      {object}  message.TurnResult    "Greeting"
// @Failure     400      {string}  string                "Invalid request body"
// @Failure     409      {string}  string                "Call ID already in use"
// @Router      /calls [post]
func (t *Transport) handleStart(w http.ResponseWriter, r *http.Request, h transport.Handler) {
	var req message.StartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	res, err := h.StartCall(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleTurn processes one utterance.
//
// @Summary     Send a turn
// @Description Accepts a JSON turn with transcribed text, or raw audio bytes (audio/*) that are
// @Description transcribed first. Returns the assistant's next action.
// @Tags        calls
// @Accept      json
// @Accept      audio/wav
// @Accept      audio/ogg
// @Produce     json
// @Param       id       path      string        true   "Call ID"
// @Param       turn     body      message.Turn  true   "Turn (JSON). For raw audio, POST the bytes with an audio Content-Type."
// @Param       X-Speaker  header  string        false  "customer or assistant (raw audio only)"
// @Param       X-Pacing   header  string        false  "normal, concise, detailed or auto (raw audio only)"
// @Success     200      {object}  message.TurnResult  "Next action"
// @Failure     400      {string}  string              "Invalid turn"
// @Failure     404      {string}  string              "Unknown call"
// @Failure     413      {string}  string              "Audio too large"
// @Failure     503      {string}  string              "Speech-to-text disabled"
// @Router      /calls/{id}/turns [post]
func (t *Transport) handleTurn(w http.ResponseWriter, r *http.Request, h transport.Handler) {
	var turn message.Turn

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "audio/"), contentType == "application/octet-stream":
		audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, fmt.Sprintf("audio exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "reading audio: "+err.Error(), http.StatusBadRequest)
			return
		}
		turn.Audio = audio
		turn.ContentType = contentType
		turn.Speaker = r.Header.Get("X-Speaker")
		turn.Pacing = r.Header.Get("X-Pacing")
	default:
		if err := json.NewDecoder(r.Body).Decode(&turn); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	res, err := h.HandleTurn(r.Context(), r.PathValue("id"), &turn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDigits processes a keypad selection.
//
// @Summary     Send DTMF digits
// @Description 1 menu, 2 drinks, 3 desserts, 4 wines, 0 goodbye.
// @Tags        calls
// @Accept      json
// @Produce     json
// @Param       id       path      string                 true  "Call ID"
// @Param       request  body      message.DigitsRequest  true  "Digits"
// @Success     200      {object}  message.TurnResult     "Next action"
// @Failure     400      {string}  string                 "Invalid request"
// @Failure     404      {string}  string                 "Unknown call"
// @Router      /calls/{id}/dtmf [post]
func (t *Transport) handleDigits(w http.ResponseWriter, r *http.Request, h transport.Handler) {
	var req message.DigitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.HandleDigits(r.Context(), r.PathValue("id"), req.Digits)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleOrder returns the order so far.
//
// @Summary     Get a call's order
// @Tags        calls
// @Produce     json
// @Param       id   path      string            true  "Call ID"
// @Success     200  {object}  delivery.Payload  "Current payload"
// @Failure     404  {string}  string            "Unknown call"
// @Router      /calls/{id} [get]
func (t *Transport) handleOrder(w http.ResponseWriter, r *http.Request, h transport.Handler) {
	p, err := h.Order(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleEnd hangs up.
//
// @Summary     End a call
// @Description Closes the call, forwards the payload to the webhook and returns it.
// @Tags        calls
// @Produce     json
// @Param       id   path      string            true  "Call ID"
// @Success     200  {object}  delivery.Payload  "Final payload"
// @Failure     404  {string}  string            "Unknown call"
// @Router      /calls/{id} [delete]
func (t *Transport) handleEnd(w http.ResponseWriter, r *http.Request, h transport.Handler) {
	p, err := h.EndCall(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleStream upgrades to a WebSocket carrying turns for one call. Each
// text frame is a message.Turn; each reply is a message.TurnResult. Turn
// errors are reported in the result and keep the stream open; an unknown
// call closes it.
//
// @Summary     Stream turns over WebSocket
// @Tags        calls
// @Param       id   path  string  true  "Call ID"
// @Success     101  "Switching protocols"
// @Failure     404  {string}  string  "Unknown call"
// @Router      /calls/{id}/ws [get]
func (t *Transport) handleStream(w http.ResponseWriter, r *http.Request, h transport.Handler) {
	id := r.PathValue("id")
	if _, err := h.Order(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "call_id", id, "error", err)
		return
	}
	defer conn.Close()
	logger := slog.With("call_id", id)
	logger.Info("websocket stream opened")

	for {
		var turn message.Turn
		if err := conn.ReadJSON(&turn); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read ended", "error", err)
			}
			return
		}

		res, err := h.HandleTurn(r.Context(), id, &turn)
		if err != nil {
			if transport.Classify(err) == transport.ClassNotFound {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "call ended")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
				return
			}
			res = &message.TurnResult{CallID: id, Error: err.Error()}
		}
		if err := conn.WriteJSON(res); err != nil {
			logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch transport.Classify(err) {
	case transport.ClassNotFound:
		status = http.StatusNotFound
	case transport.ClassInvalid:
		status = http.StatusBadRequest
	case transport.ClassConflict:
		status = http.StatusConflict
	case transport.ClassUnavailable:
		status = http.StatusServiceUnavailable
	default:
		slog.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}
