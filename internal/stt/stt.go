// Package stt transcribes caller audio with a self-hosted Whisper server.
//
// Two server flavours are supported:
//   - "openai": OpenAI-compatible /v1/audio/transcriptions (whisper.cpp
//     server, faster-whisper)
//   - "asr": whisper-asr-webservice (POST /asr with query params)
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	TypeOpenAI = "openai"
	TypeASR    = "asr"
)

// Config selects and tunes the Whisper backend.
type Config struct {
	Endpoint  string
	Type      string
	Language  string
	Model     string
	Prompt    string
	VADFilter bool
	Timeout   time.Duration
}

// Result is a finished transcription.
type Result struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Client talks to one Whisper endpoint.
type Client struct {
	endpoint  string
	kind      string
	language  string
	model     string
	prompt    string
	vadFilter bool
	client    *http.Client
}

// New creates a client from cfg. Language defaults to Portuguese.
func New(cfg Config) *Client {
	kind := cfg.Type
	if kind == "" {
		kind = TypeOpenAI
	}
	lang := cfg.Language
	if lang == "" {
		lang = "pt"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:  cfg.Endpoint,
		kind:      kind,
		language:  lang,
		model:     cfg.Model,
		prompt:    cfg.Prompt,
		vadFilter: cfg.VADFilter,
		client:    &http.Client{Timeout: timeout},
	}
}

// Transcribe sends audio to the endpoint.
func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string) (*Result, error) {
	var (
		res *Result
		err error
	)
	switch c.kind {
	case TypeASR:
		res, err = c.transcribeASR(ctx, audio, contentType)
	default:
		res, err = c.transcribeOpenAI(ctx, audio, contentType)
	}
	if err != nil {
		return nil, err
	}
	res.Text = strings.TrimSpace(res.Text)
	slog.Debug("transcription complete", "backend", c.kind, "text_length", len(res.Text), "language", res.Language)
	return res, nil
}

// transcribeASR posts multipart field "audio_file" to
// /asr?task=transcribe&language=pt&output=json.
func (c *Client) transcribeASR(ctx context.Context, audio []byte, contentType string) (*Result, error) {
	body, formType, err := form("audio_file", audio, contentType, nil)
	if err != nil {
		return nil, err
	}

	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")
	q.Set("language", c.language)
	if c.prompt != "" {
		q.Set("initial_prompt", c.prompt)
	}
	if c.vadFilter {
		q.Set("vad_filter", "true")
	}
	return c.post(ctx, c.endpoint+"?"+q.Encode(), body, formType)
}

func (c *Client) transcribeOpenAI(ctx context.Context, audio []byte, contentType string) (*Result, error) {
	fields := map[string]string{
		"language":        c.language,
		"response_format": "verbose_json",
	}
	if c.model != "" {
		fields["model"] = c.model
	}
	if c.prompt != "" {
		fields["prompt"] = c.prompt
	}
	body, formType, err := form("file", audio, contentType, fields)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, c.endpoint, body, formType)
}

func (c *Client) post(ctx context.Context, endpoint string, body *bytes.Buffer, formType string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", formType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s transcription request: %w", c.kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%s transcription failed (status %d): %s", c.kind, resp.StatusCode, respBody)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}
	return &res, nil
}

func form(field string, audio []byte, contentType string, fields map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile(field, "audio"+extFromContentType(contentType))
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("writing audio: %w", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

func extFromContentType(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mpeg"), strings.Contains(ct, "mp3"):
		return ".mp3"
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "flac"):
		return ".flac"
	default:
		return ".wav"
	}
}
