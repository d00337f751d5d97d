// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     transcribe
// Description: HTTP client for the remote transcription service
// Author:      Mike Stoffels with Claude
// Created:     2025-12-08
// License:     MIT
// ============================================================================

package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/msto63/meetrec/internal/recorder/audio"
	"github.com/msto63/meetrec/pkg/core/apperr"
	"github.com/msto63/meetrec/pkg/core/logging"
)

const (
	// DefaultTimeout bounds a single transcription request
	DefaultTimeout = 60 * time.Second

	// Path is the transcription endpoint relative to the base URL
	Path = "/api/transcribe"

	maxReasonLength = 200
)

// Transcriber turns a clip into a transcription result
type Transcriber interface {
	Transcribe(ctx context.Context, clip audio.Clip, opts Options) (*Result, error)
}

// Config holds client configuration
type Config struct {
	// BaseURL is the service root, e.g. "https://transcribe.example.com"
	BaseURL string

	// Timeout bounds each request (default: 60s)
	Timeout time.Duration

	// HTTPClient overrides the transport (optional)
	HTTPClient *http.Client

	Logger *logging.Logger
}

// Client posts base64-encoded WAV clips to the transcription service
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *logging.Logger
}

type transcribeRequest struct {
	AudioBase64 string `json:"audioBase64"`
	Mime        string `json:"mime"`
	Lang        string `json:"lang"`
	Summarize   bool   `json:"summarize"`
}

// NewClient creates a transcription client
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, apperr.New(apperr.CodeConfigError, "transcription base URL is not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New("transcribe")
	}

	return &Client{
		baseURL: base,
		timeout: cfg.Timeout,
		client:  cfg.HTTPClient,
		logger:  cfg.Logger,
	}, nil
}

// Endpoint returns the full transcription URL
func (c *Client) Endpoint() string {
	return c.baseURL + Path
}

// Transcribe uploads the clip and decodes the service response. It never
// retries. Cancelling ctx aborts the request.
func (c *Client) Transcribe(ctx context.Context, clip audio.Clip, opts Options) (*Result, error) {
	data, err := clip.Bytes()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeCaptureFailed, "read clip")
	}

	lang := opts.Language
	if lang == "" {
		lang = "auto"
	}

	payload, err := json.Marshal(transcribeRequest{
		AudioBase64: base64.StdEncoding.EncodeToString(data),
		Mime:        audio.MimeType,
		Lang:        lang,
		Summarize:   opts.Summarize,
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "encode request")
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeConfigError, "create request")
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	c.logger.Debug("Sending transcription request",
		"url", c.Endpoint(),
		"request_id", requestID,
		"size", len(data),
		"lang", lang,
		"summarize", opts.Summarize)
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, reqCtx, requestID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, reqCtx, requestID, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := rejectionReason(resp.StatusCode, body)
		c.logger.Warn("Transcription rejected", "request_id", requestID, "status", resp.StatusCode, "reason", reason)
		return nil, apperr.Newf(apperr.CodeTranscriptionRejected, "service returned status %d", resp.StatusCode).
			WithReason(reason)
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		c.logger.Warn("Malformed transcription response", "request_id", requestID, "error", err)
		return nil, apperr.New(apperr.CodeTranscriptionRejected, "malformed response").
			WithReason("response is not a JSON object")
	}
	if !env.ok {
		reason := env.errMsg
		if reason == "" {
			reason = "Transcribe failed"
		}
		c.logger.Warn("Transcription not ok", "request_id", requestID, "reason", reason)
		return nil, apperr.New(apperr.CodeTranscriptionRejected, "service reported failure").WithReason(reason)
	}

	c.logger.Info("Transcription complete",
		"request_id", requestID,
		"duration", time.Since(start),
		"text_length", len(env.result.FullText),
		"topics", len(env.result.Topics),
		"bullets", len(env.result.SummaryBullets))

	result := env.result
	return &result, nil
}

// transportError classifies a failed round trip. A cancelled caller context
// wins over the request deadline.
func (c *Client) transportError(parent, reqCtx context.Context, requestID string, err error) error {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		c.logger.Info("Transcription canceled", "request_id", requestID)
		return apperr.Wrap(err, apperr.CodeCanceled, "transcription canceled")
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		c.logger.Warn("Transcription timed out", "request_id", requestID, "timeout", c.timeout)
		return apperr.Wrap(err, apperr.CodeTranscriptionTimedOut, fmt.Sprintf("no response within %s", c.timeout))
	default:
		c.logger.Error("Transcription request failed", "request_id", requestID, "error", err)
		return apperr.Wrap(err, apperr.CodeNetworkUnavailable, "transcription request failed")
	}
}

// rejectionReason extracts a server message from an error response
func rejectionReason(status int, body []byte) string {
	if env, err := decodeEnvelope(body); err == nil && env.errMsg != "" {
		return truncate(env.errMsg)
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return truncate(text)
	}
	return http.StatusText(status)
}

// truncate shortens s to at most maxReasonLength bytes on a rune boundary
func truncate(s string) string {
	if len(s) <= maxReasonLength {
		return s
	}
	cut := maxReasonLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
