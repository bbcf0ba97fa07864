// Package grobid extracts citation metadata by sending PDFs to a GROBID document-parsing service.
package grobid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/citesync/internal/citation"
	"github.com/JakeFAU/citesync/internal/metrics"
	"github.com/JakeFAU/citesync/internal/tei"
)

// HeaderPath is the GROBID endpoint that parses only the document header.
const HeaderPath = "/api/processHeaderDocument"

// DefaultTimeout caps a single parsing request.
const DefaultTimeout = 60 * time.Second

// DefaultMaxResponseBytes bounds the TEI body read from the service.
const DefaultMaxResponseBytes = 16 << 20

// ErrResponseTooLarge reports a TEI body over Config.MaxResponseBytes.
var ErrResponseTooLarge = errors.New("grobid response exceeds size limit")

// Config controls the client.
type Config struct {
	// Endpoint is the full URL of the header processing endpoint.
	Endpoint string
	Timeout  time.Duration
	// MaxResponseBytes bounds the TEI body; zero selects DefaultMaxResponseBytes.
	MaxResponseBytes int64
}

// EndpointFor builds the header endpoint URL from a scheme, host, and port.
func EndpointFor(scheme, host string, port int) string {
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, host, port, HeaderPath)
}

// Client implements citation.MetadataExtractor.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a Client. A nil httpClient gets a default one.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("grobid endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Client{cfg: cfg, http: httpClient, logger: logger}, nil
}

// Extract returns the header metadata of pdf. On any failure it returns
// citation.UnknownMetadata together with an error wrapping one of
// citation.ErrParseService or citation.ErrMarkupParse.
func (c *Client) Extract(ctx context.Context, pdf []byte) (citation.Metadata, error) {
	start := time.Now()
	body, err := c.process(ctx, pdf)
	if err != nil {
		metrics.ObserveStage(metrics.StageParse, metrics.OutcomeFailed, time.Since(start))
		return citation.UnknownMetadata(), err
	}
	doc, err := tei.Parse(body)
	if err != nil {
		metrics.ObserveStage(metrics.StageParse, metrics.OutcomeFailed, time.Since(start))
		return citation.UnknownMetadata(), err
	}
	metrics.ObserveStage(metrics.StageParse, metrics.OutcomeOK, time.Since(start))
	return doc.Metadata(), nil
}

func (c *Client) process(ctx context.Context, pdf []byte) ([]byte, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: empty document", citation.ErrParseService)
	}
	payload, contentType, err := multipartBody(pdf)
	if err != nil {
		return nil, fmt.Errorf("%w: build request body: %v", citation.ErrParseService, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.Endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", citation.ErrParseService, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: post document: %v", citation.ErrParseService, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("close grobid response", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", citation.ErrParseService, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", citation.ErrParseService, err)
	}
	if int64(len(body)) > c.cfg.MaxResponseBytes {
		return nil, fmt.Errorf("%w: %w (limit %d)", citation.ErrParseService, ErrResponseTooLarge, c.cfg.MaxResponseBytes)
	}
	return body, nil
}

func multipartBody(pdf []byte) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("input", "document.pdf")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(pdf); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
