// Package facerec talks to the face recognition service: embedding
// generation for enrolled students and face matching on lecture photos.
package facerec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	generateEmbeddingsPath = "/generate-embeddings"
	verifyAttendancePath   = "/verify-attendance"

	defaultHTTPTimeout      = 30 * time.Second
	defaultFailThreshold    = 3
	defaultEndpointCooldown = 10 * time.Second
	defaultMaxDimension     = 1600
)

var ErrNotConfigured = errors.New("face recognizer endpoint is not configured")

type Config struct {
	Endpoints        []string
	Enabled          bool
	Timeout          time.Duration
	FailThreshold    int
	EndpointCooldown time.Duration
	// MaxDimension bounds the longest image side sent over the wire; 0 uses
	// the default, negative disables resizing.
	MaxDimension int
}

type File struct {
	Name string
	Data []byte
}

type Embedding struct {
	Image     string    `json:"image"`
	Filename  string    `json:"filename,omitempty"`
	Embedding []float64 `json:"embedding"`
}

type KnownFace struct {
	ID        string    `json:"id"`
	Embedding []float64 `json:"embedding"`
}

type Match struct {
	File           string   `json:"file"`
	MatchedIDs     []string `json:"matched_ids"`
	AnnotatedImage string   `json:"annotated_image,omitempty"`
}

// Client spreads calls over the configured endpoints round robin. An
// endpoint that fails FailThreshold times in a row is skipped for
// EndpointCooldown. Calls are not retried against the same endpoint.
type Client struct {
	endpoints    []string
	enabled      bool
	http         *http.Client
	next         uint32
	maxDimension int

	failThreshold    int
	endpointCooldown time.Duration

	mu         sync.Mutex
	failureCnt map[string]int
	cooldownTo map[string]time.Time
}

func NewClient(cfg Config) *Client {
	normalized := normalizeEndpoints(cfg.Endpoints)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	if cfg.FailThreshold <= 0 {
		cfg.FailThreshold = defaultFailThreshold
	}
	if cfg.EndpointCooldown <= 0 {
		cfg.EndpointCooldown = defaultEndpointCooldown
	}
	if cfg.MaxDimension == 0 {
		cfg.MaxDimension = defaultMaxDimension
	}
	return &Client{
		endpoints:        normalized,
		enabled:          cfg.Enabled && len(normalized) > 0,
		http:             &http.Client{Timeout: cfg.Timeout},
		maxDimension:     cfg.MaxDimension,
		failThreshold:    cfg.FailThreshold,
		endpointCooldown: cfg.EndpointCooldown,
		failureCnt:       make(map[string]int, len(normalized)),
		cooldownTo:       make(map[string]time.Time, len(normalized)),
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// GenerateEmbeddings returns nil without error when the client is disabled
// or the response carries no embeddings field.
func (c *Client) GenerateEmbeddings(ctx context.Context, files []File) ([]Embedding, error) {
	if !c.Enabled() || len(files) == 0 {
		return nil, nil
	}
	body, contentType, err := c.encode("files", files, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Embeddings *[]Embedding `json:"embeddings"`
	}
	if err := c.post(ctx, generateEmbeddingsPath, body, contentType, &out); err != nil {
		return nil, err
	}
	if out.Embeddings == nil {
		return nil, nil
	}
	items := *out.Embeddings
	for i := range items {
		if items[i].Image == "" {
			items[i].Image = items[i].Filename
		}
		items[i].Filename = ""
	}
	return items, nil
}

// VerifyAttendance matches the faces found in images against known.
func (c *Client) VerifyAttendance(ctx context.Context, images []File, known []KnownFace) ([]Match, error) {
	if !c.Enabled() || len(images) == 0 {
		return nil, nil
	}
	knownJSON, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	body, contentType, err := c.encode("files", images, map[string]string{"known_embeddings_json": string(knownJSON)})
	if err != nil {
		return nil, err
	}
	var out struct {
		Results []Match `json:"results"`
	}
	if err := c.post(ctx, verifyAttendancePath, body, contentType, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) encode(fileField string, files []File, fields map[string]string) ([]byte, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, f := range files {
		part, err := w.CreateFormFile(fileField, f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(shrink(f.Data, c.maxDimension)); err != nil {
			return nil, "", err
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, contentType string, out any) error {
	if len(c.endpoints) == 0 {
		return ErrNotConfigured
	}

	start := int(atomic.AddUint32(&c.next, 1)-1) % len(c.endpoints)
	var lastErr error
	for offset := 0; offset < len(c.endpoints); offset++ {
		endpoint := c.endpoints[(start+offset)%len(c.endpoints)]
		if c.isCoolingDown(endpoint, time.Now()) {
			continue
		}
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+path, bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", contentType)

		resp, doErr := c.http.Do(req)
		if doErr != nil {
			lastErr = fmt.Errorf("face recognizer request failed endpoint=%s: %w", endpoint, doErr)
			c.onFailure(endpoint, time.Now())
			if ctx.Err() != nil {
				return lastErr
			}
			continue
		}

		if resp.StatusCode >= 500 {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("face recognizer status %d endpoint=%s", resp.StatusCode, endpoint)
			c.onFailure(endpoint, time.Now())
			continue
		}
		if resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			return fmt.Errorf("face recognizer status %d endpoint=%s", resp.StatusCode, endpoint)
		}

		decodeErr := json.NewDecoder(resp.Body).Decode(out)
		_ = resp.Body.Close()
		if decodeErr != nil {
			c.onFailure(endpoint, time.Now())
			return fmt.Errorf("decode face recognizer response: %w", decodeErr)
		}
		c.onSuccess(endpoint)
		return nil
	}

	if lastErr == nil {
		return fmt.Errorf("face recognizer: all endpoints cooling down")
	}
	return lastErr
}

func normalizeEndpoints(endpoints []string) []string {
	result := make([]string, 0, len(endpoints))
	seen := map[string]struct{}{}
	for _, endpoint := range endpoints {
		normalized := strings.TrimRight(strings.TrimSpace(endpoint), "/")
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}

func (c *Client) isCoolingDown(endpoint string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.cooldownTo[endpoint]
	if !ok {
		return false
	}
	if now.After(until) {
		delete(c.cooldownTo, endpoint)
		return false
	}
	return true
}

func (c *Client) onFailure(endpoint string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := c.failureCnt[endpoint] + 1
	c.failureCnt[endpoint] = count
	if count >= c.failThreshold {
		c.cooldownTo[endpoint] = now.Add(c.endpointCooldown)
		c.failureCnt[endpoint] = 0
	}
}

func (c *Client) onSuccess(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCnt[endpoint] = 0
	delete(c.cooldownTo, endpoint)
}
