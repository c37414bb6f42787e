// Package routing talks to the remote generation service that picks a
// water-efficient data center for each prompt.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/hydrochat-core/server/internal/agent/model"
	errx "github.com/hydrochat-core/server/internal/core/error"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

const maxResponseBytes = 4 << 20

// Request is the body of POST /generate.
type Request struct {
	Prompt string `json:"prompt"`
}

// Reply is a successful routing response.
type Reply struct {
	Response     string  `json:"response"`
	RoutedTo     string  `json:"routed_to"`
	WeatherLogic string  `json:"weather_logic"`
	WaterSavedML float64 `json:"water_saved_ml"`
	IsEstimate   bool    `json:"is_estimate"`
}

// RoutingInfo converts the reply metadata into the session record form.
func (r Reply) RoutingInfo() model.RoutingInfo {
	return model.RoutingInfo{
		Location:     r.RoutedTo,
		Logic:        r.WeatherLogic,
		WaterSavedML: r.WaterSavedML,
		IsEstimate:   r.IsEstimate,
	}
}

// wireReply detects missing required fields, which a plain Reply would zero.
type wireReply struct {
	Response     *string  `json:"response"`
	RoutedTo     *string  `json:"routed_to"`
	WeatherLogic string   `json:"weather_logic"`
	WaterSavedML *float64 `json:"water_saved_ml"`
	IsEstimate   bool     `json:"is_estimate"`
}

func (w wireReply) reply() (*Reply, error) {
	if w.Response == nil {
		return nil, errors.New("missing response")
	}
	if w.RoutedTo == nil || strings.TrimSpace(*w.RoutedTo) == "" {
		return nil, errors.New("missing routed_to")
	}
	water := 0.0
	if w.WaterSavedML != nil {
		water = *w.WaterSavedML
	}
	if math.IsNaN(water) || math.IsInf(water, 0) || water < 0 {
		return nil, fmt.Errorf("invalid water_saved_ml %v", water)
	}
	return &Reply{
		Response:     *w.Response,
		RoutedTo:     *w.RoutedTo,
		WeatherLogic: w.WeatherLogic,
		WaterSavedML: water,
		IsEstimate:   w.IsEstimate,
	}, nil
}

// RoutingFailure is the single error type returned by Route. It carries no
// partial reply data.
type RoutingFailure struct {
	StatusCode int // zero for transport and decode errors
	Err        error
}

func (f *RoutingFailure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("routing failed with status %d: %v", f.StatusCode, f.Err)
	}
	return fmt.Sprintf("routing failed: %v", f.Err)
}

func (f *RoutingFailure) Unwrap() error {
	return f.Err
}

type Client struct {
	url  string
	http *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(cfg model.RouterClientConfig, opts ...Option) *Client {
	c := &Client{
		url:  cfg.URL,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Route sends the prompt and returns the generated answer with its routing
// metadata. No retries: any failure ends the turn.
func (c *Client) Route(ctx context.Context, prompt string) (*Reply, error) {
	started := time.Now()
	reply, err := c.route(ctx, prompt)
	if err != nil {
		logx.Warn().Err(err).Str("url", c.url).Dur("elapsed", time.Since(started)).Msg("Routing call failed")
		return nil, err
	}
	logx.Debug().
		Str("routed_to", reply.RoutedTo).
		Float64("water_saved_ml", reply.WaterSavedML).
		Bool("is_estimate", reply.IsEstimate).
		Dur("elapsed", time.Since(started)).
		Msg("Routing call succeeded")
	return reply, nil
}

func (c *Client) route(ctx context.Context, prompt string) (*Reply, error) {
	body, err := json.Marshal(Request{Prompt: prompt})
	if err != nil {
		return nil, fail(0, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fail(0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(resp.StatusCode, fmt.Errorf("unexpected status: %s", snippet(raw)))
	}

	var wire wireReply
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	reply, err := wire.reply()
	if err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("malformed response: %w", err))
	}
	return reply, nil
}

func fail(status int, err error) error {
	return &RoutingFailure{StatusCode: status, Err: errx.WrapRouting(err)}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
