package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/viant/lookalike/face"
)

// Config configures a Client.
type Config struct {
	// Endpoint is the service base URL, e.g. http://localhost:8500.
	Endpoint string
	// Timeout bounds a single HTTP call. Default: 30s.
	Timeout time.Duration
	// RatePerSecond limits calls per second; 0 disables limiting.
	RatePerSecond float64
	// Burst is the limiter burst size. Default: 1.
	Burst int
	// MaxFailures is the number of consecutive failures that opens the
	// circuit. Default: 5.
	MaxFailures uint32
	// OpenTimeout is how long the circuit stays open before probing. Default: 30s.
	OpenTimeout time.Duration
}

// Client is a face.Detector backed by a remote face service.
type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger used for circuit state changes.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: face service returned %d: %s", e.StatusCode, e.Body)
}

// New creates a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("remote: endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	c := &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   slog.New(slog.DiscardHandler),
	}
	if cfg.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "face-service",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// a bad image is the caller's problem, not the service's
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("face service circuit changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return c, nil
}

type faceResult struct {
	Loc []int     `json:"loc"`
	Vec []float32 `json:"vec"`
}

// Detect sends img to the service and returns the faces it found, each with
// its embedding and crop.
func (c *Client) Detect(ctx context.Context, img image.Image) ([]face.Region, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	var body bytes.Buffer
	if err := imaging.Encode(&body, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("remote: encode image: %w", err)
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, body.Bytes())
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", face.ErrUnavailable, err)
		}
		return nil, err
	}
	results := out.([]faceResult)
	regions := make([]face.Region, 0, len(results))
	for i, r := range results {
		if len(r.Loc) != 4 {
			return nil, fmt.Errorf("remote: face %d: loc has %d values, want 4", i, len(r.Loc))
		}
		// loc is [top, right, bottom, left]
		bounds := image.Rect(r.Loc[3], r.Loc[0], r.Loc[1], r.Loc[2])
		regions = append(regions, face.Region{
			Bounds:    bounds,
			Crop:      face.Crop(img, bounds),
			Embedding: r.Vec,
		})
	}
	return regions, nil
}

func (c *Client) post(ctx context.Context, payload []byte) ([]faceResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/faces", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: call face service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	var results []faceResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("remote: decode response: %w", err)
	}
	return results, nil
}

// State reports the circuit breaker state: "closed", "half-open" or "open".
func (c *Client) State() string {
	return c.breaker.State().String()
}
