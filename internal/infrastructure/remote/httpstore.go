// Package remote contains the pluggable backends for progress backup.
// Each store implements progress.RemoteStore and speaks the shared
// snapshot encoding; the engine never depends on a concrete transport.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
	"github.com/lingotrail/lingotrail-core/internal/infrastructure/persistence/snapshot"
	"github.com/lingotrail/lingotrail-core/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// HTTPConfig contains configuration for the HTTP progress backend.
type HTTPConfig struct {
	// BaseURL is the backend base URL
	BaseURL string

	// APIKey authenticates the device with the backend
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// BreakerFailures is the consecutive failure count that opens the breaker
	BreakerFailures int

	// BreakerCooldown is the open-state cooldown
	BreakerCooldown time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultHTTPConfig returns sensible defaults.
func DefaultHTTPConfig(baseURL string) HTTPConfig {
	return HTTPConfig{
		BaseURL:         baseURL,
		Timeout:         15 * time.Second,
		BreakerFailures: 3,
		BreakerCooldown: 20 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP STORE
// ══════════════════════════════════════════════════════════════════════════════

// HTTPStore talks to the LingoTrail progress backend over HTTPS.
// A circuit breaker sheds pushes while the backend is down; blocked
// and failed pushes are dropped, never retried - the local snapshot
// already holds the state and the next mutation pushes it again.
type HTTPStore struct {
	config     HTTPConfig
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *circuitbreaker.CircuitBreaker
}

// NewHTTPStore creates a new HTTP-backed remote store.
func NewHTTPStore(config HTTPConfig) *HTTPStore {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &HTTPStore{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
		breaker: circuitbreaker.New("progress-backend",
			circuitbreaker.WithFailureThreshold(config.BreakerFailures),
			circuitbreaker.WithCooldown(config.BreakerCooldown),
			circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
				config.Logger.Warn("circuit breaker state changed",
					"breaker", name, "from", from.String(), "to", to.String())
			}),
		),
	}
}

// Fetch implements progress.RemoteStore.
func (s *HTTPStore) Fetch(ctx context.Context, userID shared.UserID) (*progress.UserState, error) {
	var state *progress.UserState
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		state, err = s.fetch(ctx, userID)
		// A 404 means the backend is healthy, just empty
		if shared.IsNotFound(err) {
			state = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, shared.ErrNotFound
	}
	return state, nil
}

func (s *HTTPStore) fetch(ctx context.Context, userID shared.UserID) (*progress.UserState, error) {
	url := fmt.Sprintf("%s/api/v1/progress/%s", s.config.BaseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, shared.WrapError("sync", "Fetch", shared.ErrServiceUnavailable,
			"progress backend unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		state, err := snapshot.Decode(body)
		if err != nil {
			return nil, shared.WrapError("sync", "Fetch", shared.ErrInvalidFormat,
				"invalid payload from progress backend", err)
		}
		return state, nil
	case http.StatusNotFound:
		return nil, shared.ErrNotFound
	default:
		return nil, shared.NewDomainError("sync", "Fetch", shared.ErrExternalService,
			fmt.Sprintf("progress backend returned status %d", resp.StatusCode))
	}
}

// Push implements progress.RemoteStore.
func (s *HTTPStore) Push(ctx context.Context, state *progress.UserState) error {
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.push(ctx, state)
	})
}

func (s *HTTPStore) push(ctx context.Context, state *progress.UserState) error {
	data, err := snapshot.Encode(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/progress/%s", s.config.BaseURL, state.UserID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return shared.WrapError("sync", "Push", shared.ErrServiceUnavailable,
			"progress backend unreachable", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return shared.NewDomainError("sync", "Push", shared.ErrExternalService,
			fmt.Sprintf("progress backend returned status %d", resp.StatusCode))
	}

	s.logger.Debug("snapshot pushed",
		"user_id", state.UserID.String(),
		"bytes", len(data),
		"latency", time.Since(start).String())
	return nil
}

func (s *HTTPStore) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}
}
