package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	appErrors "sedcat-backend/pkg/errors"
)

// MirrorClient fetches catalog data files from a remote mirror, for catalog
// variants that are not bundled into the binary. Fetches go through a
// circuit breaker so a failing mirror cannot stall startup or reloads.
type MirrorClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewMirrorClient creates a mirror client for the given base URL. The mirror
// is expected to serve "<baseURL>/<variant>.yaml" files in the bundled
// catalog schema.
func NewMirrorClient(baseURL string, timeout time.Duration, logger *zap.Logger) *MirrorClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "catalog-mirror",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Only trip if we have enough requests to make a decision
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &MirrorClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: cb,
		logger:  logger,
	}
}

// Fetch downloads and parses one catalog variant from the mirror.
func (m *MirrorClient) Fetch(ctx context.Context, variant string) (*Catalog, error) {
	fileURL, err := url.JoinPath(m.baseURL, variant+".yaml")
	if err != nil {
		return nil, appErrors.NewValidation(fmt.Sprintf("invalid mirror URL for variant %q: %v", variant, err))
	}

	result, err := m.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := m.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			// A missing variant is a caller error, not a mirror failure;
			// do not count it against the breaker.
			return nil, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("mirror returned status %d", resp.StatusCode)
		}

		return Parse(resp.Body)
	})

	switch err {
	case nil:
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		return nil, appErrors.NewUnavailable(fmt.Sprintf("catalog mirror %s is unavailable", m.baseURL), err)
	default:
		if appErrors.IsValidation(err) || appErrors.IsInternal(err) {
			return nil, appErrors.Wrap(err, fmt.Sprintf("mirror catalog %q", variant))
		}
		return nil, appErrors.NewUnavailable(fmt.Sprintf("failed to fetch catalog %q from mirror", variant), err)
	}

	if result == nil {
		return nil, appErrors.NewNotFound(fmt.Sprintf("catalog %q not found on mirror", variant))
	}

	cat := result.(*Catalog)
	m.logger.Info("Catalog fetched from mirror",
		zap.String("variant", cat.Variant()),
		zap.Int("sources", cat.Len()),
	)
	return cat, nil
}
