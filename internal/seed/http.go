package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"
)

type submitResult int

const (
	resultSuccess submitResult = iota
	resultDuplicate
	resultFailed
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	client := newHTTPClient(cfg.Timeout)
	resp, err := client.Get(ctx, strings.TrimRight(cfg.BaseURL, "/")+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// submitRatings posts ratings to a running service using a pool of workers.
func submitRatings(ctx context.Context, cfg *Config, ratings []model.RatingRecord, stats *Stats) {
	log := logger.Get()
	log.Info(ctx, "submitting ratings", logger.Int("ratings", len(ratings)), logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	url := strings.TrimRight(cfg.BaseURL, "/") + "/api/ratings"

	var successful, duplicate, failed atomic.Int64

	ratingChan := make(chan model.RatingRecord, cfg.Workers*2)
	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range ratingChan {
				switch submitSingleRating(ctx, client, url, r) {
				case resultSuccess:
					successful.Add(1)
				case resultDuplicate:
					duplicate.Add(1)
				default:
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "rating rejected", logger.String("rating_id", r.ID))
					}
				}
			}
		}()
	}

	go func() {
		defer close(ratingChan)
		for _, r := range ratings {
			select {
			case <-ctx.Done():
				return
			case ratingChan <- r:
			}
		}
	}()
	wg.Wait()

	stats.RatingsWritten += int(successful.Load())
	stats.RatingsDuplicate += int(duplicate.Load())
	stats.RatingsFailed += int(failed.Load())
}

// submitSingleRating posts one rating and classifies the response.
func submitSingleRating(ctx context.Context, client *HTTPClient, url string, r model.RatingRecord) submitResult { //nolint:gocritic // hugeParam: read-only payload
	resp, err := client.Post(ctx, url, ratingRequest{
		RatingID:  r.ID,
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		FacultyID: r.FacultyID,
		Score:     r.Score,
		Date:      r.Date,
		Time:      r.Time,
	})
	if err != nil {
		return resultFailed
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resultFailed
	}

	var ack AckResponse
	switch resp.StatusCode {
	case StatusAccepted:
		return resultSuccess
	case StatusOK:
		if err := json.Unmarshal(body, &ack); err == nil && !ack.Duplicate {
			return resultSuccess
		}
		return resultDuplicate
	default:
		return resultFailed
	}
}
