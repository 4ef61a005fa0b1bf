package communicator

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bilal/speedcheck/internal/config"
)

// HTTPSink posts report batches as a JSON array to a collector endpoint.
type HTTPSink struct {
	endpoint string
	client   *http.Client
	token    string
}

func NewHTTPSink(cfg config.PublishConfig) *HTTPSink {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	client := &http.Client{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: tlsCfg,
		},
	}

	token := ""
	if cfg.BackendAuthTokenEnv != "" {
		token = os.Getenv(cfg.BackendAuthTokenEnv)
	}

	return &HTTPSink{
		endpoint: cfg.BackendURL,
		client:   client,
		token:    token,
	}
}

func (h *HTTPSink) Name() string { return "http" }

func (h *HTTPSink) Publish(ctx context.Context, batch []Report) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	// add correlation header for the batch (use first item correlation id)
	if len(batch) > 0 {
		req.Header.Set("X-Correlation-ID", batch[0].CorrelationID)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	// drain and close body to reuse connection
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bad status: %d", resp.StatusCode)
	}
	return nil
}
