// Package provider adapts the call-provisioning backend's HTTP contracts.
//
// Rules:
// - No backend HTTP details outside this adapter.
// - Keep request/response types provider-agnostic at the call sites; the
//   tracker and coordinator depend on interfaces this client satisfies.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feedback-call-platform/internal/calls"
	"feedback-call-platform/internal/campaign"
	"feedback-call-platform/internal/csvio"
)

// ErrProvider marks transport failures and non-success responses.
var ErrProvider = errors.New("provider: request failed")

type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type bulkSubmitRequest struct {
	CampaignName string             `json:"campaignName"`
	Records      []calls.CallRecord `json:"records"`
}

// BulkSubmit sends the whole batch in a single request.
func (c *Client) BulkSubmit(ctx context.Context, campaignName string, records []calls.CallRecord) (campaign.BulkResult, error) {
	var out campaign.BulkResult
	err := c.doJSON(ctx, http.MethodPost, "/calls/bulk", bulkSubmitRequest{
		CampaignName: campaignName,
		Records:      records,
	}, &out)
	if err != nil {
		return campaign.BulkResult{}, err
	}
	return out, nil
}

type createCallResponse struct {
	CallID string `json:"callId"`
}

// CreateCall provisions a single ad hoc call.
func (c *Client) CreateCall(ctx context.Context, rec calls.CallRecord) (string, error) {
	var out createCallResponse
	if err := c.doJSON(ctx, http.MethodPost, "/calls", rec, &out); err != nil {
		return "", err
	}
	if out.CallID == "" {
		return "", fmt.Errorf("%w: create returned empty callId", ErrProvider)
	}
	return out.CallID, nil
}

// InitiateCall requests execution. Acknowledgement only.
func (c *Client) InitiateCall(ctx context.Context, callID string) error {
	return c.doJSON(ctx, http.MethodPost, "/calls/"+url.PathEscape(callID)+"/initiate", nil, nil)
}

type statusResponse struct {
	Status string `json:"status"`
}

// CallStatus returns the raw status string; normalization happens at the
// tracker boundary.
func (c *Client) CallStatus(ctx context.Context, callID string) (string, error) {
	var out statusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/calls/"+url.PathEscape(callID)+"/status", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// FetchTemplate returns the expected upload columns and a sample row.
func (c *Client) FetchTemplate(ctx context.Context) (csvio.Template, error) {
	var out csvio.Template
	if err := c.doJSON(ctx, http.MethodGet, "/calls/template", nil, &out); err != nil {
		return csvio.Template{}, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("provider: encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("provider: build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrProvider, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body for the log, never for the caller.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		c.log.Warn("provider returned non-success",
			"method", method, "path", path,
			"status", resp.StatusCode, "body", string(snippet))
		return fmt.Errorf("%w: %s %s: status %d", ErrProvider, method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: decode: %v", ErrProvider, method, path, err)
	}
	return nil
}
