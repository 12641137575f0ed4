// Package client is the Go consumer of the delivery engine: it reads the SSE stream,
// fetches catchup pages, sends technical acks and keeps a projection.Cache in sync.
package client

import (
	"bytes"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

var ErrStreamEnded = stdErrors.New("stream ended by server")

// StatusError is a non-success HTTP answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.Code, e.Message)
}

// Permanent reports whether retrying the same request cannot succeed.
func (e *StatusError) Permanent() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden || e.Code == http.StatusBadRequest
}

type CatchupPage struct {
	Events    []event.ReplayFrame `json:"events"`
	HasMore   bool                `json:"hasMore"`
	Watermark uint64              `json:"watermark"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *slog.Logger
}

// New returns a client for the server at baseURL. httpClient must not set a global timeout,
// it would cut long-lived streams; nil selects http.DefaultClient.
func New(log *slog.Logger, baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, token: token, http: httpClient, log: log}
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusBadRequest {
		defer res.Body.Close()
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(res.Body, 4<<10)).Decode(&payload)
		return nil, &StatusError{Code: res.StatusCode, Message: payload.Error}
	}
	return res, nil
}

// Stream reads frames until ctx is done, the server ends the stream or handle fails.
// The connection confirmation is passed to handle like any other frame.
func (c *Client) Stream(ctx context.Context, channels []domain.Channel, clientID string, handle func(event.Frame) error) error {
	query := url.Values{}
	for _, ch := range channels {
		query.Add("channel", ch.Key())
	}
	if clientID != "" {
		query.Set("clientId", clientID)
	}
	res, err := c.request(ctx, http.MethodGet, "/v1/stream", query, nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	reader := NewSSEReader(res.Body)
	for {
		evt, err := reader.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if stdErrors.Is(err, io.EOF) {
				return ErrStreamEnded
			}
			return err
		}
		var f event.Frame
		if err := json.Unmarshal([]byte(evt.Data), &f); err != nil {
			c.log.Warn("Undecodable frame skipped", "id", evt.ID, "error", err)
			continue
		}
		if err := handle(f); err != nil {
			return err
		}
	}
}

// Catchup fetches one page of events after the sequence watermark.
func (c *Client) Catchup(ctx context.Context, watermark uint64) (CatchupPage, error) {
	query := url.Values{"seq": {strconv.FormatUint(watermark, 10)}}
	res, err := c.request(ctx, http.MethodGet, "/v1/catchup", query, nil)
	if err != nil {
		return CatchupPage{}, err
	}
	defer res.Body.Close()
	var page CatchupPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return CatchupPage{}, fmt.Errorf("decode catchup page: %w", err)
	}
	return page, nil
}

// Ack records the technical receipt of an event. It is not a read receipt.
func (c *Client) Ack(ctx context.Context, eventID string) error {
	res, err := c.request(ctx, http.MethodPost, "/v1/ack", nil, map[string]string{"eventId": eventID})
	if err != nil {
		return err
	}
	return res.Body.Close()
}
