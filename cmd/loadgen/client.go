package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wricardo/smartroad/game/report"
	"github.com/wricardo/smartroad/game/service"
)

// Client drives one session through the REST API.
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// do sends body as JSON and decodes a 2xx response into result
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, bytes.TrimSpace(data))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) CreateSession(ctx context.Context, configID string, seed uint64) (*service.SessionInfo, error) {
	var info service.SessionInfo
	req := service.CreateSessionRequest{ConfigID: configID, Seed: &seed}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

func (c *Client) Spawn(ctx context.Context, req service.SpawnRequest) (*service.SpawnResult, error) {
	var result service.SpawnResult
	if err := c.do(ctx, http.MethodPost, c.path("/spawn"), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Step(ctx context.Context, ticks int) (*service.StepResult, error) {
	var result service.StepResult
	if err := c.do(ctx, http.MethodPost, c.path("/step"), map[string]int{"ticks": ticks}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close deletes the session and returns its final report
func (c *Client) Close(ctx context.Context) (*report.Report, error) {
	var resp struct {
		Report *report.Report `json:"report"`
	}
	if err := c.do(ctx, http.MethodDelete, c.path(""), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Report, nil
}

func (c *Client) path(suffix string) string {
	return "/api/sessions/" + c.sessionID + suffix
}
