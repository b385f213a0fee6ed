package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/smartroad/game/engine"
	"github.com/wricardo/smartroad/game/metrics"
	"github.com/wricardo/smartroad/game/report"
	"github.com/wricardo/smartroad/game/service"
)

var log = logrus.WithField("module", "mcp")

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Smart Road Intersection Simulator",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Smart Road - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A four-way intersection where autonomous vehicles negotiate the crossing
without traffic lights. Each vehicle has a two-letter behavior code: the
side it enters from and the side it leaves by (L, R, U, D for left, right,
up, down). RU enters from the right and leaves at the top.

AVAILABLE TOOLS:
- create_session: Start a simulation (optionally seeded, running, auto-spawning)
- list_sessions / get_session: Inspect sessions
- snapshot: Current vehicles, headings, phases and speeds
- spawn_vehicle: Add a vehicle by code, by approach side, or at random
- step: Advance a session by a number of ticks
- set_running / set_auto_spawn: Control the real-time runner
- metrics: Trip times, speeds and close calls
- list_configs: Available tuning presets
- list_reports: Archived reports of finished sessions
- simulation_instructions: The full rules of the road`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new simulation session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Tuning preset to use (optional, see list_configs)",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Seed for reproducible runs (optional)",
				},
				"running": map[string]interface{}{
					"type":        "boolean",
					"description": "Start the real-time runner immediately",
				},
				"auto_spawn": map[string]interface{}{
					"type":        "boolean",
					"description": "Spawn random vehicles while running",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active simulation sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get status and metrics of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Simulation
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "snapshot",
		Description: "List every active vehicle with its position, heading, phase and speed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleSnapshot)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "spawn_vehicle",
		Description: "Spawn a vehicle. Give a behavior code, or an approach side for a random code from that side, or neither for a random code",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"behavior": map[string]interface{}{
					"type": "string",
					"enum": lo.Map(engine.AllBehaviors, func(b engine.Behavior, _ int) string {
						return b.String()
					}),
					"description": "Behavior code: entry side then exit side",
				},
				"approach": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right", "north", "south", "east", "west"},
					"description": "Entry side (up/down/left/right) or heading at spawn (north/south/east/west)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleSpawn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "step",
		Description: "Advance the simulation by a number of ticks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"ticks": map[string]interface{}{
					"type":        "integer",
					"minimum":     1,
					"maximum":     service.MaxStepTicks,
					"description": "Ticks to advance (default 1)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleStep)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_running",
		Description: "Start or pause the real-time runner of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"running": map[string]interface{}{
					"type":        "boolean",
					"description": "true to run, false to pause",
				},
			},
			Required: []string{"session_id", "running"},
		},
	}, c.handleSetRunning)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_auto_spawn",
		Description: "Enable or disable random spawning while the session runs",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"enabled": map[string]interface{}{
					"type":        "boolean",
					"description": "true to spawn automatically",
				},
			},
			Required: []string{"session_id", "enabled"},
		},
	}, c.handleSetAutoSpawn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "metrics",
		Description: "Trip duration, speed and close call statistics of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleMetrics)

	// Configuration and archive
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available tuning presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_reports",
		Description: "List archived reports of finished sessions, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of reports (default 10)",
				},
			},
		},
	}, c.handleListReports)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "simulation_instructions",
		Description: "Get the rules of the intersection: codes, lanes, right of way and metrics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP request to the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := service.CreateSessionRequest{}
	req.ConfigID, _ = args["config_id"].(string)
	req.Running, _ = args["running"].(bool)
	req.AutoSpawn, _ = args["auto_spawn"].(bool)
	if seed, ok := intArg(args, "seed"); ok {
		if seed < 0 {
			return mcp.NewToolResultError("seed must not be negative"), nil
		}
		s := uint64(seed)
		req.Seed = &s
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", req, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Debugf("created session %s", info.ID)
	return mcp.NewToolResultText("Created session\n" + formatSessionInfo(&info)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active sessions (%d):\n", len(resp.Sessions))
	for _, info := range resp.Sessions {
		fmt.Fprintf(&sb, "- %s config=%s tick=%d active=%d running=%t\n",
			info.ID, info.ConfigID, info.Tick, info.Active, info.Running)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/snapshot"), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&snap)), nil
}

func (c *Client) handleSpawn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	req := service.SpawnRequest{}
	req.Behavior, _ = args["behavior"].(string)
	req.Approach, _ = args["approach"].(string)

	var result service.SpawnResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/spawn"), req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status := "accepted"
	if !result.Accepted {
		status = "rejected"
	}
	text := fmt.Sprintf("Spawn %s at tick %d (%d active)", status, result.Tick, result.Active)
	if result.Message != "" {
		text += "\n" + result.Message
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	ticks := 1
	if n, ok := intArg(args, "ticks"); ok {
		ticks = n
	}

	var result service.StepResult
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/step"), map[string]int{"ticks": ticks}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Stepped %d ticks\n\n", result.Stepped)
	sb.WriteString(formatSnapshot(&result.Snapshot))
	sb.WriteString("\n")
	sb.WriteString(formatMetrics(&result.Metrics))
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleSetRunning(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	running, ok := args["running"].(bool)
	if !ok {
		return mcp.NewToolResultError("running must be a boolean"), nil
	}

	var info service.SessionInfo
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/run"), map[string]bool{"running": running}, &info)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleSetAutoSpawn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	enabled, ok := args["enabled"].(bool)
	if !ok {
		return mcp.NewToolResultError("enabled must be a boolean"), nil
	}

	var info service.SessionInfo
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/auto-spawn"), map[string]bool{"enabled": enabled}, &info)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var m metrics.Report
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/metrics"), nil, &m); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMetrics(&m)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []*service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	sb.WriteString("Available presets:\n")
	for _, cfg := range configs {
		fmt.Fprintf(&sb, "- %s: %s (window %.0f, congestion threshold %d)\n",
			cfg.ConfigID, cfg.Name, cfg.WindowSize, cfg.CongestionThreshold)
		if cfg.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", cfg.Description)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleListReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 10
	if n, ok := intArg(request.GetArguments(), "limit"); ok && n > 0 {
		limit = n
	}

	var resp struct {
		Reports []*report.Report `json:"reports"`
	}
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/reports?limit=%d", limit), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Reports) == 0 {
		return mcp.NewToolResultText("No archived reports"), nil
	}

	var sb strings.Builder
	for _, r := range resp.Reports {
		fmt.Fprintf(&sb, "%s session=%s config=%s ticks=%d trips=%d avg=%.2fs close_calls=%d finished=%s\n",
			r.ID, r.SessionID, r.ConfigID, r.Ticks, r.Stats.Trips, r.Stats.AvgTrip,
			r.Stats.CloseCalls, r.FinishedAt.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `# Smart Road

A four-way intersection of two perpendicular three-lane roads with no
traffic lights. Vehicles coordinate through a right-of-way table and a
forward radar instead.

## Behavior codes
A code is entry side + exit side, from L (left), R (right), U (up), D (down).
- Straight: LR, RL, UD, DU
- Right turns: RU, LD, UL, DR (outer lane, turn early)
- Left turns: RD, LU, UR, DL (inner lane, turn late)

Approaches are either the side a vehicle enters from (up, down, left,
right) or its heading at spawn (north, south, east, west). "right" and
"west" both pick a random code entering from the right side.

## Each tick
1. Right of way: vehicles about to enter the core yield to conflicting
   vehicles already inside it. Some codes also wait when too many
   congestion-prone vehicles are inside, and left turners cross one at a
   time.
2. Radar: each vehicle looks ahead and slows down (full, 2/3, 1/3 or stop)
   depending on how close the nearest obstacle is.
3. Turning: a vehicle reaching its turn line rotates onto its exit lane,
   once, if the new footprint is clear.
4. Deadlock breaking: two stopped crossing vehicles inside the core get
   nudged one unit apart.
5. Movement: vehicles advance only if the new position overlaps nobody.
6. Arrival: vehicles within the arrival radius of their destination leave.

## Metrics
Vehicles spawned, trips completed, min/avg/max trip time in seconds,
min/max speed, and close calls (ticks where a vehicle had to stop).`

// Formatting helpers

func formatSessionInfo(info *service.SessionInfo) string {
	state := "paused"
	if info.Running {
		state = "running"
	}
	return fmt.Sprintf("Session: %s\nConfig: %s\nState: %s (auto-spawn %t)\nTick: %d\nActive vehicles: %d\n%s",
		info.ID, info.ConfigID, state, info.AutoSpawn, info.Tick, info.Active, formatMetrics(&info.Metrics))
}

func formatMetrics(m *metrics.Report) string {
	return fmt.Sprintf("Vehicles: %d, trips: %d\nTrip time: min %.2fs, avg %.2fs, max %.2fs\nSpeed: min %.2f, max %.2f\nClose calls: %d\n",
		m.Vehicles, m.Trips, m.MinTrip, m.AvgTrip, m.MaxTrip, m.MinSpeed, m.MaxSpeed, m.CloseCalls)
}

func formatSnapshot(snap *engine.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tick %d, %d active vehicles\n", snap.Tick, snap.Active)
	if len(snap.Vehicles) == 0 {
		return sb.String()
	}

	counts := lo.CountValuesBy(snap.Vehicles, func(v engine.Vehicle) engine.Phase { return v.Phase })
	fmt.Fprintf(&sb, "Approaching: %d, inside: %d, leaving: %d, waiting: %d\n",
		counts[engine.PhaseBefore], counts[engine.PhaseInside], counts[engine.PhaseAfter],
		lo.CountBy(snap.Vehicles, func(v engine.Vehicle) bool { return v.Waiting }))

	vehicles := append([]engine.Vehicle(nil), snap.Vehicles...)
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].ID < vehicles[j].ID })
	for _, v := range vehicles {
		flag := ""
		if v.Waiting {
			flag = " WAITING"
		}
		fmt.Fprintf(&sb, "#%d %s %s %s at (%.1f, %.1f) speed %.2f%s\n",
			v.ID, v.Behavior, v.Heading, v.Phase, v.Body.X, v.Body.Y, v.Speed, flag)
	}
	return sb.String()
}
