// Command smartroad runs the autonomous intersection simulator.
//
// It supports three commands:
//  1. "server" (default) runs the HTTP server exposing the REST API, the
//     WebSocket frame stream and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API
//     if none is reachable
//  3. "simulate" runs one preset headlessly and prints its metrics
//
// Flags and environment variables control host/port, the configs directory,
// where session reports are archived (a directory or MongoDB), log level,
// and optional ngrok tunneling for external access during development.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/smartroad/api"
	"github.com/wricardo/smartroad/game/batch"
	"github.com/wricardo/smartroad/game/config"
	"github.com/wricardo/smartroad/game/report"
	"github.com/wricardo/smartroad/game/service"
	"github.com/wricardo/smartroad/game/session"
	"github.com/wricardo/smartroad/transport/mcp"
	"github.com/wricardo/smartroad/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Smart Road Intersection Simulator"
)

var (
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}

	log = logrus.WithField("module", "main")
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("Error loading .env file: %v", err)
		}
	} else {
		log.Info("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. Flags on the root command are shared by
// every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "smartroad",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "trace, debug, info, warn, error, critical or off", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing tuning presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "reports-dir", Value: "reports", Usage: "directory for archived session reports (empty disables the archive)", Sources: cli.EnvVars("REPORTS_DIR")},
			&cli.StringFlag{Name: "mongo-uri", Usage: "archive reports in MongoDB instead of reports-dir", Sources: cli.EnvVars("MONGO_URI")},
			&cli.StringFlag{Name: "mongo-db", Value: "smartroad", Usage: "MongoDB database name", Sources: cli.EnvVars("MONGO_DB")},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, ok := logLevels[strings.ToLower(cmd.String("log-level"))]
			if !ok {
				return ctx, fmt.Errorf("log-level must be one of %s", strings.Join(levelNames(), ", "))
			}
			logrus.SetLevel(level)
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return ctx, nil
		},
		DefaultCommand: "server",
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
					&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
					&cli.DurationFlag{Name: "session-ttl", Value: 24 * time.Hour, Usage: "idle time after which a session is archived and removed"},
					&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
				},
				Action: runHTTPServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run an MCP stdio server backed by the REST API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "REST API to use when reachable", Sources: cli.EnvVars("SMARTROAD_API_URL")},
				},
				Action: runStdioMCP,
			},
			{
				Name:  "simulate",
				Usage: "run a preset headlessly and print its metrics",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "preset id (default preset when empty)"},
					&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "random seed"},
					&cli.Uint64Flag{Name: "ticks", Value: 6000, Usage: "ticks with spawning"},
					&cli.Uint64Flag{Name: "drain", Value: 3000, Usage: "extra ticks to let the intersection empty"},
					&cli.Uint64Flag{Name: "spawn-every", Usage: "ticks between spawns (derived from the preset when 0)"},
					&cli.BoolFlag{Name: "archive", Usage: "save the result to the report archive"},
					&cli.BoolFlag{Name: "json", Usage: "print the result as JSON"},
				},
				Action: runSimulate,
			},
		},
	}
}

func levelNames() []string {
	names := make([]string, 0, len(logLevels))
	for name := range logLevels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// services bundles what the commands share
type services struct {
	simulation service.SimulationService
	sessions   *session.Manager
	configs    *config.Manager
	reports    report.Store
	mongo      *report.MongoStore
}

// serviceOptions selects the preset directory and the report archive
type serviceOptions struct {
	ConfigDir  string
	ReportsDir string
	MongoURI   string
	MongoDB    string
}

func optionsFrom(cmd *cli.Command) serviceOptions {
	return serviceOptions{
		ConfigDir:  cmd.String("config-dir"),
		ReportsDir: cmd.String("reports-dir"),
		MongoURI:   cmd.String("mongo-uri"),
		MongoDB:    cmd.String("mongo-db"),
	}
}

// initializeServices wires the config manager, the report archive, the
// session manager and the simulation service.
func initializeServices(ctx context.Context, opts serviceOptions) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	svcs := &services{configs: configManager}

	switch {
	case opts.MongoURI != "":
		store, err := report.NewMongoStore(ctx, opts.MongoURI, opts.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open report archive: %w", err)
		}
		svcs.mongo = store
		svcs.reports = store
	case opts.ReportsDir != "":
		store, err := report.NewFileStore(opts.ReportsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open report archive: %w", err)
		}
		svcs.reports = store
	default:
		log.Warn("report archive disabled")
	}

	svcs.sessions = session.NewManagerWithArchive(svcs.reports)
	svcs.simulation = service.NewSimulationService(svcs.sessions, configManager, svcs.reports)
	return svcs, nil
}

// close archives every live session and releases the archive
func (s *services) close() {
	if err := s.sessions.Shutdown(); err != nil {
		log.Warnf("Session shutdown: %v", err)
	}
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mongo.Close(ctx); err != nil {
			log.Warnf("Failed to close report archive: %v", err)
		}
	}
}

// mcpHandler serves single JSON-RPC messages over HTTP POST
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter mounts the REST API, the WebSocket stream and the /mcp endpoint
func newRouter(svcs *services, hub *websocket.Hub, baseURL string) http.Handler {
	router := http.NewServeMux()
	router.Handle("/", api.NewServer(svcs.simulation, hub))
	router.HandleFunc("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return router
}

// runHTTPServer starts the HTTP server and, when enabled, an ngrok tunnel
// serving the same handler. It returns once ctx is cancelled and every
// session has been archived.
func runHTTPServer(ctx context.Context, cmd *cli.Command) error {
	svcs, err := initializeServices(ctx, optionsFrom(cmd))
	if err != nil {
		return err
	}
	defer svcs.close()

	hub := websocket.NewHub()
	go hub.Run(ctx)
	svcs.sessions.SetFrameHandler(hub.BroadcastFrame)

	ttl := cmd.Duration("session-ttl")
	svcs.sessions.StartCleanup(ctx, maxDuration(ttl/24, time.Minute), ttl)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	router := newRouter(svcs, hub, "http://"+addr)

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Infof("HTTP server listening on %s", addr)
		log.Infof("REST API: http://%s/api", addr)
		log.Infof("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Infof("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), router)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err = <-serverErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warnf("HTTP server shutdown error: %v", shutdownErr)
	}

	wg.Wait()
	log.Info("Server stopped")
	return err
}

// maxDuration returns the larger duration
func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Infof("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Errorf("Failed to start ngrok tunnel: %v", err)
		return
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warnf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Infof("Ngrok tunnel established: %s", ngrokURL)
	log.Infof("  REST API (ngrok): %s/api", ngrokURL)
	log.Infof("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Infof("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Errorf("Ngrok server error: %v", err)
	}
	log.Info("Ngrok tunnel closed")
}

// apiReachable reports whether a REST API answers at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses the API at --api-url when
// it answers; otherwise it starts an internal HTTP API on a random loopback
// port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	// stdout belongs to the protocol
	logrus.SetOutput(os.Stderr)

	baseURL := cmd.String("api-url")
	if apiReachable(baseURL) {
		log.Infof("External API server found at %s, using it for MCP", baseURL)
	} else {
		log.Info("No external API server found, starting internal HTTP server")

		svcs, err := initializeServices(ctx, optionsFrom(cmd))
		if err != nil {
			return err
		}
		defer svcs.close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		hub := websocket.NewHub()
		go hub.Run(ctx)
		svcs.sessions.SetFrameHandler(hub.BroadcastFrame)

		httpServer := &http.Server{Handler: newRouter(svcs, hub, baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Errorf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		log.Infof("Internal HTTP server on %s", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runSimulate runs one preset headlessly and prints the result
func runSimulate(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	if !cmd.Bool("archive") {
		opts.ReportsDir = ""
		opts.MongoURI = ""
	}
	svcs, err := initializeServices(ctx, opts)
	if err != nil {
		return err
	}
	defer svcs.close()

	configID := cmd.String("config")
	cfg := svcs.configs.GetDefault()
	if configID != "" {
		if cfg, err = svcs.configs.LoadConfig(configID); err != nil {
			return err
		}
	} else {
		configID = cfg.Name
	}

	startedAt := time.Now()
	res, err := batch.Run(ctx, cfg, batch.Options{
		Ticks:      cmd.Uint64("ticks"),
		Seed:       cmd.Uint64("seed"),
		SpawnEvery: cmd.Uint64("spawn-every"),
		DrainLimit: cmd.Uint64("drain"),
	})
	if err != nil {
		return err
	}

	if svcs.reports != nil {
		rep := report.New(fmt.Sprintf("sim-%d", res.Seed), configID, startedAt, res.Ticks, res.Active, res.Stats)
		if err := svcs.reports.Save(ctx, rep); err != nil {
			return fmt.Errorf("failed to archive result: %w", err)
		}
		log.Infof("Archived report %s", rep.ID)
	}

	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}
	return printResult(w, res, cmd.Bool("json"))
}

func printResult(w io.Writer, res *batch.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	s := res.Stats
	fmt.Fprintf(w, "Preset:      %s (seed %d)\n", res.ConfigName, res.Seed)
	fmt.Fprintf(w, "Ticks:       %d (%s simulated)\n", res.Ticks, res.Simulated)
	fmt.Fprintf(w, "Vehicles:    %d spawned, %d rejected, %d still inside\n", s.Vehicles, res.Rejected, res.Active)
	fmt.Fprintf(w, "Trips:       %d (min %.2fs, avg %.2fs, max %.2fs)\n", s.Trips, s.MinTrip, s.AvgTrip, s.MaxTrip)
	fmt.Fprintf(w, "Speed:       min %.2f, max %.2f\n", s.MinSpeed, s.MaxSpeed)
	fmt.Fprintf(w, "Close calls: %d\n", s.CloseCalls)
	return nil
}
