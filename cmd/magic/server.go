package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/magic/internal/api"
	"github.com/kalambet/magic/internal/composer"
	"github.com/kalambet/magic/internal/config"
	"github.com/kalambet/magic/internal/history"
	"github.com/kalambet/magic/internal/insights"
	"github.com/kalambet/magic/internal/pipeline"
	"github.com/kalambet/magic/internal/remote"
	"github.com/kalambet/magic/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the magic server (foreground)",
	Long: `Start the HTTP API on 127.0.0.1 and, with --mcp, an MCP server on
stdin/stdout for editor integrations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running magic server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show magic server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve MCP over stdio")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "magic.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer(withMCP bool) error {
	fmt.Fprintln(os.Stderr, versionString())

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg.Log.Level)
	slog.SetDefault(logger)

	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}()

	hist, err := history.Open(store,
		history.WithMaxEntries(cfg.History.MaxEntries),
		history.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() {
		if err := hist.Close(); err != nil {
			slog.Warn("flushing history", "error", err)
		}
	}()

	analyzer := insights.NewAnalyzer(cfg.Context.ProjectDir,
		insights.WithTTL(cfg.Context.TTL),
		insights.WithLogger(logger),
	)
	if cfg.Context.Watch {
		go func() {
			if err := analyzer.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("project watcher stopped; context cache relies on TTL", "error", err)
			}
		}()
	}

	gen, err := remote.New(remote.Config{
		Backend:   cfg.Remote.Backend,
		BaseURL:   cfg.Remote.BaseURL,
		Model:     cfg.Remote.Model,
		APIKey:    cfg.Remote.APIKey,
		RateLimit: cfg.Remote.RateLimit,
		Timeout:   cfg.Remote.Timeout,
	})
	if err != nil {
		return fmt.Errorf("configuring remote backend: %w", err)
	}
	if og, ok := gen.(*remote.OllamaGenerator); ok {
		prepareOllama(ctx, og)
	}

	opts := []pipeline.Option{
		pipeline.WithContextSource(analyzer),
		pipeline.WithRecorder(hist),
		pipeline.WithLogger(logger),
	}
	if gen != nil {
		opts = append(opts, pipeline.WithRemote(gen))
		slog.Info("remote generation enabled", "backend", gen.Name())
	}
	orch := pipeline.New(nil, opts...)

	comp := composer.New(orch, composer.WithLogger(logger))
	if n, err := comp.RegisterFile(cfg.Pages.TemplatesFile); err != nil {
		slog.Warn("loading page templates", "path", cfg.Pages.TemplatesFile, "error", err)
	} else if n > 0 {
		slog.Info("loaded page templates", "path", cfg.Pages.TemplatesFile, "count", n)
	}

	if cfg.Server.Token == "" {
		slog.Warn("no server.token configured; the API accepts unauthenticated requests")
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr: addr,
		Handler: api.NewHandler(api.Deps{
			Generator: orch,
			History:   hist,
			Composer:  comp,
			Context:   analyzer,
			Token:     cfg.Server.Token,
		}),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Generator: orch,
			History:   hist,
			Composer:  comp,
			Context:   analyzer,
			Version:   version,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "magic listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// prepareOllama pulls the configured model when it is missing. Failures only
// warn: the remote stage falls through to basic generation when Ollama is
// unreachable.
func prepareOllama(ctx context.Context, og *remote.OllamaGenerator) {
	if err := og.Ping(ctx); err != nil {
		slog.Warn("ollama not reachable", "error", err)
		return
	}
	last := ""
	err := og.EnsureModel(ctx, func(p remote.PullProgress) {
		if p.Status == last {
			return
		}
		last = p.Status
		if p.Total > 0 {
			printStep("Pulling %s: %s (%s)", og.Model(), p.Status, humanize.Bytes(uint64(p.Total)))
			return
		}
		printStep("Pulling %s: %s", og.Model(), p.Status)
	})
	if err != nil {
		slog.Warn("ollama model unavailable", "model", og.Model(), "error", err)
	}
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		return fmt.Errorf("magic is not running (no PID file): %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("could not find process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		removePIDFile(pidPath)
		return fmt.Errorf("could not stop magic (PID %d): %w", pid, err)
	}

	printSuccess("Sent stop signal to magic (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}
	client.httpClient = &http.Client{Timeout: 2 * time.Second}

	resp, err := client.get(ctx, "/health")
	running := false
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	backend := cfg.Remote.Backend
	if backend == "" {
		backend = "none (templates only)"
	}
	printStatus("Remote", "%s", backend)
	printStatus("Project", "%s", cfg.Context.ProjectDir)

	if running {
		if resp, err := client.get(ctx, "/v1/history/stats"); err == nil {
			var stats history.Statistics
			if decodeJSON(resp, &stats) == nil {
				printStatus("Components", "%s", countLabel(stats.TotalEntries, 0))
				printStatus("Favorites", "%s", countLabel(stats.Favorites, 0))
				if stats.Newest != nil {
					printStatus("Last generated", "%s", ago(*stats.Newest))
				}
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
