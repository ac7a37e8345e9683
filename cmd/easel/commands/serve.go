package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/easel/internal/api"
	"github.com/dyluth/easel/internal/config"
	"github.com/dyluth/easel/internal/printer"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr      string
	serveStaticDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and static pages",
	Long: `Run the HTTP server until interrupted.

Routes:
  POST   /api/art        submit a record
  GET    /api/art        list records (limit, cursor, size, order)
  GET    /api/art/{id}   fetch one record
  DELETE /api/art/{id}   delete a record
  GET    /  and /parse   index.html and parse.html from the static directory
  GET    /healthz        store connectivity
  GET    /metrics        Prometheus metrics

Examples:
  # Serve with ./easel.yml or defaults
  easel serve

  # Serve on another port against Redis
  EASEL_REDIS_URL=redis://localhost:6379/0 easel serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveStaticDir, "static-dir", "", "Directory holding index.html and parse.html (overrides server.static_dir)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveStaticDir != "" {
		cfg.Server.StaticDir = serveStaticDir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return printer.Error(
			fmt.Sprintf("cannot listen on %s", cfg.Server.Addr),
			fmt.Sprintf("Error: %v", err),
			[]string{"Pick another address:\n  easel serve --addr :8001"},
		)
	}

	return serve(ctx, b, cfg.Server, ln)
}

// serve runs the API on ln until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, b *backend, sc *config.ServerConfig, ln net.Listener) error {
	srv := api.NewServer(b.gallery, api.Options{
		Addr:         ln.Addr().String(),
		StaticDir:    sc.StaticDir,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		Logger:       logger,
		Metrics:      b.metrics,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
