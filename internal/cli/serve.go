package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/schooldash/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API over HTTP",
	Long: `Serve starts the dashboard HTTP API for one session. The dataset loads in
the background; until it does, data endpoints answer 503.

When server.static_dir is set its files are served at the root and the offline
worker installs offline.manifest from offline.origin once the server listens.

Endpoints:
  GET /healthz
  GET /api/dataset
  GET /api/views
  GET /api/views/{category}
  GET /api/views/{category}/chart
  GET /api/summary/{category}
  GET /api/locale
  PUT /api/locale   {"locale": "ta"}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx := cmd.Context()
	log := getLogger()

	withManifest := cfg.Server.StaticDir != ""
	s, err := newSession(ctx, cfg, withManifest, log)
	if err != nil {
		return err
	}
	defer s.pipeline.Close()

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := server.New(s.pipeline, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Preferences:    s.prefs,
		StaticDir:      cfg.Server.StaticDir,
		Logger:         log.Named("server"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})
	g.Go(func() error {
		// The worker passes requests straight through until installed
		if withManifest && s.worker != nil {
			if err := s.worker.Install(gctx); err != nil {
				log.Warn("Offline worker not installed", zap.Error(err))
			}
		}
		// A failed load is logged and leaves the API answering 503
		_ = s.pipeline.Load(gctx)
		return nil
	})
	return g.Wait()
}
