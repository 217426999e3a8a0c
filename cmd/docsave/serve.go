package main

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/docsave/pkg/middleware"
	"github.com/vango-dev/docsave/pkg/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port      int
		host      string
		noPublish bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the snapshot HTTP service",
		Long: `Run the HTTP service exposing the snapshot formats.

Endpoints:
  POST /v1/html, /v1/xhtml, /v1/diff    one snapshot (body: the document)
  POST /v1/artifacts, /v1/menu          the save menu as JSON or HTML
  POST /v1/publish                      store every artifact
  GET  /v1/epub?url=                    redirect to the EPUB converter
  GET  /v1/events                       WebSocket stream of save events
  GET  /metrics, /healthz

Examples:
  docsave serve
  docsave serve --port=9090 --host=0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := middleware.NewMetrics(middleware.WithRegistry(reg))

			a, err := newApp(cmd, flags, metrics)
			if err != nil {
				return err
			}
			if port > 0 {
				a.cfg.Server.Port = port
			}
			if host != "" {
				a.cfg.Server.Host = host
			}

			opts := []server.Option{
				server.WithMetrics(metrics, reg),
				server.WithLogger(a.logger.With("component", "server")),
			}
			if !noPublish {
				store, err := openStore(cmd.Context(), a.cfg, "")
				if err != nil {
					return err
				}
				opts = append(opts, server.WithStore(store))
			}

			config := server.DefaultConfig()
			config.Address = a.cfg.Address()
			config.BodyLimit = a.cfg.Server.BodyLimit
			config.ShutdownTimeout = a.cfg.ShutdownTimeout()

			srv := server.New(config, a.exporter, a.hub, opts...)
			info(cmd.OutOrStdout(), "Listening on %s", httpURL(a.cfg.Server.Host, a.cfg.Server.Port))
			return srv.Run()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from docsave.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from docsave.json)")
	cmd.Flags().BoolVar(&noPublish, "no-publish", false, "Disable POST /v1/publish")

	return cmd
}

func httpURL(host string, port int) string {
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%s", host, strconv.Itoa(port))
}
