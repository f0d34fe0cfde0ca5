package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/linalg/internal/api"
	"github.com/samcharles93/linalg/pkg/einsum"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxStored   int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the contraction REST API",
		Flags: commonFlags(
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-stored",
				Usage:       "contraction results kept for GET (0 = unbounded)",
				Value:       1024,
				Destination: &maxStored,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			applyServeConfig(cmd, cfg, &addr)

			engine := einsum.New(engineConfig(log))
			server := api.NewServer(api.NewContractionStore(int(maxStored)), engine, log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
