package main

import (
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/processor"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	routes "github.com/Ramsey-B/fern/pkg/routes/resolution"
	"github.com/Ramsey-B/fern/pkg/server"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolution HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			runCtx := cmd.Context()

			stopTracing, err := ctx.startTracing(runCtx)
			if err != nil {
				return err
			}
			defer stopTracing()

			profile, err := ctx.matchProfile()
			if err != nil {
				return err
			}
			pipeline, err := resolution.New(ctx.logger, profile, resolution.WithWorkers(cfg.Workers))
			if err != nil {
				return err
			}

			var (
				store   processor.RunStore
				reader  routes.RunReader
				emitter processor.RunEmitter
				probes  []health.Option
			)
			if cfg.DatabaseEnabled {
				db, repo, err := ctx.openStore(runCtx)
				if err != nil {
					return err
				}
				defer db.Close()
				store, reader = repo, repo
				probes = append(probes, health.WithProbe("database", db, true))
			}
			if cfg.KafkaEnabled {
				producer, e := ctx.openEmitter()
				defer producer.Close()
				emitter = e
				probes = append(probes, health.WithProbe("kafka", producer, false))
			}

			runner := processor.NewRunProcessor(ctx.logger, pipeline, store, emitter)
			srv := server.New(cfg, ctx.logger,
				health.NewChecker(version, probes...),
				routes.NewHandler(runner, reader, ctx.logger, cfg.MaxRequestRecords))
			return srv.Start(runCtx)
		},
	}
}
