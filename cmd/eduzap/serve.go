package main

import (
	"github.com/spf13/cobra"

	"github.com/pinkoogupta/eduzap/internal/server"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			app, err := server.Build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Error("close backends", "err", err)
				}
			}()
			return app.Run(ctx)
		},
	}
	flags := cmd.Flags()
	flags.String("addr", "", "listen address, e.g. :5000")
	flags.String("database", "", "request store: memory or postgres")
	flags.String("cache", "", "page cache: memory, redis or none")
	flags.String("blob", "", "image store: none, cloudinary or s3")
	_ = root.v.BindPFlag("server.addr", flags.Lookup("addr"))
	_ = root.v.BindPFlag("database.driver", flags.Lookup("database"))
	_ = root.v.BindPFlag("cache.driver", flags.Lookup("cache"))
	_ = root.v.BindPFlag("blob.driver", flags.Lookup("blob"))
	return cmd
}
