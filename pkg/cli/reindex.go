package cli

import (
	"context"
	"fmt"

	"github.com/mailweave/mailweave/pkg/model"
	"github.com/urfave/cli/v3"
)

func reindexCommand() *cli.Command {
	var (
		cfg   config
		owner string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "owner",
			Aliases:     []string{"o"},
			Usage:       "Owner user ID",
			Sources:     cli.EnvVars("MAILWEAVE_OWNER"),
			Destination: &owner,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "reindex",
		Usage: "Re-embed and re-upsert every document of an owner",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			mem, err := cfg.newMemory(ctx, repo, c.Root().Writer)
			if err != nil {
				return err
			}

			count, err := mem.ReindexAll(ctx, model.OwnerID(owner))
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Reindexed %d documents for %s\n", count, owner)
			return nil
		},
	}
}
