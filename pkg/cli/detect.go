package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/urfave/cli/v3"
)

func detectCommand() *cli.Command {
	var (
		cfg     config
		emailID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "email-id",
			Aliases:     []string{"e"},
			Usage:       "ID of a stored email to run detection for",
			Destination: &emailID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, correlationFlags(&cfg)...)

	return &cli.Command{
		Name:  "detect",
		Usage: "Re-run correlation detection for a stored email",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			email, err := repo.GetEmail(ctx, model.EmailID(emailID))
			if err != nil {
				return goerr.Wrap(err, "failed to get email")
			}

			mem, err := cfg.newMemory(ctx, repo, c.Root().Writer)
			if err != nil {
				return err
			}
			corr, err := cfg.newCorrelation(ctx, repo, mem, c.Root().Writer)
			if err != nil {
				return err
			}

			records, err := corr.Detect(ctx, email)
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Fprintf(c.Root().Writer, "No correlations detected\n")
				return nil
			}
			for _, rec := range records {
				fmt.Fprintf(c.Root().Writer, "Correlated %s -> group %s (%s, %.2f): %s\n",
					rec.EmailID, rec.GroupID, rec.Type, rec.Confidence, rec.Subject)
			}
			return nil
		},
	}
}
