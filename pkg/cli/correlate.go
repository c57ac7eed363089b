package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/urfave/cli/v3"
)

func correlateCommand() *cli.Command {
	var (
		cfg      config
		owner    string
		corrType string
		subject  string
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
		&cli.StringFlag{
			Name:        "type",
			Aliases:     []string{"t"},
			Usage:       "Correlation type (quote, invoice, order, inquiry, response, manual)",
			Value:       string(model.CorrelationTypeManual),
			Destination: &corrType,
		},
		&cli.StringFlag{
			Name:        "subject",
			Aliases:     []string{"s"},
			Usage:       "Human-readable label for the group",
			Destination: &subject,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "correlate",
		Usage:     "Manually group two or more emails into one business thread",
		ArgsUsage: "<email-id> <email-id> [...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			if c.Args().Len() < 2 {
				return goerr.Wrap(model.ErrValidation, "at least 2 email IDs are required")
			}
			emailIDs := make([]model.EmailID, 0, c.Args().Len())
			for _, arg := range c.Args().Slice() {
				emailIDs = append(emailIDs, model.EmailID(arg))
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			// Manual creation needs no classifier; wire the engine with a
			// nil classifier and the default strategy untouched.
			corr, err := cfg.newManualCorrelation(repo, c.Root().Writer)
			if err != nil {
				return err
			}

			groupID, err := corr.CreateManual(ctx, model.OwnerID(owner), emailIDs, model.CorrelationType(corrType), subject)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Group created: %s (%d members)\n", groupID, len(emailIDs))
			return nil
		},
	}
}
