package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/urfave/cli/v3"
)

func groupsCommand() *cli.Command {
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
		Name:  "groups",
		Usage: "List correlation groups of an owner with their analyses",
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
			corr, err := cfg.newCorrelation(ctx, repo, mem, c.Root().Writer)
			if err != nil {
				return err
			}

			groups, err := corr.ListGroups(ctx, model.OwnerID(owner))
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintf(c.Root().Writer, "No correlation groups\n")
				return nil
			}

			for _, group := range groups {
				printGroup(c, group)
				fmt.Fprintf(c.Root().Writer, "\n")
			}
			return nil
		},
	}
}

func showCommand() *cli.Command {
	var cfg config

	flags := append([]cli.Flag{}, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "show",
		Usage:     "Show one correlation group: members and analysis",
		ArgsUsage: "<group-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			if c.Args().Len() != 1 {
				return goerr.Wrap(model.ErrValidation, "exactly one group ID is required")
			}
			groupID := model.GroupID(c.Args().First())

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			mem, err := cfg.newMemory(ctx, repo, c.Root().Writer)
			if err != nil {
				return err
			}
			corr, err := cfg.newCorrelation(ctx, repo, mem, c.Root().Writer)
			if err != nil {
				return err
			}

			group, err := corr.GetGroup(ctx, groupID)
			if err != nil {
				return err
			}
			if group == nil {
				fmt.Fprintf(c.Root().Writer, "Group not found: %s\n", groupID)
				return nil
			}

			printGroup(c, group)
			return nil
		},
	}
}

func printGroup(c *cli.Command, group *model.CorrelationGroup) {
	fmt.Fprintf(c.Root().Writer, "Group %s (%s): %s\n", group.ID, group.Type, group.Subject)
	for _, email := range group.Emails {
		fmt.Fprintf(c.Root().Writer, "  - %s  %s  %s: %s\n",
			email.ID, email.Date.Format("2006-01-02"), email.Sender, email.Subject)
	}

	if group.Analysis == nil {
		fmt.Fprintf(c.Root().Writer, "  (no analysis)\n")
		return
	}

	data, err := json.MarshalIndent(group.Analysis, "  ", "  ")
	if err != nil {
		fmt.Fprintf(c.Root().Writer, "  (failed to render analysis: %v)\n", err)
		return
	}
	fmt.Fprintf(c.Root().Writer, "  Analysis: %s\n", string(data))
}
