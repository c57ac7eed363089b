package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "mailweave",
		Usage: "Email context aggregation: semantic memory and business-thread correlation",
		Commands: []*cli.Command{
			ingestCommand(),
			noteCommand(),
			searchCommand(),
			memoriesCommand(),
			forgetCommand(),
			reindexCommand(),
			detectCommand(),
			groupsCommand(),
			showCommand(),
			correlateCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
