package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/urfave/cli/v3"
)

func memoriesCommand() *cli.Command {
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

	return &cli.Command{
		Name:  "memories",
		Usage: "List all memory documents of an owner, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			docs, err := repo.ListDocuments(ctx, model.OwnerID(owner))
			if err != nil {
				return goerr.Wrap(err, "failed to list documents")
			}
			if len(docs) == 0 {
				fmt.Fprintf(c.Root().Writer, "No documents\n")
				return nil
			}

			// Repository order is unspecified; present newest first like GetAll.
			sort.SliceStable(docs, func(i, j int) bool {
				return docs[i].Metadata.CreatedAt.After(docs[j].Metadata.CreatedAt)
			})
			for _, doc := range docs {
				fmt.Fprintf(c.Root().Writer, "%s  [%s]  %s\n",
					doc.Metadata.CreatedAt.Format("2006-01-02 15:04"), doc.Metadata.Kind, doc.ID)
				fmt.Fprintf(c.Root().Writer, "   %s\n", truncate(doc.Text, 120))
			}
			return nil
		},
	}
}

func forgetCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)

	return &cli.Command{
		Name:      "forget",
		Usage:     "Delete a memory document",
		ArgsUsage: "<document-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			if c.Args().Len() != 1 {
				return goerr.Wrap(model.ErrValidation, "exactly one document ID is required")
			}
			id := model.DocumentID(c.Args().First())

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			if err := repo.DeleteDocument(ctx, id); err != nil {
				return goerr.Wrap(err, "failed to delete document")
			}

			fmt.Fprintf(c.Root().Writer, "Document deleted: %s\n", id)
			return nil
		},
	}
}
