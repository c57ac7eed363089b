package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/urfave/cli/v3"
)

func noteCommand() *cli.Command {
	var (
		cfg       config
		owner     string
		noteID    string
		text      string
		inputPath string
		category  string
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
			Name:        "id",
			Usage:       "Note ID (generated when omitted)",
			Destination: &noteID,
		},
		&cli.StringFlag{
			Name:        "text",
			Aliases:     []string{"t"},
			Usage:       "Note content",
			Destination: &text,
		},
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to a file containing the note content",
			Destination: &inputPath,
		},
		&cli.StringFlag{
			Name:        "category",
			Usage:       "Optional note category",
			Destination: &category,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "note",
		Usage: "Add a manual note to the memory store",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			if text == "" && inputPath != "" {
				data, err := os.ReadFile(inputPath)
				if err != nil {
					return goerr.Wrap(err, "failed to read input file", goerr.V("path", inputPath))
				}
				text = string(data)
			}
			if text == "" {
				return goerr.Wrap(model.ErrValidation, "note content is required (--text or --input)")
			}
			if noteID == "" {
				noteID = uuid.New().String()
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			mem, err := cfg.newMemory(ctx, repo, c.Root().Writer)
			if err != nil {
				return err
			}

			doc, err := mem.Index(ctx, model.DocumentKindNote, noteID, text, model.DocumentMetadata{
				OwnerID:  model.OwnerID(owner),
				Category: category,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to index note")
			}

			fmt.Fprintf(c.Root().Writer, "Note indexed: %s\n", doc.ID)
			return nil
		},
	}
}
