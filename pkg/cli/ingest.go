package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
	"github.com/urfave/cli/v3"
)

// emailInput is the JSON shape handed over by the mailbox layer
type emailInput struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Body    string `json:"body"`
	Date    string `json:"date"`
}

func (in *emailInput) toEmail() (*model.Email, error) {
	if in.ID == "" || in.OwnerID == "" {
		return nil, goerr.Wrap(model.ErrValidation, "email id and owner_id are required")
	}

	date := time.Now()
	if in.Date != "" {
		parsed, err := time.Parse(time.RFC3339, in.Date)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", in.Date)
			if err != nil {
				return nil, goerr.Wrap(model.ErrValidation, "unparseable email date", goerr.V("date", in.Date))
			}
		}
		date = parsed
	}

	return &model.Email{
		ID:        model.EmailID(in.ID),
		OwnerID:   model.OwnerID(in.OwnerID),
		Subject:   in.Subject,
		Sender:    in.Sender,
		Body:      in.Body,
		Date:      date,
		CreatedAt: time.Now(),
	}, nil
}

func ingestCommand() *cli.Command {
	var (
		cfg       config
		inputPath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to JSON file containing the email record",
			Sources:     cli.EnvVars("MAILWEAVE_INPUT"),
			Destination: &inputPath,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, correlationFlags(&cfg)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Store an email, index it into memory and detect correlations",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return goerr.Wrap(err, "failed to read input file", goerr.V("path", inputPath))
			}

			var in emailInput
			if err := json.Unmarshal(data, &in); err != nil {
				return goerr.Wrap(err, "failed to parse JSON")
			}
			email, err := in.toEmail()
			if err != nil {
				return err
			}

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

			if err := repo.PutEmail(ctx, email); err != nil {
				return goerr.Wrap(err, "failed to store email")
			}

			doc, err := mem.IndexEmail(ctx, email)
			if err != nil {
				return goerr.Wrap(err, "failed to index email")
			}

			records, err := corr.Detect(ctx, email)
			if err != nil {
				return goerr.Wrap(err, "failed to detect correlations")
			}

			fmt.Fprintf(c.Root().Writer, "Email stored: %s (document %s)\n", email.ID, doc.ID)
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
