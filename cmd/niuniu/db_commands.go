package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Pengu1ncc/niuniu-script/service/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
)

func listSubmissionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "list-submissions",
		Usage:     "List recorded submissions for a wallet",
		Aliases:   []string{"ls"},
		ArgsUsage: "<wallet address>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of submissions to show",
				Value:   50,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: wallet address")
			}

			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			subs, err := store.ListSubmissionsByWallet(
				context.Background(),
				c.Args().First(),
				int32(c.Int("limit")),
			)
			if err != nil {
				return fmt.Errorf("failed to list submissions: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(subs)
			}

			// Pretty table output
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SIGNATURE\tITERATION\tOUTCOME\tERROR\tCONFIRMED")
			for _, sub := range subs {
				errDetail := ""
				if sub.ErrDetail != nil {
					errDetail = *sub.ErrDetail
				}
				fmt.Fprintf(w, "%s\t%d/%d\t%s\t%s\t%s\n",
					sub.Signature,
					sub.Iteration,
					sub.RepeatCount,
					sub.Outcome,
					errDetail,
					sub.ConfirmedAt.Format(time.RFC3339),
				)
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nTotal: %d submissions\n", len(subs))
			return nil
		},
	}
}

func submissionSummaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Show submission counts per outcome for a wallet",
		ArgsUsage: "<wallet address>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: wallet address")
			}

			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			counts, err := store.CountSubmissionsByOutcome(context.Background(), c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to summarize submissions: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(counts)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "OUTCOME\tCOUNT")
			for outcome, count := range counts {
				fmt.Fprintf(w, "%s\t%d\n", outcome, count)
			}
			w.Flush()
			return nil
		},
	}
}

func getStore(c *cli.Context) (*db.Store, func(), error) {
	dbURL := c.String("database-url")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return nil, nil, fmt.Errorf("database-url is required (set DATABASE_URL env var or use --database-url)")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db.NewStore(pool, nil), pool.Close, nil
}

func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
