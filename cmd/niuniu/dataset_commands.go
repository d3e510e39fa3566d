package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Pengu1ncc/niuniu-script/service/dataset"
	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"
)

// datasetRecord is the JSON shape of one dataset row for inspection.
// The private key itself is never printed.
type datasetRecord struct {
	Wallet        string `json:"wallet"`
	RepeatCount   int    `json:"repeat_count"`
	TemplateBytes int    `json:"template_bytes"`
}

func datasetValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Load a dataset and report its contents",
		ArgsUsage: "DATASET_PATH",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: dataset path")
			}

			tasks, err := dataset.Load(c.Args().First())
			if err != nil {
				return err
			}

			// Pretty table output
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WALLET\tREPEAT COUNT\tTEMPLATE BYTES")
			total := 0
			for _, task := range tasks {
				fmt.Fprintf(w, "%s\t%d\t%d\n",
					task.Wallet().String(),
					task.RepeatCount,
					len(task.Template),
				)
				total += task.RepeatCount
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nTotal: %d accounts, %d planned submissions\n", len(tasks), total)
			return nil
		},
	}
}

func datasetInspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print dataset records as JSON, optionally filtered with jq",
		ArgsUsage: "DATASET_PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "jq expression applied to each record (e.g. 'select(.repeat_count > 10)')",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: dataset path")
			}

			tasks, err := dataset.Load(c.Args().First())
			if err != nil {
				return err
			}

			var code *gojq.Code
			if filter := c.String("filter"); filter != "" {
				query, err := gojq.Parse(filter)
				if err != nil {
					return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
				}
				code, err = gojq.Compile(query)
				if err != nil {
					return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
				}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			for _, task := range tasks {
				record := datasetRecord{
					Wallet:        task.Wallet().String(),
					RepeatCount:   task.RepeatCount,
					TemplateBytes: len(task.Template),
				}

				if code == nil {
					if err := enc.Encode(record); err != nil {
						return err
					}
					continue
				}

				// gojq operates on generic JSON values, so round-trip the
				// record through encoding/json first.
				raw, err := json.Marshal(record)
				if err != nil {
					return err
				}
				var v any
				if err := json.Unmarshal(raw, &v); err != nil {
					return err
				}

				iter := code.Run(v)
				for {
					out, ok := iter.Next()
					if !ok {
						break
					}
					if err, ok := out.(error); ok {
						return fmt.Errorf("jq filter error: %w", err)
					}
					if err := enc.Encode(out); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}
