package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/y-kuroda/mnemo/pkg/usecase/memory"
)

func listCommand() *cli.Command {
	var (
		cfg    config
		offset int64
		limit  int64
		sortBy string
		order  string
		asJSON bool
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Offset for pagination",
			Value:       0,
			Destination: &offset,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of memories to list",
			Value:       100,
			Destination: &limit,
		},
		&cli.StringFlag{
			Name:        "sort-by",
			Usage:       "Sort key: created_at, updated_at or id",
			Destination: &sortBy,
		},
		&cli.StringFlag{
			Name:        "order",
			Usage:       "Sort order: asc or desc",
			Destination: &order,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Output full records as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List memories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closeStore, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			records, err := uc.List(ctx, &memory.ListInput{
				Identity: cfg.identity(),
				Limit:    int(limit),
				Offset:   int(offset),
				SortBy:   sortBy,
				Order:    order,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to list memories")
			}

			if asJSON {
				return printJSON(c.Root().Writer, records)
			}

			for _, rec := range records {
				preview := rec.Content
				if len(preview) > 60 {
					preview = preview[:60] + "..."
				}
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\n", rec.ID, formatTime(rec.CreatedAt), preview)
			}
			return nil
		},
	}
}
