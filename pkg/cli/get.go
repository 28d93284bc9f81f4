package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/y-kuroda/mnemo/pkg/model"
)

func getCommand() *cli.Command {
	var cfg config

	flags := identityFlags(&cfg)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "get",
		Usage:     "Show a memory by ID",
		ArgsUsage: "<memory-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("memory ID is required")
			}
			id := model.MemoryID(c.Args().First())

			uc, closeStore, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			rec, err := uc.Get(ctx, id, cfg.identity())
			if err != nil {
				return goerr.Wrap(err, "failed to get memory")
			}

			return printJSON(c.Root().Writer, rec)
		},
	}
}
