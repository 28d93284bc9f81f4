package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/y-kuroda/mnemo/pkg/model"
)

func deleteCommand() *cli.Command {
	var cfg config

	flags := identityFlags(&cfg)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a memory by ID",
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

			if err := uc.Delete(ctx, id, cfg.identity()); err != nil {
				return goerr.Wrap(err, "failed to delete memory")
			}

			fmt.Fprintf(c.Root().Writer, "Memory deleted: %s\n", id)
			return nil
		},
	}
}

func purgeCommand() *cli.Command {
	var (
		cfg   config
		force bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "force",
			Aliases:     []string{"f"},
			Usage:       "Skip the identity filter safety check",
			Destination: &force,
		},
	}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "purge",
		Usage: "Delete all memories matching the identity filters",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ident := cfg.identity()
			if ident.IsEmpty() && !force {
				return goerr.New("refusing to purge the whole store without identity filters (use --force)")
			}

			uc, closeStore, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			count, err := uc.DeleteAll(ctx, ident)
			if err != nil {
				return goerr.Wrap(err, "failed to purge memories")
			}

			fmt.Fprintf(c.Root().Writer, "Memories deleted: %d\n", count)
			return nil
		},
	}
}

func bulkDeleteCommand() *cli.Command {
	var cfg config

	flags := identityFlags(&cfg)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "bulk-delete",
		Usage:     "Delete multiple memories, reporting per-ID outcomes",
		ArgsUsage: "<memory-id>...",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return goerr.New("at least one memory ID is required")
			}

			ids := make([]model.MemoryID, 0, c.Args().Len())
			for _, arg := range c.Args().Slice() {
				ids = append(ids, model.MemoryID(arg))
			}

			uc, closeStore, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			result := uc.BulkDelete(ctx, ids, cfg.identity())
			return printJSON(c.Root().Writer, result)
		},
	}
}
