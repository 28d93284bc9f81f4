package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/usecase/memory"
)

func updateCommand() *cli.Command {
	var (
		cfg      config
		content  string
		metaJSON string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "content",
			Aliases:     []string{"c"},
			Usage:       "New memory content",
			Destination: &content,
		},
		&cli.StringFlag{
			Name:        "metadata",
			Aliases:     []string{"m"},
			Usage:       "Metadata as a JSON object, merged into the existing metadata",
			Destination: &metaJSON,
		},
	}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "update",
		Usage:     "Update a memory's content and/or metadata",
		ArgsUsage: "<memory-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("memory ID is required")
			}
			id := model.MemoryID(c.Args().First())

			meta, err := parseMetadata(metaJSON)
			if err != nil {
				return err
			}

			input := &memory.UpdateInput{
				ID:       id,
				Metadata: meta,
				Identity: cfg.identity(),
			}
			if content != "" {
				input.Content = &content
			}

			uc, closeStore, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			rec, err := uc.Update(ctx, input)
			if err != nil {
				return goerr.Wrap(err, "failed to update memory")
			}

			return printJSON(c.Root().Writer, rec)
		},
	}
}
