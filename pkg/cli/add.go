package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/y-kuroda/mnemo/pkg/usecase/memory"
)

func addCommand() *cli.Command {
	var (
		cfg      config
		content  string
		input    string
		metaJSON string
		memType  string
		scope    string
		infer    bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "content",
			Aliases:     []string{"c"},
			Usage:       "Memory content",
			Destination: &content,
		},
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to a file holding the memory content",
			Destination: &input,
		},
		&cli.StringFlag{
			Name:        "metadata",
			Aliases:     []string{"m"},
			Usage:       "Metadata as a JSON object",
			Destination: &metaJSON,
		},
		&cli.StringFlag{
			Name:        "type",
			Aliases:     []string{"t"},
			Usage:       "Memory type label",
			Destination: &memType,
		},
		&cli.StringFlag{
			Name:        "scope",
			Usage:       "Memory scope label",
			Destination: &scope,
		},
		&cli.BoolFlag{
			Name:        "infer",
			Usage:       "Extract facts from the content and suppress duplicates",
			Sources:     cli.EnvVars("MNEMO_INFER"),
			Destination: &infer,
		},
	}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "add",
		Usage: "Create a memory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if content == "" && input != "" {
				data, err := os.ReadFile(input)
				if err != nil {
					return goerr.Wrap(err, "failed to read input file", goerr.V("path", input))
				}
				content = string(data)
			}
			if content == "" {
				return goerr.New("content is required (use --content or --input)")
			}

			meta, err := parseMetadata(metaJSON)
			if err != nil {
				return err
			}

			uc, closeStore, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			records, err := uc.Create(ctx, &memory.CreateInput{
				Content:  content,
				Identity: cfg.identity(),
				Metadata: meta,
				Scope:    scope,
				Type:     memType,
				Infer:    infer,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create memory")
			}

			return printJSON(c.Root().Writer, records)
		},
	}
}
