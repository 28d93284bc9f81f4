package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/y-kuroda/mnemo/pkg/usecase/memory"
)

// loadItems decodes a YAML or JSON list of batch items from a file.
func loadItems(path string, items any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return goerr.Wrap(err, "failed to read batch file", goerr.V("path", path))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, items); err != nil {
			return goerr.Wrap(err, "failed to parse batch JSON", goerr.V("path", path))
		}
	default:
		if err := yaml.Unmarshal(data, items); err != nil {
			return goerr.Wrap(err, "failed to parse batch YAML", goerr.V("path", path))
		}
	}
	return nil
}

func batchCreateCommand() *cli.Command {
	var (
		cfg   config
		input string
		infer bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to a YAML or JSON file holding the items to create",
			Destination: &input,
		},
		&cli.BoolFlag{
			Name:        "infer",
			Usage:       "Extract facts from each item and suppress duplicates",
			Destination: &infer,
		},
	}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "batch-create",
		Usage: "Create memories from a batch file, reporting per-item outcomes",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if input == "" {
				return goerr.New("input file path is required")
			}

			var items []memory.BatchCreateItem
			if err := loadItems(input, &items); err != nil {
				return err
			}
			if len(items) == 0 {
				return goerr.New("batch file holds no items", goerr.V("path", input))
			}

			uc, closeStore, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			result := uc.BatchCreate(ctx, items, cfg.identity(), infer)
			return printJSON(c.Root().Writer, result)
		},
	}
}

func batchUpdateCommand() *cli.Command {
	var (
		cfg   config
		input string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to a YAML or JSON file holding the updates to apply",
			Destination: &input,
		},
	}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "batch-update",
		Usage: "Update memories from a batch file, reporting per-item outcomes",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if input == "" {
				return goerr.New("input file path is required")
			}

			var items []memory.BatchUpdateItem
			if err := loadItems(input, &items); err != nil {
				return err
			}
			if len(items) == 0 {
				return goerr.New("batch file holds no items", goerr.V("path", input))
			}

			uc, closeStore, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			result := uc.BatchUpdate(ctx, items, cfg.identity())
			return printJSON(c.Root().Writer, result)
		},
	}
}
