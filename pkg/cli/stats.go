package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func statsCommand() *cli.Command {
	var (
		cfg  config
		days int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "days",
			Usage:       "Restrict to memories created in the last N days (0 = all)",
			Value:       0,
			Destination: &days,
		},
	}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregate statistics over memories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closeStore, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := uc.Statistics(ctx, cfg.identity(), cutoffFromDays(days))
			if err != nil {
				return goerr.Wrap(err, "failed to compute statistics")
			}

			return printJSON(c.Root().Writer, stats)
		},
	}
}

func qualityCommand() *cli.Command {
	var (
		cfg  config
		days int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "days",
			Usage:       "Restrict to memories created in the last N days (0 = all)",
			Value:       0,
			Destination: &days,
		},
	}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "quality",
		Usage: "Analyze memory quality and report defect counts",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closeStore, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			report, err := uc.AnalyzeQuality(ctx, cfg.identity(), cutoffFromDays(days))
			if err != nil {
				return goerr.Wrap(err, "failed to analyze quality")
			}

			return printJSON(c.Root().Writer, report)
		},
	}
}
