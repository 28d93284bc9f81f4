package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func usersCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "users",
		Usage: "List distinct user IDs present in the store",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closeStore, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			users, err := uc.Users(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list users")
			}

			for _, user := range users {
				fmt.Fprintln(c.Root().Writer, user)
			}
			return nil
		},
	}
}
