package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "mnemo",
		Usage: "Memory service for AI agents",
		Commands: []*cli.Command{
			addCommand(),
			getCommand(),
			listCommand(),
			updateCommand(),
			deleteCommand(),
			purgeCommand(),
			bulkDeleteCommand(),
			batchCreateCommand(),
			batchUpdateCommand(),
			statsCommand(),
			qualityCommand(),
			usersCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
