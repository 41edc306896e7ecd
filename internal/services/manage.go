package services

import (
	"context"

	"github.com/dropDatabas3/fabric/internal/command"
)

func manageCommands() []command.Command {
	return []command.Command{
		&funcCommand{
			Base: command.NewBase("manage", "ping"),
			max:  0,
			execute: func(ctx context.Context, args []string) (any, error) {
				return "pong", nil
			},
		},
	}
}
