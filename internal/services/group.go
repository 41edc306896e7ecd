package services

import (
	"context"

	"github.com/dropDatabas3/fabric/internal/command"
	"github.com/dropDatabas3/fabric/internal/executor"
	"github.com/dropDatabas3/fabric/internal/group"
)

const groupGroup = "group"

func groupCommands(svc *group.Service) []command.Command {
	ready := func() bool { return svc != nil }
	cmd := func(name, action, usage string, min, max int, fn func(ctx context.Context, args []string) (any, error)) command.Command {
		return &funcCommand{
			Base:  command.NewBase(groupGroup, name),
			usage: usage, min: min, max: max, action: action,
			ready: ready, execute: fn,
		}
	}

	return []command.Command{
		cmd("create", "_create_group", "id [description]", 1, 2, func(ctx context.Context, a []string) (any, error) {
			desc := ""
			if len(a) > 1 {
				desc = a[1]
			}
			return nil, svc.Create(ctx, a[0], desc)
		}),
		&destroyGroup{
			funcCommand: &funcCommand{Base: command.NewBase(groupGroup, "destroy"), usage: "id", min: 1, max: 1, ready: ready},
			svc:         svc,
		},
		cmd("add", "_add_server", "id uuid uri", 3, 3, func(ctx context.Context, a []string) (any, error) {
			id, err := parseUUID(a[1])
			if err != nil {
				return nil, err
			}
			return nil, svc.AddServer(ctx, a[0], id, a[2])
		}),
		cmd("remove", "_remove_server", "id uuid", 2, 2, func(ctx context.Context, a []string) (any, error) {
			id, err := parseUUID(a[1])
			if err != nil {
				return nil, err
			}
			return nil, svc.RemoveServer(ctx, a[0], id)
		}),
		cmd("promote", "_set_master", "id uuid", 2, 2, func(ctx context.Context, a []string) (any, error) {
			id, err := parseUUID(a[1])
			if err != nil {
				return nil, err
			}
			return nil, svc.Promote(ctx, a[0], id)
		}),
		cmd("lookup_servers", "_lookup_servers", "id", 1, 1, func(ctx context.Context, a []string) (any, error) {
			return svc.LookupServers(ctx, a[0])
		}),
	}
}

// destroyGroup se ejecuta en dos jobs: primero saca los servidores y después borra el
// grupo. Si el primero falla el segundo no corre.
type destroyGroup struct {
	*funcCommand
	svc *group.Service
}

func (c *destroyGroup) Execute(ctx context.Context, args []string) (any, error) {
	if _, err := c.removeServers(ctx, args); err != nil {
		return nil, err
	}
	return c.destroy(ctx, args)
}

func (c *destroyGroup) Actions(args []string) []executor.Action {
	return []executor.Action{
		{
			Name:          "_remove_servers",
			Transactional: true,
			Fn:            func(ctx context.Context) (any, error) { return c.removeServers(ctx, args) },
		},
		{
			Name:          "_destroy_group",
			Transactional: true,
			Fn:            func(ctx context.Context) (any, error) { return c.destroy(ctx, args) },
		},
	}
}

func (c *destroyGroup) removeServers(ctx context.Context, args []string) (any, error) {
	if err := c.check(args); err != nil {
		return nil, err
	}
	_, err := c.svc.RemoveServers(ctx, args[0])
	return nil, err
}

func (c *destroyGroup) destroy(ctx context.Context, args []string) (any, error) {
	if err := c.check(args); err != nil {
		return nil, err
	}
	return nil, c.svc.Destroy(ctx, args[0])
}
