// Package services contiene los comandos remotos de fabric: sharding.*, group.* y
// manage.ping. Los mismos comandos se registran en el servidor (con sus dependencias)
// y se usan en el cliente (sin dependencias) para despachar por RPC.
package services

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/dropDatabas3/fabric/internal/command"
	"github.com/dropDatabas3/fabric/internal/errs"
	"github.com/dropDatabas3/fabric/internal/group"
	"github.com/dropDatabas3/fabric/internal/sharding"
)

// Deps son las dependencias de los comandos en modo servidor. En modo cliente se
// pasa Deps{}.
type Deps struct {
	Directory *sharding.Directory
	Groups    *group.Service
}

// Commands retorna todos los comandos remotos.
func Commands(d Deps) []command.Command {
	var out []command.Command
	out = append(out, shardingCommands(d.Directory)...)
	out = append(out, groupCommands(d.Groups)...)
	out = append(out, manageCommands()...)
	return out
}

// funcCommand es un comando de una sola acción.
type funcCommand struct {
	*command.Base
	usage   string
	min     int
	max     int
	action  string
	ready   func() bool
	execute func(ctx context.Context, args []string) (any, error)
}

func (c *funcCommand) ActionName() string {
	if c.action != "" {
		return c.action
	}
	return c.Base.ActionName()
}

// Usage retorna los argumentos posicionales del comando.
func (c *funcCommand) Usage() string { return c.usage }

func (c *funcCommand) Execute(ctx context.Context, args []string) (any, error) {
	if err := c.check(args); err != nil {
		return nil, err
	}
	return c.execute(ctx, args)
}

func (c *funcCommand) check(args []string) error {
	if c.ready != nil && !c.ready() {
		return errs.Precondition("%s: not configured in server mode", c.Method())
	}
	if len(args) < c.min || (c.max >= 0 && len(args) > c.max) {
		return errs.Precondition("%s: usage: %s", c.Method(), c.usage)
	}
	return nil
}

func parseKey(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errs.Precondition("invalid integer %q", s)
	}
	return v, nil
}

func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errs.Precondition("invalid server uuid %q", s)
	}
	return id, nil
}
