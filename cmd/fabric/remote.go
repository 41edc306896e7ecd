package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/fabric/internal/command"
	"github.com/dropDatabas3/fabric/internal/config"
	"github.com/dropDatabas3/fabric/internal/rpc"
	"github.com/dropDatabas3/fabric/internal/services"
)

// addRemoteCommands agrega un sub-comando por cada comando remoto, agrupado por
// grupo ("fabric sharding lookup db1.t1 500").
func addRemoteCommands(root *cobra.Command, c *cli) error {
	parents := map[string]*cobra.Command{}
	for _, sub := range root.Commands() {
		parents[sub.Name()] = sub
	}

	for _, rc := range services.Commands(services.Deps{}) {
		parent, ok := parents[rc.Group()]
		if !ok {
			parent = &cobra.Command{Use: rc.Group(), Short: fmt.Sprintf("Comandos remotos %s.*", rc.Group())}
			parents[rc.Group()] = parent
			root.AddCommand(parent)
		}
		sub, err := remoteCmd(rc, c)
		if err != nil {
			return err
		}
		parent.AddCommand(sub)
	}
	return nil
}

// dispatcher es la vista de un comando en modo cliente.
type dispatcher interface {
	command.Command
	Method() string
	AddOptions(cmd *cobra.Command) error
	SetupClient(client command.Caller, values map[string]any, cfg *config.Config) error
	Values() map[string]any
	Dispatch(ctx context.Context, args ...string) (string, error)
}

type usager interface{ Usage() string }

func remoteCmd(rc command.Command, c *cli) (*cobra.Command, error) {
	d, ok := rc.(dispatcher)
	if !ok {
		return nil, fmt.Errorf("command %s.%s cannot be dispatched", rc.Group(), rc.Name())
	}
	use := rc.Name()
	if u, ok := rc.(usager); ok && u.Usage() != "" {
		use += " " + u.Usage()
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: "Ejecuta " + d.Method() + " en el servidor",
	}
	if err := d.AddOptions(cmd); err != nil {
		return nil, err
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client := rpc.NewClient(c.cfg.Client.Address, c.cfg.ClientTimeout())
		if err := d.SetupClient(client, d.Values(), c.cfg); err != nil {
			return err
		}
		out, err := d.Dispatch(cmd.Context(), args...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	return cmd, nil
}
