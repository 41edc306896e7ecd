package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/fabric/internal/app"
	"github.com/dropDatabas3/fabric/internal/config"
	"github.com/dropDatabas3/fabric/internal/observability/logger"
)

func main() {
	// .env es opcional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: loading .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "fabric",
		Short:         "Control plane para grupos de réplica MySQL y sharding por rangos",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "fabric"})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("FABRIC_CONFIG"), "Archivo de configuración YAML (env FABRIC_CONFIG)")

	manage := &cobra.Command{Use: "manage", Short: "Administración del servidor fabric"}
	manage.AddCommand(c.startCmd(), c.setupCmd(), c.teardownCmd())
	root.AddCommand(manage)

	if err := addRemoteCommands(root, c); err != nil {
		panic(err)
	}
	return root
}

func (c *cli) startCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Arranca el servidor (executor + RPC) hasta recibir SIGINT/SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if c.cfg.Storage.Driver == "memory" {
					if err := a.Setup(ctx); err != nil {
						return err
					}
				}
				return a.Run(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Dirección de escucha (pisa server.addr)")
	return cmd
}

func (c *cli) setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Crea la base y las tablas de estado",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Setup(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "setup complete")
				return nil
			})
		},
	}
}

func (c *cli) teardownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teardown",
		Short: "Elimina las tablas y la base de estado",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Teardown(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "teardown complete")
				return nil
			})
		},
	}
}

func (c *cli) withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.New(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.L().Warn("close failed", logger.Err(err))
		}
	}()
	return fn(logger.ToContext(ctx, logger.L()), a)
}
