// Command santabot runs the gift-exchange Telegram bot and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/m3rciful/santabot/core/bootstrap"
	"github.com/m3rciful/santabot/core/buildinfo"
	corecmd "github.com/m3rciful/santabot/core/cmd"
	"github.com/m3rciful/santabot/core/logger"
	"github.com/m3rciful/santabot/internal/bot"
	"github.com/m3rciful/santabot/internal/config"
	"github.com/m3rciful/santabot/internal/storage"
	"github.com/m3rciful/santabot/migrations"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "santabot",
		Short:         "Gift-exchange Telegram bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the YAML config (default $"+configEnvVar+" or "+defaultConfigPath+")")

	root.AddCommand(
		newRunCmd(&configPath),
		newImportCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return corecmd.Run(corecmd.Options{
				ConfigPath:        *configPath,
				ConfigEnvVar:      configEnvVar,
				DefaultConfigPath: defaultConfigPath,
				LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
					return config.Load(path)
				},
				Bootstrap: bootstrapApp,
			})
		},
	}
}

func newImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Load the sign-up sheet export into the assignments table",
		Long: `Reads a CSV export of the sign-up sheet: a header row, then 14 columns per row
(giver id, receiver id and the twelve preference answers). Existing rows with
the same giver are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Shutdown() }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			res, err := bootstrap.Run(ctx, bootstrapOptions(cfg))
			if err != nil {
				return err
			}
			defer res.DB.Close()

			n, err := storage.New(res.DB).ImportFile(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d assignments from %s\n", n, args[0])
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "santabot "+buildinfo.String())
		},
	}
}

func loadConfig(flagPath string) (*config.Config, error) {
	path, err := corecmd.ResolveConfigPath(corecmd.Options{
		ConfigPath:        flagPath,
		ConfigEnvVar:      configEnvVar,
		DefaultConfigPath: defaultConfigPath,
	})
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func bootstrapOptions(cfg *config.Config) bootstrap.Options {
	return bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS,
	}
}

// bootstrapApp prepares the store, imports the seed sheet when configured and wires the bot.
func bootstrapApp(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T", carrier)
	}

	opts := bootstrapOptions(cfg)
	opts.Modules.Seeders = append(opts.Modules.Seeders, storage.CSVSeeder(cfg.Santa.SeedCSV))

	res, err := bootstrap.Run(ctx, opts)
	if err != nil {
		return nil, err
	}
	app, err := bot.New(cfg, res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return app, nil
}
