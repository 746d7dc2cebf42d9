package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ressourcerie/planning/cmd/cli/commands"
	"github.com/ressourcerie/planning/internal/config"
	"github.com/ressourcerie/planning/pkg/clients/genai"
	"github.com/ressourcerie/planning/pkg/clients/sheetsclient"
	"github.com/ressourcerie/planning/pkg/postgres"
	"github.com/ressourcerie/planning/pkg/utils/logging"
)

var (
	env       string
	asName    string
	reference string
	app       = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "planning",
		Short: "Ressourcerie planning - volunteer slots and registrations",
		Long:  `A tool for publishing volunteer time slots, registering volunteers on them and exporting the planning.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Postgres != nil {
				app.Postgres.Close()
			}
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: dev, prod, etc.)")
	rootCmd.PersistentFlags().StringVar(&asName, "as", "", "Log in as this volunteer before running the command")
	rootCmd.PersistentFlags().StringVar(&reference, "week", "", "Any date (YYYY-MM-DD) of the week to show")
	_ = rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ScheduleCmd(app))
	rootCmd.AddCommand(commands.WeekCmd(app))
	rootCmd.AddCommand(commands.VolunteersCmd(app))
	rootCmd.AddCommand(commands.LoginCmd(app))
	rootCmd.AddCommand(commands.LogoutCmd(app))
	rootCmd.AddCommand(commands.CreateVolunteerCmd(app))
	rootCmd.AddCommand(commands.RenameVolunteerCmd(app))
	rootCmd.AddCommand(commands.DeleteVolunteerCmd(app))
	rootCmd.AddCommand(commands.ImportVolunteersCmd(app))
	rootCmd.AddCommand(commands.CreateSlotCmd(app))
	rootCmd.AddCommand(commands.EditSlotCmd(app))
	rootCmd.AddCommand(commands.DeleteSlotCmd(app))
	rootCmd.AddCommand(commands.DuplicateSlotsCmd(app))
	rootCmd.AddCommand(commands.GenerateSlotsCmd(app))
	rootCmd.AddCommand(commands.SubscribeCmd(app))
	rootCmd.AddCommand(commands.UnsubscribeCmd(app))
	rootCmd.AddCommand(commands.RemoveVolunteerCmd(app))
	rootCmd.AddCommand(commands.VoiceCmd(app))
	rootCmd.AddCommand(commands.ExportCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, clients and database
func initApp() error {
	var err error
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully", zap.String("timezone", app.Cfg.Timezone))

	app.Logger.Info("Connecting to database")
	app.Postgres, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Database = app.Postgres
	app.Logger.Info("Database connected")

	app.GenAI = genai.NewClient(genai.Config{
		BaseURL:    app.Cfg.GenAI.BaseURL,
		APIKey:     app.Cfg.GenAI.APIKey,
		Model:      app.Cfg.GenAI.Model,
		Timeout:    app.Cfg.GenAI.Timeout,
		RetryCount: 1,
		Location:   app.Cfg.Location(),
	}, app.Logger)
	if !app.GenAI.Enabled() {
		app.Logger.Warn("No generative AI key configured, slot generation and voice commands are disabled")
	}

	if app.Cfg.Sheets.SpreadsheetID != "" {
		app.Logger.Info("Initializing sheets client")
		app.Sheets, err = sheetsclient.NewClientFromFile(app.Ctx, app.Cfg.Sheets.CredentialsFile)
		if err != nil {
			return fmt.Errorf("failed to create sheets client: %w", err)
		}
		app.Logger.Debug("Sheets client initialized successfully")
	}

	app.State = commands.NewAppState(app.Database, app.Logger, app.Cfg.Location())
	if reference != "" {
		if err := app.State.Navigate(reference); err != nil {
			return err
		}
	}
	if asName != "" {
		if _, err := commands.LoginAs(app, asName); err != nil {
			return err
		}
	}

	return nil
}
