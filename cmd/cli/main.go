package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/squadcal/squadcal/internal/config"
	"github.com/squadcal/squadcal/pkg/api"
	"github.com/squadcal/squadcal/pkg/core/calendar"
	"github.com/squadcal/squadcal/pkg/core/model"
	"github.com/squadcal/squadcal/pkg/core/services"
	"github.com/squadcal/squadcal/pkg/postgres"
	"github.com/squadcal/squadcal/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	database *postgres.DB
	cal      *calendar.HolidayCalendar
	anchor   calendar.Anchor
	ctx      context.Context
}

var (
	configPath string
	app        *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "squadcal",
		Short: "squadcal - squad standup and incident rotation scheduling",
		Long:  `A service and CLI for managing squad standup hosting and incident on-call rotations.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.database != nil {
					app.database.Close()
				}
				if app.logger != nil {
					app.logger.Sync()
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: squadcal.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(dutyCmd())
	rootCmd.AddCommand(sprintCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, database, and the holiday calendar
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	app.logger, err = logging.InitLogger("squadcal")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application")

	if configPath != "" {
		app.cfg, err = config.LoadFromPath(configPath)
	} else {
		app.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	app.anchor, err = app.cfg.Anchor()
	if err != nil {
		return fmt.Errorf("invalid sprint anchor: %w", err)
	}

	var holidays []calendar.Holiday
	if app.cfg.HolidayFile != "" {
		holidays, err = calendar.LoadHolidays(app.cfg.HolidayFile)
		if err != nil {
			return fmt.Errorf("failed to load holidays: %w", err)
		}
		app.logger.Info("Holiday list loaded", zap.Int("count", len(holidays)))
	}
	app.cal, err = calendar.NewHolidayCalendar(holidays)
	if err != nil {
		return fmt.Errorf("invalid holiday list: %w", err)
	}

	app.logger.Info("Connecting to database")
	app.database, err = postgres.NewDB(app.ctx, app.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := app.database.RunMigrations(app.ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.logger.Info("Database ready")

	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the scheduling API and run scheduled horizon generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := api.NewServer(app.database, app.cal, app.anchor, app.logger)

			c := cron.New()
			if spec := app.cfg.Generation.CronSpec; spec != "" {
				_, err := c.AddFunc(spec, func() {
					err := services.GenerateAllSquads(app.ctx, app.database, app.cal, app.anchor, app.logger,
						time.Now(), app.cfg.Generation.HostingDays, app.cfg.Generation.Sprints)
					if err != nil {
						app.logger.Error("Scheduled generation failed", zap.Error(err))
					}
				})
				if err != nil {
					return fmt.Errorf("invalid generation cron spec %q: %w", spec, err)
				}
				c.Start()
				defer c.Stop()
				app.logger.Info("Scheduled generation enabled", zap.String("cron", spec))
			}

			httpServer := &http.Server{
				Addr:    app.cfg.ListenAddr,
				Handler: server.Router(),
			}

			errCh := make(chan error, 1)
			go func() {
				app.logger.Info("Listening", zap.String("addr", app.cfg.ListenAddr))
				errCh <- httpServer.ListenAndServe()
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-stop:
				app.logger.Info("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(app.ctx, 10*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("failed to shut down server: %w", err)
				}
			}

			return nil
		},
	}
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [squad_id]",
		Short: "Generate standup and incident schedules over the configured horizon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			sprints, _ := cmd.Flags().GetInt("sprints")
			if days == 0 {
				days = app.cfg.Generation.HostingDays
			}
			if sprints == 0 {
				sprints = app.cfg.Generation.Sprints
			}

			from := time.Now()

			if len(args) == 1 {
				squadID := args[0]
				hostings, err := services.GenerateStandupHorizon(app.ctx, app.database, app.cal, app.logger, squadID, from, days)
				if err != nil {
					return err
				}
				rotations, err := services.GenerateIncidentHorizon(app.ctx, app.database, app.anchor, app.logger, squadID, from, sprints)
				if err != nil {
					return err
				}
				fmt.Printf("Generated %d hosting(s) and %d rotation(s) for squad %s\n", hostings, rotations, squadID)
				return nil
			}

			if err := services.GenerateAllSquads(app.ctx, app.database, app.cal, app.anchor, app.logger, from, days, sprints); err != nil {
				return err
			}
			fmt.Println("Generation complete for all squads")
			return nil
		},
	}

	cmd.Flags().Int("days", 0, "Hosting horizon in days (default from config)")
	cmd.Flags().Int("sprints", 0, "Incident horizon in sprints (default from config)")

	return cmd
}

func dutyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duty <squad_id> <date>",
		Short: "Show who is on duty for a squad on a date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			squadID := args[0]
			d, err := calendar.ParseDate(args[1])
			if err != nil {
				return err
			}

			assignment, err := services.DutyOnDate(app.ctx, app.database, app.cal, squadID, d)
			if err != nil {
				return err
			}

			fmt.Printf("\nDuty for %s:\n\n", calendar.FormatDate(assignment.Date))
			if assignment.HolidayName != "" {
				fmt.Printf("  Holiday:   %s\n", assignment.HolidayName)
			}
			printDutyMember("Host", assignment.Host)
			printDutyMember("Primary", assignment.Primary)
			printDutyMember("Secondary", assignment.Secondary)
			fmt.Println()

			return nil
		},
	}
}

func printDutyMember(role string, m *model.Member) {
	if m == nil {
		fmt.Printf("  %-10s -\n", role+":")
		return
	}
	fmt.Printf("  %-10s %s (%s)\n", role+":", m.FullName(), m.ID)
}

func sprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sprint <date>",
		Short: "Show the sprint window containing a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}

			window := app.anchor.SprintWindow(d)
			fmt.Printf("Sprint %d: %s to %s\n", window.Number,
				calendar.FormatDate(window.Start), calendar.FormatDate(window.End))
			return nil
		},
	}
}
