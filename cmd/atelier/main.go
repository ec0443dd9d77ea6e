package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"atelier/internal/app"
	"atelier/internal/config"
	"atelier/internal/db"
	"atelier/internal/domain"
	"atelier/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "Atelier workshop CLI",
	Long: `Atelier tracks furniture orders from the signed order form to delivery.
- Project: one client order, moving through a fixed status workflow with a history entry per move.
- Tasks: production steps; progress 100 means done and done means progress 100.
- Delivery: a proposed and a validated date picked on a month calendar.
- Notifications: projects past their deadline or due within the next days.
- Workspace: a directory holding atelier.yml, .env and the .atelier database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

// initConfig loads the workspace .env before viper reads the environment.
// Variables already set in the process win over the file.
func initConfig() {
	workspace := viper.GetString("workspace")
	if workspace == "" {
		workspace = "."
	}
	if err := godotenv.Load(envPath(workspace)); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", envPath(workspace), err)
	}
	viper.SetEnvPrefix("ATELIER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor", "", "acting user id (defaults to the first user)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(measureCmd())
	rootCmd.AddCommand(attachCmd())
	rootCmd.AddCommand(deliveryCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(notificationsCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(workshopCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(stockCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- helpers ---

func envPath(workspace string) string {
	return filepath.Join(workspace, ".env")
}

// loadConfig reads atelier.yml and applies ATELIER_* overrides.
func loadConfig(workspace string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if viper.IsSet("workshop.name") {
		cfg.Workshop.Name = viper.GetString("workshop.name")
	}
	if viper.IsSet("workflow.strict") {
		cfg.Workflow.Strict = viper.GetBool("workflow.strict")
	}
	if viper.IsSet("notifications.window_days") {
		cfg.Notifications.WindowDays = viper.GetInt("notifications.window_days")
	}
	if viper.IsSet("log.level") {
		cfg.Log.Level = viper.GetString("log.level")
	}
	if viper.IsSet("log.file") {
		cfg.Log.File = viper.GetString("log.file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
}

func withService(ctx context.Context, fn func(context.Context, *app.Service) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := loadConfig(workspace)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()
	svc, err := app.Open(ctx, workspace, cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, svc)
}

// withActor is withService plus the acting user resolved from --actor.
func withActor(ctx context.Context, fn func(context.Context, *app.Service, domain.User) error) error {
	return withService(ctx, func(ctx context.Context, svc *app.Service) error {
		actor, err := svc.Actor(ctx, viper.GetString("actor"))
		if err != nil {
			return fmt.Errorf("actor: %w", err)
		}
		return fn(ctx, svc, actor)
	})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	return tw
}

// setEnvValue rewrites one key of a dotenv file, keeping the others.
func setEnvValue(path, key, value string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		env = map[string]string{}
	}
	env[key] = value
	return godotenv.Write(env, path)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
