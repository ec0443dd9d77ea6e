package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"atelier/internal/app"
	"atelier/internal/config"
	"atelier/internal/domain"
	"atelier/internal/engine"
	"atelier/internal/server"
)

func deliveryCmd() *cobra.Command {
	d := &cobra.Command{Use: "delivery", Short: "Propose, validate or clear delivery dates"}
	for _, intent := range []engine.Intent{engine.IntentPropose, engine.IntentValidate, engine.IntentClear} {
		d.AddCommand(deliveryIntentCmd(intent))
	}
	d.AddCommand(&cobra.Command{
		Use:   "notify <project>",
		Short: "Mark the client as notified of the validated date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, svc *app.Service, actor domain.User) error {
				p, err := svc.NotifyClient(ctx, args[0], actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(p.Delivery)
			})
		},
	})
	return d
}

func deliveryIntentCmd(intent engine.Intent) *cobra.Command {
	return &cobra.Command{
		Use:   string(intent) + " <project> <YYYY-MM-DD>",
		Short: fmt.Sprintf("Apply %s to a calendar day", intent),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, ok := engine.ParseDate(args[1])
			if !ok {
				return fmt.Errorf("date %q: want YYYY-MM-DD", args[1])
			}
			return withActor(cmd.Context(), func(ctx context.Context, svc *app.Service, actor domain.User) error {
				p, err := svc.ResolveCalendarDay(ctx, args[0], day, intent, actor)
				if err != nil {
					return err
				}
				if p.Delivery == nil {
					fmt.Println("no delivery dates")
					return nil
				}
				return printJSONOrTable(p.Delivery)
			})
		},
	}
}

func calendarCmd() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "calendar <project>",
		Short: "Show the delivery calendar for a month",
		Long:  "Days marked P hold the proposed date, V the validated one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				now := svc.Engine.Now()
				if year == 0 {
					year = now.Year()
				}
				if month == 0 {
					month = int(now.Month())
				}
				if month < 1 || month > 12 {
					return fmt.Errorf("month %d out of range", month)
				}
				grid, err := svc.Calendar(ctx, args[0], year, time.Month(month))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(grid)
				}
				renderGrid(grid)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (defaults to the current one)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (defaults to the current one)")
	return cmd
}

func renderGrid(g engine.MonthGrid) {
	tw := newTable()
	tw.SetTitle(fmt.Sprintf("%s %d", time.Month(g.Month), g.Year))
	tw.AppendHeader(table.Row{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"})
	row := make(table.Row, 0, 7)
	for i := 0; i < g.LeadingBlanks; i++ {
		row = append(row, "")
	}
	for _, c := range g.Cells {
		label := fmt.Sprintf("%d", c.Day)
		switch c.Mark {
		case engine.MarkProposed:
			label += " P"
		case engine.MarkValidated:
			label += " V"
		}
		row = append(row, label)
		if len(row) == 7 {
			tw.AppendRow(row)
			row = make(table.Row, 0, 7)
		}
	}
	if len(row) > 0 {
		tw.AppendRow(row)
	}
	tw.Render()
}

func notificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "List late and approaching deadlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				c, err := svc.Notifications(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(c)
				}
				if c.Count() == 0 {
					fmt.Println("nothing due")
					return nil
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Level", "Project", "Client", "Deadline", "Days"})
				for _, n := range c.Late {
					tw.AppendRow(table.Row{"late", n.Project.ID, n.Project.ClientName, n.Deadline, n.Days})
				}
				for _, n := range c.Approaching {
					tw.AppendRow(table.Row{"approaching", n.Project.ID, n.Project.ClientName, n.Deadline, n.Days})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show workshop counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				d, err := svc.Dashboard(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(d)
				}
				tw := newTable()
				tw.SetTitle(svc.WorkshopName)
				tw.AppendRows([]table.Row{
					{"Projects", d.Total},
					{"Late", d.Late},
					{"Approaching", d.Approaching},
					{"In production", d.InProduction},
					{"Delivered", d.Delivered},
				})
				tw.Render()
				return nil
			})
		},
	}
}

func workshopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workshop",
		Short: "Show the workshop board grouped by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				lanes, err := svc.Workshop(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(lanes)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Status", "Projects"})
				for _, l := range lanes {
					ids := make([]string, 0, len(l.Projects))
					for _, p := range l.Projects {
						ids = append(ids, fmt.Sprintf("%s (%d%%)", p.ID, engine.Completion(p)))
					}
					tw.AppendRow(table.Row{l.Label, orDash(strings.Join(ids, ", "))})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func userCmd() *cobra.Command {
	u := &cobra.Command{Use: "user", Short: "Workshop users"}
	u.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				users, err := svc.Users(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(users)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Name", "Email", "Role"})
				for _, usr := range users {
					tw.AppendRow(table.Row{usr.ID, usr.Name, usr.Email, usr.Role})
				}
				tw.Render()
				return nil
			})
		},
	})
	u.AddCommand(&cobra.Command{
		Use:   "use <id|email>",
		Short: "Remember the acting user in the workspace .env",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				actor, err := svc.Actor(ctx, args[0])
				if err != nil {
					actor, err = svc.Login(ctx, args[0])
					if err != nil {
						return err
					}
				}
				if err := setEnvValue(envPath(viper.GetString("workspace")), "ATELIER_ACTOR", actor.ID); err != nil {
					return err
				}
				fmt.Printf("acting as %s (%s)\n", actor.Name, actor.Role)
				return nil
			})
		},
	})
	return u
}

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Mutation journal"}
	var n int
	var projectID, evtType string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest journal rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				evts, err := svc.Events(ctx, n, projectID, evtType)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "TS", "Type", "Project", "Actor", "Payload"})
				for _, ev := range evts {
					tw.AppendRow(table.Row{ev.ID, ev.TS, ev.Type, orDash(ev.ProjectID), ev.ActorID, ev.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	tail.Flags().IntVarP(&n, "n", "n", 20, "number of rows")
	tail.Flags().StringVar(&projectID, "project", "", "only rows for this project")
	tail.Flags().StringVar(&evtType, "type", "", "only rows of this type")
	l.AddCommand(tail)
	return l
}

func configCmd() *cobra.Command {
	c := &cobra.Command{Use: "config", Short: "Workspace configuration"}
	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	})
	var name string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default atelier.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(name)), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&name, "name", "Atelier", "workshop name")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	c.AddCommand(initCmd)
	return c
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var memory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := loadConfig(workspace)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("base-path") {
				basePath = cfg.Server.BasePath
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()
			var svc *app.Service
			if memory {
				svc, err = app.OpenMemory(cfg, log)
			} else {
				svc, err = app.Open(cmd.Context(), workspace, cfg, log)
			}
			if err != nil {
				return err
			}
			defer svc.Close()
			handler, err := server.New(server.Config{Service: svc, BasePath: basePath, Logger: log})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			log.Info("serving", zap.String("addr", addr), zap.String("base_path", basePath), zap.Bool("memory", memory))
			fmt.Printf("Serving %s API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", cfg.Workshop.Name, addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address (defaults to server.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path (defaults to server.base_path)")
	cmd.Flags().BoolVar(&memory, "memory", false, "keep collections in memory; nothing is written to the workspace")
	return cmd
}
