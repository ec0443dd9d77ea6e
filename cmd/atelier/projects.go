package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"atelier/internal/app"
	"atelier/internal/domain"
	"atelier/internal/engine"
)

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage client projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectStatusCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				items, err := svc.Projects(ctx)
				if err != nil {
					return err
				}
				if status != "" {
					want, ok := domain.ParseStatus(status)
					if !ok {
						return fmt.Errorf("unknown status %q", status)
					}
					var filtered []domain.Project
					for _, p := range items {
						if p.Status == want {
							filtered = append(filtered, p)
						}
					}
					items = filtered
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Client", "BC", "Type", "Status", "Deadline", "Done"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.ClientName, orDash(p.OrderNumber), p.Type, p.Status.Label(), orDash(p.EstimatedDeadline), fmt.Sprintf("%d%%", engine.Completion(p))})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status tag or label")
	return cmd
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project with its tasks and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				p, err := svc.Project(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(p)
				}
				info := newTable()
				info.AppendRows([]table.Row{
					{"Client", p.ClientName},
					{"BC", orDash(p.OrderNumber)},
					{"Phone", orDash(p.Phone)},
					{"Address", orDash(p.Address)},
					{"Type", p.Type},
					{"Status", p.Status.Label()},
					{"Deadline", orDash(p.EstimatedDeadline)},
					{"Completion", fmt.Sprintf("%d%%", engine.Completion(p))},
				})
				if p.Delivery != nil {
					info.AppendRow(table.Row{"Delivery", fmt.Sprintf("proposed %s, validated %s", orDash(p.Delivery.ProposedDate), orDash(p.Delivery.ValidatedDate))})
				}
				info.Render()
				if len(p.Tasks) > 0 {
					tw := newTable()
					tw.AppendHeader(table.Row{"Task", "Title", "Status", "Progress", "Assignee"})
					for _, t := range p.Tasks {
						tw.AppendRow(table.Row{t.ID, t.Title, t.Status, t.Progress, orDash(t.Assignee)})
					}
					tw.Render()
				}
				hw := newTable()
				hw.AppendHeader(table.Row{"Date", "From", "To", "User", "Comment"})
				for _, h := range p.History {
					hw.AppendRow(table.Row{h.Date, h.From.Label(), h.To.Label(), h.User, h.Comment})
				}
				hw.Render()
				return nil
			})
		},
	}
}

func projectCreateCmd() *cobra.Command {
	var in engine.ProjectInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, svc *app.Service, actor domain.User) error {
				p, err := svc.CreateProject(ctx, in, actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&in.ID, "id", "", "project id (generated when empty)")
	cmd.Flags().StringVar(&in.ClientName, "client", "", "client name")
	cmd.Flags().StringVar(&in.OrderNumber, "order", "", "order form (BC) number")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "client phone")
	cmd.Flags().StringVar(&in.Address, "address", "", "site address")
	cmd.Flags().StringVar(&in.Type, "type", "", "furniture type")
	cmd.Flags().StringVar(&in.EstimatedDeadline, "deadline", "", "estimated deadline YYYY-MM-DD")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "free notes")
	_ = cmd.MarkFlagRequired("client")
	return cmd
}

func projectStatusCmd() *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a project to another status",
		Long:  "Status accepts the tag (in_production) or the label. Moving to returned requires --comment; without it the change is cancelled.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, ok := domain.ParseStatus(args[1])
			if !ok {
				return fmt.Errorf("%q: %w", args[1], engine.ErrInvalidStatus)
			}
			var commentPtr *string
			if cmd.Flags().Changed("comment") {
				commentPtr = &comment
			}
			return withActor(cmd.Context(), func(ctx context.Context, svc *app.Service, actor domain.User) error {
				p, err := svc.ChangeStatus(ctx, args[0], to, commentPtr, actor)
				if errors.Is(err, engine.ErrCancelled) {
					fmt.Println("cancelled: returning a project needs --comment")
					return nil
				}
				if err != nil {
					return err
				}
				last := p.History[len(p.History)-1]
				if viper.GetBool("json") {
					return printJSON(last)
				}
				fmt.Printf("%s: %s -> %s (%s)\n", p.ID, last.From.Label(), last.To.Label(), last.Comment)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "reason recorded in the history")
	return cmd
}

func taskCmd() *cobra.Command {
	t := &cobra.Command{Use: "task", Short: "Manage production tasks"}
	t.AddCommand(taskAddCmd())
	t.AddCommand(taskSetCmd())
	t.AddCommand(taskRemoveCmd())
	return t
}

func taskAddCmd() *cobra.Command {
	var assignee string
	cmd := &cobra.Command{
		Use:   "add <project> <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, svc *app.Service, actor domain.User) error {
				task, err := svc.AddTask(ctx, args[0], args[1], assignee, actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(task)
			})
		},
	}
	cmd.Flags().StringVar(&assignee, "assignee", "", "assigned user id")
	return cmd
}

func taskSetCmd() *cobra.Command {
	var progress int
	var status string
	cmd := &cobra.Command{
		Use:   "set <project> <task>",
		Short: "Set task progress or status; the other follows",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd engine.TaskUpdate
			if cmd.Flags().Changed("progress") {
				upd.Progress = &progress
			}
			if cmd.Flags().Changed("status") {
				s := domain.TaskStatus(status)
				upd.Status = &s
			}
			return withActor(cmd.Context(), func(ctx context.Context, svc *app.Service, actor domain.User) error {
				task, err := svc.UpdateTask(ctx, args[0], args[1], upd, actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(task)
			})
		},
	}
	cmd.Flags().IntVar(&progress, "progress", 0, "progress 0-100")
	cmd.Flags().StringVar(&status, "status", "", "todo|in_progress|blocked|done")
	cmd.MarkFlagsMutuallyExclusive("progress", "status")
	return cmd
}

func taskRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <project> <task>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, svc *app.Service, actor domain.User) error {
				return svc.DeleteTask(ctx, args[0], args[1], actor)
			})
		},
	}
}

func measureCmd() *cobra.Command {
	m := &cobra.Command{Use: "measure", Short: "Manage site measurements"}
	var in engine.MeasurementInput
	var depth float64
	var unit string
	add := &cobra.Command{
		Use:   "add <project>",
		Short: "Record a measurement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("depth") {
				in.Depth = &depth
			}
			in.Unit = domain.Unit(unit)
			return withActor(cmd.Context(), func(ctx context.Context, svc *app.Service, actor domain.User) error {
				out, err := svc.AddMeasurement(ctx, args[0], in, actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(out)
			})
		},
	}
	add.Flags().StringVar(&in.Room, "room", "", "room or wall")
	add.Flags().Float64Var(&in.Width, "width", 0, "width")
	add.Flags().Float64Var(&in.Height, "height", 0, "height")
	add.Flags().Float64Var(&depth, "depth", 0, "depth")
	add.Flags().StringVar(&unit, "unit", "cm", "mm|cm|m")
	rm := &cobra.Command{
		Use:   "rm <project> <measurement>",
		Short: "Delete a measurement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, svc *app.Service, actor domain.User) error {
				return svc.DeleteMeasurement(ctx, args[0], args[1], actor)
			})
		},
	}
	m.AddCommand(add, rm)
	return m
}

func attachCmd() *cobra.Command {
	a := &cobra.Command{Use: "attach", Short: "Manage attachment metadata"}
	var in engine.AttachmentInput
	var kind string
	add := &cobra.Command{
		Use:   "add <project> <filename>",
		Short: "Record an attachment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Filename = args[1]
			in.Kind = domain.AttachmentKind(kind)
			return withActor(cmd.Context(), func(ctx context.Context, svc *app.Service, actor domain.User) error {
				out, err := svc.AddAttachment(ctx, args[0], in, actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(out)
			})
		},
	}
	add.Flags().StringVar(&kind, "kind", "", "photo|design_pdf|delivery_proof|note_attachment|other (derived from content type when empty)")
	add.Flags().StringVar(&in.ContentType, "content-type", "", "declared content type")
	add.Flags().StringVar(&in.Locator, "locator", "", "reference in the file store")
	rm := &cobra.Command{
		Use:   "rm <project> <attachment>",
		Short: "Delete an attachment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, svc *app.Service, actor domain.User) error {
				return svc.DeleteAttachment(ctx, args[0], args[1], actor)
			})
		},
	}
	a.AddCommand(add, rm)
	return a
}

func stockCmd() *cobra.Command {
	s := &cobra.Command{Use: "stock", Short: "Workshop stock"}
	var low bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List stock items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				var (
					items []domain.StockItem
					err   error
				)
				if low {
					items, err = svc.LowStock(ctx)
				} else {
					items, err = svc.Stock(ctx)
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Name", "Category", "Qty", "Min", "Unit", "Location", ""})
				for _, it := range items {
					flag := ""
					if it.Low() {
						flag = "LOW"
					}
					tw.AppendRow(table.Row{it.ID, it.Name, it.Category, it.Quantity, it.MinThreshold, it.Unit, orDash(it.Location), flag})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().BoolVar(&low, "low", false, "only items at or below their threshold")
	set := &cobra.Command{
		Use:   "set <item> <quantity>",
		Short: "Set an item's quantity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("quantity: %w", err)
			}
			return withActor(cmd.Context(), func(ctx context.Context, svc *app.Service, actor domain.User) error {
				it, err := svc.AdjustStock(ctx, args[0], qty, actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	orders := &cobra.Command{
		Use:   "orders",
		Short: "List purchase orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				items, err := svc.PurchaseOrders(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	s.AddCommand(list, set, orders)
	return s
}
