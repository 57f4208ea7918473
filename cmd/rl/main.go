package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"riskline/internal/config"
	"riskline/internal/db"
	"riskline/internal/domain"
	"riskline/internal/engine"
	"riskline/internal/migrate"
	"riskline/internal/repo"
	"riskline/internal/server"
	"riskline/internal/status"
)

var rootCmd = &cobra.Command{
	Use:   "rl",
	Short: "Riskline CLI",
	Long: `Riskline tracks key risk indicator values through a staged approval workflow.
Each KRI value lives under a composite key (kri id + reporting period) and moves
through statuses 10..60: pending input, under rework, saved, submitted to the
data-provider approver, submitted to the KRI-owner approver, finalized. What a
user can do at any point is the intersection of their grants, the action
catalog, and the capabilities of the current status.`,
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
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("RISKLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("user", "local-user", "acting user uuid")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(kriCmd())
	rootCmd.AddCommand(atomicCmd())
	rootCmd.AddCommand(actionCmd())
	rootCmd.AddCommand(permCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(evidenceCmd())
	rootCmd.AddCommand(workflowCmd())
	rootCmd.AddCommand(serveCmd())
}

func initCmd() *cobra.Command {
	var instanceID string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			path := config.Path(workspace)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := os.WriteFile(path, []byte(config.GenerateDefault(instanceID)), 0o644); err != nil {
					return err
				}
				fmt.Println("wrote", path)
			}
			fmt.Println("workspace ready:", db.Path(workspace))
			return nil
		},
	}
	cmd.Flags().StringVar(&instanceID, "instance", "riskline", "instance id")
	return cmd
}

func kriCmd() *cobra.Command {
	kri := &cobra.Command{Use: "kri", Short: "Manage KRI items"}
	kri.AddCommand(kriListCmd())
	kri.AddCommand(kriShowCmd())
	kri.AddCommand(kriCreateCmd())
	kri.AddCommand(kriContextCmd())
	return kri
}

func kriListCmd() *cobra.Command {
	var reportingDate int64
	var statusFilter, limit int
	var owner string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List KRI items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListItems(ctx, itemFilters(reportingDate, statusFilter, owner, limit))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"KRI", "Period", "Name", "Status", "Value", "Owner", "Provider"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.KRIID, it.ReportingDate, it.Name,
						statusLabel(it.Status), floatOrDash(it.Value), it.Owner, it.DataProvider})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&reportingDate, "date", 0, "reporting date filter (YYYYMMDD)")
	cmd.Flags().IntVar(&statusFilter, "status", 0, "status code filter")
	cmd.Flags().StringVar(&owner, "owner", "", "owner filter")
	cmd.Flags().IntVar(&limit, "limit", 0, "max rows")
	return cmd
}

func kriShowCmd() *cobra.Command {
	var kriID, date int64
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one KRI item with its atomic elements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				item, err := e.Repo.GetItem(ctx, kriID, date)
				if err != nil {
					return err
				}
				out := map[string]any{"item": item}
				if item.IsCalculated {
					atomics, err := e.Repo.ListAtomics(ctx, kriID, date)
					if err != nil {
						return err
					}
					out["atomics"] = atomics
				}
				return printJSONOrTable(out)
			})
		},
	}
	cmd.Flags().Int64Var(&kriID, "kri", 0, "kri id")
	cmd.Flags().Int64Var(&date, "date", 0, "reporting date (YYYYMMDD)")
	_ = cmd.MarkFlagRequired("kri")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func kriCreateCmd() *cobra.Command {
	var kriID, date int64
	var name, owner, provider, formula string
	var value, warn, limit float64
	var calculated bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a KRI item for a reporting period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kriID == 0 || date == 0 {
				return fmt.Errorf("--kri and --date required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				now := time.Now().UTC().Format(time.RFC3339)
				item := domain.KRIItem{
					KRIID:         kriID,
					ReportingDate: date,
					Name:          name,
					Owner:         owner,
					DataProvider:  provider,
					Status:        int(status.PendingInput),
					Formula:       formula,
					IsCalculated:  calculated,
					CreatedAt:     now,
					UpdatedAt:     now,
				}
				if cmd.Flags().Changed("value") {
					item.Value = &value
				}
				if cmd.Flags().Changed("warning") {
					item.WarningThreshold = &warn
				}
				if cmd.Flags().Changed("limit") {
					item.LimitThreshold = &limit
				}
				if err := e.Repo.InsertItem(ctx, item); err != nil {
					return err
				}
				return printJSONOrTable(item)
			})
		},
	}
	cmd.Flags().Int64Var(&kriID, "kri", 0, "kri id")
	cmd.Flags().Int64Var(&date, "date", 0, "reporting date (YYYYMMDD)")
	cmd.Flags().StringVar(&name, "name", "", "indicator name")
	cmd.Flags().StringVar(&owner, "owner", "", "kri owner")
	cmd.Flags().StringVar(&provider, "provider", "", "data provider")
	cmd.Flags().Float64Var(&value, "value", 0, "initial value")
	cmd.Flags().Float64Var(&warn, "warning", 0, "warning threshold")
	cmd.Flags().Float64Var(&limit, "limit", 0, "limit threshold")
	cmd.Flags().StringVar(&formula, "formula", "", "aggregation formula label")
	cmd.Flags().BoolVar(&calculated, "calculated", false, "kri is calculated from atomic elements")
	_ = cmd.MarkFlagRequired("kri")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func kriContextCmd() *cobra.Command {
	var kriID, date, atomicID int64
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show the acting user's operation context for a KRI period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				op, err := loadContext(ctx, e, kriID, date, atomicID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(op)
				}
				fmt.Printf("kri=%d period=%d status=%d (%s) owner==provider=%v\n",
					op.Item.KRIID, op.Item.ReportingDate, op.CurrentStatus, op.StatusInfo.Label, op.OwnerEqualsProvider)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Action", "Category", "Next", "Confirm", "Comment"})
				for _, a := range op.Available {
					next := ""
					if a.NextStatus != nil {
						next = strconv.Itoa(int(*a.NextStatus))
					}
					tw.AppendRow(table.Row{a.Name, a.Category, next, a.RequiresConfirm, a.RequiresComment})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&kriID, "kri", 0, "kri id")
	cmd.Flags().Int64Var(&date, "date", 0, "reporting date (YYYYMMDD)")
	cmd.Flags().Int64Var(&atomicID, "atomic", 0, "atomic element id")
	_ = cmd.MarkFlagRequired("kri")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func atomicCmd() *cobra.Command {
	atomic := &cobra.Command{Use: "atomic", Short: "Manage atomic elements of calculated KRIs"}
	var kriID, date, atomicID int64
	var name string
	var value float64
	add := &cobra.Command{
		Use:   "add",
		Short: "Register an atomic element",
		RunE: func(cmd *cobra.Command, args []string) error {
			if atomicID <= 0 {
				return fmt.Errorf("--atomic must be positive")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if _, err := e.Repo.GetItem(ctx, kriID, date); err != nil {
					return err
				}
				now := time.Now().UTC().Format(time.RFC3339)
				a := domain.AtomicElement{
					KRIID:         kriID,
					ReportingDate: date,
					AtomicID:      atomicID,
					Name:          name,
					Status:        int(status.PendingInput),
					CreatedAt:     now,
					UpdatedAt:     now,
				}
				if cmd.Flags().Changed("value") {
					a.Value = &value
				}
				if err := e.Repo.InsertAtomic(ctx, a); err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	add.Flags().Int64Var(&kriID, "kri", 0, "kri id")
	add.Flags().Int64Var(&date, "date", 0, "reporting date (YYYYMMDD)")
	add.Flags().Int64Var(&atomicID, "atomic", 0, "atomic element id")
	add.Flags().StringVar(&name, "name", "", "element name")
	add.Flags().Float64Var(&value, "value", 0, "element value")
	_ = add.MarkFlagRequired("kri")
	_ = add.MarkFlagRequired("date")
	_ = add.MarkFlagRequired("atomic")
	atomic.AddCommand(add)
	return atomic
}

func actionCmd() *cobra.Command {
	action := &cobra.Command{Use: "action", Short: "Execute workflow actions"}
	action.AddCommand(actionExecCmd())
	action.AddCommand(actionBulkCmd())
	return action
}

func actionExecCmd() *cobra.Command {
	var kriID, date, atomicID, evidenceID int64
	var comment, evidenceFile, evidenceLink string
	var value float64
	cmd := &cobra.Command{
		Use:   "exec <action>",
		Short: "Execute one action as the acting user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				op, err := loadContext(ctx, e, kriID, date, atomicID)
				if err != nil {
					return err
				}
				data := engine.ActionData{
					Comment:          comment,
					EvidenceFileName: evidenceFile,
					EvidenceLink:     evidenceLink,
					EvidenceID:       evidenceID,
				}
				if cmd.Flags().Changed("value") {
					data.Value = &value
				}
				res := e.Execute(ctx, args[0], op, data)
				if err := printJSONOrTable(res); err != nil {
					return err
				}
				if !res.Success {
					return fmt.Errorf("%s: %s", res.Code, res.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&kriID, "kri", 0, "kri id")
	cmd.Flags().Int64Var(&date, "date", 0, "reporting date (YYYYMMDD)")
	cmd.Flags().Int64Var(&atomicID, "atomic", 0, "atomic element id")
	cmd.Flags().Float64Var(&value, "value", 0, "value for save")
	cmd.Flags().StringVar(&comment, "comment", "", "comment (required for reject)")
	cmd.Flags().StringVar(&evidenceFile, "evidence-file", "", "evidence file name")
	cmd.Flags().StringVar(&evidenceLink, "evidence-link", "", "evidence link")
	cmd.Flags().Int64Var(&evidenceID, "evidence-id", 0, "evidence id for deleteEvidence")
	_ = cmd.MarkFlagRequired("kri")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func actionBulkCmd() *cobra.Command {
	var targets []string
	var comment string
	var value float64
	cmd := &cobra.Command{
		Use:   "bulk <action>",
		Short: "Execute one action against several targets sequentially",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseTargets(targets)
			if err != nil {
				return err
			}
			if len(parsed) == 0 {
				return fmt.Errorf("--target required (kri:date or kri:date:atomic, repeatable)")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				idx, err := e.LoadPermissions(ctx, viper.GetString("user"))
				if err != nil {
					return err
				}
				data := engine.ActionData{Comment: comment}
				if cmd.Flags().Changed("value") {
					data.Value = &value
				}
				results := e.RunBulk(ctx, idx, args[0], parsed, data)
				if viper.GetBool("json") {
					return printJSON(results)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"KRI", "Period", "Atomic", "Success", "Code", "Message"})
				failed := 0
				for _, r := range results {
					if !r.Result.Success {
						failed++
					}
					tw.AppendRow(table.Row{r.Target.KRIID, r.Target.ReportingDate, r.Target.AtomicID,
						r.Result.Success, r.Result.Code, r.Result.Message})
				}
				tw.Render()
				if failed > 0 {
					return fmt.Errorf("%d of %d targets failed", failed, len(results))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&targets, "target", []string{}, "target kri:date[:atomic] (repeatable)")
	cmd.Flags().StringVar(&comment, "comment", "", "comment")
	cmd.Flags().Float64Var(&value, "value", 0, "value for save")
	return cmd
}

func permCmd() *cobra.Command {
	perm := &cobra.Command{Use: "perm", Short: "Manage permissions"}
	var kriID, date int64
	var user, actions string
	var deny bool

	grant := &cobra.Command{
		Use:   "grant",
		Short: "Grant (or deny) actions for a user on a KRI period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" || actions == "" {
				return fmt.Errorf("--for-user and --actions required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rec := domain.PermissionRecord{
					UserUUID:      user,
					KRIID:         kriID,
					ReportingDate: date,
					Actions:       actions,
					Effect:        !deny,
				}
				if err := e.Repo.UpsertPermission(ctx, rec); err != nil {
					return err
				}
				return printJSONOrTable(rec)
			})
		},
	}
	grant.Flags().Int64Var(&kriID, "kri", 0, "kri id")
	grant.Flags().Int64Var(&date, "date", 0, "reporting date (YYYYMMDD)")
	grant.Flags().StringVar(&user, "for-user", "", "user uuid")
	grant.Flags().StringVar(&actions, "actions", "", "comma-joined action list")
	grant.Flags().BoolVar(&deny, "deny", false, "record an explicit deny")
	_ = grant.MarkFlagRequired("kri")
	_ = grant.MarkFlagRequired("date")
	perm.AddCommand(grant)

	var listKRI, listDate int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List permission records on a KRI period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				records, err := e.Repo.ListPermissions(ctx, listKRI, listDate)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(records)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"User", "Actions", "Effect"})
				for _, r := range records {
					effect := "allow"
					if !r.Effect {
						effect = "deny"
					}
					tw.AppendRow(table.Row{r.UserUUID, r.Actions, effect})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().Int64Var(&listKRI, "kri", 0, "kri id")
	list.Flags().Int64Var(&listDate, "date", 0, "reporting date (YYYYMMDD)")
	_ = list.MarkFlagRequired("kri")
	_ = list.MarkFlagRequired("date")
	perm.AddCommand(list)

	var revokeKRI, revokeDate int64
	var revokeUser string
	revoke := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke every record for a user on a KRI period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if revokeUser == "" {
				return fmt.Errorf("--for-user required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Repo.RevokePermissions(ctx, revokeUser, revokeKRI, revokeDate)
			})
		},
	}
	revoke.Flags().Int64Var(&revokeKRI, "kri", 0, "kri id")
	revoke.Flags().Int64Var(&revokeDate, "date", 0, "reporting date (YYYYMMDD)")
	revoke.Flags().StringVar(&revokeUser, "for-user", "", "user uuid")
	_ = revoke.MarkFlagRequired("kri")
	_ = revoke.MarkFlagRequired("date")
	perm.AddCommand(revoke)

	return perm
}

func auditCmd() *cobra.Command {
	audit := &cobra.Command{Use: "audit", Short: "Inspect the audit trail"}
	var kriID, date int64
	var limit int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show audit entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entries, err := e.Repo.ListAuditEntries(ctx, kriID, date, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Actor", "Action", "Field", "Old", "New", "Comment"})
				for _, en := range entries {
					tw.AppendRow(table.Row{en.TS, en.Actor, en.Action, en.FieldName, en.OldValue, en.NewValue, en.Comment})
				}
				tw.Render()
				return nil
			})
		},
	}
	tail.Flags().Int64Var(&kriID, "kri", 0, "kri id")
	tail.Flags().Int64Var(&date, "date", 0, "reporting date (YYYYMMDD)")
	tail.Flags().IntVar(&limit, "limit", 20, "max entries")
	_ = tail.MarkFlagRequired("kri")
	_ = tail.MarkFlagRequired("date")
	audit.AddCommand(tail)
	return audit
}

func evidenceCmd() *cobra.Command {
	evidence := &cobra.Command{Use: "evidence", Short: "Inspect evidence references"}
	var kriID, date int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List evidence on a KRI period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListEvidence(ctx, kriID, date)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	list.Flags().Int64Var(&kriID, "kri", 0, "kri id")
	list.Flags().Int64Var(&date, "date", 0, "reporting date (YYYYMMDD)")
	_ = list.MarkFlagRequired("kri")
	_ = list.MarkFlagRequired("date")
	evidence.AddCommand(list)
	return evidence
}

func workflowCmd() *cobra.Command {
	wf := &cobra.Command{Use: "workflow", Short: "Inspect workflow statuses"}
	statuses := &cobra.Command{
		Use:   "statuses",
		Short: "List status codes and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Code", "Label", "Edit", "Submit", "Approve", "Reject"})
			for _, code := range status.All() {
				d := status.Describe(code)
				tw.AppendRow(table.Row{int(d.Code), d.Label,
					d.Capabilities.Edit, d.Capabilities.Submit, d.Capabilities.Approve, d.Capabilities.Reject})
			}
			tw.Render()
			return nil
		},
	}
	wf.AddCommand(statuses)
	return wf
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.LoadOptional(workspace, "riskline")
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret:             cfg.Auth.JWTSecret,
				AllowLegacyUserHeader: cfg.Auth.AllowLegacyUserHeader,
				Admins:                cfg.Auth.Admins,
			}
			if secret := os.Getenv("RISKLINE_JWT_SECRET"); secret != "" {
				authCfg.JWTSecret = secret
			}
			if authCfg.JWTSecret == "" && !authCfg.AllowLegacyUserHeader {
				return fmt.Errorf("RISKLINE_JWT_SECRET (or auth.jwt_secret) is required when the legacy header is disabled")
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if basePath == "" {
				basePath = cfg.Server.BasePath
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Riskline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from config)")
	return cmd
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.LoadOptional(workspace, "riskline")
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func loadContext(ctx context.Context, e engine.Engine, kriID, date, atomicID int64) (engine.OperationContext, error) {
	idx, err := e.LoadPermissions(ctx, viper.GetString("user"))
	if err != nil {
		return engine.OperationContext{}, err
	}
	return e.LoadContext(ctx, idx, kriID, date, atomicID)
}

// parseTargets parses kri:date or kri:date:atomic triples.
func parseTargets(raw []string) ([]engine.BulkTarget, error) {
	out := make([]engine.BulkTarget, 0, len(raw))
	for _, s := range raw {
		parts := strings.Split(s, ":")
		if len(parts) != 2 && len(parts) != 3 {
			return nil, fmt.Errorf("invalid target %q, want kri:date[:atomic]", s)
		}
		kri, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", s, err)
		}
		date, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", s, err)
		}
		t := engine.BulkTarget{KRIID: kri, ReportingDate: date}
		if len(parts) == 3 {
			atomic, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid target %q: %w", s, err)
			}
			t.AtomicID = atomic
		}
		out = append(out, t)
	}
	return out, nil
}

func itemFilters(date int64, st int, owner string, limit int) repo.ItemFilters {
	return repo.ItemFilters{ReportingDate: date, Status: st, Owner: owner, Limit: limit}
}

func statusLabel(code int) string {
	d := status.Describe(status.Code(code))
	return fmt.Sprintf("%d %s", code, d.Label)
}

func floatOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
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
