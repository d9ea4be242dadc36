package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"eligibility/internal/app"
	"eligibility/internal/cra/models"
	"eligibility/internal/platform/config"
	"eligibility/internal/platform/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "crasnap",
		Short:         "Resolve addresses into CRA eligibility snapshots",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("env-file", ".env", "Optional dotenv file")
	root.AddCommand(newResolveCmd(), newServeCmd())
	return root
}

type resolveFlags struct {
	street   string
	city     string
	state    string
	zip      string
	income   float64
	recordID string
}

func newResolveCmd() *cobra.Command {
	var f resolveFlags
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve one address and print the snapshot as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.street, "street", "", "Street address")
	cmd.Flags().StringVar(&f.city, "city", "", "City")
	cmd.Flags().StringVar(&f.state, "state", "", "State")
	cmd.Flags().StringVar(&f.zip, "zip", "", "ZIP code")
	cmd.Flags().Float64Var(&f.income, "income", 0, "Borrower monthly income")
	cmd.Flags().StringVar(&f.recordID, "record", "", "Attach the snapshot to this record and print the controller state")
	_ = cmd.MarkFlagRequired("street")
	_ = cmd.MarkFlagRequired("zip")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE:  runServe,
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.Load(envFile)
}

func runResolve(cmd *cobra.Command, f resolveFlags) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Server.LogLevel, "text")
	ctx := cmd.Context()

	a, err := app.New(ctx, cfg, log, app.WithRegistry(prometheus.NewRegistry()))
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	addr := models.AddressInput{Street: f.street, City: f.city, State: f.state, Zip: f.zip}

	var out any
	if f.recordID != "" {
		c, err := a.Controllers.Get(f.recordID)
		if err != nil {
			return err
		}
		out = c.RunCRA(ctx, addr, f.income, f.recordID)
		a.Controllers.Wait()
	} else {
		snap, err := a.Orchestrator.Resolve(ctx, addr, f.income)
		if err != nil {
			return fmt.Errorf("resolve %s %s: %w", f.street, f.zip, err)
		}
		out = snap
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	return a.Serve(ctx)
}
