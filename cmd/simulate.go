package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridscope/gridscope/app"
	"github.com/gridscope/gridscope/config"
	"github.com/gridscope/gridscope/pkg/export"
)

var (
	simulateInput  string
	simulateOut    string
	simulateFormat string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Estimate solar generation for each territory over the configured window",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&simulateInput, "input", "i", "input.json", "run input file")
	simulateCmd.Flags().StringVarP(&simulateOut, "out", "o", "", "output path (default stdout)")
	simulateCmd.Flags().StringVar(&simulateFormat, "format", "csv", "output format: csv or json")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	svc.Start(ctx)

	in, err := app.ReadInput(simulateInput)
	if err != nil {
		return err
	}
	out, err := svc.Simulate(ctx, in, time.Now())
	if err != nil {
		return err
	}
	for id, ferr := range out.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "territory %s failed: %v\n", id, ferr)
	}
	if len(out.Estimates) == 0 && len(out.Failures) > 0 {
		return fmt.Errorf("all territories failed simulation")
	}

	switch simulateFormat {
	case "csv":
		err = writeOutput(cmd, simulateOut, func(w io.Writer) error {
			return export.WriteEstimatesCSV(w, out.Estimates)
		})
	case "json":
		err = writeOutput(cmd, simulateOut, func(w io.Writer) error {
			return export.WriteEstimatesJSON(w, out.Estimates)
		})
	default:
		return fmt.Errorf("unknown format %q", simulateFormat)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %d estimates, %d failed territories\n",
		out.RunID, len(out.Estimates), len(out.Failures))
	return nil
}
