package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridscope/gridscope/app"
	"github.com/gridscope/gridscope/config"
)

var (
	runInput    string
	runInterval time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitoring service, simulating at a fixed cadence",
	RunE:  runService,
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "input.json", "run input file")
	runCmd.Flags().DurationVar(&runInterval, "interval", time.Hour, "time between simulation cycles")
	rootCmd.AddCommand(runCmd)
}

func runService(cmd *cobra.Command, args []string) error {
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

	in, err := app.ReadInput(runInput)
	if err != nil {
		return err
	}
	return svc.Run(ctx, in, runInterval)
}
