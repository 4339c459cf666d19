package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridscope/gridscope/app"
	"github.com/gridscope/gridscope/config"
	"github.com/gridscope/gridscope/pkg/export"
)

var (
	partitionInput string
	partitionOut   string
)

var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Derive substation territories and export them as GeoJSON",
	RunE:  runPartition,
}

func init() {
	partitionCmd.Flags().StringVarP(&partitionInput, "input", "i", "input.json", "run input file")
	partitionCmd.Flags().StringVarP(&partitionOut, "out", "o", "", "output path (default stdout)")
	rootCmd.AddCommand(partitionCmd)
}

func runPartition(cmd *cobra.Command, args []string) error {
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

	in, err := app.ReadInput(partitionInput)
	if err != nil {
		return err
	}
	out, err := svc.Partition(ctx, in)
	if err != nil {
		return err
	}

	err = writeOutput(cmd, partitionOut, func(w io.Writer) error {
		return export.WriteTerritoriesGeoJSON(w, out.Territories, out.Profiles, svc.Normalizer())
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %d territories, %d anomalies\n",
		out.RunID, len(out.Territories), len(out.Anomalies))
	return nil
}
