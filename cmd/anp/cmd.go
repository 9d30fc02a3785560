package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/anp/internal/config"
	"github.com/born-ml/anp/internal/metrics"
)

const version = "v0.1.0"

// NewCLI builds the root command.
func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "anp",
		Short:         "Neural Process objective and encoders for sequence data",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newEncodeCmd(),
		newReduceCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "anp %s\n", version)
		},
	}
}

// loadConfig returns the configuration named by the --config flag, or the
// defaults when the flag is empty.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// renderMetrics prints reduced metrics as a table.
func renderMetrics(w io.Writer, values []metrics.Value) {
	data := make([][]string, 0, len(values))
	for _, v := range values {
		data = append(data, []string{v.Name, fmt.Sprintf("%.3f", v.Value), fmt.Sprint(v.Weight)})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"METRIC", "BITS", "WEIGHT"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}
