package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/symkern/kernelcore/internal/config"
)

var (
	runScenario   string
	runConfigPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot a kernel and run one scripted scenario to completion",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runScenario, "scenario", "server-roundtrip",
		"scenario to run: server-roundtrip or property-pubsub")
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "path to a YAML config file (optional)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	scn, ok := scenarios[runScenario]
	if !ok {
		return fmt.Errorf("unknown scenario %q (want one of: server-roundtrip, property-pubsub)", runScenario)
	}

	fmt.Printf("symkern-demo: revision=%s scenario=%s\n", cfg.Revision, runScenario)
	trace, err := scn(cfg)
	for _, line := range trace {
		fmt.Println(line)
	}
	if err != nil {
		return fmt.Errorf("scenario %s failed: %w", runScenario, err)
	}
	fmt.Println("scenario completed")
	return nil
}
