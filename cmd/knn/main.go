// Command knn classifies a labeled CSV dataset with the k-nearest-neighbor
// classifier and reports test accuracy.
//
//	knn run -c config.yaml
//	knn bench -c config.yaml
//	knn sweep --k-min 1 --k-max 25 -o accuracy.png
//	knn native build -o kernel.json
//	knn history --limit 10
package main

import (
	"fmt"
	"os"

	"github.com/YuminosukeSato/goknn/config"
	"github.com/YuminosukeSato/goknn/pkg/log"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// loadConfig reads the configuration and applies the --log-level override.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := log.SetupLogger(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "knn",
		Short: "k-nearest-neighbor classification of labeled CSV datasets",
		Long: `knn reads an ionosphere-format dataset, splits it into train and test
partitions and classifies the test samples with a k-nearest-neighbor
classifier running on the reference, vectorized or compiled-native
distance backend.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log_level from the config (debug, info, warn, error)")

	run := newRunCmd(opts)
	rootCmd.AddCommand(run)
	rootCmd.AddCommand(newBenchCmd(opts))
	rootCmd.AddCommand(newSweepCmd(opts))
	rootCmd.AddCommand(newNativeCmd())
	rootCmd.AddCommand(newHistoryCmd(opts))

	// If no command is specified, default to run
	rootCmd.RunE = run.RunE
	rootCmd.Flags().AddFlagSet(run.Flags())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
