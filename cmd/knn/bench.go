package main

import (
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/YuminosukeSato/goknn/distance"
	"github.com/spf13/cobra"
)

type benchOptions struct {
	repeat       int
	nativeKernel string
}

func newBenchCmd(root *rootOptions) *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time every distance backend on the configured dataset",
		Long: `Classify the test split once per backend (repeated --repeat times) and
report the best wall time, the accuracy and whether the predictions agree
with the reference backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if opts.repeat < 1 {
				opts.repeat = 1
			}
			if opts.nativeKernel != "" {
				cfg.NativeKernel = opts.nativeKernel
			}
			kernel, err := loadKernel(cfg.NativeKernel)
			if err != nil {
				return err
			}
			exp, err := prepare(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BACKEND\tBEST\tACCURACY\tAGREES")

			var reference []int
			for _, b := range distance.Backends() {
				clf, err := exp.classifier(cfg.K, b, kernel)
				if err != nil {
					return err
				}

				best := time.Duration(-1)
				var last *result
				for i := 0; i < opts.repeat; i++ {
					res, err := exp.evaluate(cmd.Context(), clf)
					if err != nil {
						return err
					}
					if best < 0 || res.duration < best {
						best = res.duration
					}
					last = res
				}

				if reference == nil {
					reference = last.predictions
				}
				fmt.Fprintf(w, "%s\t%v\t%.2f%%\t%t\n",
					b, best.Round(time.Microsecond), last.accuracy*100,
					slices.Equal(reference, last.predictions))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&opts.repeat, "repeat", 3, "runs per backend; the fastest is reported")
	cmd.Flags().StringVar(&opts.nativeKernel, "native-kernel", "", "kernel descriptor written by 'knn native build'")
	return cmd
}
