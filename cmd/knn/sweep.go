package main

import (
	"fmt"
	"image/color"

	"github.com/YuminosukeSato/goknn/distance"
	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

type sweepOptions struct {
	kMin   int
	kMax   int
	output string
}

func newSweepCmd(root *rootOptions) *cobra.Command {
	opts := &sweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Measure accuracy for a range of k and plot it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.kMin < 1 || opts.kMax < opts.kMin {
				return errors.NewValidationError("k-min/k-max", "need 1 <= k-min <= k-max",
					fmt.Sprintf("%d..%d", opts.kMin, opts.kMax))
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			backend, err := distance.ParseBackend(cfg.Backend)
			if err != nil {
				return err
			}
			kernel, err := loadKernel(cfg.NativeKernel)
			if err != nil {
				return err
			}
			exp, err := prepare(cfg)
			if err != nil {
				return err
			}

			pts := make(plotter.XYs, 0, opts.kMax-opts.kMin+1)
			for k := opts.kMin; k <= opts.kMax; k++ {
				clf, err := exp.classifier(k, backend, kernel)
				if err != nil {
					return err
				}
				res, err := exp.evaluate(cmd.Context(), clf)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "k=%d\tAccuracy: %.2f%%\n", k, res.accuracy*100)
				pts = append(pts, plotter.XY{X: float64(k), Y: res.accuracy * 100})
			}

			if opts.output == "" {
				return nil
			}
			if err := plotSweep(pts, backend, opts.output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved accuracy plot to %s\n", opts.output)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.kMin, "k-min", 1, "smallest k")
	cmd.Flags().IntVar(&opts.kMax, "k-max", 15, "largest k")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "plot file (.png, .svg, .pdf); no plot when empty")
	return cmd
}

// plotSweep renders accuracy against k. The format follows the file extension.
func plotSweep(pts plotter.XYs, backend distance.Backend, filename string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("kNN accuracy (%s backend)", backend)
	p.X.Label.Text = "k"
	p.Y.Label.Text = "Accuracy (%)"
	p.Add(plotter.NewGrid())

	l, s, err := plotter.NewLinePoints(pts)
	if err != nil {
		return errors.Wrap(err, "failed to build sweep plot")
	}
	l.Color = color.RGBA{B: 200, R: 30, G: 90, A: 255}
	l.LineStyle.Width = vg.Points(2)
	s.Radius = vg.Points(3)
	p.Add(l, s)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return errors.Wrap(err, "failed to save sweep plot")
	}
	return nil
}
