package main

import (
	"fmt"
	"os"

	"github.com/YuminosukeSato/goknn/native"
	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/spf13/cobra"
)

func newNativeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "native",
		Short: "Build and inspect the compiled-native distance kernel",
	}
	cmd.AddCommand(newNativeBuildCmd())
	cmd.AddCommand(newNativeInfoCmd())
	return cmd
}

func newNativeBuildCmd() *cobra.Command {
	var (
		output string
		isa    string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Select the kernel for this CPU and write its descriptor",
		Long: `Detect the instruction set of this machine (or use --isa), build the
matching fixed-width kernel and write its descriptor. Pass the descriptor to
'knn run --native-kernel' to reuse the build.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []native.Option
			if isa != "" {
				parsed, ok := native.ParseISA(isa)
				if !ok {
					return errors.NewValidationError("isa", "must be one of generic, neon, avx2, avx512", isa)
				}
				opts = append(opts, native.WithISA(parsed))
			}

			k, err := native.Build(opts...)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return errors.Wrap(err, "failed to create kernel descriptor")
			}
			if err := native.Save(f, k); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Built %s kernel (%d lanes) -> %s\n", k.ISA(), k.Lanes(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "kernel.json", "descriptor file")
	cmd.Flags().StringVar(&isa, "isa", "", "force an instruction set instead of detecting it")
	return cmd
}

func newNativeInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [descriptor]",
		Short: "Show the detected or stored kernel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := native.Default()
			if len(args) == 1 {
				loaded, err := loadKernel(args[0])
				if err != nil {
					return err
				}
				k = loaded
			}
			d := k.Descriptor()
			fmt.Fprintf(cmd.OutOrStdout(), "isa=%s lanes=%d goarch=%s\n", d.ISA, d.Lanes, d.GOARCH)
			return nil
		},
	}
}
