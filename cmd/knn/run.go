package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/YuminosukeSato/goknn/config"
	"github.com/YuminosukeSato/goknn/distance"
	"github.com/YuminosukeSato/goknn/knn"
	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/YuminosukeSato/goknn/pkg/log"
	"github.com/YuminosukeSato/goknn/store"
	"github.com/spf13/cobra"
)

type runOptions struct {
	k            int
	kSet         bool
	backend      string
	nativeKernel string
	saveModel    string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify the test split and print the accuracy",
		Long: `Read the configured dataset, split it into train and test partitions,
classify every test sample against the training set and print the accuracy.
The run is appended to history_db when one is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			opts.kSet = cmd.Flags().Changed("k")
			return runOnce(cmd, cfg, opts)
		},
	}

	cmd.Flags().IntVar(&opts.k, "k", 0, "override k from the config")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "override backend from the config")
	cmd.Flags().StringVar(&opts.nativeKernel, "native-kernel", "", "kernel descriptor written by 'knn native build'")
	cmd.Flags().StringVar(&opts.saveModel, "save", "", "write the fitted classifier to this file")
	return cmd
}

func runOnce(cmd *cobra.Command, cfg *config.Config, opts *runOptions) error {
	if opts.kSet {
		cfg.K = opts.k
	}
	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	if opts.nativeKernel != "" {
		cfg.NativeKernel = opts.nativeKernel
	}
	if err := cfg.Validate(); err != nil {
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
	clf, err := exp.classifier(cfg.K, backend, kernel)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	res, err := exp.evaluate(ctx, clf)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Accuracy: %.2f%%\n", res.accuracy*100)

	log.GetLoggerWithName("cli").Info("run finished",
		log.DatasetKey, cfg.Dataset,
		log.KKey, cfg.K,
		log.BackendKey, backend.String(),
		log.AccuracyKey, res.accuracy,
		log.DurationMsKey, res.duration.Milliseconds(),
	)

	if opts.saveModel != "" {
		X, y, err := exp.train.Matrix()
		if err != nil {
			return err
		}
		if err := clf.Fit(X, y); err != nil {
			return err
		}
		if err := saveClassifier(clf, opts.saveModel); err != nil {
			return err
		}
	}

	if cfg.HistoryDB == "" {
		return nil
	}
	st, err := store.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer st.Close()

	_, err = st.Record(ctx, store.Run{
		StartedAt: startedAt,
		Dataset:   cfg.Dataset,
		K:         cfg.K,
		Backend:   backend.String(),
		NTrain:    exp.train.Len(),
		NTest:     exp.test.Len(),
		Accuracy:  res.accuracy,
		Duration:  res.duration,
	})
	return err
}

func saveClassifier(clf *knn.Classifier, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create model file")
	}
	if err := clf.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
