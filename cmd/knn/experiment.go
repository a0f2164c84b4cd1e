package main

import (
	"context"
	"os"
	"time"

	"github.com/YuminosukeSato/goknn/config"
	"github.com/YuminosukeSato/goknn/dataset"
	"github.com/YuminosukeSato/goknn/distance"
	"github.com/YuminosukeSato/goknn/knn"
	"github.com/YuminosukeSato/goknn/metrics"
	"github.com/YuminosukeSato/goknn/native"
	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/YuminosukeSato/goknn/pkg/log"
	"github.com/YuminosukeSato/goknn/preprocessing"
)

// experiment is a dataset prepared according to a config: read, optionally
// shuffled, split and scaled.
type experiment struct {
	cfg   *config.Config
	train *dataset.Dataset
	test  *dataset.Dataset
}

func prepare(cfg *config.Config) (*experiment, error) {
	data, err := dataset.ReadFile(cfg.Dataset)
	if err != nil {
		return nil, err
	}
	if cfg.Shuffle {
		data = data.Shuffle(cfg.Seed)
	}

	train, test, err := data.Split(cfg.TestSize)
	if err != nil {
		return nil, err
	}

	scaler, err := preprocessing.New(cfg.ScalerKind())
	if err != nil {
		return nil, err
	}
	if scaler != nil {
		// 統計量は学習側だけで求め、テスト側には同じ変換を適用する
		if train, err = train.Map(scaler.FitTransform); err != nil {
			return nil, err
		}
		if test, err = test.Map(scaler.Transform); err != nil {
			return nil, err
		}
	}

	log.GetLoggerWithName("cli").Debug("dataset prepared",
		log.DatasetKey, cfg.Dataset,
		log.SamplesKey, data.Len(),
		log.FeaturesKey, data.Features(),
	)
	return &experiment{cfg: cfg, train: train, test: test}, nil
}

// loadKernel returns the kernel stored at path, or nil for an empty path.
func loadKernel(path string) (*native.Kernel, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open native kernel")
	}
	defer f.Close()
	return native.Load(f)
}

// classifier builds a classifier for k and backend using the config's
// worker count and native kernel.
func (e *experiment) classifier(k int, backend distance.Backend, kernel *native.Kernel) (*knn.Classifier, error) {
	opts := []knn.Option{knn.WithNJobs(e.cfg.NJobs)}
	if kernel != nil {
		opts = append(opts, knn.WithNativeKernel(kernel))
	}
	return knn.NewWithBackend(k, backend, opts...)
}

// result is the outcome of classifying the test partition once.
type result struct {
	predictions []int
	accuracy    float64
	duration    time.Duration
}

func (e *experiment) evaluate(ctx context.Context, clf *knn.Classifier) (*result, error) {
	start := time.Now()
	pred, err := clf.ClassifyContext(ctx, e.train.Reference(), e.test.X)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	acc, err := metrics.Accuracy(e.test.Y, pred)
	if err != nil {
		return nil, err
	}
	return &result{predictions: pred, accuracy: acc, duration: elapsed}, nil
}
