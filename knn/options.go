package knn

import (
	"github.com/YuminosukeSato/goknn/native"
	"github.com/YuminosukeSato/goknn/pkg/log"
)

// DefaultParallelThreshold is the query batch size at or below which
// Classify stays on the calling goroutine even when NJobs allows more.
const DefaultParallelThreshold = 64

// Option configures a Classifier.
type Option func(*Classifier)

// WithNJobs sets the number of worker goroutines used by Classify.
// 1 (the default) classifies sequentially, n <= 0 uses one worker per CPU.
func WithNJobs(n int) Option {
	return func(c *Classifier) {
		c.nJobs = n
	}
}

// WithParallelThreshold sets the batch size below which Classify ignores
// NJobs and runs sequentially.
func WithParallelThreshold(n int) Option {
	return func(c *Classifier) {
		c.parallelThreshold = n
	}
}

// WithNativeKernel supplies the kernel used by the compiled-native backend.
// Without it the process-wide native.Default() kernel is used.
func WithNativeKernel(k *native.Kernel) Option {
	return func(c *Classifier) {
		c.kernel = k
	}
}

// WithLogger replaces the component logger.
func WithLogger(l log.Logger) Option {
	return func(c *Classifier) {
		c.logger = l
	}
}
