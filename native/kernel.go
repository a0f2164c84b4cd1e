// Package native builds the compiled-native distance routine.
//
// Building is an explicit step, separate from classifier construction: Build
// inspects the CPU, picks an accumulator width and returns a Kernel whose
// Euclidean routine works on fixed-width [N]float64 accumulators. A built
// kernel can be described with Save and re-linked in another process with
// Load, which refuses descriptors the current CPU cannot run.
package native

import (
	"encoding/json"
	"io"
	"math"
	"runtime"
	"sync"

	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/YuminosukeSato/goknn/pkg/log"
)

// DescriptorVersion is bumped when the descriptor layout changes.
const DescriptorVersion = 1

// Kernel is a built distance routine.
type Kernel struct {
	isa   ISA
	lanes int
	l2    func(a, b []float64) float64
}

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	isa    ISA
	forced bool
}

// WithISA builds for isa instead of the detected one.
func WithISA(isa ISA) Option {
	return func(c *buildConfig) {
		c.isa = isa
		c.forced = true
	}
}

// Build compiles a kernel for the running CPU.
func Build(opts ...Option) (*Kernel, error) {
	cfg := buildConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.forced {
		cfg.isa = Detect()
	}
	if !Available(cfg.isa) {
		return nil, errors.NewValidationError("isa", "not supported by this CPU", cfg.isa.String())
	}

	k := &Kernel{isa: cfg.isa, lanes: cfg.isa.Lanes()}
	switch k.lanes {
	case 8:
		k.l2 = l2Lanes8
	case 4:
		k.l2 = l2Lanes4
	default:
		k.l2 = l2Lanes2
	}

	log.GetLoggerWithName("native").Debug("native kernel built",
		log.OperationKey, log.OperationBuild,
		log.ISAKey, k.isa.String(),
		log.LanesKey, k.lanes,
	)
	return k, nil
}

// ISA returns the instruction set the kernel was built for.
func (k *Kernel) ISA() ISA { return k.isa }

// Lanes returns the accumulator width.
func (k *Kernel) Lanes() int { return k.lanes }

// Distance returns the Euclidean distance between a and b.
// a and b must have the same length (caller's responsibility).
func (k *Kernel) Distance(a, b []float64) float64 {
	return k.l2(a, b)
}

// Descriptor is the persisted form of a built kernel.
type Descriptor struct {
	Version int    `json:"version"`
	ISA     string `json:"isa"`
	Lanes   int    `json:"lanes"`
	GOARCH  string `json:"goarch"`
}

// Descriptor describes k.
func (k *Kernel) Descriptor() Descriptor {
	return Descriptor{
		Version: DescriptorVersion,
		ISA:     k.isa.String(),
		Lanes:   k.lanes,
		GOARCH:  runtime.GOARCH,
	}
}

// Save writes the descriptor of k to w as JSON.
func Save(w io.Writer, k *Kernel) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(k.Descriptor()); err != nil {
		return errors.Wrap(err, "failed to encode kernel descriptor")
	}
	return nil
}

// Load reads a descriptor written by Save and links the matching kernel.
func Load(r io.Reader) (*Kernel, error) {
	var d Descriptor
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.NewModelError("native.Load", "invalid kernel descriptor", err)
	}
	if d.Version != DescriptorVersion {
		return nil, errors.NewValidationError("version", "unsupported descriptor version", d.Version)
	}
	if d.GOARCH != runtime.GOARCH {
		return nil, errors.NewValidationError("goarch", "descriptor built for a different architecture", d.GOARCH)
	}
	isa, ok := ParseISA(d.ISA)
	if !ok {
		return nil, errors.NewValidationError("isa", "unknown instruction set", d.ISA)
	}
	if d.Lanes != isa.Lanes() {
		return nil, errors.NewValidationError("lanes", "does not match instruction set", d.Lanes)
	}
	return Build(WithISA(isa))
}

var (
	defaultOnce   sync.Once
	defaultKernel *Kernel
)

// Default returns a process-wide kernel, building it on first use.
func Default() *Kernel {
	defaultOnce.Do(func() {
		k, err := Build()
		if err != nil {
			// Detect only returns available ISAs, so this is unreachable in
			// practice; Generic always builds.
			k, _ = Build(WithISA(Generic))
		}
		defaultKernel = k
	})
	return defaultKernel
}

func l2Lanes2(a, b []float64) float64 {
	var acc [2]float64
	n := len(a)
	i := 0
	for ; i+2 <= n; i += 2 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		acc[0] += d0 * d0
		acc[1] += d1 * d1
	}
	for ; i < n; i++ {
		d := a[i] - b[i]
		acc[0] += d * d
	}
	return math.Sqrt(acc[0] + acc[1])
}

func l2Lanes4(a, b []float64) float64 {
	var acc [4]float64
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		x := (*[4]float64)(a[i : i+4])
		y := (*[4]float64)(b[i : i+4])
		for l := 0; l < 4; l++ {
			d := x[l] - y[l]
			acc[l] += d * d
		}
	}
	for l := 0; i < n; i, l = i+1, l+1 {
		d := a[i] - b[i]
		acc[l] += d * d
	}
	return math.Sqrt((acc[0] + acc[1]) + (acc[2] + acc[3]))
}

func l2Lanes8(a, b []float64) float64 {
	var acc [8]float64
	n := len(a)
	i := 0
	for ; i+8 <= n; i += 8 {
		x := (*[8]float64)(a[i : i+8])
		y := (*[8]float64)(b[i : i+8])
		for l := 0; l < 8; l++ {
			d := x[l] - y[l]
			acc[l] += d * d
		}
	}
	for l := 0; i < n; i, l = i+1, l+1 {
		d := a[i] - b[i]
		acc[l] += d * d
	}
	return math.Sqrt(((acc[0] + acc[1]) + (acc[2] + acc[3])) + ((acc[4] + acc[5]) + (acc[6] + acc[7])))
}
