package native

import (
	"os"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// EnvISA overrides CPU detection when set to a supported ISA name.
const EnvISA = "GOKNN_NATIVE_ISA"

// ISA is the instruction set a kernel is specialized for.
type ISA uint8

const (
	// Generic is the portable two-lane kernel.
	Generic ISA = iota
	// NEON is ARM64 Advanced SIMD (128-bit).
	NEON
	// AVX2 is x86-64 AVX2 with FMA (256-bit).
	AVX2
	// AVX512 is x86-64 AVX-512 Foundation (512-bit).
	AVX512
)

func (i ISA) String() string {
	switch i {
	case Generic:
		return "generic"
	case NEON:
		return "neon"
	case AVX2:
		return "avx2"
	case AVX512:
		return "avx512"
	default:
		return "unknown"
	}
}

// Lanes is the number of float64 accumulators the kernel keeps, matching
// the register width of the ISA.
func (i ISA) Lanes() int {
	switch i {
	case AVX512:
		return 8
	case AVX2, NEON:
		return 4
	default:
		return 2
	}
}

// ParseISA parses a string into an ISA value.
func ParseISA(s string) (ISA, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "neon":
		return NEON, true
	case "avx2":
		return AVX2, true
	case "avx512":
		return AVX512, true
	default:
		return Generic, false
	}
}

// Available reports whether the running CPU supports isa.
func Available(isa ISA) bool {
	switch isa {
	case Generic:
		return true
	case NEON:
		return runtime.GOARCH == "arm64" && cpu.ARM64.HasASIMD
	case AVX2:
		return runtime.GOARCH == "amd64" && cpu.X86.HasAVX2 && cpu.X86.HasFMA
	case AVX512:
		return runtime.GOARCH == "amd64" && cpu.X86.HasAVX512F
	default:
		return false
	}
}

// Detect returns the ISA a default build targets: the EnvISA override when
// it names an available ISA, otherwise the widest one the CPU supports.
func Detect() ISA {
	if override := os.Getenv(EnvISA); override != "" {
		if isa, ok := ParseISA(override); ok && Available(isa) {
			return isa
		}
	}
	for _, isa := range []ISA{AVX512, AVX2, NEON} {
		if Available(isa) {
			return isa
		}
	}
	return Generic
}
