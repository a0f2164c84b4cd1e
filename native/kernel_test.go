package native

import (
	"bytes"
	"encoding/json"
	"math"
	"math/rand"
	"runtime"
	"strings"
	"testing"

	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loopL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func TestKernelsAgreeWithLoop(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	kernels := map[string]func(a, b []float64) float64{
		"lanes2": l2Lanes2,
		"lanes4": l2Lanes4,
		"lanes8": l2Lanes8,
	}

	for _, dim := range []int{0, 1, 2, 3, 5, 8, 9, 17, 34, 1000} {
		a := make([]float64, dim)
		b := make([]float64, dim)
		for i := range a {
			a[i] = rng.NormFloat64() * 10
			b[i] = rng.NormFloat64() * 10
		}
		want := loopL2(a, b)
		for name, fn := range kernels {
			got := fn(a, b)
			if want == 0 {
				assert.Equal(t, 0.0, got, "%s dim=%d", name, dim)
				continue
			}
			assert.InEpsilon(t, want, got, 1e-9, "%s dim=%d", name, dim)
		}
	}
}

func TestKernelExactValues(t *testing.T) {
	for _, isa := range []ISA{Generic, AVX2, NEON, AVX512} {
		if !Available(isa) {
			continue
		}
		k, err := Build(WithISA(isa))
		require.NoError(t, err)

		assert.Equal(t, 5.0, k.Distance([]float64{1, 2}, []float64{4, 6}), isa.String())
		assert.Equal(t, 0.0, k.Distance([]float64{0, 0}, []float64{0, 0}), isa.String())
		assert.Equal(t, 5.0, k.Distance([]float64{-1, -2}, []float64{-4, -6}), isa.String())
		assert.InDelta(t, 5.196152422706632, k.Distance([]float64{1, 2, 3}, []float64{4, 5, 6}), 1e-12)
	}
}

func TestBuildDetectsAvailableISA(t *testing.T) {
	k, err := Build()
	require.NoError(t, err)
	assert.True(t, Available(k.ISA()))
	assert.Equal(t, k.ISA().Lanes(), k.Lanes())
}

func TestBuildRejectsUnavailableISA(t *testing.T) {
	var missing ISA = 255
	for _, isa := range []ISA{AVX512, AVX2, NEON} {
		if !Available(isa) {
			missing = isa
			break
		}
	}
	if missing == 255 {
		t.Skip("every ISA is available on this machine")
	}
	_, err := Build(WithISA(missing))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv(EnvISA, "generic")
	assert.Equal(t, Generic, Detect())

	t.Setenv(EnvISA, "not-an-isa")
	assert.True(t, Available(Detect()))
}

func TestSaveLoadDescriptor(t *testing.T) {
	k, err := Build(WithISA(Generic))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, k))
	assert.Contains(t, buf.String(), `"isa": "generic"`)

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, Generic, loaded.ISA())
	assert.Equal(t, 2, loaded.Lanes())
}

func TestLoadRejectsBadDescriptors(t *testing.T) {
	encode := func(d Descriptor) string {
		b, err := json.Marshal(d)
		require.NoError(t, err)
		return string(b)
	}

	tests := []struct {
		name string
		in   string
	}{
		{"garbage", "{not json"},
		{"version", encode(Descriptor{Version: 99, ISA: "generic", Lanes: 2, GOARCH: runtime.GOARCH})},
		{"arch", encode(Descriptor{Version: DescriptorVersion, ISA: "generic", Lanes: 2, GOARCH: "sparc"})},
		{"isa", encode(Descriptor{Version: DescriptorVersion, ISA: "mmx", Lanes: 2, GOARCH: runtime.GOARCH})},
		{"lanes", encode(Descriptor{Version: DescriptorVersion, ISA: "generic", Lanes: 16, GOARCH: runtime.GOARCH})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestDefaultIsStable(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestParseISA(t *testing.T) {
	for _, isa := range []ISA{Generic, NEON, AVX2, AVX512} {
		got, ok := ParseISA(strings.ToUpper(isa.String()))
		assert.True(t, ok)
		assert.Equal(t, isa, got)
	}
	_, ok := ParseISA("sse")
	assert.False(t, ok)
}

func BenchmarkKernel(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	x := make([]float64, 34)
	y := make([]float64, 34)
	for i := range x {
		x[i], y[i] = rng.Float64(), rng.Float64()
	}
	k := Default()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = k.Distance(x, y)
	}
}
