package bytesize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  ByteSize
	}{
		{"0", 0},
		{"80", 80},
		{"80B", 80},
		{"64Ki", 64 * KiB},
		{"64KiB", 64 * KiB},
		{"64kib", 64 * KiB},
		{"4Mi", 4 * MiB},
		{"1GiB", GiB},
		{"10K", 10 * KB},
		{"2MB", 2 * MB},
		{"1g", GB},
		{" 4 Mi ", 4 * MiB},
		{"1.5Mi", ByteSize(1.5 * float64(MiB))},
		{"0.5Ki", 512},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "   ", "Mi", "-1Ki", "4Xi", "1.2.3Mi", "99999999999999999999", "99999999999Gi"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestMustParse(t *testing.T) {
	assert.Equal(t, 64*KiB, MustParse("64Ki"))
	assert.Panics(t, func() { MustParse("lots") })
}

func TestMarshalText(t *testing.T) {
	tests := []struct {
		size ByteSize
		want string
	}{
		{0, "0"},
		{80, "80"},
		{64 * KiB, "64Ki"},
		{4 * MiB, "4Mi"},
		{2 * GiB, "2Gi"},
		{1536 * KiB, "1536Ki"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			text, err := tt.size.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(text))

			var back ByteSize
			require.NoError(t, back.UnmarshalText(text))
			assert.Equal(t, tt.size, back)
		})
	}
}

func TestYAML(t *testing.T) {
	var cfg struct {
		Buffer ByteSize `yaml:"buffer"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("buffer: 128Ki\n"), &cfg))
	assert.Equal(t, 128*KiB, cfg.Buffer)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, "buffer: 128Ki\n", string(out))

	assert.Error(t, yaml.Unmarshal([]byte("buffer: huge\n"), &cfg))
}

func TestString(t *testing.T) {
	assert.Equal(t, "512B", ByteSize(512).String())
	assert.Equal(t, "2.00KiB", (2 * KiB).String())
	assert.Equal(t, "1.50MiB", ByteSize(1.5*float64(MiB)).String())
	assert.Equal(t, "3.00GiB", (3 * GiB).String())
}

func TestInt(t *testing.T) {
	assert.Equal(t, 4096, (4 * KiB).Int())
	assert.Equal(t, math.MaxInt, ByteSize(math.MaxUint64).Int())
}
