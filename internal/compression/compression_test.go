package compression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"", Snappy, false},
		{"snappy", Snappy, false},
		{" SNAPPY ", Snappy, false},
		{"none", None, false},
		{"off", None, false},
		{"zstd", None, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlgorithmString(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "snappy", Snappy.String())
	assert.Equal(t, "algorithm(9)", Algorithm(9).String())
}

func TestGetCompressor(t *testing.T) {
	for _, algo := range []Algorithm{None, Snappy} {
		c, err := GetCompressor(algo)
		require.NoError(t, err)
		assert.Equal(t, algo, c.Algorithm())
	}

	_, err := GetCompressor(Algorithm(42))
	assert.Error(t, err)
}

func TestNoneCompressor_Passthrough(t *testing.T) {
	c, err := GetCompressor(None)
	require.NoError(t, err)

	data := []byte(`{"backpack":"MOC-1"}`)
	out, err := c.Compress(data)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	back, err := c.Decompress(out)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}
