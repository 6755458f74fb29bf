package xfsfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeExtentRoundTrip(t *testing.T) {
	cases := []Extent{
		{Preallocated: false, LogicalOffset: 0, PhysicalStart: 100, Length: 8},
		{Preallocated: true, LogicalOffset: 8, PhysicalStart: 200, Length: 4},
		{Preallocated: false, LogicalOffset: (1 << 54) - 1, PhysicalStart: (1 << 52) - 1, Length: (1 << 21) - 1},
	}

	for _, want := range cases {
		encoded := EncodeExtent(want)
		require.Len(t, encoded, ExtentSize)

		got, err := DecodeExtent(encoded)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDecodeExtentShortBuffer(t *testing.T) {
	_, err := DecodeExtent(make([]byte, 8))
	assert.Error(t, err)
}

func TestExtentValid(t *testing.T) {
	e := Extent{PhysicalStart: 100, Length: 8}
	assert.True(t, e.Valid(1000))
	assert.False(t, e.Valid(104))

	zero := Extent{}
	assert.False(t, zero.Valid(1000))
}
