package fuzzing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntDatasetCoversBoundaries(t *testing.T) {
	values := IntValues()
	require.Len(t, values, 7)
	assert.Equal(t, math.MinInt, values[0])
	assert.Equal(t, math.MinInt+1, values[1])
	assert.Equal(t, []int{-1, 0, 1}, values[2:5])
	assert.Equal(t, math.MaxInt-1, values[5])
	assert.Equal(t, math.MaxInt, values[6])
}

func TestSizeDatasetCoversBoundaries(t *testing.T) {
	values := SizeValues()
	require.Len(t, values, 5)
	assert.Equal(t, uint(0), values[0])
	assert.Equal(t, uint(1), values[1])
	assert.Equal(t, uint(math.MaxUint/2), values[2])
	assert.Equal(t, uint(math.MaxUint-1), values[3])
	assert.Equal(t, uint(math.MaxUint), values[4])
}

func TestFloatDatasetCoversSpecials(t *testing.T) {
	values := FloatValues()
	require.Len(t, values, 11)

	hasNaN, hasPosInf, hasNegInf, hasNegZero := false, false, false, false
	for _, v := range values {
		wide := float64(v)
		switch {
		case math.IsNaN(wide):
			hasNaN = true
		case math.IsInf(wide, 1):
			hasPosInf = true
		case math.IsInf(wide, -1):
			hasNegInf = true
		case wide == 0 && math.Signbit(wide):
			hasNegZero = true
		}
	}
	assert.True(t, hasNaN)
	assert.True(t, hasPosInf)
	assert.True(t, hasNegInf)
	assert.True(t, hasNegZero)
	assert.Contains(t, values, float32(math.MaxFloat32))
	assert.Contains(t, values, float32(-math.MaxFloat32))
	assert.Contains(t, values, float32(minNormalFloat32))
	assert.Contains(t, values, float32(-minNormalFloat32))
}

func TestByteDatasetIsTheFullRange(t *testing.T) {
	values := ByteValues()
	require.Len(t, values, 256)
	for i, v := range values {
		if int(v) != i {
			t.Fatalf("value at %d is %d", i, v)
		}
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	a := IntValues()
	a[0] = 12345
	assert.NotEqual(t, a[0], IntValues()[0])
}

func TestValuesBoxesEachDataset(t *testing.T) {
	assert.Len(t, Values(Int), 7)
	assert.Len(t, Values(Size), 5)
	assert.Len(t, Values(Float), 11)
	assert.Len(t, Values(Byte), 256)
	assert.Nil(t, Values(Type(99)))

	// Boxed values keep their concrete types.
	_, ok := Values(Int)[0].(int)
	assert.True(t, ok)
	_, ok = Values(Size)[0].(uint)
	assert.True(t, ok)
	_, ok = Values(Float)[0].(float32)
	assert.True(t, ok)
	_, ok = Values(Byte)[0].(byte)
	assert.True(t, ok)
}

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "int", Int.String())
	assert.Equal(t, "size", Size.String())
	assert.Equal(t, "float", Float.String())
	assert.Equal(t, "byte", Byte.String())
	assert.Equal(t, "unknown", Type(42).String())
}
