// Package fuzzing defines the fixed boundary-value datasets that fuzz
// test cases are replayed over. Each input type has one literal
// dataset; the runner iterates it in order and feeds every value to the
// registered fuzz body.
package fuzzing

import "math"

// Type tags the input type a fuzz test body receives.
type Type int

const (
	Int Type = iota
	Size
	Float
	Byte
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Size:
		return "size"
	case Float:
		return "float"
	case Byte:
		return "byte"
	default:
		return "unknown"
	}
}

// smallest positive normal float32
const minNormalFloat32 = 1.17549435e-38

var intValues = []int{
	math.MinInt, math.MinInt + 1,
	-1, 0, 1,
	math.MaxInt - 1, math.MaxInt,
}

var sizeValues = []uint{
	0, 1,
	math.MaxUint / 2,
	math.MaxUint - 1,
	math.MaxUint,
}

var floatValues = []float32{
	float32(math.Inf(-1)),
	-math.MaxFloat32,
	-1.0,
	float32(math.Copysign(0, -1)),
	0.0,
	1.0,
	math.MaxFloat32,
	float32(math.Inf(1)),
	float32(math.NaN()),
	minNormalFloat32,
	-minNormalFloat32,
}

// IntValues returns a copy of the integer dataset.
func IntValues() []int { return append([]int(nil), intValues...) }

// SizeValues returns a copy of the size dataset.
func SizeValues() []uint { return append([]uint(nil), sizeValues...) }

// FloatValues returns a copy of the float dataset.
func FloatValues() []float32 { return append([]float32(nil), floatValues...) }

// ByteValues returns the byte dataset: the full 0..255 range.
func ByteValues() []byte {
	out := make([]byte, 256)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}

// Values returns the dataset for the given input type, boxed in
// iteration order. An unknown type yields nil.
func Values(t Type) []any {
	switch t {
	case Int:
		out := make([]any, len(intValues))
		for i, v := range intValues {
			out[i] = v
		}
		return out
	case Size:
		out := make([]any, len(sizeValues))
		for i, v := range sizeValues {
			out[i] = v
		}
		return out
	case Float:
		out := make([]any, len(floatValues))
		for i, v := range floatValues {
			out[i] = v
		}
		return out
	case Byte:
		values := ByteValues()
		out := make([]any, len(values))
		for i, v := range values {
			out[i] = v
		}
		return out
	default:
		return nil
	}
}
