package validate

import (
	"math"

	"github.com/sarchlab/streambw/config"
)

// Expected holds the value every element of each array should hold after
// a number of iterations. The kernels treat all elements alike, so one
// value per array suffices.
type Expected struct {
	A, B, C float64
}

// ExpectedValues computes the state of the arrays after iterations passes
// of Copy, Scale, Add and Triad from the given seeds.
//
// One iteration maps a to (2s+s²)·a and overwrites B and C, so the value of
// A entering the last iteration is a0·(2s+s²)^(M-1). The last iteration is
// then replayed with the kernels' own operations, which makes a single
// iteration match the kernels exactly.
func ExpectedValues(iterations int, scalar float64, seeds config.Seeds) Expected {
	it := replayLast(iterations, scalar, seeds.A)
	return Expected{A: it.aOut, B: it.b, C: it.c}
}

// OperandMagnitudes returns, per array, the summed magnitude of the operands
// of the operation that last wrote it: |b|+|s·c| for A, |b| for B and
// |a|+|b| for C. Rounding errors scale with these rather than with the
// result, which can be much smaller when Add or Triad cancel.
func OperandMagnitudes(iterations int, scalar float64, seeds config.Seeds) Expected {
	it := replayLast(iterations, scalar, seeds.A)
	return Expected{
		A: math.Max(math.Abs(it.aOut), math.Abs(it.b)+math.Abs(scalar*it.c)),
		B: math.Abs(it.b),
		C: math.Max(math.Abs(it.c), math.Abs(it.aIn)+math.Abs(it.b)),
	}
}

type lastIteration struct {
	aIn, b, c, aOut float64
}

func replayLast(iterations int, s, a0 float64) lastIteration {
	a := a0
	if iterations > 1 {
		a *= math.Pow(2*s+s*s, float64(iterations-1))
	}

	it := lastIteration{aIn: a}
	c := a
	it.b = s * c
	it.c = a + it.b
	it.aOut = it.b + s*it.c
	return it
}
