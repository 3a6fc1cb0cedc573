package trend

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Slope returns the ordinary least-squares slope of y against x = 1..n.
//
// Fewer than two points carry no trend and yield 0. A degenerate or
// non-finite regression also yields 0 rather than an error.
func Slope(y []float64) (slope float64) {
	if len(y) < 2 {
		return 0
	}

	defer func() {
		if recover() != nil {
			slope = 0
		}
	}()

	x := make([]float64, len(y))
	for i := range x {
		x[i] = float64(i + 1)
	}

	_, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0
	}
	return beta
}
