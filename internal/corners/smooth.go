package corners

import (
	"gonum.org/v1/gonum/mat"
)

// savitzkyGolay smooths y with a least-squares polynomial filter of the
// given window and order. The window is forced odd and capped at the
// trace length; traces too short to fit a window come back unchanged.
// Edge samples are filled by evaluating the boundary windows' fitted
// polynomials rather than padding, so the trace keeps its length.
func savitzkyGolay(y []float64, window, order int) []float64 {
	n := len(y)
	out := make([]float64, n)
	copy(out, y)

	if window > n {
		window = n
	}
	if window%2 == 0 {
		window--
	}
	if window < 3 {
		return out
	}
	if order >= window {
		order = window - 1
	}

	half := window / 2
	pinv := polyFitPinv(window, order)
	if pinv == nil {
		return out
	}

	// Interior: convolution with the center-sample weights.
	weights := mat.Row(nil, 0, pinv)
	for i := half; i < n-half; i++ {
		var sum float64
		for k := 0; k < window; k++ {
			sum += weights[k] * y[i-half+k]
		}
		out[i] = sum
	}

	// Edges: fit the first/last window once and evaluate its polynomial
	// at the uncovered offsets.
	left := fitWindow(pinv, y[:window])
	for i := 0; i < half; i++ {
		out[i] = evalPoly(left, float64(i-half))
	}
	right := fitWindow(pinv, y[n-window:])
	for i := n - half; i < n; i++ {
		out[i] = evalPoly(right, float64(i-(n-1-half)))
	}
	return out
}

// polyFitPinv returns the (order+1) x window pseudo-inverse of the
// Vandermonde design matrix for positions centered on the window, so
// coeffs = pinv * y gives the least-squares polynomial for any window
// of samples.
func polyFitPinv(window, order int) *mat.Dense {
	half := window / 2
	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		p := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, p)
			p *= x
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		// Singular only for degenerate window/order combinations the
		// caller's clamping already rules out.
		return nil
	}
	var pinv mat.Dense
	pinv.Mul(&inv, a.T())
	return &pinv
}

func fitWindow(pinv *mat.Dense, y []float64) []float64 {
	rows, _ := pinv.Dims()
	coeffs := make([]float64, rows)
	for j := 0; j < rows; j++ {
		var sum float64
		for k := range y {
			sum += pinv.At(j, k) * y[k]
		}
		coeffs[j] = sum
	}
	return coeffs
}

func evalPoly(coeffs []float64, x float64) float64 {
	var v float64
	for j := len(coeffs) - 1; j >= 0; j-- {
		v = v*x + coeffs[j]
	}
	return v
}
