// Package round rounds telemetry values for presentation.
package round

import "math"

// To rounds x half away from zero to prec decimals. Infinities and NaN are
// returned unchanged and zero never carries a sign.
func To(x float64, prec int) float64 {
	pow := math.Pow10(prec)
	scaled := x * pow
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
		return x
	}
	r := math.Round(scaled)
	if r == 0 {
		return 0
	}
	return r / pow
}
