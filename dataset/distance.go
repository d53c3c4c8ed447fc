package dataset

import "math"

// distance computes the metric-dependent distance between two vectors of
// equal length. Smaller is always better; MetricDot negates the dot
// product to keep that ordering.
func distance(metric Metric, a, b []float32) float32 {
	switch metric {
	case MetricCosine:
		return cosineDistance(a, b)
	case MetricDot:
		return -dot(a, b)
	default:
		return squaredL2(a, b)
	}
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// cosineDistance is 1 - cosine similarity. Zero-norm inputs yield the
// maximum distance of 1.
func cosineDistance(a, b []float32) float32 {
	var ab, aa, bb float32
	for i := range a {
		ab += a[i] * b[i]
		aa += a[i] * a[i]
		bb += b[i] * b[i]
	}
	if aa == 0 || bb == 0 {
		return 1
	}
	return 1 - ab/float32(math.Sqrt(float64(aa))*math.Sqrt(float64(bb)))
}
