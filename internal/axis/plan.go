// Package axis plans tick positions and keeps the rendered tick state of a chart axis.
package axis

import "math"

// Plan returns evenly strided tick values between start and end that fit
// availablePx when each label needs labelPx. The stride is the smallest
// multiple of step that keeps the candidate count within the label budget.
// end is always the final tick, even when it breaks the even spacing.
//
// Callers must pass step > 0 and end >= start.
func Plan(start, end, step, availablePx, labelPx float64) []float64 {
	budget := 0.0
	if labelPx > 0 && availablePx > 0 {
		budget = math.Floor(availablePx / labelPx)
	}
	if budget < 1 {
		return []float64{end}
	}

	n := (end - start) / step
	// room for more labels than candidates does not change the stride
	maxTicks := int(math.Min(budget, math.Ceil(n)+1))
	stride := strideFor(n, maxTicks)

	ticks := make([]float64, 0, maxTicks+2)
	for k := 0; ; k++ {
		v := start + float64(k)*step*float64(stride)
		if v >= end {
			break
		}
		ticks = append(ticks, v)
	}
	return append(ticks, end)
}

// strideFor finds the smallest i >= 1 with floor(n/i) <= maxTicks
func strideFor(n float64, maxTicks int) int {
	m := float64(maxTicks)
	i := 1
	if n/(m+1) >= 1 {
		i = int(math.Floor(n/(m+1))) + 1
	}
	for math.Floor(n/float64(i)) > m {
		i++
	}
	for i > 1 && math.Floor(n/float64(i-1)) <= m {
		i--
	}
	return i
}

// Nice returns round-numbered ticks covering [min, max] with roughly count
// entries, stepping by 1, 2, 2.5 or 5 times a power of ten.
func Nice(min, max float64, count int) []float64 {
	if count < 2 || math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(count-1))))

	best, bestScore := mag, math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		n := math.Max(math.Ceil(span/step)+1, 2)
		if score := math.Abs(n - float64(count)); score < bestScore {
			best, bestScore = step, score
		}
	}

	lo := math.Floor(min/best) * best
	hi := math.Ceil(max/best) * best
	var out []float64
	for v := lo; v <= hi+best*0.5; v += best {
		out = append(out, round6(v))
	}
	return out
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
