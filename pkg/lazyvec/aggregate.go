package lazyvec

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow/array"
	amath "github.com/apache/arrow-go/v18/arrow/math"

	"github.com/vectral/lazyvec/pkg/metrics"
)

// Aggregates run directly over the chunked source and never materialize.
// Results are float64: NaN plays the null sentinel, and integer sums that
// leave the int32 range are promoted instead of wrapped. Null-free float64
// chunks are summed by the arrow/math SIMD kernel; chunks with nulls fall
// back to a validity-aware scan.

// Sum returns the total of all elements.
//
// Policy: with skipNulls false and any null present the result is the null
// sentinel (NaN). Under skipNulls the sum of no elements is 0. For int32
// vectors the accumulator is int64 and the exact total is returned as a
// float64, so overflow of the element type promotes rather than wraps.
func (v *PrimitiveVector[T]) Sum(skipNulls bool) float64 {
	metrics.Aggregates.WithLabelValues("sum").Inc()
	if !skipNulls && v.source.NullN() > 0 {
		return NullFloat64
	}

	var total float64
	var itotal int64
	for _, chunk := range v.source.Chunks() {
		switch arr := chunk.(type) {
		case *array.Float64:
			if arr.NullN() == 0 {
				total += amath.Float64.Sum(arr)
				continue
			}
			vals := arr.Float64Values()
			visitValidity(arr, arr.Len(), func(j int) { total += vals[j] }, nil)
		case *array.Int32:
			vals := arr.Int32Values()
			if arr.NullN() == 0 {
				for _, x := range vals {
					itotal += int64(x)
				}
				continue
			}
			visitValidity(arr, arr.Len(), func(j int) { itotal += int64(vals[j]) }, nil)
		}
	}
	if v.kind == KindInt32 {
		return float64(itotal)
	}
	return total
}

// Min returns the smallest element. With skipNulls false and any null
// present it returns the null sentinel; when every element is null (or the
// vector is empty) it returns +Inf, the empty-reduction convention.
func (v *PrimitiveVector[T]) Min(skipNulls bool) float64 {
	metrics.Aggregates.WithLabelValues("min").Inc()
	return v.minmax(skipNulls, true)
}

// Max returns the largest element, with -Inf as the empty-reduction value.
func (v *PrimitiveVector[T]) Max(skipNulls bool) float64 {
	metrics.Aggregates.WithLabelValues("max").Inc()
	return v.minmax(skipNulls, false)
}

func (v *PrimitiveVector[T]) minmax(skipNulls, min bool) float64 {
	n := v.source.Len()
	nulls := v.source.NullN()
	if (skipNulls || n == 0) && nulls == n {
		if min {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	if !skipNulls && nulls > 0 {
		return NullFloat64
	}

	cur := math.Inf(1)
	if !min {
		cur = math.Inf(-1)
	}
	better := func(x float64) {
		if min {
			if x < cur {
				cur = x
			}
		} else if x > cur {
			cur = x
		}
	}

	for _, chunk := range v.source.Chunks() {
		switch arr := chunk.(type) {
		case *array.Float64:
			vals := arr.Float64Values()
			visitValidity(arr, arr.Len(), func(j int) { better(vals[j]) }, nil)
		case *array.Int32:
			vals := arr.Int32Values()
			visitValidity(arr, arr.Len(), func(j int) { better(float64(vals[j])) }, nil)
		}
	}
	return cur
}
