package lazyvec

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/vectral/lazyvec/pkg/metrics"
	"github.com/vectral/lazyvec/pkg/vecerrors"
)

// element is the set of primitive element types with a native null
// sentinel.
type element interface {
	float64 | int32
}

// PrimitiveVector wraps a fixed-width numeric chunked array. It serves
// reads from the chunk buffers for as long as possible and builds the
// contiguous sentinel-annotated representation at most once.
type PrimitiveVector[T element] struct {
	vectorBase
	kind     Kind
	sentinel T
	values   func(arrow.Array) []T
	repr     []T
}

// Float64Vector is the primitive variant over float64 chunks.
type Float64Vector = PrimitiveVector[float64]

// Int32Vector is the primitive variant over int32 chunks.
type Int32Vector = PrimitiveVector[int32]

// NewFloat64 wraps a float64 chunked array.
func NewFloat64(chunked *arrow.Chunked) (*Float64Vector, error) {
	if chunked.DataType().ID() != arrow.FLOAT64 {
		return nil, vecerrors.New(vecerrors.ErrorTypeUnsupported, "not a float64 chunked array").
			WithDetail("type", chunked.DataType().String())
	}
	v := &Float64Vector{
		kind:     KindFloat64,
		sentinel: NullFloat64,
		values: func(a arrow.Array) []float64 {
			return a.(*array.Float64).Float64Values()
		},
	}
	v.init(chunked)
	metrics.VectorsCreated.WithLabelValues(v.kind.String()).Inc()
	return v, nil
}

// NewInt32 wraps an int32 chunked array.
func NewInt32(chunked *arrow.Chunked) (*Int32Vector, error) {
	if chunked.DataType().ID() != arrow.INT32 {
		return nil, vecerrors.New(vecerrors.ErrorTypeUnsupported, "not an int32 chunked array").
			WithDetail("type", chunked.DataType().String())
	}
	v := &Int32Vector{
		kind:     KindInt32,
		sentinel: NullInt32,
		values: func(a arrow.Array) []int32 {
			return a.(*array.Int32).Int32Values()
		},
	}
	v.init(chunked)
	metrics.VectorsCreated.WithLabelValues(v.kind.String()).Inc()
	return v, nil
}

// Kind reports the concrete variant.
func (v *PrimitiveVector[T]) Kind() Kind { return v.kind }

// isNull reports whether a materialized value is the null sentinel.
// x != x catches NaN for float64; the equality catches MinInt32 for int32.
func (v *PrimitiveVector[T]) isNull(x T) bool {
	return x != x || x == v.sentinel
}

// ElementAt returns the value at global index i, or the null sentinel when
// the owning chunk marks the position null.
func (v *PrimitiveVector[T]) ElementAt(i int) T {
	if v.IsMaterialized() {
		return v.repr[i]
	}
	r := resolve(v.source, i)
	if r.chunk.IsNull(r.index) {
		return v.sentinel
	}
	return v.values(r.chunk)[r.index]
}

// CopyRegion copies elements [start, start+len(buf)) into buf, overlaying
// null sentinels, and returns the number of elements copied. Near the end
// of the vector the count may be less than len(buf). Only the requested
// region is touched; the vector itself is not materialized.
func (v *PrimitiveVector[T]) CopyRegion(start int, buf []T) int {
	size := v.source.Len()
	if start >= size || len(buf) == 0 {
		return 0
	}
	if v.IsMaterialized() {
		return copy(buf, v.repr[start:])
	}

	end := start + len(buf)
	if end > size {
		end = size
	}
	slice := array.NewChunkedSlice(v.source, int64(start), int64(end))
	defer slice.Release()

	out := buf
	for _, chunk := range slice.Chunks() {
		n := copy(out, v.values(chunk))
		overlayNulls(out[:n], chunk, v.sentinel)
		out = out[n:]
	}

	ncopy := end - start
	metrics.RegionCopies.WithLabelValues(v.kind.String()).Inc()
	metrics.RegionElements.WithLabelValues(v.kind.String()).Add(float64(ncopy))
	return ncopy
}

// TryValues returns a read-only view of the values without copying, or nil
// when that is impossible. The view is the cache when materialized;
// otherwise it aliases the single chunk's buffer, which requires exactly
// one chunk and zero nulls, and stays valid only while the source does.
func (v *PrimitiveVector[T]) TryValues() []T {
	if v.IsMaterialized() {
		return v.repr
	}
	if len(v.source.Chunks()) == 1 && v.source.NullN() == 0 {
		metrics.ZeroCopyHits.WithLabelValues(v.kind.String()).Inc()
		return v.values(v.source.Chunks()[0])
	}
	return nil
}

// Values returns the vector's values as a contiguous slice, materializing
// if the zero-copy path is unavailable. When writable is true the caller
// receives a fresh copy it may mutate freely; read-only callers may get a
// slice aliasing the cache or a chunk buffer and must not write through it.
func (v *PrimitiveVector[T]) Values(writable bool) []T {
	if writable {
		return v.Duplicate()
	}
	if vals := v.TryValues(); vals != nil {
		return vals
	}
	return v.Materialize()
}

// Materialize builds the contiguous sentinel-annotated representation on
// first call and returns the cached slice afterwards. Idempotent: repeated
// calls return the identical slice without recomputation.
func (v *PrimitiveVector[T]) Materialize() []T {
	_ = v.materializeOnce(func() error {
		buf := make([]T, v.source.Len())
		v.CopyRegion(0, buf)
		v.repr = buf
		metrics.Materializations.WithLabelValues(v.kind.String()).Inc()
		metrics.MaterializedElements.Observe(float64(len(buf)))
		return nil
	})
	return v.repr
}

// Duplicate forces materialization and returns an independent deep copy.
func (v *PrimitiveVector[T]) Duplicate() []T {
	src := v.Materialize()
	out := make([]T, len(src))
	copy(out, src)
	return out
}

// State forces materialization and returns the cached representation for
// serialization. The returned slice is the cache itself.
func (v *PrimitiveVector[T]) State() []T {
	return v.Materialize()
}

// CoerceFloat64 materializes and converts to float64, mapping null
// sentinels to NaN.
func (v *PrimitiveVector[T]) CoerceFloat64() []float64 {
	src := v.Materialize()
	out := make([]float64, len(src))
	for i, x := range src {
		if v.isNull(x) {
			out[i] = NullFloat64
		} else {
			out[i] = float64(x)
		}
	}
	return out
}

// CoerceInt32 materializes and converts to int32, mapping null sentinels
// and unrepresentable values to NullInt32.
func (v *PrimitiveVector[T]) CoerceInt32() []int32 {
	src := v.Materialize()
	out := make([]int32, len(src))
	for i, x := range src {
		f := float64(x)
		if v.isNull(x) || f > 2147483647 || f < -2147483648 {
			out[i] = NullInt32
		} else {
			out[i] = int32(x)
		}
	}
	return out
}
