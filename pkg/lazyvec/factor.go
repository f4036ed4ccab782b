package lazyvec

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vectral/lazyvec/pkg/metrics"
	"github.com/vectral/lazyvec/pkg/vecerrors"
)

// FactorVector wraps a dictionary-encoded string chunked array and exposes
// it as 1-based integer codes into a single level set. Chunks are allowed
// to carry divergent dictionaries; in that case every chunk's local
// indices are remapped through a transpose table built once at
// construction.
type FactorVector struct {
	vectorBase
	levels    []string  // unified level set, or chunk 0's dictionary
	transpose [][]int32 // per-chunk local index -> unified index; nil without unification
	unified   bool
	ordered   bool
	repr      []int32
}

// NewFactor wraps a dictionary-encoded chunked array whose dictionary
// values are strings. Other dictionary value types are declined.
//
// When the per-chunk dictionaries differ, they are merged into one unified
// dictionary and a transpose table is kept per chunk. This runs exactly
// once, here, never lazily.
func NewFactor(chunked *arrow.Chunked) (*FactorVector, error) {
	dt, ok := chunked.DataType().(*arrow.DictionaryType)
	if !ok {
		return nil, vecerrors.New(vecerrors.ErrorTypeUnsupported, "not a dictionary chunked array").
			WithDetail("type", chunked.DataType().String())
	}
	if dt.ValueType.ID() != arrow.STRING {
		return nil, vecerrors.New(vecerrors.ErrorTypeUnsupported, "only string dictionaries are wrapped").
			WithDetail("value_type", dt.ValueType.String())
	}

	chunks := chunked.Chunks()
	v := &FactorVector{ordered: dt.Ordered}

	if dictionariesDiffer(chunks) {
		levels, transpose, err := unifyDictionaries(dt, chunks)
		if err != nil {
			return nil, err
		}
		v.levels = levels
		v.transpose = transpose
		v.unified = true
	} else {
		v.levels = decodeLevels(chunks[0].(*array.Dictionary).Dictionary())
	}

	v.init(chunked)
	metrics.VectorsCreated.WithLabelValues(v.Kind().String()).Inc()
	return v, nil
}

// dictionariesDiffer reports whether any chunk's dictionary deviates from
// chunk 0's.
func dictionariesDiffer(chunks []arrow.Array) bool {
	first := chunks[0].(*array.Dictionary).Dictionary()
	for _, chunk := range chunks[1:] {
		if !array.Equal(first, chunk.(*array.Dictionary).Dictionary()) {
			return true
		}
	}
	return false
}

// unifyDictionaries merges every chunk's dictionary into one label set and
// returns it along with the per-chunk transpose tables.
func unifyDictionaries(dt *arrow.DictionaryType, chunks []arrow.Array) ([]string, [][]int32, error) {
	unifier, err := array.NewDictionaryUnifier(memory.DefaultAllocator, dt.ValueType)
	if err != nil {
		return nil, nil, vecerrors.Wrap(err, vecerrors.ErrorTypeData, "creating dictionary unifier")
	}
	defer unifier.Release()

	transpose := make([][]int32, len(chunks))
	for i, chunk := range chunks {
		dict := chunk.(*array.Dictionary).Dictionary()
		buf, err := unifier.UnifyAndTranspose(dict)
		if err != nil {
			return nil, nil, vecerrors.Wrap(err, vecerrors.ErrorTypeData, "unifying chunk dictionary").
				WithDetail("chunk", i)
		}
		mapping := arrow.Int32Traits.CastFromBytes(buf.Bytes())[:dict.Len()]
		transpose[i] = append([]int32(nil), mapping...)
		buf.Release()
	}

	_, unified, err := unifier.GetResult()
	if err != nil {
		return nil, nil, vecerrors.Wrap(err, vecerrors.ErrorTypeData, "finishing dictionary unification")
	}
	defer unified.Release()

	return decodeLevels(unified), transpose, nil
}

// decodeLevels converts a string dictionary array into the exposed label
// set.
func decodeLevels(dict arrow.Array) []string {
	sa := dict.(*array.String)
	levels := make([]string, sa.Len())
	for i := range levels {
		levels[i] = sa.Value(i)
	}
	return levels
}

// dictIndexAt reads the chunk-local dictionary index at position j,
// whatever integer width the chunk stores its indices in.
func dictIndexAt(indices arrow.Array, j int) int32 {
	switch a := indices.(type) {
	case *array.Uint8:
		return int32(a.Value(j))
	case *array.Int8:
		return int32(a.Value(j))
	case *array.Uint16:
		return int32(a.Value(j))
	case *array.Int16:
		return int32(a.Value(j))
	case *array.Int32:
		return a.Value(j)
	case *array.Uint32:
		return int32(a.Value(j))
	case *array.Int64:
		return int32(a.Value(j))
	case *array.Uint64:
		return int32(a.Value(j))
	default:
		return NullInt32
	}
}

// Kind reports the concrete variant.
func (v *FactorVector) Kind() Kind { return KindFactor }

// Levels returns the exposed category labels. The slice is shared with the
// vector and must not be modified.
func (v *FactorVector) Levels() []string { return v.levels }

// Ordered reports whether the source dictionary type is ordered.
func (v *FactorVector) Ordered() bool { return v.ordered }

// WasUnified reports whether chunk dictionaries diverged and were merged.
func (v *FactorVector) WasUnified() bool { return v.unified }

// Label resolves a 1-based code to its label. The second return is false
// for the null sentinel or an out-of-range code.
func (v *FactorVector) Label(code int32) (string, bool) {
	if code < 1 || int(code) > len(v.levels) {
		return "", false
	}
	return v.levels[code-1], true
}

// ElementAt returns the 1-based code at global index i, or NullInt32 when
// the position is null.
func (v *FactorVector) ElementAt(i int) int32 {
	if v.IsMaterialized() {
		return v.repr[i]
	}
	r := resolve(v.source, i)
	d := r.chunk.(*array.Dictionary)
	if d.IsNull(r.index) {
		return NullInt32
	}
	idx := dictIndexAt(d.Indices(), r.index)
	if v.unified {
		idx = v.transpose[r.pos][idx]
	}
	return idx + 1
}

// CopyRegion copies codes [start, start+len(buf)) into buf and returns the
// number copied. When unification is active, the chunk ordinal covering
// start is located first so the matching transpose table follows the scan
// across chunk boundaries.
func (v *FactorVector) CopyRegion(start int, buf []int32) int {
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

	// ordinal of the first source chunk present in the slice
	pos := 0
	if v.unified {
		k := 0
		for _, chunk := range v.source.Chunks() {
			n := chunk.Len()
			if k+n > start {
				break
			}
			k += n
			pos++
		}
	}

	out := buf
	for _, chunk := range slice.Chunks() {
		d := chunk.(*array.Dictionary)
		indices := d.Indices()
		var tr []int32
		if v.unified {
			tr = v.transpose[pos]
		}
		visitValidity(d, d.Len(),
			func(j int) {
				idx := dictIndexAt(indices, j)
				if tr != nil {
					idx = tr[idx]
				}
				out[j] = idx + 1
			},
			func(j int) { out[j] = NullInt32 },
		)
		out = out[d.Len():]
		pos++
	}

	ncopy := end - start
	metrics.RegionCopies.WithLabelValues(v.Kind().String()).Inc()
	metrics.RegionElements.WithLabelValues(v.Kind().String()).Add(float64(ncopy))
	return ncopy
}

// Materialize builds the contiguous code buffer on first call and returns
// the cached slice afterwards; the level set stays attached as metadata.
func (v *FactorVector) Materialize() []int32 {
	_ = v.materializeOnce(func() error {
		buf := make([]int32, v.source.Len())
		v.CopyRegion(0, buf)
		v.repr = buf
		metrics.Materializations.WithLabelValues(v.Kind().String()).Inc()
		metrics.MaterializedElements.Observe(float64(len(buf)))
		return nil
	})
	return v.repr
}

// Duplicate forces materialization and returns independent copies of the
// codes and the level labels.
func (v *FactorVector) Duplicate() (codes []int32, levels []string) {
	src := v.Materialize()
	codes = make([]int32, len(src))
	copy(codes, src)
	levels = make([]string, len(v.levels))
	copy(levels, v.levels)
	return codes, levels
}

// State forces materialization and returns the cached codes.
func (v *FactorVector) State() []int32 {
	return v.Materialize()
}

// Strings materializes and decodes every code to its label. Null positions
// are reported through the second slice.
func (v *FactorVector) Strings() (values []string, nulls []bool) {
	codes := v.Materialize()
	values = make([]string, len(codes))
	nulls = make([]bool, len(codes))
	for i, code := range codes {
		if s, ok := v.Label(code); ok {
			values[i] = s
		} else {
			nulls[i] = true
		}
	}
	return values, nulls
}

func errAggregateUnsupported(op string) error {
	return vecerrors.New(vecerrors.ErrorTypeCapability, "aggregate not supported for factor vectors").
		WithDetail("op", op)
}

// Sum is not meaningful for categorical data and always reports
// unsupported.
func (v *FactorVector) Sum(bool) (float64, error) { return 0, errAggregateUnsupported("sum") }

// Min is not meaningful for categorical data and always reports
// unsupported.
func (v *FactorVector) Min(bool) (float64, error) { return 0, errAggregateUnsupported("min") }

// Max is not meaningful for categorical data and always reports
// unsupported.
func (v *FactorVector) Max(bool) (float64, error) { return 0, errAggregateUnsupported("max") }
