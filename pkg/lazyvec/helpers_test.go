package lazyvec

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Test fixtures. Each buildX returns a single chunk; chunkedOf assembles
// chunks into the chunked array a vector wraps. A nil valid slice means no
// nulls.

func buildFloat64(vals []float64, valid []bool) arrow.Array {
	b := array.NewFloat64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, valid)
	return b.NewFloat64Array()
}

func buildInt32(vals []int32, valid []bool) arrow.Array {
	b := array.NewInt32Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, valid)
	return b.NewInt32Array()
}

func buildString(vals []string, valid []bool) arrow.Array {
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, valid)
	return b.NewStringArray()
}

func buildLargeString(vals []string, valid []bool) arrow.Array {
	b := array.NewLargeStringBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, valid)
	return b.NewLargeStringArray()
}

// buildDict builds one dictionary chunk: labels are the chunk-local
// dictionary, indices point into it, valid marks nulls.
func buildDict(labels []string, indices []int32, valid []bool) arrow.Array {
	mem := memory.DefaultAllocator

	ib := array.NewInt32Builder(mem)
	defer ib.Release()
	ib.AppendValues(indices, valid)
	idx := ib.NewInt32Array()
	defer idx.Release()

	sb := array.NewStringBuilder(mem)
	defer sb.Release()
	sb.AppendValues(labels, nil)
	dict := sb.NewStringArray()
	defer dict.Release()

	dt := &arrow.DictionaryType{
		IndexType: arrow.PrimitiveTypes.Int32,
		ValueType: arrow.BinaryTypes.String,
	}
	return array.NewDictionaryArray(dt, idx, dict)
}

// buildDictInt8 is buildDict with 8-bit indices, for exercising narrow
// index widths.
func buildDictInt8(labels []string, indices []int8, valid []bool) arrow.Array {
	mem := memory.DefaultAllocator

	ib := array.NewInt8Builder(mem)
	defer ib.Release()
	ib.AppendValues(indices, valid)
	idx := ib.NewInt8Array()
	defer idx.Release()

	sb := array.NewStringBuilder(mem)
	defer sb.Release()
	sb.AppendValues(labels, nil)
	dict := sb.NewStringArray()
	defer dict.Release()

	dt := &arrow.DictionaryType{
		IndexType: arrow.PrimitiveTypes.Int8,
		ValueType: arrow.BinaryTypes.String,
	}
	return array.NewDictionaryArray(dt, idx, dict)
}

// chunkedOf assembles chunks into a chunked array and releases the chunk
// references it was handed.
func chunkedOf(chunks ...arrow.Array) *arrow.Chunked {
	chunked := arrow.NewChunked(chunks[0].DataType(), chunks)
	for _, c := range chunks {
		c.Release()
	}
	return chunked
}

func isNaN(x float64) bool { return math.IsNaN(x) }
