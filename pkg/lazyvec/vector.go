package lazyvec

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
)

// Null sentinels used in materialized representations.
var (
	// NullFloat64 marks a null float64 element.
	NullFloat64 = math.NaN()
)

// NullInt32 marks a null int32 element or factor code.
const NullInt32 int32 = math.MinInt32

// Kind identifies the concrete lazy vector variant.
type Kind int

const (
	// KindFloat64 is the primitive double variant.
	KindFloat64 Kind = iota
	// KindInt32 is the primitive 32-bit integer variant.
	KindInt32
	// KindFactor is the dictionary-encoded categorical variant.
	KindFactor
	// KindString is the variable-length string variant.
	KindString
	// KindLargeString is the 64-bit-offset string variant.
	KindLargeString
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindFloat64:
		return "float64"
	case KindInt32:
		return "int32"
	case KindFactor:
		return "factor"
	case KindString:
		return "string"
	case KindLargeString:
		return "large_string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Vector is the capability surface shared by every lazy vector variant.
// Variant-specific operations (element access, region copies, aggregates)
// live on the concrete types.
type Vector interface {
	// Kind reports the concrete variant.
	Kind() Kind
	// Len returns the logical element count. Never materializes.
	Len() int
	// NullCount returns the number of null elements. Never materializes.
	NullCount() int
	// HasNoNulls reports whether the source holds no nulls.
	HasNoNulls() bool
	// KnownSorted reports whether sortedness is known. It never is.
	KnownSorted() bool
	// IsMaterialized reports whether the contiguous cache is populated.
	IsMaterialized() bool
	// Inspect returns a diagnostic description of the source without
	// materializing.
	Inspect() string
	// DataType returns the source element type.
	DataType() arrow.DataType
	// Unwrap returns the wrapped chunked array, letting hosts round-trip
	// the original columnar value without any conversion.
	Unwrap() *arrow.Chunked
	// Retain increases the vector's reference count.
	Retain()
	// Release decreases the reference count; at zero the source chunked
	// array is released.
	Release()
}

// vectorBase carries the state shared by all variants: the retained source
// and the single-assignment materialization flag. The flag flips exactly
// once; the cached representation a variant stores alongside it is never
// cleared or rebuilt.
type vectorBase struct {
	refCount int64
	source   *arrow.Chunked

	mu  sync.Mutex  // serializes the one materialization
	mat atomic.Bool // set only after the cache is fully built
}

func (b *vectorBase) init(source *arrow.Chunked) {
	source.Retain()
	b.refCount = 1
	b.source = source
}

// Len returns the total element count across chunks.
func (b *vectorBase) Len() int { return b.source.Len() }

// NullCount returns the total null count across chunks.
func (b *vectorBase) NullCount() int { return b.source.NullN() }

// HasNoNulls reports whether no element is null.
func (b *vectorBase) HasNoNulls() bool { return b.source.NullN() == 0 }

// KnownSorted always reports false: sortedness of the wrapped chunks is
// never tracked.
func (b *vectorBase) KnownSorted() bool { return false }

// IsMaterialized reports whether the contiguous cache has been built.
func (b *vectorBase) IsMaterialized() bool { return b.mat.Load() }

// DataType returns the source element type.
func (b *vectorBase) DataType() arrow.DataType { return b.source.DataType() }

// Unwrap returns the wrapped chunked array.
func (b *vectorBase) Unwrap() *arrow.Chunked { return b.source }

// Inspect describes the source without forcing materialization.
func (b *vectorBase) Inspect() string {
	return fmt.Sprintf("arrow.Chunked<%s, %d chunks, %d nulls> len=%d",
		b.source.DataType(), len(b.source.Chunks()), b.source.NullN(), b.source.Len())
}

// Retain increases the reference count.
func (b *vectorBase) Retain() { atomic.AddInt64(&b.refCount, 1) }

// Release decreases the reference count and drops the source at zero.
func (b *vectorBase) Release() {
	if atomic.AddInt64(&b.refCount, -1) == 0 {
		if b.source != nil {
			b.source.Release()
			b.source = nil
		}
	}
}

// materializeOnce runs build under the materialization lock unless the
// cache is already populated. The flag is published only after build
// succeeds in full, so a failed build leaves the vector unmaterialized and
// a later call retries from scratch.
func (b *vectorBase) materializeOnce(build func() error) error {
	if b.mat.Load() {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mat.Load() {
		return nil
	}
	if err := build(); err != nil {
		return err
	}
	b.mat.Store(true)
	return nil
}
