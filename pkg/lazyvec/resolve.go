package lazyvec

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// arrayResolve locates the chunk owning a global element index.
type arrayResolve struct {
	chunk arrow.Array
	index int // chunk-local index
	pos   int // chunk ordinal within the chunked array
}

// resolve walks the chunks in order, subtracting each chunk's length until
// the index falls inside the current chunk. Linear in the chunk count,
// which stays small relative to element counts; the materialized fast path
// never comes through here. The caller guarantees 0 <= i < length.
func resolve(chunked *arrow.Chunked, i int) arrayResolve {
	for pos, chunk := range chunked.Chunks() {
		n := chunk.Len()
		if i < n {
			return arrayResolve{chunk: chunk, index: i, pos: pos}
		}
		i -= n
	}
	return arrayResolve{}
}
