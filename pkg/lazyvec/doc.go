// Package lazyvec exposes Arrow chunked arrays as ordinary in-memory
// vectors without copying the underlying data until a consumer actually
// needs a contiguous representation.
//
// A lazy vector wraps a *arrow.Chunked and serves reads straight from the
// chunk buffers: element access resolves the owning chunk, region copies
// slice the chunked array, and numeric aggregates run directly over the
// chunks. Materialization, building one contiguous buffer with null
// sentinels, happens at most once, on first demand, and the result is
// cached for the lifetime of the vector.
//
// Four variants are supported, selected by New based on the element type:
//
//   - Float64Vector and Int32Vector for primitive numeric arrays
//   - FactorVector for dictionary-encoded string arrays, with one-time
//     dictionary unification when chunks disagree on their encodings
//   - StringVector for string and large-string arrays, with a
//     configurable embedded-nul policy
//
// Anything else is declined and the caller converts eagerly.
//
// Null sentinels follow the host vector convention: NaN for float64,
// math.MinInt32 for int32 and factor codes, and a validity slice for
// strings. Factor codes are 1-based indices into the level set.
//
// Vectors are reference counted like the Arrow values they wrap: the
// source chunked array is retained at construction and released with the
// vector. The wrapped chunks are never mutated.
package lazyvec
