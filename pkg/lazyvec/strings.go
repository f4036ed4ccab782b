package lazyvec

import (
	"strings"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"go.uber.org/zap"

	"github.com/vectral/lazyvec/pkg/config"
	"github.com/vectral/lazyvec/pkg/logger"
	"github.com/vectral/lazyvec/pkg/metrics"
	"github.com/vectral/lazyvec/pkg/vecerrors"
)

// StringData is the materialized representation of a string vector: the
// converted values and a validity slice marking null positions.
type StringData struct {
	Values []string
	Nulls  []bool
}

// Clone returns an independent deep copy.
func (d *StringData) Clone() *StringData {
	out := &StringData{
		Values: make([]string, len(d.Values)),
		Nulls:  make([]bool, len(d.Nulls)),
	}
	copy(out.Values, d.Values)
	copy(out.Nulls, d.Nulls)
	return out
}

// StringVector wraps a variable-length string chunked array. Elements are
// converted on demand; conversion checks every value for embedded nul
// bytes and either fails or strips them depending on configuration. String
// vectors never support in-place mutation.
type StringVector struct {
	vectorBase
	wide     bool // 64-bit offsets (large string)
	strip    bool
	log      *zap.Logger
	stripped atomic.Bool
	repr     *StringData
}

// NewString wraps a string chunked array.
func NewString(chunked *arrow.Chunked, cfg *config.Config) (*StringVector, error) {
	return newStringVector(chunked, cfg, arrow.STRING, false)
}

// NewLargeString wraps a large-string chunked array.
func NewLargeString(chunked *arrow.Chunked, cfg *config.Config) (*StringVector, error) {
	return newStringVector(chunked, cfg, arrow.LARGE_STRING, true)
}

func newStringVector(chunked *arrow.Chunked, cfg *config.Config, id arrow.Type, wide bool) (*StringVector, error) {
	if chunked.DataType().ID() != id {
		return nil, vecerrors.New(vecerrors.ErrorTypeUnsupported, "element type mismatch").
			WithDetail("type", chunked.DataType().String())
	}
	if cfg == nil {
		cfg = config.Default()
	}
	v := &StringVector{
		wide:  wide,
		strip: cfg.StripNuls,
		log:   logger.Get(),
	}
	v.init(chunked)
	metrics.VectorsCreated.WithLabelValues(v.Kind().String()).Inc()
	return v, nil
}

// Kind reports the concrete variant.
func (v *StringVector) Kind() Kind {
	if v.wide {
		return KindLargeString
	}
	return KindString
}

// NulWasStripped reports whether any value had embedded nul bytes removed
// during conversion.
func (v *StringVector) NulWasStripped() bool { return v.stripped.Load() }

// stringAt reads the raw string at chunk-local position j.
func stringAt(chunk arrow.Array, j int) string {
	switch a := chunk.(type) {
	case *array.String:
		return a.Value(j)
	case *array.LargeString:
		return a.Value(j)
	default:
		return ""
	}
}

// stringViewer converts raw chunk strings, applying the embedded-nul
// policy. One viewer covers one converting pass; stripped records whether
// that pass altered any value.
type stringViewer struct {
	strip    bool
	stripped bool
}

func (sv *stringViewer) convert(s string) (string, error) {
	if strings.IndexByte(s, 0) < 0 {
		return s, nil
	}
	if !sv.strip {
		return "", embeddedNulError(s)
	}
	sv.stripped = true
	metrics.NulsStripped.Inc()
	return strings.ReplaceAll(s, "\x00", ""), nil
}

// embeddedNulError builds the conversion failure for a string with an
// embedded nul, escaping the offending content for display and naming the
// option that would allow it through.
func embeddedNulError(s string) error {
	const maxShown = 80
	escaped := strings.ReplaceAll(s, "\x00", `\0`)
	if len(escaped) > maxShown {
		escaped = escaped[:maxShown] + "..."
	}
	return vecerrors.Newf(vecerrors.ErrorTypeData,
		"embedded nul in string: '%s'; set strip_nuls to strip nuls during conversion", escaped).
		WithDetail("option", "strip_nuls")
}

// warnStripped emits the consumer-visible warning for a pass that stripped
// at least one nul.
func (v *StringVector) warnStripped() {
	v.stripped.Store(true)
	v.log.Warn("stripping nul bytes from string vector",
		zap.String("kind", v.Kind().String()))
}

// ElementAt returns the value at global index i. Null positions report
// null=true. Unmaterialized vectors convert the single element on demand;
// a conversion failure leaves no cache state behind.
func (v *StringVector) ElementAt(i int) (value string, null bool, err error) {
	if v.IsMaterialized() {
		return v.repr.Values[i], v.repr.Nulls[i], nil
	}

	r := resolve(v.source, i)
	if r.chunk.IsNull(r.index) {
		return "", true, nil
	}

	sv := stringViewer{strip: v.strip}
	s, err := sv.convert(stringAt(r.chunk, r.index))
	if err != nil {
		return "", false, err
	}
	if sv.stripped {
		v.warnStripped()
	}
	return s, false, nil
}

// Materialize converts every element into the contiguous representation,
// chunk by chunk. Any failure aborts the whole pass without caching a
// partial result; a later call retries from scratch. Strip events are
// coalesced into one warning for the pass.
func (v *StringVector) Materialize() (*StringData, error) {
	err := v.materializeOnce(func() error {
		size := v.source.Len()
		data := &StringData{
			Values: make([]string, size),
			Nulls:  make([]bool, size),
		}

		sv := stringViewer{strip: v.strip}
		base := 0
		for _, chunk := range v.source.Chunks() {
			n := chunk.Len()
			for j := 0; j < n; j++ {
				if chunk.IsNull(j) {
					data.Nulls[base+j] = true
					continue
				}
				s, err := sv.convert(stringAt(chunk, j))
				if err != nil {
					return err
				}
				data.Values[base+j] = s
			}
			base += n
		}

		if sv.stripped {
			v.warnStripped()
		}
		v.repr = data
		metrics.Materializations.WithLabelValues(v.Kind().String()).Inc()
		metrics.MaterializedElements.Observe(float64(size))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v.repr, nil
}

// Duplicate forces materialization and returns an independent deep copy.
func (v *StringVector) Duplicate() (*StringData, error) {
	data, err := v.Materialize()
	if err != nil {
		return nil, err
	}
	return data.Clone(), nil
}

// State forces materialization and returns the cached representation.
func (v *StringVector) State() (*StringData, error) {
	return v.Materialize()
}

// SetElementAt always fails: string lazy vectors are immutable regardless
// of materialization state.
func (v *StringVector) SetElementAt(int, string) error {
	return vecerrors.New(vecerrors.ErrorTypeImmutable,
		"string lazy vectors are immutable").
		WithDetail("kind", v.Kind().String())
}
