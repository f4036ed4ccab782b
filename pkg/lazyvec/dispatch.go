package lazyvec

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/vectral/lazyvec/pkg/config"
	"github.com/vectral/lazyvec/pkg/metrics"
	"github.com/vectral/lazyvec/pkg/vecerrors"
)

// New wraps a chunked array in the lazy vector variant matching its
// element type. Unsupported element types, empty arrays, and disabled
// lazy wrapping all produce an unsupported error: that is a policy
// decline, not a failure; the caller is expected to materialize through
// its eager conversion path instead. Use vecerrors.IsUnsupported to tell
// declines apart from real errors.
func New(chunked *arrow.Chunked, cfg *config.Config) (Vector, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if !cfg.UseLazy {
		return nil, declined(chunked, "lazy wrapping disabled")
	}
	if chunked.Len() == 0 {
		return nil, declined(chunked, "empty chunked array")
	}

	switch chunked.DataType().ID() {
	case arrow.FLOAT64:
		return NewFloat64(chunked)
	case arrow.INT32:
		return NewInt32(chunked)
	case arrow.STRING:
		return NewString(chunked, cfg)
	case arrow.LARGE_STRING:
		return NewLargeString(chunked, cfg)
	case arrow.DICTIONARY:
		return NewFactor(chunked)
	default:
		return nil, declined(chunked, "unsupported element type")
	}
}

func declined(chunked *arrow.Chunked, reason string) error {
	metrics.DispatchDeclined.WithLabelValues(chunked.DataType().String()).Inc()
	return vecerrors.New(vecerrors.ErrorTypeUnsupported, reason).
		WithDetail("type", chunked.DataType().String())
}
