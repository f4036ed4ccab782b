package lazyvec

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/vectral/lazyvec/pkg/config"
	"github.com/vectral/lazyvec/pkg/vecerrors"
)

func TestNewDispatchesByType(t *testing.T) {
	cases := []struct {
		name    string
		chunked func() *arrow.Chunked
		kind    Kind
	}{
		{"float64", func() *arrow.Chunked {
			return chunkedOf(buildFloat64([]float64{1}, nil))
		}, KindFloat64},
		{"int32", func() *arrow.Chunked {
			return chunkedOf(buildInt32([]int32{1}, nil))
		}, KindInt32},
		{"string", func() *arrow.Chunked {
			return chunkedOf(buildString([]string{"a"}, nil))
		}, KindString},
		{"large_string", func() *arrow.Chunked {
			return chunkedOf(buildLargeString([]string{"a"}, nil))
		}, KindLargeString},
		{"factor", func() *arrow.Chunked {
			return chunkedOf(buildDict([]string{"a"}, []int32{0}, nil))
		}, KindFactor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunked := tc.chunked()
			defer chunked.Release()

			vec, err := New(chunked, nil)
			require.NoError(t, err)
			defer vec.Release()
			require.Equal(t, tc.kind, vec.Kind())
			require.False(t, vec.IsMaterialized())
		})
	}
}

func TestNewDeclinesUnsupportedType(t *testing.T) {
	b := array.NewInt64Builder(memory.DefaultAllocator)
	b.AppendValues([]int64{1, 2}, nil)
	chunk := b.NewInt64Array()
	b.Release()
	chunked := chunkedOf(chunk)
	defer chunked.Release()

	_, err := New(chunked, nil)
	require.Error(t, err)
	require.True(t, vecerrors.IsUnsupported(err), "a decline must be an unsupported error")
}

func TestNewDeclinesEmpty(t *testing.T) {
	chunked := chunkedOf(buildFloat64(nil, nil))
	defer chunked.Release()

	_, err := New(chunked, nil)
	require.True(t, vecerrors.IsUnsupported(err))
}

func TestNewDeclinesWhenDisabled(t *testing.T) {
	chunked := chunkedOf(buildFloat64([]float64{1}, nil))
	defer chunked.Release()

	cfg := config.Default()
	cfg.UseLazy = false
	_, err := New(chunked, cfg)
	require.True(t, vecerrors.IsUnsupported(err))
}
