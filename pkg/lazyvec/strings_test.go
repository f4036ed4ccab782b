package lazyvec

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vectral/lazyvec/pkg/config"
	"github.com/vectral/lazyvec/pkg/vecerrors"
)

// observedStripVector wraps chunked with stripping enabled and swaps in an
// observer logger so tests can count the emitted warnings.
func observedStripVector(t *testing.T, chunked *arrow.Chunked) (*StringVector, *observer.ObservedLogs) {
	t.Helper()
	cfg := config.Default()
	cfg.StripNuls = true
	v, err := NewString(chunked, cfg)
	require.NoError(t, err)
	core, logs := observer.New(zapcore.WarnLevel)
	v.log = zap.New(core)
	return v, logs
}

func TestStringElementAt(t *testing.T) {
	chunked := chunkedOf(
		buildString([]string{"hello", "", "world"}, []bool{true, false, true}),
		buildString([]string{"go"}, nil),
	)
	defer chunked.Release()

	v, err := NewString(chunked, nil)
	require.NoError(t, err)
	defer v.Release()

	s, null, err := v.ElementAt(0)
	require.NoError(t, err)
	require.False(t, null)
	require.Equal(t, "hello", s)

	_, null, err = v.ElementAt(1)
	require.NoError(t, err)
	require.True(t, null)

	s, null, err = v.ElementAt(3)
	require.NoError(t, err)
	require.False(t, null)
	require.Equal(t, "go", s)

	if v.IsMaterialized() {
		t.Error("single-element reads must not materialize")
	}
}

func TestStringMaterialize(t *testing.T) {
	chunked := chunkedOf(
		buildString([]string{"a", ""}, []bool{true, false}),
		buildString([]string{"c"}, nil),
	)
	defer chunked.Release()

	v, err := NewString(chunked, nil)
	require.NoError(t, err)
	defer v.Release()

	data, err := v.Materialize()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "", "c"}, data.Values)
	require.Equal(t, []bool{false, true, false}, data.Nulls)

	again, err := v.Materialize()
	require.NoError(t, err)
	if data != again {
		t.Error("repeated Materialize must return the identical cached data")
	}
}

func TestStringEmbeddedNulStrict(t *testing.T) {
	chunked := chunkedOf(buildString([]string{"ok", "bad\x00value"}, nil))
	defer chunked.Release()

	v, err := NewString(chunked, nil) // strict by default
	require.NoError(t, err)
	defer v.Release()

	_, _, err = v.ElementAt(1)
	require.Error(t, err)
	require.True(t, vecerrors.IsType(err, vecerrors.ErrorTypeData))
	require.Contains(t, err.Error(), `bad\0value`)
	require.Contains(t, err.Error(), "strip_nuls")

	// a failed materialization caches nothing and stays retriable
	_, err = v.Materialize()
	require.Error(t, err)
	if v.IsMaterialized() {
		t.Error("failed materialization must not set the materialized flag")
	}
	_, err = v.Materialize()
	require.Error(t, err, "retry must re-run the conversion, not serve a partial cache")
}

func TestStringEmbeddedNulStripped(t *testing.T) {
	chunked := chunkedOf(buildString([]string{"ok", "bad\x00val\x00ue"}, nil))
	defer chunked.Release()

	cfg := config.Default()
	cfg.StripNuls = true
	v, err := NewString(chunked, cfg)
	require.NoError(t, err)
	defer v.Release()

	require.False(t, v.NulWasStripped())

	data, err := v.Materialize()
	require.NoError(t, err)
	require.Equal(t, []string{"ok", "badvalue"}, data.Values)
	require.True(t, v.NulWasStripped())
}

func TestStringStripWarnsOncePerPass(t *testing.T) {
	// two nul-bearing values across two chunks: the materializing pass
	// strips both but warns exactly once
	chunked := chunkedOf(
		buildString([]string{"a\x00b", "clean"}, nil),
		buildString([]string{"c\x00d"}, nil),
	)
	defer chunked.Release()

	v, logs := observedStripVector(t, chunked)
	defer v.Release()

	data, err := v.Materialize()
	require.NoError(t, err)
	require.Equal(t, []string{"ab", "clean", "cd"}, data.Values)
	require.True(t, v.NulWasStripped())
	require.Equal(t, 1, logs.FilterMessage("stripping nul bytes from string vector").Len(),
		"one materializing pass must emit exactly one warning")
}

func TestStringElementAtStrips(t *testing.T) {
	chunked := chunkedOf(buildString([]string{"a\x00b", "clean"}, nil))
	defer chunked.Release()

	v, logs := observedStripVector(t, chunked)
	defer v.Release()

	s, null, err := v.ElementAt(0)
	require.NoError(t, err)
	require.False(t, null)
	require.Equal(t, "ab", s)
	require.True(t, v.NulWasStripped())
	require.Equal(t, 1, logs.Len(), "a stripping element read is one warning pass")

	// a clean read is not a stripping pass and stays silent
	s, _, err = v.ElementAt(1)
	require.NoError(t, err)
	require.Equal(t, "clean", s)
	require.Equal(t, 1, logs.Len())
	if v.IsMaterialized() {
		t.Error("single-element reads must not materialize")
	}
}

func TestStringSetElementAtImmutable(t *testing.T) {
	chunked := chunkedOf(buildString([]string{"a"}, nil))
	defer chunked.Release()

	v, err := NewString(chunked, nil)
	require.NoError(t, err)
	defer v.Release()

	err = v.SetElementAt(0, "b")
	require.True(t, vecerrors.IsImmutable(err))

	v.Materialize()
	err = v.SetElementAt(0, "b")
	require.True(t, vecerrors.IsImmutable(err), "materialization must not unlock mutation")
}

func TestStringDuplicateIndependence(t *testing.T) {
	chunked := chunkedOf(buildString([]string{"a", "b"}, nil))
	defer chunked.Release()

	v, err := NewString(chunked, nil)
	require.NoError(t, err)
	defer v.Release()

	dup, err := v.Duplicate()
	require.NoError(t, err)
	dup.Values[0] = "mutated"

	data, err := v.Materialize()
	require.NoError(t, err)
	require.Equal(t, "a", data.Values[0])
}

func TestLargeString(t *testing.T) {
	chunked := chunkedOf(buildLargeString([]string{"x", ""}, []bool{true, false}))
	defer chunked.Release()

	v, err := NewLargeString(chunked, nil)
	require.NoError(t, err)
	defer v.Release()

	require.Equal(t, KindLargeString, v.Kind())
	s, null, err := v.ElementAt(0)
	require.NoError(t, err)
	require.False(t, null)
	require.Equal(t, "x", s)
	_, null, err = v.ElementAt(1)
	require.NoError(t, err)
	require.True(t, null)
}

func TestStringTypeMismatch(t *testing.T) {
	chunked := chunkedOf(buildLargeString([]string{"x"}, nil))
	defer chunked.Release()

	if _, err := NewString(chunked, nil); err == nil {
		t.Fatal("expected large-string chunks to be rejected by NewString")
	}
}
