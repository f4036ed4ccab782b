package lazyvec

import (
	"bytes"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vectral/lazyvec/pkg/compression"
	"github.com/vectral/lazyvec/pkg/config"
	"github.com/vectral/lazyvec/pkg/pool"
	"github.com/vectral/lazyvec/pkg/vecerrors"
)

// Serialized vector state is the materialized representation, written as a
// one-column Arrow IPC file and optionally compressed. Reading state back
// produces a vector that is already materialized: the lazy path is skipped
// entirely.
//
// Frame layout: magic, version, codec name, then the (compressed) IPC
// payload.

const (
	stateMagic   = "LVST"
	stateVersion = byte(1)
)

// stateBuffers stages IPC payloads before compression so repeated dumps
// reuse their scratch space.
var stateBuffers = pool.NewBufferPool()

// WriteState forces materialization of v and writes its state to w using
// the named compression codec ("", "none", "zstd" or "s2").
func WriteState(w io.Writer, v Vector, codecName string) error {
	codec, err := compression.Get(codecName)
	if err != nil {
		return vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "resolving state codec")
	}

	rec, err := stateRecord(v)
	if err != nil {
		return err
	}
	defer rec.Release()

	scratch := stateBuffers.Get(v.Len() * 8)
	defer stateBuffers.Put(scratch)
	raw := bytes.NewBuffer((*scratch)[:0])

	fw, err := ipc.NewFileWriter(raw,
		ipc.WithSchema(rec.Schema()),
		ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "creating state writer")
	}
	if err := fw.Write(rec); err != nil {
		return vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "writing state record")
	}
	if err := fw.Close(); err != nil {
		return vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "closing state writer")
	}

	payload, err := codec.Compress(raw.Bytes())
	if err != nil {
		return vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "compressing state")
	}

	name := string(codec.Name())
	header := make([]byte, 0, len(stateMagic)+2+len(name))
	header = append(header, stateMagic...)
	header = append(header, stateVersion, byte(len(name)))
	header = append(header, name...)
	if _, err := w.Write(header); err != nil {
		return vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "writing state header")
	}
	if _, err := w.Write(payload); err != nil {
		return vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "writing state payload")
	}
	return nil
}

// ReadState reads vector state written by WriteState and returns a vector
// whose cache is pre-populated.
func ReadState(r io.Reader, cfg *config.Config) (Vector, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "reading state")
	}
	if len(data) < len(stateMagic)+2 || string(data[:len(stateMagic)]) != stateMagic {
		return nil, vecerrors.New(vecerrors.ErrorTypeSerialization, "not a vector state payload")
	}
	if data[len(stateMagic)] != stateVersion {
		return nil, vecerrors.Newf(vecerrors.ErrorTypeSerialization,
			"unsupported state version %d", data[len(stateMagic)])
	}
	nameLen := int(data[len(stateMagic)+1])
	rest := data[len(stateMagic)+2:]
	if len(rest) < nameLen {
		return nil, vecerrors.New(vecerrors.ErrorTypeSerialization, "truncated state header")
	}
	codec, err := compression.Get(string(rest[:nameLen]))
	if err != nil {
		return nil, vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "resolving state codec")
	}

	payload, err := codec.Decompress(rest[nameLen:])
	if err != nil {
		return nil, vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "decompressing state")
	}

	fr, err := ipc.NewFileReader(bytes.NewReader(payload),
		ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "opening state reader")
	}
	defer fr.Close()

	var chunks []arrow.Array
	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.Record(i)
		if err != nil {
			return nil, vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "reading state record")
		}
		col := rec.Column(0)
		col.Retain()
		chunks = append(chunks, col)
	}

	chunked := arrow.NewChunked(fr.Schema().Field(0).Type, chunks)
	for _, c := range chunks {
		c.Release()
	}
	defer chunked.Release()

	// A restored vector always wraps, regardless of the caller's lazy
	// toggle; the state was materialized when written.
	restoreCfg := config.Default()
	if cfg != nil {
		*restoreCfg = *cfg
	}
	restoreCfg.UseLazy = true

	vec, err := New(chunked, restoreCfg)
	if err != nil {
		return nil, vecerrors.Wrap(err, vecerrors.ErrorTypeSerialization, "restoring vector from state")
	}
	if err := forceMaterialize(vec); err != nil {
		vec.Release()
		return nil, err
	}
	return vec, nil
}

// forceMaterialize populates the cache of a freshly restored vector.
func forceMaterialize(v Vector) error {
	switch vec := v.(type) {
	case *Float64Vector:
		vec.Materialize()
	case *Int32Vector:
		vec.Materialize()
	case *FactorVector:
		vec.Materialize()
	case *StringVector:
		if _, err := vec.Materialize(); err != nil {
			return err
		}
	default:
		return vecerrors.Newf(vecerrors.ErrorTypeInternal, "unknown vector type %T", v)
	}
	return nil
}

// stateRecord builds the one-column record holding the vector's
// materialized representation.
func stateRecord(v Vector) (arrow.Record, error) {
	mem := memory.DefaultAllocator

	var col arrow.Array
	switch vec := v.(type) {
	case *Float64Vector:
		repr := vec.State()
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.AppendValues(repr, validity(repr, vec.isNull))
		col = b.NewFloat64Array()
	case *Int32Vector:
		repr := vec.State()
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.AppendValues(repr, validity(repr, vec.isNull))
		col = b.NewInt32Array()
	case *FactorVector:
		arr, err := factorStateArray(mem, vec)
		if err != nil {
			return nil, err
		}
		col = arr
	case *StringVector:
		data, err := vec.State()
		if err != nil {
			return nil, err
		}
		col = stringStateArray(mem, data, vec.wide)
	default:
		return nil, vecerrors.Newf(vecerrors.ErrorTypeInternal, "unknown vector type %T", v)
	}
	defer col.Release()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "values", Type: col.DataType(), Nullable: true},
	}, nil)
	return array.NewRecord(schema, []arrow.Array{col}, int64(col.Len())), nil
}

func validity[T element](repr []T, isNull func(T) bool) []bool {
	valid := make([]bool, len(repr))
	for i, x := range repr {
		valid[i] = !isNull(x)
	}
	return valid
}

// factorStateArray rebuilds a dictionary array from materialized codes and
// levels: 0-based indices with nulls at sentinel positions.
func factorStateArray(mem memory.Allocator, vec *FactorVector) (arrow.Array, error) {
	codes := vec.State()

	ib := array.NewInt32Builder(mem)
	defer ib.Release()
	for _, code := range codes {
		if code == NullInt32 {
			ib.AppendNull()
			continue
		}
		if code < 1 || int(code) > len(vec.levels) {
			return nil, vecerrors.Newf(vecerrors.ErrorTypeInternal,
				"factor code %d outside level range", code)
		}
		ib.Append(code - 1)
	}
	indices := ib.NewInt32Array()
	defer indices.Release()

	sb := array.NewStringBuilder(mem)
	defer sb.Release()
	sb.AppendValues(vec.levels, nil)
	dict := sb.NewStringArray()
	defer dict.Release()

	dt := &arrow.DictionaryType{
		IndexType: arrow.PrimitiveTypes.Int32,
		ValueType: arrow.BinaryTypes.String,
		Ordered:   vec.ordered,
	}
	return array.NewDictionaryArray(dt, indices, dict), nil
}

func stringStateArray(mem memory.Allocator, data *StringData, wide bool) arrow.Array {
	if wide {
		b := array.NewLargeStringBuilder(mem)
		defer b.Release()
		appendStringData(b, data)
		return b.NewLargeStringArray()
	}
	b := array.NewStringBuilder(mem)
	defer b.Release()
	appendStringData(b, data)
	return b.NewStringArray()
}

// stringAppender covers both string builder widths.
type stringAppender interface {
	Append(string)
	AppendNull()
}

func appendStringData(b stringAppender, data *StringData) {
	for i, s := range data.Values {
		if data.Nulls[i] {
			b.AppendNull()
			continue
		}
		b.Append(s)
	}
}
