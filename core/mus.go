package core

import (
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written mus-format serializers for the types persisted to storage.
// Layout: varint integers, length-prefixed strings, unix-microsecond
// timestamps, float32 vector elements as raw bits.

type idSer struct{}

// IDMUS serializes ID values.
var IDMUS = idSer{}

func (idSer) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

type turnSer struct{}

// TurnMUS serializes a single conversation turn.
var TurnMUS = turnSer{}

func (turnSer) Marshal(t Turn, bs []byte) int {
	n := varint.Uint64.Marshal(uint64(t.Role), bs)
	n += ord.String.Marshal(t.Content, bs[n:])
	n += marshalTime(t.Timestamp, bs[n:])
	return n
}

func (turnSer) Unmarshal(bs []byte) (Turn, int, error) {
	var t Turn
	role, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return t, n, err
	}
	t.Role = Role(role)
	content, n1, err := ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return t, n, err
	}
	t.Content = content
	ts, n2, err := unmarshalTime(bs[n:])
	n += n2
	if err != nil {
		return t, n, err
	}
	t.Timestamp = ts
	return t, n, nil
}

func (turnSer) Size(t Turn) int {
	return varint.Uint64.Size(uint64(t.Role)) + ord.String.Size(t.Content) + sizeTime(t.Timestamp)
}

type turnsSer struct{}

// TurnsMUS serializes an ordered sequence of turns, the unit stored per thread.
var TurnsMUS = turnsSer{}

func (turnsSer) Marshal(turns []Turn, bs []byte) int {
	n := varint.Uint64.Marshal(uint64(len(turns)), bs)
	for _, t := range turns {
		n += TurnMUS.Marshal(t, bs[n:])
	}
	return n
}

func (turnsSer) Unmarshal(bs []byte) ([]Turn, int, error) {
	count, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	turns := make([]Turn, 0, count)
	for i := uint64(0); i < count; i++ {
		t, n1, err := TurnMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		turns = append(turns, t)
	}
	return turns, n, nil
}

func (turnsSer) Size(turns []Turn) int {
	size := varint.Uint64.Size(uint64(len(turns)))
	for _, t := range turns {
		size += TurnMUS.Size(t)
	}
	return size
}

type chunkMetaSer struct{}

// ChunkMetaMUS serializes chunk metadata.
var ChunkMetaMUS = chunkMetaSer{}

func (chunkMetaSer) Marshal(m ChunkMeta, bs []byte) int {
	n := ord.String.Marshal(m.Source, bs)
	n += ord.String.Marshal(m.Filename, bs[n:])
	n += varint.Uint64.Marshal(uint64(m.Type), bs[n:])
	n += ord.String.Marshal(string(m.LangHint), bs[n:])
	n += ord.String.Marshal(m.SectionPath, bs[n:])
	n += ord.String.Marshal(m.ContentHash, bs[n:])
	return n
}

func (chunkMetaSer) Unmarshal(bs []byte) (ChunkMeta, int, error) {
	var m ChunkMeta
	source, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return m, n, err
	}
	m.Source = source
	filename, n1, err := ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return m, n, err
	}
	m.Filename = filename
	fileType, n1, err := varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return m, n, err
	}
	m.Type = FileType(fileType)
	lang, n1, err := ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return m, n, err
	}
	m.LangHint = Language(lang)
	sectionPath, n1, err := ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return m, n, err
	}
	m.SectionPath = sectionPath
	contentHash, n1, err := ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return m, n, err
	}
	m.ContentHash = contentHash
	return m, n, nil
}

func (chunkMetaSer) Size(m ChunkMeta) int {
	return ord.String.Size(m.Source) +
		ord.String.Size(m.Filename) +
		varint.Uint64.Size(uint64(m.Type)) +
		ord.String.Size(string(m.LangHint)) +
		ord.String.Size(m.SectionPath) +
		ord.String.Size(m.ContentHash)
}

type indexRecordSer struct{}

// IndexRecordMUS serializes an index record, including its embedding vector.
var IndexRecordMUS = indexRecordSer{}

func (indexRecordSer) Marshal(r IndexRecord, bs []byte) int {
	n := IDMUS.Marshal(r.Id, bs)
	n += ord.String.Marshal(r.Content, bs[n:])
	n += ChunkMetaMUS.Marshal(r.Meta, bs[n:])
	n += varint.Uint64.Marshal(uint64(len(r.Vector)), bs[n:])
	for _, v := range r.Vector {
		n += varint.Uint32.Marshal(math.Float32bits(v), bs[n:])
	}
	n += marshalTime(r.InsertedAt, bs[n:])
	return n
}

func (indexRecordSer) Unmarshal(bs []byte) (IndexRecord, int, error) {
	var r IndexRecord
	id, n, err := IDMUS.Unmarshal(bs)
	if err != nil {
		return r, n, err
	}
	r.Id = id
	content, n1, err := ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return r, n, err
	}
	r.Content = content
	meta, n1, err := ChunkMetaMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return r, n, err
	}
	r.Meta = meta
	count, n1, err := varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return r, n, err
	}
	if count > 0 {
		r.Vector = make([]float32, 0, count)
		for i := uint64(0); i < count; i++ {
			bits, n2, err := varint.Uint32.Unmarshal(bs[n:])
			n += n2
			if err != nil {
				return r, n, err
			}
			r.Vector = append(r.Vector, math.Float32frombits(bits))
		}
	}
	inserted, n1, err := unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return r, n, err
	}
	r.InsertedAt = inserted
	return r, n, nil
}

func (indexRecordSer) Size(r IndexRecord) int {
	size := IDMUS.Size(r.Id) +
		ord.String.Size(r.Content) +
		ChunkMetaMUS.Size(r.Meta) +
		varint.Uint64.Size(uint64(len(r.Vector)))
	for _, v := range r.Vector {
		size += varint.Uint32.Size(math.Float32bits(v))
	}
	return size + sizeTime(r.InsertedAt)
}
