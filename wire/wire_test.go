package wire

import (
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"badc0de.net/pkg/go-tibia-assets/ttesting"
)

func TestReadVarint(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 1<<32 - 1, 1<<63 + 5} {
		buf := protowire.AppendVarint([]byte{0xAA}, v)
		got, off, err := ReadVarint(buf, 1)
		if err != nil {
			t.Fatalf("ReadVarint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("got %d; want %d", got, v)
		}
		ttesting.AssertEqualInt(t, "offset after varint", off, len(buf))
	}
}

func TestReadVarintMalformed(t *testing.T) {
	t.Run("truncated", func(t *testing.T) {
		_, _, err := ReadVarint([]byte{0x80, 0x80}, 0)
		ttesting.AssertErrorIs(t, "error kind", err, ErrMalformedVarint)
	})
	t.Run("too long", func(t *testing.T) {
		buf := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
		_, _, err := ReadVarint(buf, 0)
		ttesting.AssertErrorIs(t, "error kind", err, ErrMalformedVarint)
	})
	t.Run("ten bytes", func(t *testing.T) {
		buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}
		v, off, err := ReadVarint(buf, 0)
		if err != nil {
			t.Fatalf("ReadVarint: %v", err)
		}
		if v != 1<<64-1 {
			t.Errorf("got %x; want all ones", v)
		}
		ttesting.AssertEqualInt(t, "offset", off, 10)
	})
}

func TestReadKey(t *testing.T) {
	buf := protowire.AppendTag(nil, 42, protowire.BytesType)
	num, typ, _, err := ReadKey(buf, 0)
	if err != nil {
		t.Fatalf("ReadKey: %v", err)
	}
	ttesting.AssertEqualInt(t, "field number", int(num), 42)
	ttesting.AssertEqualInt(t, "wire type", int(typ), int(protowire.BytesType))
}

func TestSkipValue(t *testing.T) {
	var buf []byte
	buf = protowire.AppendVarint(buf, 1<<40)
	buf = protowire.AppendFixed64(buf, 7)
	buf = protowire.AppendBytes(buf, []byte("hello"))
	buf = protowire.AppendFixed32(buf, 9)

	off := 0
	var err error
	for _, typ := range []protowire.Type{protowire.VarintType, protowire.Fixed64Type, protowire.BytesType, protowire.Fixed32Type} {
		off, err = SkipValue(buf, off, typ)
		if err != nil {
			t.Fatalf("SkipValue(%d): %v", typ, err)
		}
	}
	ttesting.AssertEqualInt(t, "all values skipped", off, len(buf))

	_, err = SkipValue(buf, 0, protowire.StartGroupType)
	ttesting.AssertErrorIs(t, "groups unsupported", err, ErrUnsupportedWireType)

	_, err = SkipValue([]byte{1, 2, 3}, 0, protowire.Fixed32Type)
	ttesting.AssertErrorIs(t, "short fixed32", err, ErrTruncated)

	_, err = SkipValue([]byte{5, 1}, 0, protowire.BytesType)
	ttesting.AssertErrorIs(t, "length past end", err, ErrLengthOverrun)
}

func TestReader(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 100)
	buf = protowire.AppendTag(buf, 2, protowire.BytesType)
	buf = protowire.AppendBytes(buf, []byte{9, 8, 7})
	buf = protowire.AppendTag(buf, 15, protowire.Fixed32Type)
	buf = protowire.AppendFixed32(buf, 0)

	r := NewReader(buf)
	var fields []protowire.Number
	for !r.Done() {
		num, typ, err := r.Key()
		if err != nil {
			t.Fatalf("Key: %v", err)
		}
		fields = append(fields, num)
		switch num {
		case 1:
			v, err := r.Varint()
			if err != nil {
				t.Fatalf("Varint: %v", err)
			}
			ttesting.AssertEqualInt(t, "field 1", int(v), 100)
		case 2:
			b, err := r.Bytes()
			if err != nil {
				t.Fatalf("Bytes: %v", err)
			}
			ttesting.AssertEqualBytes(t, "field 2", b, []byte{9, 8, 7})
		default:
			if err := r.Skip(typ); err != nil {
				t.Fatalf("Skip: %v", err)
			}
		}
	}
	ttesting.AssertEqualInt(t, "fields visited", len(fields), 3)
	ttesting.AssertEqualInt(t, "nothing left", r.Len(), 0)
}
