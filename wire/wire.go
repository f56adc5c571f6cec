// Package wire implements the small subset of the protocol buffers wire
// format needed to walk appearances.dat.
//
// Only varint and length-delimited values are ever interpreted; fixed-width
// values are skipped. Groups are not supported.
package wire

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrMalformedVarint     = errors.New("malformed varint")
	ErrUnsupportedWireType = errors.New("unsupported wire type")
	ErrTruncated           = errors.New("value extends past end of buffer")
	// ErrLengthOverrun is returned when a length prefix claims more bytes
	// than the enclosing buffer holds.
	ErrLengthOverrun = errors.New("declared length exceeds remaining bytes")
)

// maxVarintLen is the longest varint accepted (70 bits of payload).
const maxVarintLen = 10

// ReadVarint decodes a base-128 varint starting at off, returning the value
// and the offset just past it.
//
// Bits beyond the 64th are discarded.
func ReadVarint(buf []byte, off int) (uint64, int, error) {
	var v uint64
	for i := 0; i < maxVarintLen; i++ {
		if off >= len(buf) {
			return 0, off, errors.Wrapf(ErrMalformedVarint, "buffer ended after %d byte(s)", i)
		}
		b := buf[off]
		off++
		v |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return v, off, nil
		}
	}
	return 0, off, errors.Wrapf(ErrMalformedVarint, "longer than %d bytes", maxVarintLen)
}

// ReadKey decodes a field key: the field number and wire type.
func ReadKey(buf []byte, off int) (protowire.Number, protowire.Type, int, error) {
	v, off, err := ReadVarint(buf, off)
	if err != nil {
		return 0, 0, off, errors.Wrap(err, "reading key")
	}
	return protowire.Number(v >> 3), protowire.Type(v & 7), off, nil
}

// ReadBytes decodes a length-delimited value starting at off.
//
// The returned slice aliases buf.
func ReadBytes(buf []byte, off int) ([]byte, int, error) {
	n, off, err := ReadVarint(buf, off)
	if err != nil {
		return nil, off, errors.Wrap(err, "reading length")
	}
	if n > uint64(len(buf)-off) {
		return nil, off, errors.Wrapf(ErrLengthOverrun, "declared length %d, %d byte(s) remain", n, len(buf)-off)
	}
	end := off + int(n)
	return buf[off:end], end, nil
}

// SkipValue skips over a value of the given wire type.
func SkipValue(buf []byte, off int, typ protowire.Type) (int, error) {
	switch typ {
	case protowire.VarintType:
		_, off, err := ReadVarint(buf, off)
		return off, err
	case protowire.Fixed64Type:
		return skipFixed(buf, off, 8)
	case protowire.BytesType:
		_, off, err := ReadBytes(buf, off)
		return off, err
	case protowire.Fixed32Type:
		return skipFixed(buf, off, 4)
	default:
		return off, errors.Wrapf(ErrUnsupportedWireType, "wire type %d", typ)
	}
}

func skipFixed(buf []byte, off, n int) (int, error) {
	if len(buf)-off < n {
		return off, errors.Wrapf(ErrTruncated, "fixed%d value, %d byte(s) remain", n*8, len(buf)-off)
	}
	return off + n, nil
}

// Reader is a cursor over a message buffer.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Done reports whether the whole buffer has been consumed.
func (r *Reader) Done() bool { return r.off >= len(r.buf) }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.off }

func (r *Reader) Offset() int { return r.off }

func (r *Reader) Varint() (uint64, error) {
	v, off, err := ReadVarint(r.buf, r.off)
	if err != nil {
		return 0, errors.Wrapf(err, "at offset %d", r.off)
	}
	r.off = off
	return v, nil
}

func (r *Reader) Key() (protowire.Number, protowire.Type, error) {
	num, typ, off, err := ReadKey(r.buf, r.off)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "at offset %d", r.off)
	}
	r.off = off
	return num, typ, nil
}

func (r *Reader) Bytes() ([]byte, error) {
	b, off, err := ReadBytes(r.buf, r.off)
	if err != nil {
		return nil, errors.Wrapf(err, "at offset %d", r.off)
	}
	r.off = off
	return b, nil
}

func (r *Reader) Skip(typ protowire.Type) error {
	off, err := SkipValue(r.buf, r.off, typ)
	if err != nil {
		return errors.Wrapf(err, "skipping at offset %d", r.off)
	}
	r.off = off
	return nil
}
