package utils

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrUnexpectedEOS is the cause of every short read. Callers classify
// truncation with errors.Is against this value.
var ErrUnexpectedEOS = errors.New("unexpected end of stream")

// Stream is a forward-only big-endian cursor over one in-memory buffer.
// All reads consume; there is no seek.
type Stream struct {
	buf []byte
	pos int
}

func NewStream(b []byte) *Stream {
	return &Stream{buf: b}
}

func (s *Stream) Pos() int {
	return s.pos
}

func (s *Stream) Remaining() int {
	return len(s.buf) - s.pos
}

func (s *Stream) ReadBytes(n int) ([]byte, error) {
	if n < 0 || s.Remaining() < n {
		return nil, errors.Wrapf(ErrUnexpectedEOS, "Need %v bytes at 0x%x, have %v", n, s.pos, s.Remaining())
	}
	b := s.buf[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

func (s *Stream) ReadU8() (uint8, error) {
	b, err := s.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *Stream) ReadI8() (int8, error) {
	v, err := s.ReadU8()
	return int8(v), err
}

// ReadBool treats any nonzero byte as true.
func (s *Stream) ReadBool() (bool, error) {
	v, err := s.ReadU8()
	return v != 0, err
}

func (s *Stream) ReadU16() (uint16, error) {
	b, err := s.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (s *Stream) ReadU32() (uint32, error) {
	b, err := s.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (s *Stream) ReadU64() (uint64, error) {
	b, err := s.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadF32 reinterprets 4 big-endian bytes as IEEE-754. Non-finite values are
// flushed to zero so that nothing downstream ever has to render NaN/Infinity.
func (s *Stream) ReadF32() (float32, error) {
	v, err := s.ReadU32()
	if err != nil {
		return 0, err
	}
	f := math.Float32frombits(v)
	if f != f || math.IsInf(float64(f), 0) {
		return 0, nil
	}
	return f, nil
}

func (s *Stream) ReadVec2() (mgl32.Vec2, error) {
	x, err := s.ReadF32()
	if err != nil {
		return mgl32.Vec2{}, err
	}
	y, err := s.ReadF32()
	if err != nil {
		return mgl32.Vec2{}, err
	}
	return mgl32.Vec2{x, y}, nil
}

// readVarint accumulates up to 5 bytes of 7 bits each, low bits first,
// continuation in the high bit.
func (s *Stream) readVarint() (uint32, error) {
	var v uint32
	for i := 0; i < 5; i++ {
		b, err := s.ReadU8()
		if err != nil {
			return 0, err
		}
		v |= uint32(b&0x7f) << uint(i*7)
		if b&0x80 == 0 {
			break
		}
	}
	return v, nil
}

// ReadVarUint reads a variable-length integer without zig-zag decoding.
// Counts and indices use this mode.
func (s *Stream) ReadVarUint() (uint32, error) {
	return s.readVarint()
}

// ReadVarInt reads a variable-length integer and applies zig-zag decoding.
func (s *Stream) ReadVarInt() (int32, error) {
	v, err := s.readVarint()
	if err != nil {
		return 0, err
	}
	return int32(v>>1) ^ -int32(v&1), nil
}

// ReadString reads a varint byte count L, then L-1 bytes of UTF-8.
// L == 0 means the string is absent, reported as nil to keep it distinct
// from an empty string (L == 1).
func (s *Stream) ReadString() (*string, error) {
	n, err := s.ReadVarUint()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b, err := s.ReadBytes(int(n - 1))
	if err != nil {
		return nil, err
	}
	str := string(b)
	return &str, nil
}

// Str collapses an absent string to "".
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
