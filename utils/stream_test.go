package utils

import (
	"errors"
	"testing"
)

var varUintTests = []struct {
	in  []byte
	out uint32
}{
	{[]byte{0x00}, 0},
	{[]byte{0x01}, 1},
	{[]byte{0x7f}, 127},
	{[]byte{0x80, 0x01}, 128},
	{[]byte{0xff, 0x7f}, 16383},
	{[]byte{0x80, 0x80, 0x01}, 1 << 14},
	{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xffffffff},
}

func TestVarUint(t *testing.T) {
	for _, test := range varUintTests {
		s := NewStream(test.in)
		v, err := s.ReadVarUint()
		if err != nil {
			t.Fatalf("ReadVarUint(% x): %v", test.in, err)
		}
		if v != test.out {
			t.Errorf("ReadVarUint(% x)=%v; expected %v", test.in, v, test.out)
		}
		if s.Remaining() != 0 {
			t.Errorf("ReadVarUint(% x) left %v bytes", test.in, s.Remaining())
		}
	}
}

var varIntTests = []struct {
	in  []byte
	out int32
}{
	{[]byte{0x00}, 0},
	{[]byte{0x01}, -1},
	{[]byte{0x02}, 1},
	{[]byte{0x03}, -2},
	{[]byte{0x04}, 2},
	{[]byte{0xfe, 0x01}, 127},
	{[]byte{0xff, 0x01}, -128},
}

func TestVarIntZigZag(t *testing.T) {
	for _, test := range varIntTests {
		v, err := NewStream(test.in).ReadVarInt()
		if err != nil {
			t.Fatalf("ReadVarInt(% x): %v", test.in, err)
		}
		if v != test.out {
			t.Errorf("ReadVarInt(% x)=%v; expected %v", test.in, v, test.out)
		}
	}
}

func TestStrings(t *testing.T) {
	// absent, empty, "ab"
	s := NewStream([]byte{0x00, 0x01, 0x03, 'a', 'b'})
	if p, err := s.ReadString(); err != nil || p != nil {
		t.Errorf("absent string: %v %v", p, err)
	}
	if p, err := s.ReadString(); err != nil || p == nil || *p != "" {
		t.Errorf("empty string: %v %v", p, err)
	}
	if p, err := s.ReadString(); err != nil || p == nil || *p != "ab" {
		t.Errorf("value string: %v %v", p, err)
	}
}

func TestShortReads(t *testing.T) {
	s := NewStream([]byte{0x01, 0x02})
	if _, err := s.ReadU32(); !errors.Is(err, ErrUnexpectedEOS) {
		t.Errorf("short u32 error = %v", err)
	}
	if _, err := NewStream([]byte{0x05, 'a'}).ReadString(); !errors.Is(err, ErrUnexpectedEOS) {
		t.Errorf("short string did not report truncation")
	}
}

func TestF32Sanitized(t *testing.T) {
	nan := make([]byte, 4)
	nan[0], nan[1] = 0x7f, 0xc0 // quiet NaN
	if v, err := NewStream(nan).ReadF32(); err != nil || v != 0 {
		t.Errorf("NaN not flushed: %v %v", v, err)
	}
	inf := []byte{0x7f, 0x80, 0x00, 0x00}
	if v, err := NewStream(inf).ReadF32(); err != nil || v != 0 {
		t.Errorf("Inf not flushed: %v %v", v, err)
	}
	one := []byte{0x3f, 0x80, 0x00, 0x00}
	if v, _ := NewStream(one).ReadF32(); v != 1 {
		t.Errorf("1.0 = %v", v)
	}
}

func TestHexCasing(t *testing.T) {
	c := RGBA8(0xAABBCCDD)
	if c.HexUpper() != "AABBCCDD" || c.HexLower() != "aabbccdd" {
		t.Errorf("rgba hex: %v %v", c.HexUpper(), c.HexLower())
	}
	if c.RGBHexUpper() != "AABBCC" || c.RGBHexLower() != "aabbcc" {
		t.Errorf("rgb hex: %v %v", c.RGBHexUpper(), c.RGBHexLower())
	}
}

func TestParseHex(t *testing.T) {
	for _, hex := range []string{"AABBCCDD", "aabbccdd"} {
		c, ok := ParseHex(hex)
		if !ok || c != RGBA8(0xAABBCCDD) {
			t.Errorf("ParseHex(%q) = %08x, %v", hex, uint32(c), ok)
		}
	}
	for _, hex := range []string{"", "AABBCC", "zzzzzzzz"} {
		if _, ok := ParseHex(hex); ok {
			t.Errorf("ParseHex(%q) accepted", hex)
		}
	}
}

func TestOptFloat(t *testing.T) {
	if v := OptFloat(1.005, 1, TolTransform); v != nil {
		t.Errorf("value within tolerance kept: %v", *v)
	}
	if v := OptFloat(1.05, 1, TolTransform); v == nil || *v != 1.05 {
		t.Error("value outside tolerance pruned")
	}
}
