package npy

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Magic prefixes every .npy stream.
const Magic = "\x93NUMPY"

// Alignment is the boundary the header (preamble included) is padded to.
const Alignment = 64

var (
	// ErrBadMagic is returned when a stream does not start with Magic.
	ErrBadMagic = errors.New("npy: not a npy stream")
	// ErrMalformedHeader is returned when the header dictionary cannot be parsed.
	ErrMalformedHeader = errors.New("npy: malformed header")
	// ErrUnsupportedFormat is returned for valid but unsupported headers,
	// such as Fortran order or an unknown major version.
	ErrUnsupportedFormat = errors.New("npy: unsupported format")
)

// Header is the decoded .npy header.
type Header struct {
	Major        byte
	Minor        byte
	Descr        string
	FortranOrder bool
	Shape        []int
}

// NewHeader returns a version 1.0 C-order header.
func NewHeader(descr string, shape ...int) Header {
	return Header{Major: 1, Minor: 0, Descr: descr, Shape: append([]int(nil), shape...)}
}

// Count returns the number of elements described by Shape.
func (h Header) Count() int {
	n := 1
	for _, d := range h.Shape {
		n *= d
	}
	return n
}

// Dtype parses Descr.
func (h Header) Dtype() (Dtype, error) {
	return ParseDescr(h.Descr)
}

// String renders the header dictionary the way numpy does, for example
// {'descr': '<i8', 'fortran_order': False, 'shape': (5120, 5), }
func (h Header) String() string {
	var sb strings.Builder
	sb.WriteString("{'descr': '")
	sb.WriteString(h.Descr)
	sb.WriteString("', 'fortran_order': ")
	if h.FortranOrder {
		sb.WriteString("True")
	} else {
		sb.WriteString("False")
	}
	sb.WriteString(", 'shape': (")
	for i, d := range h.Shape {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(d))
	}
	if len(h.Shape) == 1 {
		sb.WriteByte(',')
	}
	sb.WriteString("), }")
	return sb.String()
}

// Encode returns the full header bytes: magic, version, length field and the
// dictionary padded with spaces and a final newline to a multiple of Alignment.
// Version 1.x stores a 16-bit length; larger dictionaries are written as 2.0.
func (h Header) Encode() []byte {
	dict := h.String()
	major, minor := h.Major, h.Minor
	if major == 0 {
		major = 1
	}
	lenSize := 2
	if major >= 2 || len(dict)+Alignment+12 > 0xffff {
		if major < 2 {
			major, minor = 2, 0
		}
		lenSize = 4
	}

	preamble := len(Magic) + 2 + lenSize
	pad := Alignment - (preamble+len(dict)+1)%Alignment
	hlen := len(dict) + pad + 1

	buf := make([]byte, 0, preamble+hlen)
	buf = append(buf, Magic...)
	buf = append(buf, major, minor)
	if lenSize == 2 {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(hlen))
	} else {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(hlen))
	}
	buf = append(buf, dict...)
	buf = append(buf, bytes.Repeat([]byte{' '}, pad)...)
	return append(buf, '\n')
}

// WriteHeader writes h.Encode() to w.
func WriteHeader(w io.Writer, h Header) (int, error) {
	return w.Write(h.Encode())
}

// ReadHeader reads and parses a header from r, returning the number of bytes
// consumed. The payload starts right after.
func ReadHeader(r io.Reader) (Header, int, error) {
	var pre [8]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return Header{}, 0, fmt.Errorf("%w: %w", ErrBadMagic, err)
	}
	if string(pre[:6]) != Magic {
		return Header{}, 0, ErrBadMagic
	}
	major, minor := pre[6], pre[7]

	var (
		hlen int
		n    = 8
	)
	switch major {
	case 1:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Header{}, n, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
		}
		hlen = int(binary.LittleEndian.Uint16(b[:]))
		n += 2
	case 2, 3:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Header{}, n, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
		}
		hlen = int(binary.LittleEndian.Uint32(b[:]))
		n += 4
	default:
		return Header{}, n, fmt.Errorf("%w: version %d.%d", ErrUnsupportedFormat, major, minor)
	}

	dict := make([]byte, hlen)
	if _, err := io.ReadFull(r, dict); err != nil {
		return Header{}, n, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	n += hlen

	h, err := ParseHeader(string(dict))
	if err != nil {
		return Header{}, n, err
	}
	h.Major, h.Minor = major, minor
	return h, n, nil
}

var headerLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "String", Pattern: `'[^']*'|"[^"]*"`},
	{Name: "Int", Pattern: `[0-9]+L?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[{}():,]`},
})

type headerDict struct {
	Entries []*headerEntry `parser:"\"{\" ( @@ ( \",\" @@ )* \",\"? )? \"}\""`
}

type headerEntry struct {
	Key   string       `parser:"@String \":\""`
	Value *headerValue `parser:"@@"`
}

type headerValue struct {
	Str   *string      `parser:"  @String"`
	Bool  *string      `parser:"| @( \"True\" | \"False\" )"`
	Tuple *headerTuple `parser:"| @@"`
}

type headerTuple struct {
	Dims []string `parser:"\"(\" ( @Int ( \",\" @Int )* \",\"? )? \")\""`
}

var headerParser = participle.MustBuild[headerDict](
	participle.Lexer(headerLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// ParseHeader parses a header dictionary such as
// {'descr': '<i8', 'fortran_order': False, 'shape': (5120, 5), }
// Surrounding whitespace and padding are ignored. Version fields are left zero.
func ParseHeader(dict string) (Header, error) {
	d, err := headerParser.ParseString("", strings.TrimSpace(dict))
	if err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}

	var (
		h                          Header
		hasDescr, hasOrder, hasDim bool
	)
	for _, e := range d.Entries {
		switch e.Key {
		case "descr":
			if e.Value.Str == nil {
				return Header{}, fmt.Errorf("%w: descr is not a string", ErrMalformedHeader)
			}
			h.Descr, hasDescr = *e.Value.Str, true
		case "fortran_order":
			if e.Value.Bool == nil {
				return Header{}, fmt.Errorf("%w: fortran_order is not a bool", ErrMalformedHeader)
			}
			h.FortranOrder, hasOrder = *e.Value.Bool == "True", true
		case "shape":
			if e.Value.Tuple == nil {
				return Header{}, fmt.Errorf("%w: shape is not a tuple", ErrMalformedHeader)
			}
			h.Shape = make([]int, 0, len(e.Value.Tuple.Dims))
			for _, s := range e.Value.Tuple.Dims {
				v, err := strconv.Atoi(strings.TrimSuffix(s, "L"))
				if err != nil {
					return Header{}, fmt.Errorf("%w: shape %q: %w", ErrMalformedHeader, s, err)
				}
				h.Shape = append(h.Shape, v)
			}
			hasDim = true
		}
	}

	switch {
	case !hasDescr:
		return Header{}, fmt.Errorf("%w: missing descr", ErrMalformedHeader)
	case !hasOrder:
		return Header{}, fmt.Errorf("%w: missing fortran_order", ErrMalformedHeader)
	case !hasDim:
		return Header{}, fmt.Errorf("%w: missing shape", ErrMalformedHeader)
	}
	return h, nil
}
