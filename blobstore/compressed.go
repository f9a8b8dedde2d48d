package blobstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block codec of a Compressed store.
type Compression uint8

const (
	// CompressionNone stores blocks as they are.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD block compression (better ratio).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	}
	return 0, fmt.Errorf("blobstore: unknown compression %q", s)
}

// ErrCorrupt is returned when a compressed blob cannot be decoded.
var ErrCorrupt = errors.New("blobstore: corrupt compressed blob")

// DefaultBlockSize is the uncompressed size of each block.
const DefaultBlockSize = 1 << 20

const compressedMagic = "PCZ1"

// Block layout: [UncompressedSize uint32][CompressedSize uint32][Data...].
// CompressedSize 0 means the block is stored uncompressed.
const blockHeaderSize = 8

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compressed wraps a Store and compresses every blob in blocks.
// Blobs are decoded whole on Open.
type Compressed struct {
	inner     Store
	codec     Compression
	blockSize int
}

// NewCompressed returns a compressing wrapper around inner.
// blockSize defaults to DefaultBlockSize if <= 0.
func NewCompressed(inner Store, codec Compression, blockSize int) *Compressed {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Compressed{inner: inner, codec: codec, blockSize: blockSize}
}

// Open reads and decompresses a blob.
func (s *Compressed) Open(ctx context.Context, name string) (Blob, error) {
	raw, err := ReadAll(ctx, s.inner, name)
	if err != nil {
		return nil, err
	}
	data, err := Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, name)
	}
	return &memoryBlob{data: data}, nil
}

// Create buffers writes and stores the compressed blob on Close.
func (s *Compressed) Create(ctx context.Context, name string) (WritableBlob, error) {
	return &compressedWritableBlob{ctx: ctx, store: s, name: name}, nil
}

// Put compresses and writes a blob.
func (s *Compressed) Put(ctx context.Context, name string, data []byte) error {
	enc, err := Compress(data, s.codec, s.blockSize)
	if err != nil {
		return err
	}
	return s.inner.Put(ctx, name, enc)
}

// Delete removes a blob.
func (s *Compressed) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// List returns all blobs matching the prefix.
func (s *Compressed) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

type compressedWritableBlob struct {
	ctx   context.Context
	store *Compressed
	name  string
	buf   bytes.Buffer
}

func (w *compressedWritableBlob) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *compressedWritableBlob) Sync() error { return nil }

func (w *compressedWritableBlob) Close() error {
	return w.store.Put(w.ctx, w.name, w.buf.Bytes())
}

// Compress encodes data as a sequence of blocks of at most blockSize bytes.
// Blocks that do not shrink below 90% are stored uncompressed.
func Compress(data []byte, codec Compression, blockSize int) ([]byte, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	out := make([]byte, 0, len(compressedMagic)+1+len(data)/2)
	out = append(out, compressedMagic...)
	out = append(out, byte(codec))

	for off := 0; off < len(data); off += blockSize {
		block := data[off:min(off+blockSize, len(data))]
		packed, err := compressBlock(block, codec)
		if err != nil {
			return nil, err
		}
		var hdr [blockHeaderSize]byte
		binary.LittleEndian.PutUint32(hdr[0:], uint32(len(block)))
		if packed == nil || float64(len(packed)) > float64(len(block))*0.9 {
			out = append(out, hdr[:]...)
			out = append(out, block...)
			continue
		}
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(packed)))
		out = append(out, hdr[:]...)
		out = append(out, packed...)
	}
	return out, nil
}

// Decompress decodes the output of Compress.
func Decompress(b []byte) ([]byte, error) {
	if len(b) < len(compressedMagic)+1 || string(b[:len(compressedMagic)]) != compressedMagic {
		return nil, ErrCorrupt
	}
	codec := Compression(b[len(compressedMagic)])
	b = b[len(compressedMagic)+1:]

	var out []byte
	for len(b) > 0 {
		if len(b) < blockHeaderSize {
			return nil, ErrCorrupt
		}
		usize := int(binary.LittleEndian.Uint32(b[0:]))
		csize := int(binary.LittleEndian.Uint32(b[4:]))
		b = b[blockHeaderSize:]

		if csize == 0 {
			if len(b) < usize {
				return nil, ErrCorrupt
			}
			out = append(out, b[:usize]...)
			b = b[usize:]
			continue
		}
		if len(b) < csize {
			return nil, ErrCorrupt
		}
		block, err := decompressBlock(b[:csize], usize, codec)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
		b = b[csize:]
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// compressBlock returns nil when the codec stores blocks raw or the block is
// incompressible.
func compressBlock(data []byte, codec Compression) ([]byte, error) {
	switch codec {
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil
		}
		return dst[:n], nil
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), nil
	case CompressionNone:
		return nil, nil
	}
	return nil, fmt.Errorf("blobstore: unknown compression %d", codec)
}

func decompressBlock(data []byte, usize int, codec Compression) ([]byte, error) {
	switch codec {
	case CompressionLZ4:
		dst := make([]byte, usize)
		n, err := lz4.UncompressBlock(data, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if n != usize {
			return nil, ErrCorrupt
		}
		return dst, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		dst, err := dec.DecodeAll(data, make([]byte, 0, usize))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if len(dst) != usize {
			return nil, ErrCorrupt
		}
		return dst, nil
	}
	return nil, fmt.Errorf("%w: codec %s", ErrCorrupt, codec)
}

var _ Store = (*Compressed)(nil)
