package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStoreLifecycle(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	data := []byte("hello world, this is a test blueprint blob")

	w, err := store.Create(ctx, "bp/probe-1.npy")
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	blob, err := store.Open(ctx, "bp/probe-1.npy")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))

	n, err = blob.ReadAt(ctx, buf, int64(len(data))-3)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, n)

	rc, err := blob.ReadRange(ctx, 13, 4)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "this", string(part))
	require.NoError(t, blob.Close())

	require.NoError(t, store.Put(ctx, "bp/probe-2.npy", []byte("second")))
	require.NoError(t, store.Put(ctx, "data.csv", []byte("third")))

	names, err := store.List(ctx, "bp/")
	require.NoError(t, err)
	assert.Equal(t, []string{"bp/probe-1.npy", "bp/probe-2.npy"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := ReadAll(ctx, store, "bp/probe-2.npy")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	require.NoError(t, store.Put(ctx, "bp/probe-2.npy", []byte("replaced")))
	got, err = ReadAll(ctx, store, "bp/probe-2.npy")
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(got))

	require.NoError(t, store.Delete(ctx, "bp/probe-2.npy"))
	require.NoError(t, store.Delete(ctx, "bp/probe-2.npy"))
	_, err = store.Open(ctx, "bp/probe-2.npy")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ReadAll(ctx, store, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	testStoreLifecycle(t, store)

	_, err := os.Stat(filepath.Join(dir, "bp", "probe-1.npy"))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "bp"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are renamed or removed")

	blob, err := store.Open(context.Background(), "bp/probe-1.npy")
	require.NoError(t, err)
	defer blob.Close()
	m, ok := blob.(Mappable)
	require.True(t, ok)
	b, err := m.Bytes()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("hello")))
}

func TestLocalStoreEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(filepath.Join(t.TempDir(), "absent"))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Put(ctx, "empty.npy", nil))
	got, err := ReadAll(ctx, store, "empty.npy")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocalStoreCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewLocalStore(t.TempDir())
	_, err := store.Open(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Put(ctx, "x", []byte("x")), context.Canceled)
}

func TestMemoryStore(t *testing.T) {
	testStoreLifecycle(t, NewMemoryStore())
}

func TestMemoryStoreCopiesInput(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'x'

	got, err := ReadAll(ctx, store, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestCompressedStore(t *testing.T) {
	for _, codec := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(codec.String(), func(t *testing.T) {
			inner := NewMemoryStore()
			testStoreLifecycle(t, NewCompressed(inner, codec, 16))

			raw, err := ReadAll(context.Background(), inner, "bp/probe-1.npy")
			require.NoError(t, err)
			assert.Equal(t, compressedMagic, string(raw[:4]))
			assert.Equal(t, byte(codec), raw[4])
		})
	}
}

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("0 0 1 1 2 2 0 0 "), 4096)

	for _, codec := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(codec.String(), func(t *testing.T) {
			enc, err := Compress(data, codec, 10000)
			require.NoError(t, err)
			if codec != CompressionNone {
				assert.Less(t, len(enc), len(data)/4)
			}

			dec, err := Decompress(enc)
			require.NoError(t, err)
			assert.Equal(t, data, dec)
		})
	}

	empty, err := Compress(nil, CompressionZSTD, 0)
	require.NoError(t, err)
	dec, err := Decompress(empty)
	require.NoError(t, err)
	assert.Empty(t, dec)
}

func TestDecompressCorrupt(t *testing.T) {
	_, err := Decompress([]byte("nope"))
	assert.ErrorIs(t, err, ErrCorrupt)

	enc, err := Compress(bytes.Repeat([]byte{7}, 1024), CompressionLZ4, 0)
	require.NoError(t, err)
	_, err = Decompress(enc[:len(enc)-2])
	assert.ErrorIs(t, err, ErrCorrupt)

	bad := append([]byte(nil), enc...)
	bad[4] = 9
	_, err = Decompress(bad)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestParseCompression(t *testing.T) {
	for s, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "lz4": CompressionLZ4, "zstd": CompressionZSTD} {
		got, err := ParseCompression(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("gzip")
	assert.Error(t, err)
}
