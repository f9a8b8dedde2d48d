package npy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrKeyNotFound is returned when an archive has no entry for a key.
var ErrKeyNotFound = errors.New("npy: key not found")

const npySuffix = ".npy"

// NpzWriter writes arrays into a .npz archive.
type NpzWriter struct {
	zw     *zip.Writer
	method uint16
}

// NewNpzWriter returns a writer onto w. Compressed archives use deflate,
// matching numpy.savez_compressed.
func NewNpzWriter(w io.Writer, compressed bool) *NpzWriter {
	method := zip.Store
	if compressed {
		method = zip.Deflate
	}
	return &NpzWriter{zw: zip.NewWriter(w), method: method}
}

// Write stores a under key. The ".npy" suffix is added if missing.
func (w *NpzWriter) Write(key string, a *Array) error {
	if !strings.HasSuffix(key, npySuffix) {
		key += npySuffix
	}
	f, err := w.zw.CreateHeader(&zip.FileHeader{Name: key, Method: w.method})
	if err != nil {
		return fmt.Errorf("npy: npz entry %q: %w", key, err)
	}
	_, err = a.WriteTo(f)
	return err
}

// Close finishes the archive. It does not close the underlying writer.
func (w *NpzWriter) Close() error {
	return w.zw.Close()
}

// NpzReader reads arrays from a .npz archive.
type NpzReader struct {
	zr     *zip.Reader
	closer io.Closer
}

// NewNpzReader reads an archive of size bytes from r.
func NewNpzReader(r io.ReaderAt, size int64) (*NpzReader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("npy: open npz: %w", err)
	}
	return &NpzReader{zr: zr}, nil
}

// OpenNpz opens the archive at path.
func OpenNpz(path string) (*NpzReader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("npy: open npz: %w", err)
	}
	return &NpzReader{zr: &rc.Reader, closer: rc}, nil
}

// DecodeNpz reads an archive held in memory.
func DecodeNpz(b []byte) (*NpzReader, error) {
	return NewNpzReader(bytes.NewReader(b), int64(len(b)))
}

// Keys returns the array keys without the ".npy" suffix, sorted.
func (r *NpzReader) Keys() []string {
	keys := make([]string, 0, len(r.zr.File))
	for _, f := range r.zr.File {
		keys = append(keys, strings.TrimSuffix(f.Name, npySuffix))
	}
	slices.Sort(keys)
	return keys
}

// Read decodes the array stored under key.
func (r *NpzReader) Read(key string) (*Array, error) {
	name := key
	if !strings.HasSuffix(name, npySuffix) {
		name += npySuffix
	}
	for _, f := range r.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("npy: npz entry %q: %w", key, err)
		}
		defer rc.Close()
		return Read(rc)
	}
	return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
}

// Close releases the archive file if OpenNpz opened it.
func (r *NpzReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
