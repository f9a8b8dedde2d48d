package probecarto

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/probecarto/blobstore"
	"github.com/hupe1980/probecarto/blueprint"
	"github.com/hupe1980/probecarto/cluster"
	"github.com/hupe1980/probecarto/mask"
	"github.com/hupe1980/probecarto/npy"
	"github.com/hupe1980/probecarto/toolkit"
)

var (
	// ErrMalformedInput is returned for undecodable files and bad arguments.
	ErrMalformedInput = errors.New("malformed input")

	// ErrIO is returned when the blob store fails.
	ErrIO = errors.New("i/o failure")

	// ErrInvariant is returned when arrays do not match the engine's grid.
	ErrInvariant = errors.New("invariant violated")

	// ErrNotFound is returned when a blob does not exist.
	ErrNotFound = errors.New("not found")
)

// ErrGridMismatch indicates a blueprint built for a different grid.
type ErrGridMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrGridMismatch) Error() string {
	return fmt.Sprintf("grid mismatch: expected %d sites, got %d", e.Expected, e.Actual)
}

func (e *ErrGridMismatch) Unwrap() error { return ErrInvariant }

var (
	malformed = []error{
		npy.ErrBadMagic,
		npy.ErrMalformedHeader,
		npy.ErrUnsupportedFormat,
		npy.ErrUnsupportedDtype,
		npy.ErrShapeMismatch,
		blueprint.ErrBadHeader,
		blobstore.ErrCorrupt,
		mask.ErrCorrupt,
		toolkit.ErrNegativeStep,
		toolkit.ErrInvalidKernel,
		toolkit.ErrUnknownMethod,
		io.ErrUnexpectedEOF,
	}
	invariant = []error{
		blueprint.ErrLengthMismatch,
		cluster.ErrLengthMismatch,
		mask.ErrLengthMismatch,
		toolkit.ErrLengthMismatch,
	}
)

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrMalformedInput) || errors.Is(err, ErrInvariant) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrIO) {
		return err
	}

	if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, npy.ErrKeyNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	for _, target := range malformed {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrMalformedInput, err)
		}
	}
	for _, target := range invariant {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrInvariant, err)
		}
	}
	return err
}

// storeError classifies a failure reported by the blob store.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, blobstore.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}
