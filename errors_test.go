package probecarto

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/probecarto/blobstore"
	"github.com/hupe1980/probecarto/blueprint"
	"github.com/hupe1980/probecarto/mask"
	"github.com/hupe1980/probecarto/npy"
	"github.com/hupe1980/probecarto/toolkit"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"store not found", blobstore.ErrNotFound, ErrNotFound},
		{"npz key", fmt.Errorf("%w: %q", npy.ErrKeyNotFound, "x"), ErrNotFound},
		{"header", fmt.Errorf("read: %w", npy.ErrMalformedHeader), ErrMalformedInput},
		{"dtype", npy.ErrUnsupportedDtype, ErrMalformedInput},
		{"csv", blueprint.ErrBadHeader, ErrMalformedInput},
		{"kernel", toolkit.ErrInvalidKernel, ErrMalformedInput},
		{"blueprint length", blueprint.ErrLengthMismatch, ErrInvariant},
		{"mask length", mask.ErrLengthMismatch, ErrInvariant},
		{"toolkit length", toolkit.ErrLengthMismatch, ErrInvariant},
		{"already classified", fmt.Errorf("%w: x", ErrIO), ErrIO},
		{"unknown", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "the cause stays reachable")
		})
	}
}

func TestStoreError(t *testing.T) {
	assert.NoError(t, storeError(nil))
	assert.ErrorIs(t, storeError(blobstore.ErrNotFound), ErrNotFound)
	assert.ErrorIs(t, storeError(blobstore.ErrCorrupt), ErrMalformedInput)

	err := storeError(errors.New("connection reset"))
	assert.ErrorIs(t, err, ErrIO)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestErrGridMismatch(t *testing.T) {
	err := &ErrGridMismatch{Expected: 10, Actual: 4}
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Equal(t, "grid mismatch: expected 10 sites, got 4", err.Error())
}
