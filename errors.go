package artree

import (
	"errors"
	"fmt"

	"github.com/hupe1980/artree/internal/art"
)

var (
	// ErrOutOfMemory is returned when an insert needs a node the memory limit
	// cannot pay for. The tree is left unchanged.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrClosed is returned by operations on a closed tree.
	ErrClosed = errors.New("tree closed")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, art.ErrOutOfMemory) {
		return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	if errors.Is(err, art.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
