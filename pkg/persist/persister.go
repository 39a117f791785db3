package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const stateFilePerm = 0o600

// Persister stores values of one state type under dir/basename+extension.
type Persister[T any] struct {
	basename string
	codec    Codec
}

// NewPersister creates a persister with the given basename and codec.
func NewPersister[T any](basename string, codec Codec) *Persister[T] {
	return &Persister[T]{basename: basename, codec: codec}
}

// Path returns the file the persister reads and writes in dir.
func (p *Persister[T]) Path(dir string) string {
	return filepath.Join(dir, p.basename+p.codec.Extension())
}

// Save writes state to dir, replacing an existing file.
func (p *Persister[T]) Save(dir string, state *T) (err error) {
	file, err := os.OpenFile(p.Path(dir), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, stateFilePerm)
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}

	defer func() {
		err = errors.Join(err, file.Close())
	}()

	err = p.codec.Encode(file, state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	return nil
}

// Load reads the state stored in dir.
func (p *Persister[T]) Load(dir string) (*T, error) {
	file, err := os.Open(p.Path(dir))
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	var state T

	err = p.codec.Decode(file, &state)
	if err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	return &state, nil
}
