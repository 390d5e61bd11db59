//go:build !unix

package questionlog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// acquireLock probes path for write access. Office applications on these
// platforms hold the file with a sharing mode that makes the open fail.
// The handle is closed right away so the later rename can replace the file.
func acquireLock(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrLocked, err)
	}
	f.Close()
	return func() {}, nil
}
