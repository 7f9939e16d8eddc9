//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/sheetload/internal/errors"
)

// openFileNoFollowRead opens a timesheet for reading.
// On Windows, O_NOFOLLOW is not available; ValidateInputPath has already
// rejected symlinks.
func openFileNoFollowRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("file", path)
		}
		return nil, errors.NewInternal(err)
	}
	return f, nil
}
