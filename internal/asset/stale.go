package asset

import (
	"time"

	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/spf13/afero"
)

// IsStale reports whether any input or dependency file was modified after ref.
// A zero ref is always stale. Each input is checked before its dependency
// globs are expanded, and checking stops at the first newer file.
func IsStale(fs afero.Fs, inputs []Input, ref time.Time) (bool, error) {
	if ref.IsZero() {
		return true, nil
	}

	for _, in := range inputs {
		newer, err := modifiedAfter(fs, in, in.Path, ref)
		if err != nil || newer {
			return newer, err
		}
		for _, dep := range in.Depends {
			matches, err := in.DependencyPaths(fs, dep)
			if err != nil {
				return false, err
			}
			for _, p := range matches {
				newer, err := modifiedAfter(fs, in, p, ref)
				if err != nil || newer {
					return newer, err
				}
			}
		}
	}
	return false, nil
}

func modifiedAfter(fs afero.Fs, in Input, path string, ref time.Time) (bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return false, apperrors.ErrReadFailed(path, err).WithInput(in.Name)
	}
	return info.ModTime().After(ref), nil
}
