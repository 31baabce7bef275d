//go:build property

package asset

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"
)

// TestSpecProperties validates processor chain parsing and staleness properties
func TestSpecProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("split chain is the written chain reversed", prop.ForAll(
		func(written []string, name string) bool {
			raw := strings.Join(append(append([]string(nil), written...), name+".js"), ":")
			chain, inputName, err := Spec{Raw: raw}.Split()
			if err != nil || inputName != name+".js" || len(chain) != len(written) {
				return false
			}
			for i := range written {
				if chain[i] != written[len(written)-1-i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
		gen.Identifier(),
	))

	properties.Property("stale iff some input is newer than the reference", prop.ForAll(
		func(offsets []int, refOffset int) bool {
			fs := afero.NewMemMapFs()
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			ref := base.Add(time.Duration(refOffset) * time.Minute)

			inputs := make([]Input, 0, len(offsets))
			expected := false
			for i, off := range offsets {
				path := "/src/" + string(rune('a'+i%26)) + strings.Repeat("x", i/26) + ".js"
				mtime := base.Add(time.Duration(off) * time.Minute)
				if afero.WriteFile(fs, path, []byte("x"), 0o644) != nil || fs.Chtimes(path, mtime, mtime) != nil {
					return false
				}
				inputs = append(inputs, Input{Name: path, Path: path})
				if mtime.After(ref) {
					expected = true
				}
			}

			stale, err := IsStale(fs, inputs, ref)
			return err == nil && stale == expected
		},
		gen.SliceOf(gen.IntRange(1, 120)),
		gen.IntRange(1, 120),
	))

	properties.TestingRun(t)
}
