package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscoverCorporaBasic(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "train.txt"), "")
	mustWrite(t, filepath.Join(dir, "nested", "extra.TXT"), "")
	mustWrite(t, filepath.Join(dir, ".hidden.txt"), "")
	mustWrite(t, filepath.Join(dir, "ignore.csv"), "")

	files, err := DiscoverCorpora(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "nested", "extra.TXT"),
		filepath.Join(dir, "train.txt"),
	}, files)
}

func TestDiscoverCorporaGrowth(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "")

	first, err := DiscoverCorpora(dir)
	require.NoError(t, err)
	require.Len(t, first, 1)

	mustWrite(t, filepath.Join(dir, "b.txt"), "")

	second, err := DiscoverCorpora(dir)
	require.NoError(t, err)
	require.Len(t, second, 2)
}

func TestDiscoverCorporaMissingRoot(t *testing.T) {
	_, err := DiscoverCorpora(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
