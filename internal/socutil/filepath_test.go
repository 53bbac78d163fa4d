package socutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/scandl/internal/socutil"
)

func TestFindFileUp(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", ".conf"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "a", "b", ".conf"), 0755))

	info, path, err := socutil.FindFileUp(deep, ".conf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", ".conf"), path, "directories are skipped")
	assert.Equal(t, ".conf", info.Name())

	info, path, err = socutil.FindFileUp(deep, ".scandl-test-no-such-file")
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Empty(t, path)
}
