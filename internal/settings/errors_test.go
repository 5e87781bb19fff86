package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "LoadFailure", ErrTypeLoad.String())
	assert.Equal(t, "PersistFailure", ErrTypePersist.String())
	assert.Equal(t, "PlatformAdapterFailure", ErrTypePlatformAdapter.String())
	assert.Equal(t, "ErrorType(42)", ErrorType(42).String())
}

func TestError_Classification(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("wrapped: %w", newError(ErrTypePersist, "save", 7, cause))

	assert.True(t, IsPersistFailure(err))
	assert.False(t, IsLoadFailure(err))
	assert.False(t, IsPlatformAdapterFailure(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PersistFailure during save (version 7): disk full")

	assert.False(t, IsPersistFailure(cause))
	assert.False(t, IsLoadFailure(nil))
}

func TestDefaultDeviceName(t *testing.T) {
	name := DefaultDeviceName()
	require.NotEmpty(t, name)
	assert.NotContains(t, name, ".")

	if host, err := os.Hostname(); err == nil && host != "" {
		assert.True(t, strings.HasPrefix(host, name))
	}
}

func TestCheckWritable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, CheckWritable(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file removed")

	assert.Error(t, CheckWritable(""))
	assert.Error(t, CheckWritable(filepath.Join(dir, "missing")))

	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Error(t, CheckWritable(file))
}
