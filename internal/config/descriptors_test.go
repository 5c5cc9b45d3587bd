package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptors_Absent(t *testing.T) {
	d, ok, err := NewProvider(t.TempDir()).Descriptors("numpy")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, d)
}

func TestDescriptors_Present(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "numpy.json", `{"matrix.Dense": {"fields": ["Rows", "Cols"]}}`)

	d, ok, err := NewProvider(dir).Descriptors("numpy")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"matrix.Dense": map[string]any{"fields": []any{"Rows", "Cols"}},
	}, d)
}

func TestDescriptors_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "numpy.json", `{"broken":`)

	_, _, err := NewProvider(dir).Descriptors("numpy")
	require.Error(t, err)
}
