package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/benmeehan/device-bootstrapper/pkg/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func TestFileService_ReadYamlFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: board\ncount: 3\n"), 0600))

	var s sample
	err := file.NewFileService().ReadYamlFile(path, &s)

	assert.NoError(t, err)
	assert.Equal(t, "board", s.Name)
	assert.Equal(t, 3, s.Count)
}

func TestFileService_ReadYamlFile_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	s := sample{Name: "kept"}
	err := file.NewFileService().ReadYamlFile(path, &s)

	assert.NoError(t, err)
	assert.Equal(t, "kept", s.Name)
}

func TestFileService_ReadYamlFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unterminated\n"), 0600))

	var s sample
	err := file.NewFileService().ReadYamlFile(path, &s)

	assert.Error(t, err)
}

func TestFileService_IsFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

	fs := file.NewFileService()

	exists, err := fs.IsFileExists(path)
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = fs.IsFileExists(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestFileService_ReadFileRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x01, 0x02}, 0600))

	data, err := file.NewFileService().ReadFileRaw(path)

	assert.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, data)

	_, err = file.NewFileService().ReadFileRaw(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
