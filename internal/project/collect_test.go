package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCollectJSON(t *testing.T) {
	t.Run("walks directories and keeps only json files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "Building.json"), `[{"Node":{"Building":{"id":"b"}}}]`)
		writeFile(t, filepath.Join(dir, "User", "wall.JSON"), `[{"a":1},{"b":2}]`)
		writeFile(t, filepath.Join(dir, "notes.txt"), `not json`)

		records, err := CollectJSON([]string{dir})
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("accepts single files and several paths", func(t *testing.T) {
		dir := t.TempDir()
		first := filepath.Join(dir, "one.json")
		second := filepath.Join(dir, "two.json")
		writeFile(t, first, `[1]`)
		writeFile(t, second, `[2, 3]`)

		records, err := CollectJSON([]string{first, second})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.JSONEq(t, `1`, string(records[0]))
		assert.JSONEq(t, `3`, string(records[2]))
	})

	t.Run("skips excluded files", func(t *testing.T) {
		dir := t.TempDir()
		model := filepath.Join(dir, "User", "wall_data.json")
		writeFile(t, filepath.Join(dir, "Project.json"), `[{"p":1}]`)
		writeFile(t, model, `[{"m":1}]`)

		records, err := CollectJSON([]string{dir}, model)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.JSONEq(t, `{"p":1}`, string(records[0]))
	})

	t.Run("skips excluded file given directly", func(t *testing.T) {
		dir := t.TempDir()
		model := filepath.Join(dir, "model.json")
		other := filepath.Join(dir, "Project.json")
		writeFile(t, model, `[{"m":1}]`)
		writeFile(t, other, `[{"p":1}]`)

		records, err := CollectJSON([]string{model, other}, model)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.JSONEq(t, `{"p":1}`, string(records[0]))
	})

	t.Run("empty directory gives empty list", func(t *testing.T) {
		records, err := CollectJSON([]string{t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("non list file fails", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "bad.json"), `{"Node":{}}`)

		_, err := CollectJSON([]string{dir})
		assert.Error(t, err)
	})

	t.Run("missing path fails", func(t *testing.T) {
		_, err := CollectJSON([]string{filepath.Join(t.TempDir(), "nope")})
		assert.Error(t, err)
	})
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "projects"), expandHome("~/projects"))
	assert.Equal(t, "relative/path", expandHome("relative/path"))
	assert.Equal(t, "/abs", expandHome("/abs"))
}
