package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	t.Run("no file found uses defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())
		v := viper.New()
		require.NoError(t, readConfig(v, ""))
		assert.Equal(t, ":3000", v.GetString("addr"))
	})

	t.Run("implicit file is read", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "folio.yaml"), []byte("name: Field Notes\nindex_size: 5\n"), 0o644))
		t.Chdir(dir)
		v := viper.New()
		require.NoError(t, readConfig(v, ""))
		assert.Equal(t, "Field Notes", v.GetString("name"))
		assert.Equal(t, 5, v.GetInt("index_size"))
	})

	t.Run("malformed implicit file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "folio.yaml"), []byte("name: [unclosed\n"), 0o644))
		t.Chdir(dir)
		err := readConfig(viper.New(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config")
	})

	t.Run("malformed explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "site.yaml")
		require.NoError(t, os.WriteFile(path, []byte("addr: \"unterminated\n"), 0o644))
		assert.Error(t, readConfig(viper.New(), path))
	})

	t.Run("missing explicit file", func(t *testing.T) {
		err := readConfig(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
