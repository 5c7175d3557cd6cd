package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalProviderSave(t *testing.T) {
	dir := t.TempDir()
	p, err := NewLocalProvider(dir)
	require.NoError(t, err)

	err = p.Save(context.Background(), "portland/2026-09-01/page-1.html", []byte("<html></html>"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "portland", "2026-09-01", "page-1.html"))
	require.NoError(t, err)
	require.Equal(t, "<html></html>", string(data))
	require.NoError(t, p.Close())
}

func TestNewLocalProviderRequiresDir(t *testing.T) {
	_, err := NewLocalProvider("")
	require.Error(t, err)
}
