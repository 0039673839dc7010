package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "generated"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenCreatesDirectoryAndSchema(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generated")

	store, err := Open(dir)
	require.NoError(t, err)
	defer store.Close()

	require.DirExists(t, dir)
	require.FileExists(t, filepath.Join(dir, "history.db"))
	assert.Equal(t, dir, store.Dir())

	_, err = Open("")
	assert.Error(t, err)
}

func TestSaveAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	older := &Record{
		Filename:  "jane_doe_acme_20240101-120000.html",
		Company:   "Acme",
		JobTitle:  "Go Developer",
		FirstName: "Jane",
		LastName:  "Doe",
		CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	newer := &Record{
		Filename:  "john_roe_initech_20240201-120000.html",
		Company:   "Initech",
		JobTitle:  "SRE",
		CreatedAt: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Initech", records[0].Company)
	assert.Equal(t, "Acme", records[1].Company)
	assert.Equal(t, "Jane", records[1].FirstName)
}

func TestSaveUpsertsByFilename(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := &Record{Filename: "resume.html", Company: "Acme"}
	require.NoError(t, store.Save(ctx, rec))

	rec.Company = "Initech"
	require.NoError(t, store.Save(ctx, rec))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Initech", records[0].Company)
}

func TestSaveRequiresFilename(t *testing.T) {
	store := openTestStore(t)

	assert.Error(t, store.Save(context.Background(), nil))
	assert.Error(t, store.Save(context.Background(), &Record{Filename: "  "}))
}

func TestWriteArtifactAndPath(t *testing.T) {
	store := openTestStore(t)

	filename, err := store.WriteArtifact("Jane", "Doe", "Acme", "Go Developer", []byte("<html></html>"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".html"))

	path, err := store.Path(filename)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestPathRejectsTraversal(t *testing.T) {
	store := openTestStore(t)

	for _, bad := range []string{"", "../secret.html", `..\secret.html`, "a/b.html"} {
		_, err := store.Path(bad)
		assert.Error(t, err, "filename %q must be rejected", bad)
	}

	_, err := store.Path("missing.html")
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	name := Filename("Jane", "Doe", "Acme Corp.", "Senior Go Developer")

	assert.True(t, strings.HasPrefix(name, "Jane_Doe_Acme-Corp_Senior-Go-Developer_"), name)
	assert.True(t, strings.HasSuffix(name, ".html"), name)
	assert.NotContains(t, name, " ")
	assert.NotContains(t, name, "/")

	fallback := Filename("", "", "", "")
	assert.True(t, strings.HasPrefix(fallback, "resume_"), fallback)
}
