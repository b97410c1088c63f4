package storage_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mjmgmt/internal/common"
	"mjmgmt/internal/platform/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartFiles(t *testing.T, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["images"]
}

func TestUploadStore_SaveAll(t *testing.T) {
	store, err := storage.NewUploadStore(t.TempDir())
	require.NoError(t, err)

	paths, err := store.SaveAll(multipartFiles(t, map[string][]byte{
		"Casa da Praia.JPG": []byte("front"),
		"sala.png":          []byte("living room"),
	}))
	require.NoError(t, err)
	require.Len(t, paths, 2)

	for _, path := range paths {
		assert.True(t, strings.HasPrefix(path, storage.PublicPrefix))
		name := filepath.Base(path)
		assert.FileExists(t, filepath.Join(store.Dir(), name))
		// Filenames are slugged, never the raw upload name.
		assert.NotContains(t, name, " ")
		assert.Equal(t, strings.ToLower(name), name)
	}
}

func TestUploadStore_SaveAll_RejectsBadUploads(t *testing.T) {
	store, err := storage.NewUploadStore(t.TempDir())
	require.NoError(t, err)

	t.Run("disallowed extension", func(t *testing.T) {
		_, err := store.SaveAll(multipartFiles(t, map[string][]byte{"doc.pdf": []byte("x")}))
		require.ErrorIs(t, err, common.ErrValidation)
		assert.Contains(t, err.Error(), "images only")
	})

	t.Run("too many files", func(t *testing.T) {
		files := map[string][]byte{}
		for i := 0; i < storage.MaxImageCount+1; i++ {
			files[strings.Repeat("a", i+1)+".jpg"] = []byte("x")
		}
		_, err := store.SaveAll(multipartFiles(t, files))
		require.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("nothing written on rejection", func(t *testing.T) {
		_, err := store.SaveAll(multipartFiles(t, map[string][]byte{
			"ok.jpg":  []byte("x"),
			"bad.gif": []byte("x"),
		}))
		require.ErrorIs(t, err, common.ErrValidation)
		entries, err := os.ReadDir(store.Dir())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestUploadStore_Remove(t *testing.T) {
	store, err := storage.NewUploadStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "img.jpg"), []byte("x"), 0o644))

	require.NoError(t, store.Remove(storage.PublicPrefix+"img.jpg"))
	assert.NoFileExists(t, filepath.Join(store.Dir(), "img.jpg"))

	assert.Error(t, store.Remove(storage.PublicPrefix+"img.jpg"))
}
