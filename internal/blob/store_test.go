package blob

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickdesk/helpdesk-service/internal/config"
	apperrors "github.com/quickdesk/helpdesk-service/pkg/util"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(config.StorageConfig{
		UploadDir:       t.TempDir(),
		MaxFileSizeByte: 64,
	})
	require.NoError(t, err)
	return store
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("attachments", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&buf, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	headers := form.File["attachments"]
	require.Len(t, headers, 1)
	return headers[0]
}

func TestValidateRejectsDisallowedExtensions(t *testing.T) {
	store := newTestStore(t)

	err := store.Validate(fileHeader(t, "payload.exe", []byte("boom")))
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	assert.NoError(t, store.Validate(fileHeader(t, "photo.PNG", []byte("img"))))
}

func TestValidateRejectsOversizedFiles(t *testing.T) {
	store := newTestStore(t)

	big := bytes.Repeat([]byte("a"), 65)
	err := store.Validate(fileHeader(t, "notes.txt", big))
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestSaveStoresUnderGeneratedName(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(config.StorageConfig{UploadDir: dir, MaxFileSizeByte: 1 << 20})
	require.NoError(t, err)

	att, err := store.Save(fileHeader(t, "notes.txt", []byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", att.OriginalName)
	assert.NotEqual(t, att.OriginalName, att.StoredName)
	assert.Equal(t, ".txt", filepath.Ext(att.StoredName))
	assert.EqualValues(t, 5, att.Size)

	data, err := os.ReadFile(filepath.Join(dir, att.StoredName))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestSaveAllEnforcesFileLimit(t *testing.T) {
	store := newTestStore(t)

	headers := []*multipart.FileHeader{
		fileHeader(t, "a.txt", []byte("a")),
		fileHeader(t, "b.txt", []byte("b")),
	}
	_, err := store.SaveAll(headers, 1)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	saved, err := store.SaveAll(headers, 2)
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestOpenRejectsPathTraversal(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Open("../secret")
	require.Error(t, err)
	_, err = store.Open("nested/name.txt")
	require.Error(t, err)
}
