package validator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/docvault/internal/common"
)

const maxSize = 52428800

var defaultExtensions = []string{".pdf", ".doc", ".docx"}

func writeFile(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	// PDF magic so content sniffing has something to find.
	header := []byte("%PDF-1.4\n")
	if int64(len(header)) <= size {
		_, err = f.Write(header)
		require.NoError(t, err)
	}
	require.NoError(t, f.Truncate(size))
	return path
}

func TestValidate_Success(t *testing.T) {
	path := writeFile(t, "syllabus.pdf", 1024)

	d, err := New(maxSize, defaultExtensions).Validate(path)
	require.NoError(t, err)

	assert.Equal(t, "syllabus.pdf", d.OriginalName)
	assert.Equal(t, ".pdf", d.Extension)
	assert.Equal(t, uint64(1024), d.SizeBytes)
	require.NotNil(t, d.MimeType)
	assert.Equal(t, "application/pdf", *d.MimeType)
}

func TestValidate_ExtensionIsLowercased(t *testing.T) {
	path := writeFile(t, "Report.DOCX", 10)

	d, err := New(maxSize, defaultExtensions).Validate(path)
	require.NoError(t, err)
	assert.Equal(t, ".docx", d.Extension)
	assert.Equal(t, "Report.DOCX", d.OriginalName)
}

func TestValidate_NotFound(t *testing.T) {
	v := New(maxSize, defaultExtensions)

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.pdf")
		_, err := v.Validate(path)
		require.ErrorIs(t, err, common.ErrNotFound)
		assert.Equal(t, "file does not exist: "+path, err.Error())
	})

	t.Run("directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "folder.pdf")
		require.NoError(t, os.Mkdir(dir, 0o750))
		_, err := v.Validate(dir)
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestValidate_UnsupportedFormat(t *testing.T) {
	v := New(maxSize, defaultExtensions)

	_, err := v.Validate(writeFile(t, "notes.txt", 10))
	require.ErrorIs(t, err, common.ErrUnsupportedFormat)
	assert.Equal(t, "unsupported file format .txt, supported formats: .pdf, .doc, .docx", err.Error())

	_, err = v.Validate(writeFile(t, "README", 10))
	require.ErrorIs(t, err, common.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "(none)")
}

func TestValidate_SizeBoundary(t *testing.T) {
	const limit = 4096
	v := New(limit, defaultExtensions)

	d, err := v.Validate(writeFile(t, "exact.pdf", limit))
	require.NoError(t, err)
	assert.Equal(t, uint64(limit), d.SizeBytes)

	_, err = v.Validate(writeFile(t, "over.pdf", limit+1))
	require.ErrorIs(t, err, common.ErrTooLarge)

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, common.KindTooLarge, ve.Kind)
}

func TestValidate_TooLargeMessage(t *testing.T) {
	path := writeFile(t, "big.pdf", 60*1024*1024)

	_, err := New(maxSize, defaultExtensions).Validate(path)
	require.ErrorIs(t, err, common.ErrTooLarge)
	assert.Equal(t,
		"file too large: maximum size 50MB (52428800 bytes), current size 60.00MB (62914560 bytes)",
		err.Error())
}

func TestValidate_Idempotent(t *testing.T) {
	path := writeFile(t, "course.doc", 2048)
	v := New(maxSize, defaultExtensions)

	first, err := v.Validate(path)
	require.NoError(t, err)
	second, err := v.Validate(path)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("descriptors differ (-first +second):\n%s", diff)
	}
}

func TestValidate_DoesNotModifyFile(t *testing.T) {
	path := writeFile(t, "syllabus.pdf", 100)
	before, err := os.ReadFile(path)
	require.NoError(t, err)
	stBefore, err := os.Stat(path)
	require.NoError(t, err)

	_, err = New(maxSize, defaultExtensions).Validate(path)
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	stAfter, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, stBefore.ModTime(), stAfter.ModTime())
}

func TestDetectMIME_Unresolved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.zzzunknown")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02, 0xff}, 0o600))
	assert.Nil(t, detectMIME(path, ".zzzunknown"))
}

func TestNew_CopiesExtensions(t *testing.T) {
	exts := []string{".pdf"}
	v := New(maxSize, exts)
	exts[0] = ".exe"

	_, err := v.Validate(writeFile(t, "a.pdf", 1))
	require.NoError(t, err)
	_, err = v.Validate(writeFile(t, "a.exe", 1))
	require.Error(t, err)
	assert.True(t, strings.HasSuffix(err.Error(), ".pdf"))
}
