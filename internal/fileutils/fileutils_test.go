package fileutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlindgren/bankfiles/internal/parsererror"
)

func TestSuffix(t *testing.T) {
	assert.Equal(t, "TO", Suffix("statement.TO"))
	assert.Equal(t, "txt", Suffix("a.b.txt"))
	assert.Equal(t, "noext", Suffix("noext"))
}

func TestCheckSuffix(t *testing.T) {
	accepted := []string{"TO", "TXT", "TITO"}

	assert.NoError(t, CheckSuffix("statement.to", "tiliote", accepted))
	assert.NoError(t, CheckSuffix("statement.TiTo", "tiliote", accepted))

	err := CheckSuffix("statement.csv", "tiliote", accepted)
	var formatErr *parsererror.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "statement.csv", formatErr.FileName)
	assert.Contains(t, formatErr.Error(), "tiliote")
}

func TestDecodeLatin1(t *testing.T) {
	// "Hyvä" in ISO-8859-1: 0xE4 is a lone byte, not valid UTF-8.
	out, err := DecodeLatin1([]byte{'H', 'y', 'v', 0xE4})
	require.NoError(t, err)
	assert.Equal(t, "Hyvä", out)
}

func TestReadLatin1File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.txt")
	require.NoError(t, os.WriteFile(path, []byte{0xC4, 0xD6}, 0o644))

	out, err := ReadLatin1File(path)
	require.NoError(t, err)
	assert.Equal(t, "ÄÖ", out)

	_, err = ReadLatin1File(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestSplitLines(t *testing.T) {
	lines := SplitLines("one\r\ntwo\n\nthree")
	assert.Equal(t, []string{"one", "two", "", "three"}, lines)
}
