package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

func TestReadURLs(t *testing.T) {
	t.Run("arguments only", func(t *testing.T) {
		urls, err := readURLs([]string{"https://t.me/durov/1", " "}, "", nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://t.me/durov/1"}, urls)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "links.txt")
		require.NoError(t, os.WriteFile(path, []byte("# comment\nhttps://youtu.be/abcdefghijk\n\n  https://ok.ru/video/1  \n"), 0o600))

		urls, err := readURLs([]string{"https://t.me/durov/1"}, path, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://t.me/durov/1", "https://youtu.be/abcdefghijk", "https://ok.ru/video/1"}, urls)
	})

	t.Run("stdin", func(t *testing.T) {
		urls, err := readURLs(nil, "-", strings.NewReader("https://vk.com/video-1_2\n"))

		require.NoError(t, err)
		assert.Equal(t, []string{"https://vk.com/video-1_2"}, urls)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readURLs(nil, filepath.Join(t.TempDir(), "missing.txt"), nil)

		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestWriteCSV(t *testing.T) {
	views := int64(42)

	var buf bytes.Buffer
	err := writeCSV(&buf, []entity.Lookup{
		{URL: "https://vk.com/video-1_2", Platform: entity.PlatformVK, Views: &views},
		{URL: "https://example.com/a,b", Platform: entity.PlatformUnknown},
	})

	require.NoError(t, err)
	assert.Equal(t, "url,platform,views\nhttps://vk.com/video-1_2,VK,42\n\"https://example.com/a,b\",Unknown,\n", buf.String())
}

func TestLookupCmd_NoURLs(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"lookup"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()

	assert.ErrorContains(t, err, "no urls given")
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"version"})
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "viewcounter version")
}
