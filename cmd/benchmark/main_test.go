package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEvents(t *testing.T) {
	body := "event: attempt\ndata: {\"attempt\":1,\"delta\":\"<html>\"}\n\n" +
		"event: done\ndata: {\"generated_code\":\"<html></html>\",\"state\":\"succeeded\",\"attempts\":2}\n\n"

	final, err := readEvents(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", final.GeneratedCode)
	assert.Equal(t, 2, final.Attempts)
	assert.Equal(t, "succeeded", final.State)
}

func TestReadEventsErrors(t *testing.T) {
	_, err := readEvents(strings.NewReader("event: error\ndata: context canceled\n\n"))
	assert.ErrorContains(t, err, "context canceled")

	_, err = readEvents(strings.NewReader("event: attempt\ndata: {}\n\n"))
	assert.ErrorContains(t, err, "without a done event")
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "png"), 0o755))
	for _, name := range []string{"png/b.png", "a.JPG", "notes.txt", "doc.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := collectFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.JPG"),
		filepath.Join(dir, "doc.pdf"),
		filepath.Join(dir, "png", "b.png"),
	}, files)
}

func TestPrintMarkdown(t *testing.T) {
	results := []BenchResult{
		{Format: "png", Duration: 2 * time.Second, Attempts: 2, Size: 2048},
		{Format: "png", Duration: 4 * time.Second, Attempts: 4, Truncated: true, Size: 2048},
		{Format: "pdf", Err: errors.New("bad status 400")},
	}

	var buf bytes.Buffer
	printMarkdown(&buf, results)
	out := buf.String()

	assert.Contains(t, out, "| pdf | 0 | 1 | 0 | - | - | - | - |")
	assert.Contains(t, out, "| png | 2 | 0 | 1 | 3.0 | 3s | 6s | 2.00 KB |")
	assert.Contains(t, out, "| **ALL** | 2 | 1 | 1 | 3.0 | 3s | 6s | 2.00 KB |")
	assert.Less(t, strings.Index(out, "| pdf"), strings.Index(out, "| png"))
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "1.50 KB", humanBytes(1536))
	assert.Equal(t, "3.00 MB", humanBytes(3<<20))
}
