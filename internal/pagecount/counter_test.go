package pagecount

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/citesync/internal/citation"
)

// buildPDF renders a minimal PDF with the given number of blank pages and a correct xref table.
func buildPDF(pages int) []byte {
	var buf bytes.Buffer
	offsets := []int{}
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		writeObj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging dir should be empty")
}

func TestCountValidDocument(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := New(Config{StagingDir: dir}, nil)

	got, err := c.Count(context.Background(), buildPDF(3))
	require.NoError(t, err)
	assert.Equal(t, citation.Pages(3), got)
	assert.Equal(t, 3, got.Value())
	assertEmptyDir(t, dir)
}

func TestCountFailuresAreUnknown(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "garbage", data: []byte("this is not a pdf at all")},
		{name: "truncated", data: buildPDF(2)[:40]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			c := New(Config{StagingDir: dir}, nil)

			got, err := c.Count(context.Background(), tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, citation.ErrPDFRead), "got %v", err)
			assert.Equal(t, citation.UnknownPageCount, got)
			assert.Equal(t, citation.NotAvailable, got.Value())
			assertEmptyDir(t, dir)
		})
	}
}

func TestCountStagedRemovesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := New(Config{StagingDir: dir}, nil)

	n, err := c.countStaged(buildPDF(2))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assertEmptyDir(t, dir)
}

func TestCountStagedMissingDir(t *testing.T) {
	t.Parallel()
	c := New(Config{StagingDir: t.TempDir() + "/missing"}, nil)

	_, err := c.countStaged(buildPDF(1))
	require.Error(t, err)
}

func TestCountInMemory(t *testing.T) {
	t.Parallel()
	n, err := countInMemory(buildPDF(5))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = countInMemory([]byte("%PDF-1.4\nnope"))
	require.Error(t, err)
}
