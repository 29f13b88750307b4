package service

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func zipParts(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func paragraph(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func TestProcessSpreadsheet(t *testing.T) {
	f := excelize.NewFile()
	for i := 1; i <= 8; i++ {
		require.NoError(t, f.SetCellValue("Sheet1", fmt.Sprintf("A%d", i), fmt.Sprintf("q%d", i)))
		require.NoError(t, f.SetCellValue("Sheet1", fmt.Sprintf("B%d", i), i*10))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	out, err := NewFileService().Process("marks.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "xlsx", out.FileType)
	assert.Contains(t, out.Content, "Sheet: Sheet1 (8 rows)")
	assert.Contains(t, out.Content, "q1 | 10")
	assert.Contains(t, out.Content, "q5 | 50")
	assert.NotContains(t, out.Content, "q6")
}

func TestProcessWordDocument(t *testing.T) {
	doc := `<?xml version="1.0"?><w:document xmlns:w="w"><w:body>` +
		paragraph("Binary trees") + paragraph("Traversal orders") +
		`</w:body></w:document>`
	data := zipParts(t, map[string]string{"word/document.xml": doc, "word/styles.xml": "<x/>"})

	out, err := NewFileService().Process("notes.DOCX", data)
	require.NoError(t, err)
	assert.Equal(t, "Binary trees\nTraversal orders", out.Content)
}

func TestProcessSlidesInNumericOrder(t *testing.T) {
	slide := func(text string) string {
		return `<p:sld xmlns:p="p" xmlns:a="a"><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:sld>`
	}
	data := zipParts(t, map[string]string{
		"ppt/slides/slide10.xml": slide("ten"),
		"ppt/slides/slide2.xml":  slide("two"),
		"ppt/slides/slide1.xml":  slide("one"),
	})

	out, err := NewFileService().Process("deck.pptx", data)
	require.NoError(t, err)
	lines := strings.Fields(out.Content)
	assert.Equal(t, []string{"one", "two", "ten"}, lines)
}

func TestProcessOtherTypes(t *testing.T) {
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 3))))

	tests := []struct {
		name    string
		file    string
		data    []byte
		want    string
		wantErr error
	}{
		{"plain text", "readme.md", []byte("  # Title \n"), "# Title", nil},
		{"pdf placeholder", "paper.pdf", []byte("%PDF-1.4"), "[PDF document: paper.pdf", nil},
		{"image summary", "shot.png", img.Bytes(), "image/png, 4x3", nil},
		{"unsupported", "tool.exe", []byte("MZ"), "", ErrUnsupportedFileType},
		{"corrupt docx", "bad.docx", []byte("not a zip"), "", ErrUnreadableFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewFileService().Process(tt.file, tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.Content, tt.want)
		})
	}
}
