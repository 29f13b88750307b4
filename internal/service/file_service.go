package service

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

// ErrUnreadableFile is returned when a supported file cannot be parsed.
var ErrUnreadableFile = errors.New("file could not be read")

// Rows shown per sheet when summarising spreadsheets.
const previewRows = 5

// FileService extracts text from uploaded documents for AI prompts.
type FileService struct{}

// NewFileService creates a new FileService.
func NewFileService() *FileService {
	return &FileService{}
}

// Process returns the text content of a file, dispatching on its extension.
func (s *FileService) Process(name string, data []byte) (*model.ProcessedFile, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	out := &model.ProcessedFile{FileName: path.Base(name), FileType: ext}

	var (
		content string
		err     error
	)
	switch ext {
	case "txt", "md", "csv", "json":
		content = string(data)
	case "xlsx", "xlsm":
		content, err = spreadsheetText(data)
	case "docx":
		content, err = officeText(data, func(n string) bool { return n == "word/document.xml" }, "t")
	case "pptx":
		content, err = officeText(data, isSlide, "t")
	case "pdf":
		content = fmt.Sprintf("[PDF document: %s, %d bytes] Text extraction is not available for PDF files; "+
			"describe the material in the prompt instead.", out.FileName, len(data))
	case "jpg", "jpeg", "png", "gif", "webp":
		content = imageSummary(out.FileName, data)
	default:
		return nil, fmt.Errorf("%w: .%s", ErrUnsupportedFileType, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	out.Content = strings.TrimSpace(content)
	return out, nil
}

// spreadsheetText lists every sheet with its row count and first rows.
func spreadsheetText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		fmt.Fprintf(&sb, "Sheet: %s (%d rows)\n", sheet, len(rows))
		for i, row := range rows {
			if i == previewRows {
				break
			}
			sb.WriteString(strings.Join(row, " | "))
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// officeText concatenates the text runs of the matching parts of an OOXML
// package. Each paragraph ends up on its own line.
func officeText(data []byte, want func(string) bool, textTag string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var parts []*zip.File
	for _, f := range zr.File {
		if want(f.Name) {
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no document body")
	}
	sort.Slice(parts, func(i, j int) bool { return slideOrder(parts[i].Name) < slideOrder(parts[j].Name) })

	var sb strings.Builder
	for _, part := range parts {
		rc, err := part.Open()
		if err != nil {
			return "", err
		}
		err = xmlText(rc, textTag, &sb)
		rc.Close()
		if err != nil {
			return "", err
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func xmlText(r io.Reader, textTag string, sb *strings.Builder) error {
	dec := xml.NewDecoder(r)
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inText = t.Name.Local == textTag
		case xml.EndElement:
			inText = false
			if t.Name.Local == "p" {
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
}

func isSlide(name string) bool {
	return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
}

// slideOrder sorts slide10 after slide9.
func slideOrder(name string) int {
	base := strings.TrimSuffix(path.Base(name), ".xml")
	n, _ := strconv.Atoi(strings.TrimLeft(base, "abcdefghijklmnopqrstuvwxyz"))
	return n
}

func imageSummary(name string, data []byte) string {
	mt := mimetype.Detect(data)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Sprintf("[Image file: %s (%s)]", name, mt.String())
	}
	return fmt.Sprintf("[Image file: %s (%s, %dx%d)]", name, mt.String(), cfg.Width, cfg.Height)
}
