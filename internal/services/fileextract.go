package services

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"docqa-backend/internal/models"
)

// Kind is the closed set of upload formats the extractor understands.
type Kind int

const (
	KindText Kind = iota
	KindPDF
	KindWord
	KindSpreadsheet
	KindImage
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPDF:
		return "PDF"
	case KindWord:
		return "Word document"
	case KindSpreadsheet:
		return "spreadsheet"
	case KindImage:
		return "image"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	mimeText = "text/plain"
	mimePDF  = "application/pdf"
	mimeDoc  = "application/msword"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXls  = "application/vnd.ms-excel"
	mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Classify maps a normalized media type onto a Kind. Order matters: the
// first match wins.
func Classify(mediaType string) (Kind, error) {
	switch {
	case mediaType == mimeText:
		return KindText, nil
	case mediaType == mimePDF:
		return KindPDF, nil
	case mediaType == mimeDoc || mediaType == mimeDocx:
		return KindWord, nil
	case mediaType == mimeXls || mediaType == mimeXlsx:
		return KindSpreadsheet, nil
	case strings.HasPrefix(mediaType, "image/"):
		return KindImage, nil
	default:
		return 0, &UnsupportedTypeError{MediaType: mediaType}
	}
}

// NormalizeMediaType lower-cases the declared type and drops its parameters.
// Undeclared or generic binary uploads are sniffed from their content.
func NormalizeMediaType(declared string, data []byte) string {
	mt := baseMediaType(declared)
	if (mt == "" || mt == "application/octet-stream") && len(data) > 0 {
		mt = baseMediaType(mimetype.Detect(data).String())
	}
	return mt
}

func baseMediaType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(s); err == nil {
		return parsed
	}
	if i := strings.Index(s, ";"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

type decoder func(s *FileExtractService, f models.UploadedFile) (models.ExtractedContent, error)

var decoders = [kindCount]decoder{
	KindText:        (*FileExtractService).extractTXT,
	KindPDF:         (*FileExtractService).extractPDF,
	KindWord:        (*FileExtractService).extractDOCX,
	KindSpreadsheet: (*FileExtractService).extractSpreadsheet,
	KindImage:       (*FileExtractService).extractImage,
}

type FileExtractService struct {
	// tempDir stages in-memory spreadsheets for file-based loading; "" means os.TempDir.
	tempDir string
}

func NewFileExtractService() *FileExtractService {
	return &FileExtractService{}
}

// Extract turns one uploaded file into text or a base64 image payload.
// Unsupported types fail before any bytes are read.
func (s *FileExtractService) Extract(f models.UploadedFile) (models.ExtractedContent, error) {
	kind, err := Classify(f.MediaType)
	if err != nil {
		return models.ExtractedContent{}, err
	}

	if f.Data == nil && f.Path != "" {
		b, err := os.ReadFile(f.Path)
		if err != nil {
			return models.ExtractedContent{}, &ExtractionFailedError{Format: kind.String(), Err: err}
		}
		f.Data = b
	}

	return decoders[kind](s, f)
}

func (s *FileExtractService) extractTXT(f models.UploadedFile) (models.ExtractedContent, error) {
	return models.TextContent(string(f.Data)), nil
}

func (s *FileExtractService) extractPDF(f models.UploadedFile) (out models.ExtractedContent, err error) {
	// ledongthuc/pdf panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			out = models.ExtractedContent{}
			err = &ExtractionFailedError{Format: KindPDF.String(), Err: fmt.Errorf("pdf decoder panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		return out, &ExtractionFailedError{Format: KindPDF.String(), Err: err}
	}

	var b strings.Builder
	totalPage := reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}

	text := normalizeExtractedText(b.String())
	if text == "" {
		return out, &ExtractionEmptyError{Format: KindPDF.String()}
	}

	return models.TextContent(text), nil
}

func (s *FileExtractService) extractDOCX(f models.UploadedFile) (models.ExtractedContent, error) {
	fail := func(err error) (models.ExtractedContent, error) {
		return models.ExtractedContent{}, &ExtractionFailedError{Format: KindWord.String(), Err: err}
	}

	r, err := zip.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		return fail(err)
	}

	var documentXML []byte
	for _, zf := range r.File {
		if zf.Name != "word/document.xml" {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return fail(err)
		}
		documentXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fail(err)
		}
		break
	}

	if documentXML == nil {
		return fail(fmt.Errorf("docx document.xml not found"))
	}

	text := normalizeExtractedText(stripDOCXML(documentXML))
	if text == "" {
		return models.ExtractedContent{}, &ExtractionEmptyError{Format: KindWord.String()}
	}

	return models.TextContent(text), nil
}

// extractSpreadsheet serializes the first sheet as CSV. Legacy BIFF
// workbooks go through the xls reader; everything else through excelize.
func (s *FileExtractService) extractSpreadsheet(f models.UploadedFile) (models.ExtractedContent, error) {
	fail := func(err error) (models.ExtractedContent, error) {
		return models.ExtractedContent{}, &ExtractionFailedError{Format: KindSpreadsheet.String(), Err: err}
	}

	var (
		rows [][]string
		err  error
	)
	if isCompoundFile(f.Data) {
		rows, err = readLegacyWorkbook(f.Data)
	} else {
		rows, err = s.readWorkbook(f)
	}
	if err != nil {
		return fail(err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return fail(err)
	}

	return models.TextContent(strings.TrimRight(buf.String(), "\n")), nil
}

// readWorkbook returns the rows of the first sheet of an OOXML workbook.
// excelize loads workbooks from disk, so in-memory uploads are staged in a
// temp file.
func (s *FileExtractService) readWorkbook(f models.UploadedFile) ([][]string, error) {
	path := f.Path
	if path == "" {
		ext := strings.ToLower(filepath.Ext(f.Filename))
		if ext == "" {
			ext = ".xlsx"
		}
		tmp, err := os.CreateTemp(s.tempDir, "sheet-*"+ext)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp.Name())

		if _, err := tmp.Write(f.Data); err != nil {
			tmp.Close()
			return nil, err
		}
		if err := tmp.Close(); err != nil {
			return nil, err
		}
		path = tmp.Name()
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return wb.GetRows(sheets[0])
}

func (s *FileExtractService) extractImage(f models.UploadedFile) (models.ExtractedContent, error) {
	return models.ImageContent(base64.StdEncoding.EncodeToString(f.Data)), nil
}

// SupportedFormats lists the media types accepted by Extract.
func SupportedFormats() []models.SupportedFormat {
	return []models.SupportedFormat{
		{Extension: ".txt", MimeType: mimeText, Description: "Plain Text"},
		{Extension: ".pdf", MimeType: mimePDF, Description: "PDF Document"},
		{Extension: ".doc", MimeType: mimeDoc, Description: "Word Document (legacy)"},
		{Extension: ".docx", MimeType: mimeDocx, Description: "Word Document"},
		{Extension: ".xls", MimeType: mimeXls, Description: "Excel Spreadsheet (legacy)"},
		{Extension: ".xlsx", MimeType: mimeXlsx, Description: "Excel Spreadsheet"},
		{Extension: ".jpg", MimeType: "image/jpeg", Description: "JPEG Image"},
		{Extension: ".png", MimeType: "image/png", Description: "PNG Image"},
		{Extension: ".webp", MimeType: "image/webp", Description: "WebP Image"},
	}
}

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

func stripDOCXML(src []byte) string {
	s := string(src)

	// DOCX paragraphs and line breaks
	s = strings.ReplaceAll(s, "</w:p>", "\n")
	s = strings.ReplaceAll(s, "<w:br/>", "\n")
	s = strings.ReplaceAll(s, "<w:br />", "\n")
	s = strings.ReplaceAll(s, "<w:tab/>", "\t")

	s = xmlTagPattern.ReplaceAllString(s, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
	return replacer.Replace(s)
}

func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	buf := bytes.Buffer{}

	emptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emptyCount++
			if emptyCount > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		emptyCount = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}

	return strings.TrimSpace(buf.String())
}
