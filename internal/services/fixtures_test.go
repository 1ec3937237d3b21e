package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docqa-backend/internal/models"
)

// buildPDF writes a one-page PDF whose content stream shows text. An empty
// text gives a page with nothing to extract.
func buildPDF(t *testing.T, text string) []byte {
	t.Helper()

	content := ""
	if text != "" {
		content = fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body bytes.Buffer
	for _, p := range paragraphs {
		fmt.Fprintf(&body, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func buildXLSX(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cell, &values))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// buildXLS writes a BIFF8 workbook with one sheet inside a compound file
// of 512-byte sectors. Numeric cells become NUMBER records, the rest go
// through the shared string table.
func buildXLS(t *testing.T, rows [][]string) []byte {
	t.Helper()

	const (
		endOfChain = 0xFFFFFFFE
		freeSect   = 0xFFFFFFFF
		fatSect    = 0xFFFFFFFD
		streamSize = 4096
	)

	record := func(buf *bytes.Buffer, id uint16, body []byte) {
		binary.Write(buf, binary.LittleEndian, id)
		binary.Write(buf, binary.LittleEndian, uint16(len(body)))
		buf.Write(body)
	}
	bof := func(kind uint16) []byte {
		b := make([]byte, 16)
		binary.LittleEndian.PutUint16(b[0:], 0x0600)
		binary.LittleEndian.PutUint16(b[2:], kind)
		return b
	}

	var sst []string
	var cells bytes.Buffer
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			head := make([]byte, 6)
			binary.LittleEndian.PutUint16(head[0:], uint16(r))
			binary.LittleEndian.PutUint16(head[2:], uint16(c))
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				body := append(head, make([]byte, 8)...)
				binary.LittleEndian.PutUint64(body[6:], math.Float64bits(f))
				record(&cells, 0x203, body)
				continue
			}
			body := append(head, make([]byte, 4)...)
			binary.LittleEndian.PutUint32(body[6:], uint32(len(sst)))
			sst = append(sst, v)
			record(&cells, 0xFD, body)
		}
	}

	var sstBody bytes.Buffer
	binary.Write(&sstBody, binary.LittleEndian, uint32(len(sst)))
	binary.Write(&sstBody, binary.LittleEndian, uint32(len(sst)))
	for _, v := range sst {
		binary.Write(&sstBody, binary.LittleEndian, uint16(len(v)))
		sstBody.WriteByte(0)
		sstBody.WriteString(v)
	}

	sheetName := "Sheet1"
	boundsheet := make([]byte, 8, 8+len(sheetName))
	boundsheet[6] = byte(len(sheetName))
	boundsheet = append(boundsheet, sheetName...)

	var stream bytes.Buffer
	record(&stream, 0x809, bof(0x0005))
	sheetPosAt := stream.Len() + 4
	record(&stream, 0x85, boundsheet)
	record(&stream, 0xFC, sstBody.Bytes())
	record(&stream, 0x0A, nil)
	sheetPos := stream.Len()
	record(&stream, 0x809, bof(0x0010))
	stream.Write(cells.Bytes())
	record(&stream, 0x0A, nil)
	require.LessOrEqual(t, stream.Len(), streamSize)

	workbook := make([]byte, streamSize)
	copy(workbook, stream.Bytes())
	binary.LittleEndian.PutUint32(workbook[sheetPosAt:], uint32(sheetPos))

	// Sector 0 holds the FAT, sector 1 the directory, sectors 2-9 the stream.
	header := make([]byte, 512)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	binary.LittleEndian.PutUint16(header[24:], 0x3E)
	binary.LittleEndian.PutUint16(header[26:], 3)
	binary.LittleEndian.PutUint16(header[28:], 0xFFFE)
	binary.LittleEndian.PutUint16(header[30:], 9)
	binary.LittleEndian.PutUint16(header[32:], 6)
	binary.LittleEndian.PutUint32(header[44:], 1)
	binary.LittleEndian.PutUint32(header[48:], 1)
	binary.LittleEndian.PutUint32(header[56:], streamSize)
	binary.LittleEndian.PutUint32(header[60:], endOfChain)
	binary.LittleEndian.PutUint32(header[68:], endOfChain)
	for i := 0; i < 109; i++ {
		binary.LittleEndian.PutUint32(header[76+4*i:], freeSect)
	}
	binary.LittleEndian.PutUint32(header[76:], 0)

	fat := make([]byte, 512)
	for i := 0; i < 128; i++ {
		binary.LittleEndian.PutUint32(fat[4*i:], freeSect)
	}
	binary.LittleEndian.PutUint32(fat[0:], fatSect)
	binary.LittleEndian.PutUint32(fat[4:], endOfChain)
	for sid := 2; sid < 9; sid++ {
		binary.LittleEndian.PutUint32(fat[4*sid:], uint32(sid+1))
	}
	binary.LittleEndian.PutUint32(fat[36:], endOfChain)

	dirEntry := func(name string, kind byte, child, start, size uint32) []byte {
		e := make([]byte, 128)
		for i, r := range name {
			binary.LittleEndian.PutUint16(e[2*i:], uint16(r))
		}
		binary.LittleEndian.PutUint16(e[64:], uint16(2*(len(name)+1)))
		e[66] = kind
		e[67] = 1
		binary.LittleEndian.PutUint32(e[68:], freeSect)
		binary.LittleEndian.PutUint32(e[72:], freeSect)
		binary.LittleEndian.PutUint32(e[76:], child)
		binary.LittleEndian.PutUint32(e[116:], start)
		binary.LittleEndian.PutUint32(e[120:], size)
		return e
	}
	dir := make([]byte, 0, 512)
	dir = append(dir, dirEntry("Root Entry", 5, 1, endOfChain, 0)...)
	dir = append(dir, dirEntry("Workbook", 2, freeSect, 2, streamSize)...)
	dir = append(dir, make([]byte, 256)...)

	var out bytes.Buffer
	out.Write(header)
	out.Write(fat)
	out.Write(dir)
	out.Write(workbook)
	return out.Bytes()
}

type fakeCompleter struct {
	mu     sync.Mutex
	reply  string
	err    error
	models []string
	calls  [][]models.PromptMessage
}

func (f *fakeCompleter) Complete(ctx context.Context, model string, messages []models.PromptMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models = append(f.models, model)
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
