package services

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/extrame/xls"
)

// compoundFileMagic opens every OLE2 compound file, the container of
// BIFF8 .xls workbooks.
var compoundFileMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// BIFF8 allows at most 256 columns per sheet.
const legacyMaxColumns = 256

func isCompoundFile(data []byte) bool {
	return bytes.HasPrefix(data, compoundFileMagic)
}

// readLegacyWorkbook returns the rows of the first sheet of a BIFF .xls
// workbook, trailing empty cells trimmed.
func readLegacyWorkbook(data []byte) (rows [][]string, err error) {
	// The xls reader indexes its record tables without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = fmt.Errorf("xls decoder panic: %v", r)
		}
	}()

	// The compound-file reader only handles 512-byte sectors.
	if len(data) < 512 || binary.LittleEndian.Uint16(data[30:32]) != 9 {
		return nil, errors.New("unsupported compound file sector size")
	}

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, errors.New("no workbook stream in compound file")
	}
	if wb.NumSheets() == 0 {
		return nil, nil
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := legacyRow(sheet, i)
		if row == nil {
			rows = append(rows, []string{})
			continue
		}
		cells := make([]string, 0, 8)
		for c := 0; c < legacyMaxColumns; c++ {
			cells = append(cells, row.Col(c))
		}
		last := len(cells)
		for last > 0 && cells[last-1] == "" {
			last--
		}
		rows = append(rows, cells[:last])
	}

	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

// legacyRow returns nil for rows the sheet never defined.
func legacyRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}
