package models

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Sheet1"

// EncodeXLSX writes the snapshot as a single-sheet workbook with a header row.
// Every cell is written as a string so values come back exactly as stored.
func EncodeXLSX(s *Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(s.Columns))
	for i, col := range s.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, row := range s.Rows {
		cells := make([]interface{}, len(s.Columns))
		for j, col := range s.Columns {
			cells[j] = row[col]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeXLSX reads the first sheet of a workbook. The first row is the header;
// blank rows are dropped and short rows are padded with absent cells.
func DecodeXLSX(data []byte) (*Snapshot, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Snapshot{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet: %w", err)
	}
	if len(rows) == 0 {
		return &Snapshot{}, nil
	}

	// header position -> column name, blank header cells are ignored
	columns := make([]string, 0, len(rows[0]))
	positions := make(map[int]string, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if name == "" || containsColumn(columns, name) {
			continue
		}
		columns = append(columns, name)
		positions[i] = name
	}

	s := &Snapshot{Columns: columns}
	for _, cells := range rows[1:] {
		row := make(Row, len(columns))
		blank := true
		for i, v := range cells {
			col, ok := positions[i]
			if !ok {
				continue
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			row[col] = v
		}
		if blank {
			continue
		}
		for _, col := range columns {
			if _, ok := row[col]; !ok {
				row[col] = ""
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}
