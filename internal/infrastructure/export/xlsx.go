// Package export renders record lists as spreadsheets.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"staffdesk/internal/metadata"
)

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Export"

// Columns returns the exported fields of def: everything except the
// internal version counter, in declaration order.
func Columns(def metadata.EntityDef) []metadata.FieldDef {
	out := make([]metadata.FieldDef, 0, len(def.Fields))
	for _, f := range def.Fields {
		if f.Name == "version" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// FileName returns the download name of an export of def taken at now.
func FileName(def metadata.EntityDef, now time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", def.Name, now.UTC().Format("20060102-150405"))
}

// WriteXLSX writes records as one sheet with a header row of field labels.
// Records are read through their JSON form so the columns match the API.
func WriteXLSX[T any](w io.Writer, def metadata.EntityDef, records []T) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return fmt.Errorf("date style: %w", err)
	}
	dateTimeStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		return fmt.Errorf("datetime style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	columns := Columns(def)
	header := make([]any, len(columns))
	for i, col := range columns {
		label := col.Label
		if label == "" {
			label = col.Name
		}
		header[i] = excelize.Cell{StyleID: headerStyle, Value: label}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, record := range records {
		raw, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i+1, err)
		}
		var fields map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return fmt.Errorf("decode row %d: %w", i+1, err)
		}

		row := make([]any, len(columns))
		for j, col := range columns {
			row[j] = cellValue(col, fields[col.Name], dateStyle, dateTimeStyle)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(col metadata.FieldDef, v any, dateStyle, dateTimeStyle int) any {
	if v == nil {
		return nil
	}
	switch col.Type {
	case metadata.TypeDate:
		if t, ok := parseTime(v); ok {
			return timeCell(t, dateStyle)
		}
	case metadata.TypeDateTime:
		if t, ok := parseTime(v); ok {
			return timeCell(t, dateTimeStyle)
		}
	case metadata.TypeMoney, metadata.TypeNumber, metadata.TypeInteger:
		switch n := v.(type) {
		case json.Number:
			if d, err := decimal.NewFromString(n.String()); err == nil {
				return d.InexactFloat64()
			}
		case string:
			if d, err := decimal.NewFromString(n); err == nil {
				return d.InexactFloat64()
			}
		}
	}

	switch val := v.(type) {
	case string, bool:
		return val
	case json.Number:
		return val.String()
	default:
		raw, _ := json.Marshal(val)
		return string(raw)
	}
}

func timeCell(t time.Time, style int) any {
	if t.IsZero() {
		return nil
	}
	return excelize.Cell{StyleID: style, Value: t}
}

func parseTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
