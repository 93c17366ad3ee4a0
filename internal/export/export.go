// Package export writes a session's response log and audiogram to CSV and
// XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/session"
)

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, XLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv or xlsx)", s)
}

const (
	logSheet       = "Log"
	audiogramSheet = "Audiogram"
)

// AudiogramHeader is the column order of the audiogram sheet.
var AudiogramHeader = []string{"ear", "transducer", "freq_Hz", "dB", "masked", "scaleOut"}

// WriteCSV writes the header and rows.
func WriteCSV(w io.Writer, rows []session.LogRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(session.LogHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("write row %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with the log on one sheet and the plotted
// points on another.
func WriteXLSX(w io.Writer, rows []session.LogRow, points []audiometry.Point) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with Sheet1; rename it rather than leave it empty.
	if err := f.SetSheetName("Sheet1", logSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRows(f, logSheet, session.LogHeader, len(rows), func(i int) []any {
		r := rows[i]
		masker := any(r.MaskerLevel)
		if n, err := strconv.Atoi(r.MaskerLevel); err == nil {
			masker = n
		}
		return []any{r.Index, r.Timestamp.UTC(), r.Ear, r.Transducer, r.FrequencyHz, r.DB, r.Masked, masker, r.ScaleOut}
	}); err != nil {
		return err
	}

	if _, err := f.NewSheet(audiogramSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeRows(f, audiogramSheet, AudiogramHeader, len(points), func(i int) []any {
		p := points[i]
		return []any{string(p.Ear), string(p.Transducer), p.Frequency, p.Level, p.Masked, p.ScaleOut}
	}); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []string, n int, row func(int) []any) error {
	for c, h := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("%s header: %w", sheet, err)
		}
	}
	for r := range n {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		vals := row(r)
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, r+1, err)
		}
	}
	return nil
}
