// Package tabular loads CSV and XLSX files into survey frames. Headers come
// from the first row; cells that do not parse as numbers become NaN, which
// is how the frame encodes missingness.
package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"surveyweight/domain/core"
	"surveyweight/domain/survey"
)

// FrameReader handles reading Excel and CSV files into frames.
type FrameReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewFrameReader creates a reader that handles both Excel and CSV files,
// dispatching on the file extension.
func NewFrameReader(filePath string) *FrameReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &FrameReader{filePath: filePath, fileType: fileType}
}

// ReadFrame loads the file into a column-oriented frame.
func (r *FrameReader) ReadFrame(ctx context.Context) (*survey.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}

	return buildFrame(rows)
}

func (r *FrameReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

func (r *FrameReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := "Sheet1"
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func buildFrame(rows [][]string) (*survey.Frame, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: need a header row and at least one data row", core.ErrInsufficientData)
	}

	header := rows[0]
	data := rows[1:]

	frame := survey.NewFrame()
	for j, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", j+1)
		}

		col := make([]float64, len(data))
		missing := 0
		binary := true
		for i, row := range data {
			cell := ""
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			v, ok := parseCell(cell)
			if !ok {
				col[i] = math.NaN()
				missing++
				continue
			}
			col[i] = v
			if v != 0 && v != 1 {
				binary = false
			}
		}

		st := survey.TypeNumeric
		if binary && missing < len(data) {
			st = survey.TypeBinary
		}
		if err := frame.AddColumn(core.VariableKey(name), col, st); err != nil {
			return nil, err
		}

		if missing > 0 {
			log.Printf("[FrameReader] column %s: %d/%d cells missing", name, missing, len(data))
		}
	}

	if err := frame.Validate(); err != nil {
		return nil, err
	}
	log.Printf("[FrameReader] loaded %d rows x %d columns", frame.RowCount(), frame.ColumnCount())
	return frame, nil
}

func parseCell(cell string) (float64, bool) {
	if cell == "" || strings.EqualFold(cell, "na") || strings.EqualFold(cell, "nan") || cell == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
