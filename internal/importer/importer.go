// Package importer reads pattern piece lists from CSV, Excel and DXF files.
// Piece lists are rectangles described one per row; headers are optional
// and matched case-insensitively against a set of aliases.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/PatternNest/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Pieces   []model.Piece
	Errors   []string
	Warnings []string
}

// ColumnMapping holds the index of every column role, -1 when absent.
type ColumnMapping struct {
	Label    int
	Width    int
	Height   int
	Quantity int
	Grain    int
	Priority int
	Flip     int
}

// positional is the column order of a list without a header.
var positional = ColumnMapping{Label: 0, Width: 1, Height: 2, Quantity: 3, Grain: 4, Priority: 5, Flip: 6}

// columnRole names one column of a piece list with its accepted headers.
type columnRole struct {
	name    string
	aliases []string
	index   func(*ColumnMapping) *int
}

var columnRoles = []columnRole{
	{"Label", []string{"label", "name", "piece", "piece name", "part", "description", "desc", "item"},
		func(m *ColumnMapping) *int { return &m.Label }},
	{"Width", []string{"width", "w", "x"},
		func(m *ColumnMapping) *int { return &m.Width }},
	{"Height", []string{"height", "h", "length", "len", "y"},
		func(m *ColumnMapping) *int { return &m.Height }},
	{"Quantity", []string{"quantity", "qty", "count", "num", "amount", "pcs", "pieces", "copies"},
		func(m *ColumnMapping) *int { return &m.Quantity }},
	{"Grain", []string{"grain", "grainline", "grain direction", "direction", "grain dir"},
		func(m *ColumnMapping) *int { return &m.Grain }},
	{"Priority", []string{"priority", "prio", "group", "order"},
		func(m *ColumnMapping) *int { return &m.Priority }},
	{"Flip", []string{"flip", "flipping", "mirror", "mirroring"},
		func(m *ColumnMapping) *int { return &m.Flip }},
}

var delimiterNames = map[rune]string{',': "comma", ';': "semicolon", '\t': "tab", '|': "pipe"}

func newCSVReader(r io.Reader, delimiter rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

// DetectCSVDelimiter picks the delimiter, among comma, semicolon, tab and
// pipe, that splits the most rows into the same number of columns as the
// first one. Wider splits win ties; comma is the fallback.
func DetectCSVDelimiter(data []byte) rune {
	best, bestScore := ',', 0
	for _, delim := range []rune{',', ';', '\t', '|'} {
		records, err := newCSVReader(bytes.NewReader(data), delim).ReadAll()
		if err != nil || len(records) == 0 || len(records[0]) < 2 {
			continue
		}
		width := len(records[0])
		consistent := 0
		for _, r := range records {
			if len(r) == width {
				consistent++
			}
		}
		if score := consistent*10 + width; score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

// DetectColumns maps a header row onto column roles. When no cell is a
// known header it returns the positional mapping and false.
func DetectColumns(row []string) (ColumnMapping, bool) {
	m := ColumnMapping{Label: -1, Width: -1, Height: -1, Quantity: -1, Grain: -1, Priority: -1, Flip: -1}
	found := false
	for i, cell := range row {
		header := strings.ToLower(strings.TrimSpace(cell))
		for _, role := range columnRoles {
			idx := role.index(&m)
			if *idx == -1 && containsString(role.aliases, header) {
				*idx = i
				found = true
				break
			}
		}
	}
	if !found {
		return positional, false
	}
	return m, true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// parseGrain converts a grain direction string into a grainline across a
// w x h rectangle. It reports whether the string was recognized.
func parseGrain(s string, w, h float64) (model.Grainline, bool) {
	g := model.Grainline{
		Enabled: true,
		Start:   model.Point2D{X: w / 2, Y: 0},
		End:     model.Point2D{X: w / 2, Y: h},
		Arrows:  model.ArrowFront,
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertical", "v":
	case "horizontal", "h":
		g.Start = model.Point2D{X: 0, Y: h / 2}
		g.End = model.Point2D{X: w, Y: h / 2}
	case "both", "two-way", "two ways", "bidirectional":
		g.Arrows = model.ArrowsTwoWays
	case "any", "four-way", "four ways":
		g.Arrows = model.ArrowsFourWays
	case "", "none", "n", "-":
		return model.Grainline{}, true
	default:
		return model.Grainline{}, false
	}
	return g, true
}

// applyFlip sets the flipping flags from a flip column value. It reports
// whether the value was recognized.
func applyFlip(p *model.Piece, s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "force", "mirror", "mirrored", "yes":
		p.ForceFlipping = true
	case "forbid", "never", "no":
		p.ForbidFlipping = true
	case "pair", "left/right", "symmetrical":
		p.Symmetrical = true
		p.ForbidFlipping = true
	case "", "free", "any", "-":
	default:
		return false
	}
	return true
}

// rowParser reads one data row through a column mapping.
type rowParser struct {
	row     []string
	mapping ColumnMapping
	label   string // "Line 3", "Row 5"
}

func (rp rowParser) cell(idx int) string {
	if idx < 0 || idx >= len(rp.row) {
		return ""
	}
	return strings.TrimSpace(rp.row[idx])
}

// size reads a required dimension column.
func (rp rowParser) size(idx int, name string) (float64, error) {
	s := rp.cell(idx)
	if s == "" {
		return 0, fmt.Errorf("%s: Missing %s value", rp.label, strings.ToLower(name))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: Invalid %s '%s'", rp.label, strings.ToLower(name), s)
	}
	return v, nil
}

// piece builds a rectangular piece from the row. Unknown optional values
// come back as warnings; a missing or invalid size is an error.
func (rp rowParser) piece(n int) (model.Piece, []string, error) {
	width, err := rp.size(rp.mapping.Width, "Width")
	if err != nil {
		return model.Piece{}, nil, err
	}
	height, err := rp.size(rp.mapping.Height, "Height")
	if err != nil {
		return model.Piece{}, nil, err
	}
	qty := 1
	if s := rp.cell(rp.mapping.Quantity); s != "" {
		if qty, err = strconv.Atoi(s); err != nil {
			return model.Piece{}, nil, fmt.Errorf("%s: Invalid quantity '%s'", rp.label, s)
		}
	}
	if width <= 0 || height <= 0 || qty <= 0 {
		return model.Piece{}, nil, fmt.Errorf("%s: Width, height, and quantity must be positive", rp.label)
	}

	name := rp.cell(rp.mapping.Label)
	if name == "" {
		name = fmt.Sprintf("Piece %d", n+1)
	}
	piece := model.NewRectPiece(name, width, height, qty)

	var warnings []string
	if s := rp.cell(rp.mapping.Grain); s != "" {
		if g, ok := parseGrain(s, width, height); ok {
			piece.Grainline = g
		} else {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown grain direction '%s', ignoring grainline", rp.label, s))
		}
	}
	if s := rp.cell(rp.mapping.Priority); s != "" {
		if prio, err := strconv.ParseUint(s, 10, 32); err == nil {
			piece.Priority = uint(prio)
		} else {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid priority '%s', using 0", rp.label, s))
		}
	}
	if s := rp.cell(rp.mapping.Flip); !applyFlip(&piece, s) {
		warnings = append(warnings, fmt.Sprintf("%s: Unknown flip mode '%s', flipping left free", rp.label, s))
	}
	return piece, warnings, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportFile imports pieces from a CSV, Excel or DXF file, chosen by extension.
func ImportFile(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		return ImportCSV(path)
	case ".xlsx", ".xlsm", ".xls":
		return ImportExcel(path)
	case ".dxf":
		return ImportDXF(path)
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported file type '%s'", filepath.Ext(path))}}
	}
}

// ImportCSV imports pieces from a CSV file, detecting the delimiter first.
func ImportCSV(path string) ImportResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open file: %v", err)}}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ImportResult{Errors: []string{"File is empty"}}
	}

	delimiter := DetectCSVDelimiter(data)
	var notes []string
	if delimiter != ',' {
		notes = append(notes, fmt.Sprintf("Detected %s delimiter", delimiterNames[delimiter]))
	}
	result := ImportCSVFromReader(bytes.NewReader(data), delimiter)
	result.Warnings = append(notes, result.Warnings...)
	return result
}

// ImportCSVFromReader imports pieces from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	records, err := newCSVReader(reader, delimiter).ReadAll()
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return importRows(records, "Line")
}

// ImportExcel imports pieces from the first sheet of an Excel workbook.
func ImportExcel(path string) ImportResult {
	rows, err := readFirstSheet(path)
	if err != nil {
		return ImportResult{Errors: []string{err.Error()}}
	}
	return importRows(rows, "Row")
}

func readFirstSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("Cannot read Excel data: %w", err)
	}
	return rows, nil
}

// importRows turns table rows into pieces. rowPrefix names rows in
// messages, with 1-based numbers.
func importRows(rows [][]string, rowPrefix string) ImportResult {
	result := ImportResult{}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, header := DetectColumns(rows[0])
	if header {
		var missing []string
		for _, role := range columnRoles[1:3] {
			if *role.index(&mapping) == -1 {
				missing = append(missing, role.name)
			}
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		// an unknown header still has a non-numeric width cell
		_, err := strconv.ParseFloat(strings.TrimSpace(rows[0][positional.Width]), 64)
		header = err != nil
	}
	first := 0
	if header {
		first = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
	}

	for i := first; i < len(rows); i++ {
		if isEmptyRow(rows[i]) {
			continue
		}
		rp := rowParser{row: rows[i], mapping: mapping, label: fmt.Sprintf("%s %d", rowPrefix, i+1)}
		piece, warnings, err := rp.piece(len(result.Pieces))
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Pieces = append(result.Pieces, piece)
	}
	return result
}
