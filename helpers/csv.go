package helpers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ============================================================================
// CSV HELPER — Parses delimited text into a header row + data rows
// ============================================================================
// Spreadsheet tools write CSV in whatever encoding and delimiter the host
// locale prefers. pt-BR Excel writes ";" and often a UTF-8 BOM; exports from
// this module write "," with a BOM. ReadCSV accepts all of them:
//   - a UTF-8 or UTF-16 BOM selects the decoder and is stripped
//   - the delimiter is sniffed from the header line
// ============================================================================

// Table is parsed delimited text.
type Table struct {
	Headers []string
	Rows    [][]string
	Lines   []int // 1-based source line where each row starts
	Comma   rune  // sniffed delimiter
}

// ReadCSV parses CSV bytes into the header row and the data rows.
// Rows may be ragged; fully blank rows are dropped.
func ReadCSV(data []byte) ([]string, [][]string, error) {
	t, err := ParseCSV(data)
	if err != nil {
		return nil, nil, err
	}
	return t.Headers, t.Rows, nil
}

// ParseCSV is ReadCSV keeping the delimiter and the source line of every
// row, so callers can report errors against the file as the user sees it.
func ParseCSV(data []byte) (*Table, error) {
	decoded := transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	br := bufio.NewReader(decoded)

	delim, err := sniffDelimiter(br)
	if err != nil {
		return nil, err
	}
	t := &Table{Comma: delim}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err == io.EOF {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	t.Headers = headers

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if isBlank(row) {
			continue
		}
		line, _ := reader.FieldPos(0)
		t.Rows = append(t.Rows, row)
		t.Lines = append(t.Lines, line)
	}

	return t, nil
}

// sniffDelimiter peeks at the first line and picks ";" when it outnumbers
// ",", otherwise ",".
func sniffDelimiter(br *bufio.Reader) (rune, error) {
	peek, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, fmt.Errorf("failed to read CSV: %w", err)
	}
	line := string(peek)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';', nil
	}
	return ',', nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
