package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Common import errors
var (
	// ErrEmptyFile is returned when the CSV file is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")

	// ErrNoDataRows is returned when the CSV file has no data rows
	ErrNoDataRows = errors.New("CSV file contains no data rows")
)

// sniffSize is how much of the file is inspected for encoding and delimiter
const sniffSize = 4096

// Parser reads till-closing exports produced by spreadsheets. It strips a
// UTF-8 BOM, decodes Windows-1252 files and detects ';' exports, which in
// es-VE locales also write amounts with a decimal comma.
type Parser struct {
	delimiter    rune
	decimalComma bool
	headers      []string
	currentRow   int
	reader       *csv.Reader
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*Parser)

// WithDelimiter forces the field delimiter instead of detecting it
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// WithDecimalComma forces "1.234,56" amounts to be read as 1234.56
func WithDecimalComma(on bool) ParserOption {
	return func(p *Parser) {
		p.decimalComma = on
	}
}

// NewParser prepares r for reading
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	buf := bufio.NewReaderSize(r, sniffSize)

	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if bytes.HasPrefix(head, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = buf.Discard(3)
	}

	sample, err := buf.Peek(sniffSize)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(sample)) == 0 {
		return nil, ErrEmptyFile
	}

	var src io.Reader = buf
	if !validUTF8(sample, len(sample) == sniffSize) {
		src = transform.NewReader(buf, charmap.Windows1252.NewDecoder())
	}

	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.delimiter == 0 {
		p.delimiter = detectDelimiter(sample)
		if p.delimiter == ';' {
			p.decimalComma = true
		}
	}

	p.reader = csv.NewReader(src)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// validUTF8 tolerates a rune cut by the end of a truncated sample
func validUTF8(sample []byte, truncated bool) bool {
	if utf8.Valid(sample) {
		return true
	}
	if !truncated {
		return false
	}
	for cut := 1; cut < utf8.UTFMax && cut < len(sample); cut++ {
		if utf8.Valid(sample[:len(sample)-cut]) {
			return true
		}
	}
	return false
}

// detectDelimiter picks the most frequent of ',', ';' and tab on the first line
func detectDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// DecimalComma reports whether amounts are read with a decimal comma
func (p *Parser) DecimalComma() bool {
	return p.decimalComma
}

// ParseHeader reads the header row
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, 0, len(record))
	named := false
	for _, h := range record {
		h = strings.TrimSpace(h)
		named = named || h != ""
		p.headers = append(p.headers, h)
	}
	if !named {
		return ErrMissingHeader
	}
	p.currentRow = 1
	return nil
}

// Headers returns the parsed header names
func (p *Parser) Headers() []string {
	return p.headers
}

// Row is one data line keyed by header
type Row struct {
	LineNumber int
	Data       map[string]string
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row; io.EOF marks the end of the file
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}

	row := &Row{LineNumber: p.currentRow, Data: make(map[string]string, len(p.headers))}
	for i, header := range p.headers {
		if header == "" {
			continue
		}
		if i < len(record) {
			row.Data[header] = strings.TrimSpace(record[i])
		} else {
			row.Data[header] = ""
		}
	}
	return row, nil
}

// ReadAllRows reads the remaining rows, skipping blank lines
func (p *Parser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if !row.IsEmpty() {
			rows = append(rows, row)
		}
	}
}
