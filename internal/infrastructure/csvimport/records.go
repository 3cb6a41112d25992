package csvimport

import (
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/farmacia/backoffice/internal/domain/shared"
)

// card terminal columns, optionally numbered: banco, debito2, creditoBs3
var cardColumn = regexp.MustCompile(`^(banco|bank|debito|debitobs|debit|debitbs|credito|creditobs|credit|creditbs)(\d*)$`)

// amountLike matches the numbers spreadsheets write, with either separator
var amountLike = regexp.MustCompile(`^-?[\d.,]+$`)

// ReadRecords turns a till-closing export into loosely typed records, one
// per data row, in the shape the reconciliation normalizer accepts. Card
// terminal columns are grouped into a cardPoints list; everything else is
// passed through by header name.
func ReadRecords(r io.Reader, opts ...ParserOption) ([]map[string]any, error) {
	p, err := NewParser(r, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.ParseHeader(); err != nil {
		return nil, err
	}
	rows, err := p.ReadAllRows()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(row, p.DecimalComma()))
	}
	return out, nil
}

func toRecord(row *Row, decimalComma bool) map[string]any {
	rec := make(map[string]any, len(row.Data)+1)
	points := map[string]map[string]any{}

	for header, value := range row.Data {
		if value == "" {
			continue
		}
		m := cardColumn.FindStringSubmatch(shared.FoldLabel(header))
		if m == nil {
			rec[header] = normalizeAmount(value, decimalComma)
			continue
		}
		slot := m[2]
		if slot == "" {
			slot = "1"
		}
		point, ok := points[slot]
		if !ok {
			point = map[string]any{}
			points[slot] = point
		}
		switch {
		case strings.HasPrefix(m[1], "ban"):
			point["bank"] = value
		case strings.HasPrefix(m[1], "deb"):
			point["debitBs"] = normalizeAmount(value, decimalComma)
		default:
			point["creditBs"] = normalizeAmount(value, decimalComma)
		}
	}

	if len(points) > 0 {
		slots := make([]string, 0, len(points))
		for s := range points {
			slots = append(slots, s)
		}
		sort.Slice(slots, func(i, j int) bool {
			a, _ := strconv.Atoi(slots[i])
			b, _ := strconv.Atoi(slots[j])
			return a < b
		})
		list := make([]any, 0, len(slots))
		for _, s := range slots {
			list = append(list, points[s])
		}
		rec["cardPoints"] = list
	}
	return rec
}

// normalizeAmount rewrites spreadsheet numbers to plain decimal notation.
// Text that does not look like an amount is returned unchanged.
func normalizeAmount(value string, decimalComma bool) string {
	if !amountLike.MatchString(value) {
		return value
	}
	if decimalComma {
		return strings.ReplaceAll(strings.ReplaceAll(value, ".", ""), ",", ".")
	}
	return strings.ReplaceAll(value, ",", "")
}
