package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestNewParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("\xEF\xBB\xBFlocalidad,tasa\ncentro,40"))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())
		assert.Equal(t, "localidad", p.Headers()[0])
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("  \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("semicolon export switches to decimal comma", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("localidad;tasa;efectivoBs\ncentro;36,5;1.200,50"))
		require.NoError(t, err)
		assert.True(t, p.DecimalComma())
		require.NoError(t, p.ParseHeader())
		assert.Equal(t, []string{"localidad", "tasa", "efectivoBs"}, p.Headers())
	})

	t.Run("forced delimiter keeps dot decimals", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("a|b\n1|2"), WithDelimiter('|'))
		require.NoError(t, err)
		assert.False(t, p.DecimalComma())
		require.NoError(t, p.ParseHeader())
		assert.Equal(t, []string{"a", "b"}, p.Headers())
	})

	t.Run("missing header", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("\n\n,"))
		require.NoError(t, err)
		assert.ErrorIs(t, p.ParseHeader(), ErrMissingHeader)
	})
}

func TestParser_ReadAllRows(t *testing.T) {
	p, err := NewParser(strings.NewReader("cajero,turno\nc1,Mañana\n,\nc2\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	rows, err := p.ReadAllRows()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].LineNumber)
	assert.Equal(t, "Mañana", rows[0].Data["turno"])
	assert.Equal(t, 4, rows[1].LineNumber)
	assert.Equal(t, "", rows[1].Data["turno"])
}

func TestReadRecords(t *testing.T) {
	t.Run("card columns are grouped", func(t *testing.T) {
		csv := "localidad,cajeroId,fecha,tasa,efectivoBs,banco,debito,credito,banco2,debito2\n" +
			"centro,c1,2024-03-01,40,\"4,000.00\",Banesco,120,30,Mercantil,50\n"
		recs, err := ReadRecords(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, recs, 1)

		r := recs[0]
		assert.Equal(t, "centro", r["localidad"])
		assert.Equal(t, "2024-03-01", r["fecha"])
		assert.Equal(t, "4000.00", r["efectivoBs"])
		points, ok := r["cardPoints"].([]any)
		require.True(t, ok)
		require.Len(t, points, 2)
		assert.Equal(t, map[string]any{"bank": "Banesco", "debitBs": "120", "creditBs": "30"}, points[0])
		assert.Equal(t, map[string]any{"bank": "Mercantil", "debitBs": "50"}, points[1])
	})

	t.Run("decimal comma export", func(t *testing.T) {
		csv := "localidad;tasa;efectivoBs;turno\nnorte;36,5;1.200,50;Tarde\n"
		recs, err := ReadRecords(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "36.5", recs[0]["tasa"])
		assert.Equal(t, "1200.50", recs[0]["efectivoBs"])
		assert.Equal(t, "Tarde", recs[0]["turno"])
		assert.NotContains(t, recs[0], "cardPoints")
	})

	t.Run("Windows-1252 file is decoded", func(t *testing.T) {
		raw, err := charmap.Windows1252.NewEncoder().String("localidad,turno\ncentro,Mañana\n")
		require.NoError(t, err)
		recs, err := ReadRecords(strings.NewReader(raw))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "Mañana", recs[0]["turno"])
	})

	t.Run("header only", func(t *testing.T) {
		_, err := ReadRecords(strings.NewReader("localidad,tasa\n"))
		assert.ErrorIs(t, err, ErrNoDataRows)
	})
}

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		in           string
		decimalComma bool
		want         string
	}{
		{"1,234.50", false, "1234.50"},
		{"1.234,50", true, "1234.50"},
		{"-12,5", true, "-12.5"},
		{"2024-03-01", false, "2024-03-01"},
		{"Banesco", true, "Banesco"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeAmount(tt.in, tt.decimalComma), tt.in)
	}
}
