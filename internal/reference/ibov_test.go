package reference

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"B3Sentinel/internal/model"
)

const sample = `Codigo;Acao;Tipo;Qtde. Teorica;Part. (%)
VALE3;VALE;ON NM;4.196.924.316;11,164
ITUB4;ITAUUNIBANCO;PN ED N1;5.316.249.016;8,009
PETR4;PETROBRAS;PN N2;4.566.445.852;7,156
ABEV3;AMBEV S/A;ON;4.394.835.131;2,567
Quantidade Teorica Total;;;43.000.000.000;
Redutor;;;15.000,42;
`

func TestParseComposition_SortsByWeight(t *testing.T) {
	tickers, err := ParseComposition(strings.NewReader(sample), DefaultSuffix)
	require.NoError(t, err)
	require.Len(t, tickers, 4)

	assert.Equal(t, "VALE3", tickers[0].Symbol)
	assert.Equal(t, "VALE3.SA", tickers[0].YahooSymbol)
	assert.Equal(t, "ON NM", tickers[0].Type)
	assert.InDelta(t, 11.164, tickers[0].Weight, 1e-9)
	assert.Equal(t, []string{"VALE3.SA", "ITUB4.SA", "PETR4.SA", "ABEV3.SA"}, Symbols(tickers))
	for i := 1; i < len(tickers); i++ {
		assert.GreaterOrEqual(t, tickers[i-1].Weight, tickers[i].Weight)
	}
}

func TestParseComposition_UnsortedInput(t *testing.T) {
	in := "Codigo;Acao;Part. (%)\nABEV3;AMBEV;1,5\nWEGE3;WEG;3,25\nBBAS3;BRASIL;3,25\n"
	tickers, err := ParseComposition(strings.NewReader(in), DefaultSuffix)
	require.NoError(t, err)
	assert.Equal(t, []string{"BBAS3.SA", "WEGE3.SA", "ABEV3.SA"}, Symbols(tickers))
}

func TestParseComposition_Latin1(t *testing.T) {
	in, err := charmap.ISO8859_1.NewEncoder().String("Codigo;Acao;Part. (%)\nPETR4;PETROBRÁS;7,1\n")
	require.NoError(t, err)

	tickers, err := ParseComposition(strings.NewReader(in), DefaultSuffix)
	require.NoError(t, err)
	require.Len(t, tickers, 1)
	assert.Equal(t, "PETROBRÁS", tickers[0].Name)
}

func TestParseComposition_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"missing weight column", "Codigo;Acao\nPETR4;PETROBRAS\n"},
		{"missing symbol column", "Ticker;Acao;Part. (%)\nPETR4;PETROBRAS;1,0\n"},
		{"no rows", "Codigo;Acao;Part. (%)\n"},
		{"bad weight", "Codigo;Acao;Part. (%)\nPETR4;PETROBRAS;abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseComposition(strings.NewReader(tt.in), DefaultSuffix)
			assert.ErrorIs(t, err, model.ErrDataUnavailable)
		})
	}
}

func TestLoadComposition_MissingFile(t *testing.T) {
	_, err := LoadComposition(filepath.Join(t.TempDir(), "nope.csv"), DefaultSuffix)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

func TestLoadComposition_BundledFile(t *testing.T) {
	tickers, err := LoadComposition(filepath.Join("..", "..", "data", "IBOVDia_05-02-25.csv"), DefaultSuffix)
	require.NoError(t, err)
	assert.NotEmpty(t, tickers)
	assert.Equal(t, "VALE3.SA", tickers[0].YahooSymbol)
}

func TestParseLocaleNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"11,164", 11.164},
		{"1.234,56", 1234.56},
		{"4.196.924.316", 4196924316},
		{" 0,5 ", 0.5},
	}
	for _, tt := range tests {
		got, err := ParseLocaleNumber(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
	_, err := ParseLocaleNumber("1,2,3")
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	tickers, err := ParseComposition(strings.NewReader(sample), DefaultSuffix)
	require.NoError(t, err)
	names := Names(tickers)
	assert.Equal(t, "PETROBRAS", names["PETR4.SA"])
}
