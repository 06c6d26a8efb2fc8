package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTicker(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		exchange   string
		code       string
		eodhd      string
		qualified  string
	}{
		{"colon separator", "ASX:GNP", "ASX", "GNP", "GNP.AU", "ASX:GNP"},
		{"lowercase input", "asx:gnp", "ASX", "GNP", "GNP.AU", "ASX:GNP"},
		{"us exchange", "NASDAQ:AAPL", "NASDAQ", "AAPL", "AAPL.US", "NASDAQ:AAPL"},
		{"nyse", "NYSE:IBM", "NYSE", "IBM", "IBM.US", "NYSE:IBM"},
		{"dot separator known exchange", "ASX.GNP", "ASX", "GNP", "GNP.AU", "ASX:GNP"},
		{"bare code uses default", "GNP", "ASX", "GNP", "GNP.AU", "ASX:GNP"},
		{"whitespace trimmed", "  ASX:GNP  ", "ASX", "GNP", "GNP.AU", "ASX:GNP"},
		{"lse", "LSE:VOD", "LSE", "VOD", "VOD.LSE", "LSE:VOD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticker := ParseTicker(tt.input)
			assert.Equal(t, tt.exchange, ticker.Exchange)
			assert.Equal(t, tt.code, ticker.Code)
			assert.Equal(t, tt.eodhd, ticker.EODHDSymbol())
			assert.Equal(t, tt.qualified, ticker.String())
		})
	}
}

func TestParseTickerEmpty(t *testing.T) {
	ticker := ParseTicker("")
	assert.Empty(t, ticker.Code)
	assert.Empty(t, ticker.EODHDSymbol())
}

func TestSetDefaultExchange(t *testing.T) {
	original := DefaultExchange
	defer SetDefaultExchange(original)

	SetDefaultExchange("nyse")
	ticker := ParseTicker("IBM")
	assert.Equal(t, "NYSE", ticker.Exchange)
	assert.Equal(t, "IBM.US", ticker.EODHDSymbol())

	// Empty is ignored
	SetDefaultExchange("")
	assert.Equal(t, "NYSE", DefaultExchange)
}

func TestParseTickersSkipsEmpty(t *testing.T) {
	tickers := ParseTickers([]string{"ASX:GNP", "", "  ", "NASDAQ:AAPL"})
	assert.Len(t, tickers, 2)
	assert.Equal(t, "ASX:GNP", tickers[0].String())
	assert.Equal(t, "NASDAQ:AAPL", tickers[1].String())
}
