package market

import (
	"regexp"
	"strings"
)

// Symbols implements the syntactic ticker checks shared by every provider.
// Embed it to satisfy the IsCashLike/IsValidSymbol half of Source.
type Symbols struct{}

var (
	equityRe = regexp.MustCompile(`^[A-Z]{1,5}([.\-][A-Z]{1,2})?$`)
	fundRe   = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,5}$`)
)

// cashTickerMarkers are substrings that mark a sweep or money-market ticker.
var cashTickerMarkers = []string{"MMKT", "CASH", "TREASURY"}

// cashFunds are money-market funds brokers use as core positions.
var cashFunds = map[string]bool{
	"SPAXX": true, "FDRXX": true, "FZFXX": true, "SPRXX": true, "FMPXX": true,
	"FZDXX": true, "FCASH": true, "SWVXX": true, "SNVXX": true, "SNOXX": true,
	"VMFXX": true, "VMMXX": true, "VUSXX": true, "TTTXX": true, "QACDS": true,
}

var cashDescriptionPhrases = []string{
	"MONEY MARKET",
	"CASH RESERVES",
	"GOVERNMENT CASH",
	"TREASURY MONEY",
	"SWEEP",
	"HELD IN MONEY MARKET",
	"FDIC INSURED DEPOSIT",
}

// IsCashLike reports whether a ticker or description names a money-market,
// sweep or treasury cash holding.
func (Symbols) IsCashLike(ticker, description string) bool {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if cashFunds[t] {
		return true
	}
	for _, m := range cashTickerMarkers {
		if t != "" && strings.Contains(t, m) {
			return true
		}
	}
	desc := strings.ToUpper(description)
	for _, p := range cashDescriptionPhrases {
		if strings.Contains(desc, p) {
			return true
		}
	}
	return false
}

// IsValidSymbol is a syntactic check: one to five letters with an optional
// class suffix (BRK.B, BF-B), or a fund-style alphanumeric code.
func (Symbols) IsValidSymbol(ticker string) bool {
	t := strings.TrimSpace(ticker)
	return equityRe.MatchString(t) || fundRe.MatchString(t)
}

var marketSuffixes = map[string]bool{"US": true, "HK": true, "SG": true, "SH": true, "SZ": true}

// FullSymbol returns a symbol with market suffix, e.g. "NVDA" -> "NVDA.US".
// Share-class suffixes are kept: "BRK.B" -> "BRK.B.US".
func FullSymbol(symbol, market string) string {
	if i := strings.LastIndex(symbol, "."); i >= 0 && marketSuffixes[symbol[i+1:]] {
		return symbol
	}
	return symbol + "." + market
}
