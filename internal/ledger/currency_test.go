package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanCurrency(t *testing.T) {
	cases := map[string]string{
		"$1,234.56":    "1234.56",
		"(500.00)":     "-500",
		"($1,000.25)":  "-1000.25",
		"--":           "0",
		"":             "0",
		"   ":          "0",
		"+$10.00":      "10",
		"-$3.50":       "-3.5",
		"$ 529,535.51": "529535.51",
		"42":           "42",
		"12.5%":        "12.5",
		"(1.25%)":      "-1.25",
		"-0.8%":        "-0.8",
	}
	for in, want := range cases {
		got, err := CleanCurrency(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
}

func TestCleanCurrency_RejectsGarbage(t *testing.T) {
	for _, in := range []string{"n/a", "$12.3.4", "abc$"} {
		_, err := CleanCurrency(in)
		var ce *CurrencyError
		require.ErrorAs(t, err, &ce, in)
		assert.Equal(t, in, ce.Input)
	}
}
