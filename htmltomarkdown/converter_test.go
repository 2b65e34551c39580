package htmltomarkdown_test

import (
	"testing"

	"github.com/lotscan/lotscan"
	"github.com/lotscan/lotscan/htmltomarkdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	t.Run("converts a listing card", func(t *testing.T) {
		t.Parallel()

		html := `<div class="vehicle-card">
			<h3>2021 Toyota Camry SE</h3>
			<p>Price: $24,999</p>
			<p>Mileage: 31,000 mi</p>
		</div>`

		conv := htmltomarkdown.NewConverter()
		md, err := conv.Convert(html)
		require.NoError(t, err)

		assert.Contains(t, md, "2021 Toyota Camry SE")
		assert.Contains(t, md, "$24,999")
		assert.Contains(t, md, "31,000 mi")
	})

	t.Run("converts spec tables", func(t *testing.T) {
		t.Parallel()

		html := `<table>
			<tr><th>VIN</th><th>Price</th></tr>
			<tr><td>1HGCM82633A004352</td><td>$18,500</td></tr>
		</table>`

		conv := htmltomarkdown.NewConverter()
		md, err := conv.Convert(html)
		require.NoError(t, err)

		assert.Contains(t, md, "1HGCM82633A004352")
		assert.Contains(t, md, "|")
	})

	t.Run("collapses runs of blank lines", func(t *testing.T) {
		t.Parallel()

		html := `<div><p>First</p></div><div></div><div></div><div><p>Second</p></div>`

		conv := htmltomarkdown.NewConverter()
		md, err := conv.Convert(html)
		require.NoError(t, err)

		assert.NotContains(t, md, "\n\n\n")
	})

	t.Run("empty input is invalid", func(t *testing.T) {
		t.Parallel()

		conv := htmltomarkdown.NewConverter()
		_, err := conv.Convert("   ")
		require.Error(t, err)
		assert.Equal(t, lotscan.EINVALID, lotscan.ErrorCode(err))
	})
}
