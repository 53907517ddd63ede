package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatUSD(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$20.00", FormatUSD(2000))
	assert.Equal(t, "$15.50", FormatUSD(1550))
	assert.Equal(t, "$0.05", FormatUSD(5))
	assert.Equal(t, "$0.00", FormatUSD(0))
	assert.Equal(t, "-$1.25", FormatUSD(-125))
}

func TestFromCentsKeepsExactValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "25.99", FromCents(2599).StringFixed(2))
}
