package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNanosToMicros(t *testing.T) {
	assert.Equal(t, int64(0), NanosToMicros(999))
	assert.Equal(t, int64(1), NanosToMicros(1999))
	assert.Equal(t, int64(1_700_000_000_123_456), NanosToMicros(1_700_000_000_123_456_789))
}

func TestFloatNanosToMicros(t *testing.T) {
	assert.Equal(t, int64(10000), FloatNanosToMicros(1e7))
	assert.Equal(t, int64(12), FloatNanosToMicros(12999.0))
}

func TestMicrosSeconds(t *testing.T) {
	assert.InDelta(t, 1.5, MicrosToSeconds(1_500_000), 1e-12)
	assert.Equal(t, uint64(10000), SecondsToMicros(0.01))
}
