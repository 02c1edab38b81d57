package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderPayout(t *testing.T) {
	assert.Equal(t, int64(50000), providerPayout(50000, 0))
	assert.Equal(t, int64(45000), providerPayout(50000, 5000))
	assert.Equal(t, int64(0), providerPayout(50000, 50000))
	// A misconfigured fee must not produce a negative payout
	assert.Equal(t, int64(0), providerPayout(50000, 60000))
	assert.Equal(t, int64(0), providerPayout(0, 0))
}
