package jobrequests

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanBid(t *testing.T) {
	ok, reason := canBid("cust-1", "prov-1", "OPEN")
	assert.True(t, ok)
	assert.Empty(t, reason)

	// Own request
	ok, reason = canBid("cust-1", "cust-1", "OPEN")
	assert.False(t, ok)
	assert.Equal(t, "you cannot bid on your own request", reason)

	// Anything past OPEN refuses, including a request assigned by a
	// concurrent acceptance
	for _, status := range []string{"ASSIGNED", "CLOSED"} {
		ok, reason = canBid("cust-1", "prov-1", status)
		assert.False(t, ok, status)
		assert.Equal(t, "request is no longer open", reason)
	}
}
