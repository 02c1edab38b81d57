package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextOrEmpty(t *testing.T) {
	// A NULL address_line2 (or offer message) must read back as ""
	assert.Equal(t, "", textOrEmpty(nil))

	s := "Apt 3"
	assert.Equal(t, "Apt 3", textOrEmpty(&s))

	empty := ""
	assert.Equal(t, "", textOrEmpty(&empty))
}
