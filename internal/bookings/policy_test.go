package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldShowFullAddressToProvider(t *testing.T) {
	cases := []struct {
		status BookingStatus
		want   bool
	}{
		{BookingRequested, false},
		{BookingAccepted, false},
		{BookingDeclined, false},
		{BookingNeedsPayment, false},
		{BookingPaid, true},
		{BookingScheduled, true},
		{BookingInProgress, true},
		{BookingCompleted, true},
		{BookingCanceled, true},
		{BookingDisputed, true},
		{BookingRefunded, true},
		// A status added later must not disclose addresses by accident
		{BookingStatus("SOMETHING_NEW"), false},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldShowFullAddressToProvider(tc.status))
		})
	}
}

func TestRedactForProvider(t *testing.T) {
	b := Booking{
		Status:       BookingNeedsPayment,
		AddressLine1: "Hauptstrasse 12",
		AddressLine2: "Apt 3",
		City:         "Berlin",
		PostalCode:   "10115",
	}

	masked := redactForProvider(b)
	assert.Empty(t, masked.AddressLine1)
	assert.Empty(t, masked.AddressLine2)
	assert.Equal(t, "Berlin", masked.City)
	assert.Equal(t, "10115", masked.PostalCode)

	b.Status = BookingPaid
	full := redactForProvider(b)
	assert.Equal(t, "Hauptstrasse 12", full.AddressLine1)
	assert.Equal(t, "Apt 3", full.AddressLine2)
}
