package bookings

// ShouldShowFullAddressToProvider decides whether a provider-facing view may
// disclose the customer's street address for a booking in the given status.
// Street lines stay hidden until payment is confirmed; city and postal code
// are always visible for logistics and matching. Redaction is applied
// server-side at the serialization boundary so a provider cannot recover the
// address by inspecting the raw response.
func ShouldShowFullAddressToProvider(status BookingStatus) bool {
	switch status {
	case BookingPaid, BookingScheduled, BookingInProgress, BookingCompleted,
		BookingCanceled, BookingDisputed, BookingRefunded:
		return true
	default:
		// REQUESTED, ACCEPTED, DECLINED, NEEDS_PAYMENT, and any status this
		// code does not know yet, stay redacted
		return false
	}
}

// redactForProvider returns a copy of the booking with street lines blanked
// when the policy denies disclosure. The stored entity is never mutated.
func redactForProvider(b Booking) Booking {
	if !ShouldShowFullAddressToProvider(b.Status) {
		b.AddressLine1 = ""
		b.AddressLine2 = ""
	}
	return b
}
