package booking

import "errors"

var (
	// ErrDuplicateBooking is returned when the user already holds a booking
	// on the requested date (unique violation on user_id + court_date).
	ErrDuplicateBooking = errors.New("booking.repository: duplicate booking for user and date")

	// ErrBookingNotFound is returned when no row matches the given id.
	ErrBookingNotFound = errors.New("booking.repository: booking not found")
)
