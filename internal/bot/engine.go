package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tennis_bot/internal/booking"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Dialogue states. The main menu is the rest state every flow returns to.
type State string

const (
	StateMainMenu         State = ""
	StateAwaitingName     State = "awaiting_name"
	StateAwaitingDate     State = "awaiting_date"
	StateAwaitingTime     State = "awaiting_time"
	StateAwaitingConfirm  State = "awaiting_confirm"
	StateRescheduleSelect State = "reschedule_select"
	StateRescheduleDate   State = "reschedule_date"
	StateRescheduleTime   State = "reschedule_time"
	StateCancelSelect     State = "cancel_select"
)

const (
	menuText = "Welcome to Tennis Court Booking! Choose an option:\n" +
		"1. Book Court\n2. View Bookings\n3. Reschedule Booking\n4. Cancel Booking"
	askNameText       = "Enter your name:"
	askDateText       = "Enter the date for your booking (YYYY-MM-DD):"
	askTimeText       = "Enter the time (HH:MM, 24-hour):"
	invalidDateText   = "That is not a valid date. Please use YYYY-MM-DD, e.g. 2025-06-01."
	invalidTimeText   = "That is not a valid time. Please use HH:MM, e.g. 18:00."
	duplicateText     = "You already have a booking on this date."
	storeFailureText  = "Something went wrong on our side. Please try again."
	bookingCancelled  = "Booking cancelled."
	noBookingsText    = "You have no bookings yet."
	selectNumberText  = "Please reply with the number of a booking from the list."
	cancelAbortedText = "That booking no longer exists."
	askNewDateText    = "Enter the new date (YYYY-MM-DD):"
	askNewTimeText    = "Enter the new time (HH:MM, 24-hour):"
)

// Repository is the booking store as the engine sees it.
type Repository interface {
	CreateBooking(b *booking.Booking) error
	GetUserBookings(userID string) ([]booking.Booking, error)
	UpdateSchedule(id int, courtDate, courtTime string) error
	DeleteBooking(id int) error
}

// Sender delivers one outbound message. Failures are logged, not retried.
type Sender interface {
	Send(to, body string) error
}

// draft holds the in-progress booking fields collected across turns.
type draft struct {
	name      string
	date      string
	time      string
	bookingID int
}

type session struct {
	mu      sync.Mutex
	state   State
	draft   draft
	pending []booking.Booking // numbered list shown for reschedule/cancel selection
}

// Engine owns per-user dialogue sessions and maps each incoming message to
// a state transition, an outbound reply and, on confirmation, a store write.
type Engine struct {
	repo   Repository
	sender Sender

	mu       sync.Mutex
	sessions map[string]*session
}

func NewEngine(repo Repository, sender Sender) *Engine {
	return &Engine{
		repo:     repo,
		sender:   sender,
		sessions: make(map[string]*session),
	}
}

// Process handles one inbound message to completion. Messages from the same
// user serialize on the session lock; different users do not contend.
func (e *Engine) Process(userID, text string) {
	s := e.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	e.handle(userID, s, strings.TrimSpace(text))
}

func (e *Engine) session(userID string) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[userID]
	if !ok {
		s = &session{}
		e.sessions[userID] = s
	}
	return s
}

func (e *Engine) handle(userID string, s *session, text string) {
	switch s.state {
	case StateAwaitingName:
		e.handleNameInput(userID, s, text)
	case StateAwaitingDate:
		e.handleDateInput(userID, s, text)
	case StateAwaitingTime:
		e.handleTimeInput(userID, s, text)
	case StateAwaitingConfirm:
		e.handleConfirmation(userID, s, text)
	case StateRescheduleSelect:
		e.handleRescheduleSelection(userID, s, text)
	case StateRescheduleDate:
		e.handleRescheduleDate(userID, s, text)
	case StateRescheduleTime:
		e.handleRescheduleTime(userID, s, text)
	case StateCancelSelect:
		e.handleCancelSelection(userID, s, text)
	default:
		e.handleMainMenu(userID, s, text)
	}
}

func (e *Engine) handleMainMenu(userID string, s *session, text string) {
	switch text {
	case "1":
		s.draft = draft{}
		s.state = StateAwaitingName
		e.send(userID, askNameText)
	case "2":
		bookings, ok := e.userBookings(userID)
		if !ok {
			return
		}
		if len(bookings) == 0 {
			e.send(userID, noBookingsText)
		} else {
			e.send(userID, formatBookingList("Your bookings:", bookings))
		}
		e.send(userID, menuText)
	case "3":
		if e.startSelection(userID, s, "Which booking would you like to reschedule?") {
			s.state = StateRescheduleSelect
		}
	case "4":
		if e.startSelection(userID, s, "Which booking would you like to cancel?") {
			s.state = StateCancelSelect
		}
	default:
		e.send(userID, menuText)
	}
}

// startSelection lists the user's bookings and parks them in the session for
// a numbered reply. Returns false when there is nothing to select.
func (e *Engine) startSelection(userID string, s *session, prompt string) bool {
	bookings, ok := e.userBookings(userID)
	if !ok {
		return false
	}
	if len(bookings) == 0 {
		e.send(userID, noBookingsText)
		e.send(userID, menuText)
		return false
	}
	s.pending = bookings
	e.send(userID, formatBookingList(prompt+" Reply with its number.", bookings))
	return true
}

func (e *Engine) handleNameInput(userID string, s *session, text string) {
	s.draft.name = text
	s.state = StateAwaitingDate
	e.send(userID, askDateText)
}

func (e *Engine) handleDateInput(userID string, s *session, text string) {
	if _, err := time.Parse(dateLayout, text); err != nil {
		e.send(userID, invalidDateText)
		return
	}
	s.draft.date = text
	s.state = StateAwaitingTime
	e.send(userID, askTimeText)
}

func (e *Engine) handleTimeInput(userID string, s *session, text string) {
	if _, err := time.Parse(timeLayout, text); err != nil {
		e.send(userID, invalidTimeText)
		return
	}
	s.draft.time = text
	s.state = StateAwaitingConfirm
	e.send(userID, fmt.Sprintf("Please confirm your booking:\nName: %s\nDate: %s\nTime: %s\nReply 'yes' to confirm or anything else to cancel.",
		s.draft.name, s.draft.date, s.draft.time))
}

func (e *Engine) handleConfirmation(userID string, s *session, text string) {
	if !strings.EqualFold(text, "yes") {
		e.reset(s)
		e.send(userID, bookingCancelled)
		return
	}

	b := &booking.Booking{
		UserID:    userID,
		Name:      s.draft.name,
		CourtDate: s.draft.date,
		CourtTime: s.draft.time,
	}
	switch err := e.repo.CreateBooking(b); {
	case err == nil:
		e.send(userID, fmt.Sprintf("Your court is booked for %s at %s. See you there, %s!",
			b.CourtDate, b.CourtTime, b.Name))
	case errors.Is(err, booking.ErrDuplicateBooking):
		e.send(userID, duplicateText)
	default:
		logrus.WithError(err).WithField("userID", userID).Error("Failed to create booking")
		// State is kept so the user can confirm again once the store recovers
		e.send(userID, storeFailureText)
		return
	}
	e.reset(s)
}

func (e *Engine) handleRescheduleSelection(userID string, s *session, text string) {
	chosen, ok := e.selectPending(userID, s, text)
	if !ok {
		return
	}
	s.draft = draft{bookingID: chosen.ID}
	s.state = StateRescheduleDate
	e.send(userID, askNewDateText)
}

func (e *Engine) handleRescheduleDate(userID string, s *session, text string) {
	if _, err := time.Parse(dateLayout, text); err != nil {
		e.send(userID, invalidDateText)
		return
	}
	s.draft.date = text
	s.state = StateRescheduleTime
	e.send(userID, askNewTimeText)
}

func (e *Engine) handleRescheduleTime(userID string, s *session, text string) {
	if _, err := time.Parse(timeLayout, text); err != nil {
		e.send(userID, invalidTimeText)
		return
	}

	switch err := e.repo.UpdateSchedule(s.draft.bookingID, s.draft.date, text); {
	case err == nil:
		e.send(userID, fmt.Sprintf("Your booking has been moved to %s at %s.", s.draft.date, text))
	case errors.Is(err, booking.ErrDuplicateBooking):
		e.send(userID, duplicateText)
	case errors.Is(err, booking.ErrBookingNotFound):
		e.send(userID, cancelAbortedText)
	default:
		logrus.WithError(err).WithField("userID", userID).Error("Failed to reschedule booking")
		e.send(userID, storeFailureText)
		return
	}
	e.reset(s)
}

func (e *Engine) handleCancelSelection(userID string, s *session, text string) {
	chosen, ok := e.selectPending(userID, s, text)
	if !ok {
		return
	}

	switch err := e.repo.DeleteBooking(chosen.ID); {
	case err == nil:
		e.send(userID, fmt.Sprintf("Your booking on %s at %s has been cancelled.", chosen.CourtDate, chosen.CourtTime))
	case errors.Is(err, booking.ErrBookingNotFound):
		e.send(userID, cancelAbortedText)
	default:
		logrus.WithError(err).WithField("userID", userID).Error("Failed to cancel booking")
		e.send(userID, storeFailureText)
		return
	}
	e.reset(s)
}

// selectPending interprets text as a 1-based index into the listed bookings.
// Invalid input re-prompts and keeps the state unchanged.
func (e *Engine) selectPending(userID string, s *session, text string) (booking.Booking, bool) {
	idx, err := strconv.Atoi(text)
	if err != nil || idx < 1 || idx > len(s.pending) {
		e.send(userID, selectNumberText)
		return booking.Booking{}, false
	}
	return s.pending[idx-1], true
}

func (e *Engine) userBookings(userID string) ([]booking.Booking, bool) {
	bookings, err := e.repo.GetUserBookings(userID)
	if err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Failed to get user bookings")
		e.send(userID, storeFailureText)
		return nil, false
	}
	return bookings, true
}

func (e *Engine) reset(s *session) {
	s.state = StateMainMenu
	s.draft = draft{}
	s.pending = nil
}

func (e *Engine) send(userID, text string) {
	if err := e.sender.Send(userID, text); err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Failed to send message")
	}
}

func formatBookingList(header string, bookings []booking.Booking) string {
	var sb strings.Builder
	sb.WriteString(header)
	for i, b := range bookings {
		sb.WriteString(fmt.Sprintf("\n%d. %s at %s", i+1, b.CourtDate, b.CourtTime))
	}
	return sb.String()
}
