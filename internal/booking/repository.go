package booking

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

const uniqueViolationCode = "23505"

// PgxIface is the subset of pgx.Conn the repository needs; pgxmock
// satisfies it in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct {
	conn PgxIface
}

func NewRepo(conn PgxIface) *Repo {
	return &Repo{conn: conn}
}

// CreateBooking inserts the booking and fills in its id. The unique
// constraint on (user_id, court_date) is the only duplicate check anywhere;
// a violation comes back as ErrDuplicateBooking.
func (r *Repo) CreateBooking(b *Booking) error {
	query := `
	INSERT INTO bookings (user_id, name, court_date, court_time)
	VALUES ($1, $2, $3, $4)
	RETURNING id`
	row := r.conn.QueryRow(context.Background(), query, b.UserID, b.Name, b.CourtDate, b.CourtTime)
	if err := row.Scan(&b.ID); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBooking
		}
		return err
	}
	return nil
}

// GetUserBookings returns the user's bookings ordered by date and time.
func (r *Repo) GetUserBookings(userID string) ([]Booking, error) {
	query := `SELECT id, user_id, name, court_date, court_time FROM bookings WHERE user_id = $1 ORDER BY court_date, court_time`
	rows, err := r.conn.Query(context.Background(), query, userID)
	if err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Failed to query user bookings")
		return nil, err
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.CourtDate, &b.CourtTime); err != nil {
			logrus.WithError(err).Error("Failed to scan booking row")
			continue
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateSchedule moves the booking to a new date and time.
func (r *Repo) UpdateSchedule(id int, courtDate, courtTime string) error {
	query := `UPDATE bookings SET court_date = $1, court_time = $2 WHERE id = $3`
	tag, err := r.conn.Exec(context.Background(), query, courtDate, courtTime, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBooking
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *Repo) DeleteBooking(id int) error {
	query := `DELETE FROM bookings WHERE id = $1`
	tag, err := r.conn.Exec(context.Background(), query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
