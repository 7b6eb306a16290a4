package booking

type Booking struct {
	ID        int    `db:"id"`
	UserID    string `db:"user_id"`
	Name      string `db:"name"`
	CourtDate string `db:"court_date"`
	CourtTime string `db:"court_time"`
}
