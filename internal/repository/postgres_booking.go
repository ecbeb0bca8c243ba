package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cinetix/cinema-booking/internal/domain"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}

	return out
}

// Create inserts the booking and its seat snapshots in one transaction. The
// in-flight seat check runs inside the transaction with row locks, so two
// concurrent bookings for the same seat cannot both commit.
func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			SELECT bs.seat_id
			FROM booked_seats bs
			JOIN bookings b ON b.id = bs.booking_id
			WHERE bs.session_id = $1 AND bs.seat_id = ANY($2) AND b.status = ANY($3)
			FOR UPDATE OF b
		`

		rows, err := tx.Query(ctx, query, booking.SessionID, booking.SeatIDs(), statusStrings(domain.InFlightStatuses))
		if err != nil {
			return err
		}

		conflicts, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return err
		}

		if len(conflicts) > 0 {
			return domain.ErrSeatAlreadyBooked
		}

		query = `
			INSERT INTO bookings (user_id, session_id, status, total_price, ticket_redeemed, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, false, 1, NOW(), NOW())
			RETURNING id, version, created_at, updated_at
		`

		err = tx.QueryRow(
			ctx,
			query,
			booking.UserID,
			booking.SessionID,
			string(booking.Status),
			booking.TotalPrice.String()).Scan(&booking.ID, &booking.Version, &booking.CreatedAt, &booking.UpdatedAt)

		if err != nil {
			return err
		}

		seatRows := make([][]any, 0, len(booking.Seats))
		for _, seat := range booking.Seats {
			seatRows = append(seatRows, []any{
				booking.ID,
				booking.SessionID,
				seat.SeatID,
				seat.Price.String(),
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"booked_seats"},
			[]string{"booking_id", "session_id", "seat_id", "price"},
			pgx.CopyFromRows(seatRows),
		)
		if isUniqueViolation(err) {
			return domain.ErrSeatAlreadyBooked
		}

		return err
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

const bookingColumns = `
	id, user_id, session_id, status, total_price, checkout_id, checkout_url,
	payment_intent_id, refund_id, ticket_redeemed, version, created_at, updated_at, expires_at
`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var booking domain.Booking
	var totalPrice pgtype.Numeric

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.SessionID,
		&booking.Status,
		&totalPrice,
		&booking.CheckoutID,
		&booking.CheckoutURL,
		&booking.PaymentIntentID,
		&booking.RefundID,
		&booking.TicketRedeemed,
		&booking.Version,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	booking.TotalPrice = numericToDecimal(totalPrice)

	return &booking, nil
}

func (p *PostgresBookingRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Booking, error) {
	booking, err := scanBooking(p.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}

	if err := p.loadSeats(ctx, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

func (p *PostgresBookingRepository) loadSeats(ctx context.Context, booking *domain.Booking) error {
	query := `
		SELECT seat_id, price
		FROM booked_seats
		WHERE booking_id = $1
		ORDER BY seat_id
	`

	rows, err := p.db.Query(ctx, query, booking.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var seat domain.BookedSeat
		var price pgtype.Numeric

		if err := rows.Scan(&seat.SeatID, &price); err != nil {
			return err
		}

		seat.Price = numericToDecimal(price)
		booking.Seats = append(booking.Seats, seat)
	}

	return rows.Err()
}

func (p *PostgresBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	return p.getOne(ctx, query, id)
}

func (p *PostgresBookingRepository) GetByIDAndUserID(ctx context.Context, id, userID int64) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND user_id = $2`

	return p.getOne(ctx, query, id, userID)
}

func (p *PostgresBookingRepository) GetByCheckoutID(ctx context.Context, checkoutID string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE checkout_id = $1`

	return p.getOne(ctx, query, checkoutID)
}

func (p *PostgresBookingRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_intent_id = $1`

	return p.getOne(ctx, query, paymentIntentID)
}

// Update writes every mutable column under optimistic locking. A version
// mismatch means someone else changed the row since it was read.
func (p *PostgresBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, checkout_id = $2, checkout_url = $3, payment_intent_id = $4,
			refund_id = $5, ticket_redeemed = $6, expires_at = $7, updated_at = NOW(),
			version = version + 1
		WHERE id = $8 AND version = $9
		RETURNING version, updated_at
	`

	err := p.db.QueryRow(
		ctx,
		query,
		string(booking.Status),
		booking.CheckoutID,
		booking.CheckoutURL,
		booking.PaymentIntentID,
		booking.RefundID,
		booking.TicketRedeemed,
		booking.ExpiresAt,
		booking.ID,
		booking.Version).Scan(&booking.Version, &booking.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEditConflict
		}

		return err
	}

	return nil
}

func (p *PostgresBookingRepository) Delete(ctx context.Context, ids []int64) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM booked_seats WHERE booking_id = ANY($1)`, ids); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id = ANY($1)`, ids)

		return err
	})
}

func (p *PostgresBookingRepository) BookedSeatIDs(ctx context.Context, sessionID int64, seatIDs []int64) ([]int64, error) {
	query := `
		SELECT bs.seat_id
		FROM booked_seats bs
		JOIN bookings b ON b.id = bs.booking_id
		WHERE bs.session_id = $1 AND bs.seat_id = ANY($2) AND b.status = ANY($3)
	`

	rows, err := p.db.Query(ctx, query, sessionID, seatIDs, statusStrings(domain.InFlightStatuses))
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (p *PostgresBookingRepository) SeatIDsByBookingID(ctx context.Context, bookingID int64) ([]int64, error) {
	query := `SELECT seat_id FROM booked_seats WHERE booking_id = $1 ORDER BY seat_id`

	rows, err := p.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (p *PostgresBookingRepository) listBookings(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, *booking)
	}

	return bookings, rows.Err()
}

// GetExpired lists bookings still awaiting payment whose checkout deadline
// has passed. Seats are not loaded; callers re-read what they act on.
func (p *PostgresBookingRepository) GetExpired(ctx context.Context) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = ANY($1) AND expires_at IS NOT NULL AND expires_at < NOW()
	`

	pending := []string{
		string(domain.BookingStatusAwaitingPayment),
		string(domain.BookingStatusPaymentRetry),
	}

	return p.listBookings(ctx, query, pending)
}

func (p *PostgresBookingRepository) GetInStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1`

	return p.listBookings(ctx, query, string(status))
}

func (p *PostgresBookingRepository) MarkPastIfSessionEnded(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE bookings b
		SET status = $1, updated_at = NOW(), version = version + 1
		FROM sessions s
		WHERE b.session_id = s.id AND b.status = $2 AND s.end_time < $3
	`

	tag, err := p.db.Exec(
		ctx,
		query,
		string(domain.BookingStatusPast),
		string(domain.BookingStatusPaymentConfirmed),
		now)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// GetIDsToDelete lists bookings marked for deletion that have sat in that
// status past the retention threshold.
func (p *PostgresBookingRepository) GetIDsToDelete(ctx context.Context, threshold time.Time) ([]int64, error) {
	query := `
		SELECT id
		FROM bookings
		WHERE status = $1 AND updated_at < $2
	`

	rows, err := p.db.Query(ctx, query, string(domain.BookingStatusAwaitingDeletion), threshold)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int64])
}
