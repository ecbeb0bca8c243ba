package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinetix/cinema-booking/internal/domain"
)

type PostgresSeatRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatRepository(db *pgxpool.Pool) *PostgresSeatRepository {
	return &PostgresSeatRepository{
		db: db,
	}
}

const seatSelect = `
	SELECT se.id, se.row_label, se.seat_number, se.seat_type, se.screen_id
	FROM seats se
	JOIN sessions s ON s.screen_id = se.screen_id
`

func (p *PostgresSeatRepository) GetBySessionID(ctx context.Context, sessionID int64) ([]domain.Seat, error) {
	query := seatSelect + `
		WHERE s.id = $1
		ORDER BY se.row_label, se.seat_number
	`

	return p.querySeats(ctx, query, sessionID)
}

func (p *PostgresSeatRepository) GetBySessionAndIDs(ctx context.Context, sessionID int64, seatIDs []int64) ([]domain.Seat, error) {
	query := seatSelect + `
		WHERE s.id = $1 AND se.id = ANY($2)
		ORDER BY se.row_label, se.seat_number
	`

	return p.querySeats(ctx, query, sessionID, seatIDs)
}

func (p *PostgresSeatRepository) querySeats(ctx context.Context, query string, args ...any) ([]domain.Seat, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)

	for rows.Next() {
		var seat domain.Seat

		err = rows.Scan(&seat.ID, &seat.Row, &seat.Number, &seat.Type, &seat.ScreenID)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	return seats, rows.Err()
}
