package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinetix/cinema-booking/internal/domain"
)

type PostgresSessionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSessionRepository(db *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{
		db: db,
	}
}

func (p *PostgresSessionRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	query := `
		SELECT id, movie_title, screen_id, start_time, end_time,
			standard_seat_price, vip_seat_price, pwd_seat_price
		FROM sessions
		WHERE id = $1
	`

	var session domain.Session
	var standard, vip, pwd pgtype.Numeric

	err := p.db.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.MovieTitle,
		&session.ScreenID,
		&session.StartTime,
		&session.EndTime,
		&standard,
		&vip,
		&pwd,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	session.StandardSeatPrice = numericToDecimal(standard)
	session.VipSeatPrice = numericToDecimal(vip)
	session.PwdSeatPrice = numericToDecimal(pwd)

	return &session, nil
}
