package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/pokernight/league-system/models"
)

var (
	ErrLeagueNotFound      = errors.New("league not found")
	ErrLeagueNameConflict  = errors.New("league name already exists")
	ErrLeagueInvalidAdmin  = errors.New("invalid league admin reference")
	ErrMemberAlreadyJoined = errors.New("player is already a member of this league")
)

type LeagueRepository interface {
	Create(ctx context.Context, league *models.League) error
	GetByID(ctx context.Context, id string) (*models.League, error)
	List(ctx context.Context) ([]models.League, error)
}

type postgresLeagueRepository struct {
	db *sql.DB
}

func NewPostgresLeagueRepository(db *sql.DB) LeagueRepository {
	return &postgresLeagueRepository{db: db}
}

func (r *postgresLeagueRepository) Create(ctx context.Context, l *models.League) error {
	query := `
		INSERT INTO leagues (id, name, buy_in, max_players, game_format, admin_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		l.ID, l.Name, l.BuyIn, l.MaxPlayers, l.GameFormat, l.AdminID,
	).Scan(&l.CreatedAt)

	return r.handleLeagueError(err)
}

func (r *postgresLeagueRepository) GetByID(ctx context.Context, id string) (*models.League, error) {
	query := `
		SELECT id, name, buy_in, max_players, game_format, admin_id, created_at
		FROM leagues
		WHERE id = $1`

	l := &models.League{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.Name, &l.BuyIn, &l.MaxPlayers, &l.GameFormat, &l.AdminID, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	return l, nil
}

func (r *postgresLeagueRepository) List(ctx context.Context) ([]models.League, error) {
	query := `
		SELECT id, name, buy_in, max_players, game_format, admin_id, created_at
		FROM leagues
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leagues := make([]models.League, 0)
	for rows.Next() {
		var l models.League
		if scanErr := rows.Scan(
			&l.ID, &l.Name, &l.BuyIn, &l.MaxPlayers, &l.GameFormat, &l.AdminID, &l.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		leagues = append(leagues, l)
	}
	return leagues, rows.Err()
}

func (r *postgresLeagueRepository) handleLeagueError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrLeagueNameConflict
		case "23503":
			return ErrLeagueInvalidAdmin
		}
	}
	return err
}
