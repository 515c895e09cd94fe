package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/pokernight/league-system/models"
)

var ErrMemberNotFound = errors.New("league member not found")

type MembershipRepository interface {
	Add(ctx context.Context, member *models.LeagueMember) error
	// ListPlayersByLeague возвращает игроков лиги в порядке вступления.
	ListPlayersByLeague(ctx context.Context, leagueID string) ([]models.Player, error)
	Get(ctx context.Context, leagueID, playerID string) (*models.LeagueMember, error)
}

type postgresMembershipRepository struct {
	db *sql.DB
}

func NewPostgresMembershipRepository(db *sql.DB) MembershipRepository {
	return &postgresMembershipRepository{db: db}
}

func (r *postgresMembershipRepository) Add(ctx context.Context, m *models.LeagueMember) error {
	query := `
		INSERT INTO league_members (league_id, player_id, is_admin)
		VALUES ($1, $2, $3)
		RETURNING joined_at`

	err := r.db.QueryRowContext(ctx, query, m.LeagueID, m.PlayerID, m.IsAdmin).Scan(&m.JoinedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrMemberAlreadyJoined
			case "23503":
				return ErrLeagueNotFound
			}
		}
		return err
	}
	return nil
}

func (r *postgresMembershipRepository) ListPlayersByLeague(ctx context.Context, leagueID string) ([]models.Player, error) {
	query := `
		SELECT p.id, p.name, p.avatar, p.avatar_key, p.created_at
		FROM league_members m
		JOIN players p ON p.id = m.player_id
		WHERE m.league_id = $1
		ORDER BY m.joined_at, p.id`

	rows, err := r.db.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if scanErr := rows.Scan(&p.ID, &p.Name, &p.Avatar, &p.AvatarKey, &p.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresMembershipRepository) Get(ctx context.Context, leagueID, playerID string) (*models.LeagueMember, error) {
	query := `
		SELECT league_id, player_id, is_admin, joined_at
		FROM league_members
		WHERE league_id = $1 AND player_id = $2`

	m := &models.LeagueMember{}
	err := r.db.QueryRowContext(ctx, query, leagueID, playerID).Scan(
		&m.LeagueID, &m.PlayerID, &m.IsAdmin, &m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}
