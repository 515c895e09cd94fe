package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pokernight/league-system/models"
)

var (
	// ErrFinishPositionTaken — уникальный индекс (session_id, finish_position)
	// не допускает двух выбываний с одним местом в рамках сессии.
	ErrFinishPositionTaken = errors.New("finish position already taken in this session")

	ErrEliminationConflict = errors.New("player already eliminated in this session")
)

type EliminationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, record *models.EliminationRecord) error
	ListBySession(ctx context.Context, sessionID string) ([]models.EliminationRecord, error)
	// ListByScope возвращает записи завершённых и текущих сессий лиги,
	// либо всех лиг, если leagueID == nil.
	ListByScope(ctx context.Context, leagueID *string) ([]models.EliminationRecord, error)
}

type postgresEliminationRepository struct {
	db *sql.DB
}

func NewPostgresEliminationRepository(db *sql.DB) EliminationRepository {
	return &postgresEliminationRepository{db: db}
}

func (r *postgresEliminationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEliminationRepository) Create(ctx context.Context, exec SQLExecutor, rec *models.EliminationRecord) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO eliminations (
			session_id, league_id, player_id, player_name,
			finish_position, points, buy_in, earnings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		rec.SessionID, rec.LeagueID, rec.PlayerID, rec.PlayerName,
		rec.FinishPosition, rec.Points, rec.BuyIn, rec.Earnings,
	).Scan(&rec.ID, &rec.CreatedAt)

	return r.handleEliminationError(err)
}

func (r *postgresEliminationRepository) ListBySession(ctx context.Context, sessionID string) ([]models.EliminationRecord, error) {
	query := `
		SELECT id, session_id, league_id, player_id, player_name,
			finish_position, points, buy_in, earnings, created_at
		FROM eliminations
		WHERE session_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEliminations(rows)
}

func (r *postgresEliminationRepository) ListByScope(ctx context.Context, leagueID *string) ([]models.EliminationRecord, error) {
	query := `
		SELECT id, session_id, league_id, player_id, player_name,
			finish_position, points, buy_in, earnings, created_at
		FROM eliminations
		WHERE 1=1`

	args := []interface{}{}
	if leagueID != nil {
		query += " AND league_id = $1"
		args = append(args, *leagueID)
	}
	query += " ORDER BY created_at, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEliminations(rows)
}

func scanEliminations(rows *sql.Rows) ([]models.EliminationRecord, error) {
	records := make([]models.EliminationRecord, 0)
	for rows.Next() {
		var rec models.EliminationRecord
		if scanErr := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.LeagueID, &rec.PlayerID, &rec.PlayerName,
			&rec.FinishPosition, &rec.Points, &rec.BuyIn, &rec.Earnings, &rec.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *postgresEliminationRepository) handleEliminationError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "eliminations_session_id_finish_position_key":
			return ErrFinishPositionTaken
		case "eliminations_session_id_player_id_key":
			return ErrEliminationConflict
		default:
			return fmt.Errorf("elimination conflict: %w", err)
		}
	}
	return err
}
