package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pokernight/league-system/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	// GetCurrentByLeague возвращает единственную незавершённую сессию лиги.
	GetCurrentByLeague(ctx context.Context, leagueID string) (*models.Session, error)
	MarkStarted(ctx context.Context, id string, playerCount int, startedAt time.Time) error
	MarkCompleted(ctx context.Context, exec SQLExecutor, id string, completedAt time.Time) error

	AddCheckIn(ctx context.Context, sessionID, playerID string) error
	RemoveCheckIn(ctx context.Context, exec SQLExecutor, sessionID, playerID string) error
	ClearCheckIns(ctx context.Context, exec SQLExecutor, sessionID string) error
	// ListCheckIns возвращает id игроков в порядке отметки. Этот порядок
	// определяет рассадку, поэтому сортировка стабильная.
	ListCheckIns(ctx context.Context, sessionID string) ([]string, error)
}

type postgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) SessionRepository {
	return &postgresSessionRepository{db: db}
}

func (r *postgresSessionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSessionRepository) Create(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, league_id, state, player_count)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, s.ID, s.LeagueID, s.State, s.PlayerCount).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *postgresSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, league_id, state, player_count, created_at, started_at, completed_at
		FROM sessions
		WHERE id = $1`

	return r.scanSession(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresSessionRepository) GetCurrentByLeague(ctx context.Context, leagueID string) (*models.Session, error) {
	query := `
		SELECT id, league_id, state, player_count, created_at, started_at, completed_at
		FROM sessions
		WHERE league_id = $1 AND state != $2
		ORDER BY created_at DESC
		LIMIT 1`

	return r.scanSession(r.db.QueryRowContext(ctx, query, leagueID, models.SessionCompleted))
}

func (r *postgresSessionRepository) scanSession(row *sql.Row) (*models.Session, error) {
	s := &models.Session{}
	err := row.Scan(
		&s.ID, &s.LeagueID, &s.State, &s.PlayerCount, &s.CreatedAt, &s.StartedAt, &s.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresSessionRepository) MarkStarted(ctx context.Context, id string, playerCount int, startedAt time.Time) error {
	query := `
		UPDATE sessions
		SET state = $1, player_count = $2, started_at = $3
		WHERE id = $4 AND state = $5`

	result, err := r.db.ExecContext(ctx, query, models.SessionStarted, playerCount, startedAt, id, models.SessionOpen)
	if err != nil {
		return fmt.Errorf("failed to mark session started: %w", err)
	}
	return checkAffectedRows(result, ErrSessionNotFound)
}

func (r *postgresSessionRepository) MarkCompleted(ctx context.Context, exec SQLExecutor, id string, completedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE sessions
		SET state = $1, completed_at = $2
		WHERE id = $3 AND state != $1`

	result, err := executor.ExecContext(ctx, query, models.SessionCompleted, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark session completed: %w", err)
	}
	return checkAffectedRows(result, ErrSessionNotFound)
}

func (r *postgresSessionRepository) AddCheckIn(ctx context.Context, sessionID, playerID string) error {
	// Идемпотентно: повторная отметка того же игрока — no-op.
	query := `
		INSERT INTO session_checkins (session_id, player_id)
		VALUES ($1, $2)
		ON CONFLICT (session_id, player_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, sessionID, playerID)
	if err != nil {
		return fmt.Errorf("failed to add check-in: %w", err)
	}
	return nil
}

func (r *postgresSessionRepository) RemoveCheckIn(ctx context.Context, exec SQLExecutor, sessionID, playerID string) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM session_checkins WHERE session_id = $1 AND player_id = $2`
	_, err := executor.ExecContext(ctx, query, sessionID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove check-in: %w", err)
	}
	return nil
}

func (r *postgresSessionRepository) ClearCheckIns(ctx context.Context, exec SQLExecutor, sessionID string) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM session_checkins WHERE session_id = $1`
	_, err := executor.ExecContext(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear check-ins: %w", err)
	}
	return nil
}

func (r *postgresSessionRepository) ListCheckIns(ctx context.Context, sessionID string) ([]string, error) {
	// id — serial: точный порядок вставки даже при совпадающих
	// timestamp'ах checked_in_at.
	query := `
		SELECT player_id
		FROM session_checkins
		WHERE session_id = $1
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	playerIDs := make([]string, 0)
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, scanErr
		}
		playerIDs = append(playerIDs, id)
	}
	return playerIDs, rows.Err()
}
