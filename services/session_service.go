package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pokernight/league-system/models"
	"github.com/pokernight/league-system/repositories"
)

// EventBroadcaster уведомляет подписчиков комнаты лиги об изменениях
// сессии. Совпадает по сигнатуре с live.Hub.
type EventBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

const (
	eventSessionUpdated   = "SESSION_UPDATED"
	eventPlayerEliminated = "PLAYER_ELIMINATED"
	eventSessionCompleted = "SESSION_COMPLETED"
	eventSessionReset     = "SESSION_RESET"
)

type sessionEvent struct {
	Type     string      `json:"type"`
	LeagueID string      `json:"league_id"`
	Payload  interface{} `json:"payload"`
}

// FinishResult — один элемент пакетной сдачи результатов.
type FinishResult struct {
	PlayerID       string `json:"player_id"`
	FinishPosition int    `json:"finish_position"`
}

// SessionService — машина состояний игровой сессии. Все мутации сессии
// одной лиги сериализуются её мьютексом; чтения идут без блокировки.
type SessionService struct {
	db          *sql.DB
	sessionRepo repositories.SessionRepository
	elimRepo    repositories.EliminationRepository
	playerRepo  repositories.PlayerRepository
	leagueRepo  repositories.LeagueRepository
	roster      RosterService
	hub         EventBroadcaster
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionService(
	db *sql.DB,
	sessionRepo repositories.SessionRepository,
	elimRepo repositories.EliminationRepository,
	playerRepo repositories.PlayerRepository,
	leagueRepo repositories.LeagueRepository,
	roster RosterService,
	hub EventBroadcaster,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		db:          db,
		sessionRepo: sessionRepo,
		elimRepo:    elimRepo,
		playerRepo:  playerRepo,
		leagueRepo:  leagueRepo,
		roster:      roster,
		hub:         hub,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
	}
}

// leagueLock возвращает мьютекс лиги, создавая его при первом обращении.
// Блокировки разных лиг независимы.
func (s *SessionService) leagueLock(leagueID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[leagueID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[leagueID] = lock
	}
	return lock
}

// withTx выполняет fn в рамках одной транзакции. Без подключения к БД
// (юнит-тесты с in-memory репозиториями) шаг выполняется напрямую.
func (s *SessionService) withTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if s.db == nil {
		return fn(nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// EnsureOpenSession возвращает текущую незавершённую сессию лиги, создавая
// новую открытую сессию, если её нет. Это единственное место, где чтение
// статуса может породить запись — сам Status остаётся чистой проекцией.
func (s *SessionService) EnsureOpenSession(ctx context.Context, leagueID string) (*models.Session, error) {
	lock := s.leagueLock(leagueID)
	lock.Lock()
	defer lock.Unlock()

	return s.ensureOpenLocked(ctx, leagueID)
}

func (s *SessionService) ensureOpenLocked(ctx context.Context, leagueID string) (*models.Session, error) {
	session, err := s.sessionRepo.GetCurrentByLeague(ctx, leagueID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, repositories.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to load current session: %w", err)
	}

	if _, err := s.leagueRepo.GetByID(ctx, leagueID); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to check league: %w", err)
	}

	session = &models.Session{
		ID:       uuid.NewString(),
		LeagueID: leagueID,
		State:    models.SessionOpen,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("session created",
		slog.String("league_id", leagueID),
		slog.String("session_id", session.ID))

	return session, nil
}

// CheckIn идемпотентно добавляет игрока в текущую сессию.
func (s *SessionService) CheckIn(ctx context.Context, leagueID, playerID string) (*models.SessionStatus, error) {
	// Членство проверяем до захвата блокировки, чтобы не держать её на I/O
	// ростера.
	isMember, err := s.roster.IsMember(ctx, leagueID, playerID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotEligible
	}

	lock := s.leagueLock(leagueID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.ensureOpenLocked(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	if err := s.sessionRepo.AddCheckIn(ctx, session.ID, playerID); err != nil {
		return nil, err
	}

	status, err := s.Status(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	s.broadcast(leagueID, eventSessionUpdated, status)
	return status, nil
}

// CheckOut убирает игрока из активного пула. С finishPosition создаёт
// EliminationRecord, оценённый по числу участников на момент старта; без
// — это чистая отметка ухода до игры, без влияния на счёт.
func (s *SessionService) CheckOut(ctx context.Context, leagueID, playerID string, finishPosition *int) (*models.SessionStatus, error) {
	lock := s.leagueLock(leagueID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.sessionRepo.GetCurrentByLeague(ctx, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if finishPosition == nil {
		if err := s.sessionRepo.RemoveCheckIn(ctx, nil, session.ID, playerID); err != nil {
			return nil, err
		}
	} else {
		if err := s.eliminateLocked(ctx, session, playerID, *finishPosition); err != nil {
			return nil, err
		}
	}

	status, err := s.Status(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	s.broadcast(leagueID, eventSessionUpdated, status)
	return status, nil
}

func (s *SessionService) eliminateLocked(ctx context.Context, session *models.Session, playerID string, position int) error {
	if position < 1 {
		return ErrInvalidFinishPosition
	}
	if session.State != models.SessionStarted {
		return ErrNotStarted
	}

	// Выбыть может только игрок из активного пула: место и счёт положены
	// лишь тем, кто реально сидел за столом.
	checkedIn, err := s.sessionRepo.ListCheckIns(ctx, session.ID)
	if err != nil {
		return err
	}
	inPool := false
	for _, id := range checkedIn {
		if id == playerID {
			inPool = true
			break
		}
	}
	if !inPool {
		return ErrNotCheckedIn
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}

	league, err := s.leagueRepo.GetByID(ctx, session.LeagueID)
	if err != nil {
		return fmt.Errorf("failed to load league: %w", err)
	}

	record := &models.EliminationRecord{
		SessionID:      session.ID,
		LeagueID:       session.LeagueID,
		PlayerID:       player.ID,
		PlayerName:     player.Name,
		FinishPosition: position,
		Points:         PointsForPosition(position),
		BuyIn:          league.BuyIn,
		Earnings:       Earnings(position, session.PlayerCount, league.BuyIn),
	}

	// Запись выбывания и снятие отметки — один атомарный шаг.
	err = s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.elimRepo.Create(ctx, exec, record); err != nil {
			if errors.Is(err, repositories.ErrFinishPositionTaken) {
				return ErrDuplicateFinishPosition
			}
			return err
		}
		return s.sessionRepo.RemoveCheckIn(ctx, exec, session.ID, playerID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("player eliminated",
		slog.String("session_id", session.ID),
		slog.String("player_id", player.ID),
		slog.Int("finish_position", position))

	s.broadcast(session.LeagueID, eventPlayerEliminated, record)
	return nil
}

// Start переводит сессию open → started и фиксирует число участников,
// задающее масштаб очков и призов для всей сессии.
func (s *SessionService) Start(ctx context.Context, leagueID, actorID string) (*models.Session, error) {
	if err := s.requireAdmin(ctx, leagueID, actorID); err != nil {
		return nil, err
	}

	lock := s.leagueLock(leagueID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.sessionRepo.GetCurrentByLeague(ctx, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.State != models.SessionOpen {
		return nil, ErrAlreadyStarted
	}

	checkedIn, err := s.sessionRepo.ListCheckIns(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if len(checkedIn) < 2 {
		return nil, ErrInsufficientPlayers
	}

	now := time.Now()
	if err := s.sessionRepo.MarkStarted(ctx, session.ID, len(checkedIn), now); err != nil {
		return nil, err
	}
	session.State = models.SessionStarted
	session.PlayerCount = len(checkedIn)
	session.StartedAt = &now

	s.logger.Info("session started",
		slog.String("league_id", leagueID),
		slog.String("session_id", session.ID),
		slog.Int("player_count", session.PlayerCount))

	s.broadcast(leagueID, eventSessionUpdated, session)
	return session, nil
}

// Complete принимает полный список результатов и атомарно записывает по
// одному выбыванию на каждого — альтернатива живым выбываниям по одному.
func (s *SessionService) Complete(ctx context.Context, leagueID, actorID string, results []FinishResult) (*models.Session, error) {
	if err := s.requireAdmin(ctx, leagueID, actorID); err != nil {
		return nil, err
	}

	lock := s.leagueLock(leagueID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.sessionRepo.GetCurrentByLeague(ctx, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.State != models.SessionStarted {
		return nil, ErrNotStarted
	}

	existing, err := s.elimRepo.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	usedPositions := make(map[int]bool, len(existing))
	for _, rec := range existing {
		usedPositions[rec.FinishPosition] = true
	}
	for _, res := range results {
		if res.FinishPosition < 1 {
			return nil, ErrInvalidFinishPosition
		}
		if usedPositions[res.FinishPosition] {
			return nil, ErrDuplicateFinishPosition
		}
		usedPositions[res.FinishPosition] = true
	}

	league, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load league: %w", err)
	}

	totalPlayers := session.PlayerCount
	if totalPlayers == 0 {
		totalPlayers = len(results)
	}

	players, err := s.playerRepo.GetByIDs(ctx, playerIDsOf(results))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, res := range results {
			player, ok := players[res.PlayerID]
			if !ok {
				return ErrPlayerNotFound
			}
			record := &models.EliminationRecord{
				SessionID:      session.ID,
				LeagueID:       leagueID,
				PlayerID:       player.ID,
				PlayerName:     player.Name,
				FinishPosition: res.FinishPosition,
				Points:         PointsForPosition(res.FinishPosition),
				BuyIn:          league.BuyIn,
				Earnings:       Earnings(res.FinishPosition, totalPlayers, league.BuyIn),
			}
			if err := s.elimRepo.Create(ctx, exec, record); err != nil {
				if errors.Is(err, repositories.ErrFinishPositionTaken) {
					return ErrDuplicateFinishPosition
				}
				return err
			}
		}

		if err := s.sessionRepo.ClearCheckIns(ctx, exec, session.ID); err != nil {
			return err
		}
		return s.sessionRepo.MarkCompleted(ctx, exec, session.ID, now)
	})
	if err != nil {
		return nil, err
	}

	session.State = models.SessionCompleted
	session.CompletedAt = &now

	s.logger.Info("session completed",
		slog.String("league_id", leagueID),
		slog.String("session_id", session.ID),
		slog.Int("results", len(results)))

	s.broadcast(leagueID, eventSessionCompleted, session)
	return session, nil
}

// Reset завершает текущую сессию, если она есть, и открывает новую пустую.
func (s *SessionService) Reset(ctx context.Context, leagueID, actorID string) (*models.Session, error) {
	if err := s.requireAdmin(ctx, leagueID, actorID); err != nil {
		return nil, err
	}

	lock := s.leagueLock(leagueID)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.sessionRepo.GetCurrentByLeague(ctx, leagueID)
	if err != nil && !errors.Is(err, repositories.ErrSessionNotFound) {
		return nil, err
	}
	if current != nil {
		if err := s.sessionRepo.MarkCompleted(ctx, nil, current.ID, time.Now()); err != nil {
			return nil, err
		}
	}

	session, err := s.ensureOpenLocked(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session reset",
		slog.String("league_id", leagueID),
		slog.String("session_id", session.ID))

	s.broadcast(leagueID, eventSessionReset, session)
	return session, nil
}

// Status — чистая проекция текущего состояния: количество отметившихся,
// живая рассадка, нужные столы, записанные выбывания. Ничего не мутирует;
// ленивое создание сессии вынесено в EnsureOpenSession.
func (s *SessionService) Status(ctx context.Context, leagueID string) (*models.SessionStatus, error) {
	session, err := s.sessionRepo.GetCurrentByLeague(ctx, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	league, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load league: %w", err)
	}

	checkedIn, err := s.sessionRepo.ListCheckIns(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	playersByID, err := s.playerRepo.GetByIDs(ctx, checkedIn)
	if err != nil {
		return nil, err
	}
	// Рассадка считается строго в порядке отметки.
	ordered := make([]models.Player, 0, len(checkedIn))
	for _, id := range checkedIn {
		if p, ok := playersByID[id]; ok {
			ordered = append(ordered, *p)
		}
	}

	eliminations, err := s.elimRepo.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	members, err := s.roster.MembersOf(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	return &models.SessionStatus{
		GameID:          session.ID,
		LeagueID:        leagueID,
		LeagueName:      league.Name,
		CheckedIn:       len(checkedIn),
		TotalPlayers:    len(members),
		SeatAssignments: AssignSeats(ordered),
		GameStarted:     session.State == models.SessionStarted,
		TablesNeeded:    TablesNeeded(len(checkedIn)),
		EliminatedCount: len(eliminations),
		Eliminations:    eliminations,
	}, nil
}

func (s *SessionService) requireAdmin(ctx context.Context, leagueID, actorID string) error {
	isAdmin, err := s.roster.IsAdmin(ctx, leagueID, actorID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrNotAuthorized
	}
	return nil
}

func (s *SessionService) broadcast(leagueID, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom("league_"+leagueID, sessionEvent{
		Type:     eventType,
		LeagueID: leagueID,
		Payload:  payload,
	})
}

func playerIDsOf(results []FinishResult) []string {
	ids := make([]string, 0, len(results))
	for _, res := range results {
		ids = append(ids, res.PlayerID)
	}
	return ids
}
