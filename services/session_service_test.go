package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokernight/league-system/models"
	"github.com/pokernight/league-system/repositories"
)

// In-memory репозитории: те же контракты и сигнальные ошибки, что и у
// postgres-реализаций, но без БД.

type fakeSessionRepo struct {
	sessions map[string]*models.Session
	checkins map[string][]string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[string]*models.Session),
		checkins: make(map[string][]string),
	}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *models.Session) error {
	s.CreatedAt = time.Now()
	stored := *s
	r.sessions[s.ID] = &stored
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*models.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) GetCurrentByLeague(_ context.Context, leagueID string) (*models.Session, error) {
	for _, s := range r.sessions {
		if s.LeagueID == leagueID && s.State != models.SessionCompleted {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repositories.ErrSessionNotFound
}

func (r *fakeSessionRepo) MarkStarted(_ context.Context, id string, playerCount int, startedAt time.Time) error {
	s, ok := r.sessions[id]
	if !ok || s.State != models.SessionOpen {
		return repositories.ErrSessionNotFound
	}
	s.State = models.SessionStarted
	s.PlayerCount = playerCount
	s.StartedAt = &startedAt
	return nil
}

func (r *fakeSessionRepo) MarkCompleted(_ context.Context, _ repositories.SQLExecutor, id string, completedAt time.Time) error {
	s, ok := r.sessions[id]
	if !ok || s.State == models.SessionCompleted {
		return repositories.ErrSessionNotFound
	}
	s.State = models.SessionCompleted
	s.CompletedAt = &completedAt
	return nil
}

func (r *fakeSessionRepo) AddCheckIn(_ context.Context, sessionID, playerID string) error {
	for _, id := range r.checkins[sessionID] {
		if id == playerID {
			return nil
		}
	}
	r.checkins[sessionID] = append(r.checkins[sessionID], playerID)
	return nil
}

func (r *fakeSessionRepo) RemoveCheckIn(_ context.Context, _ repositories.SQLExecutor, sessionID, playerID string) error {
	remaining := r.checkins[sessionID][:0]
	for _, id := range r.checkins[sessionID] {
		if id != playerID {
			remaining = append(remaining, id)
		}
	}
	r.checkins[sessionID] = remaining
	return nil
}

func (r *fakeSessionRepo) ClearCheckIns(_ context.Context, _ repositories.SQLExecutor, sessionID string) error {
	delete(r.checkins, sessionID)
	return nil
}

func (r *fakeSessionRepo) ListCheckIns(_ context.Context, sessionID string) ([]string, error) {
	return append([]string(nil), r.checkins[sessionID]...), nil
}

type fakeElimRepo struct {
	records []models.EliminationRecord
	nextID  int
}

func (r *fakeElimRepo) Create(_ context.Context, _ repositories.SQLExecutor, rec *models.EliminationRecord) error {
	for _, existing := range r.records {
		if existing.SessionID == rec.SessionID && existing.FinishPosition == rec.FinishPosition {
			return repositories.ErrFinishPositionTaken
		}
		if existing.SessionID == rec.SessionID && existing.PlayerID == rec.PlayerID {
			return repositories.ErrEliminationConflict
		}
	}
	r.nextID++
	rec.ID = r.nextID
	rec.CreatedAt = time.Now()
	r.records = append(r.records, *rec)
	return nil
}

func (r *fakeElimRepo) ListBySession(_ context.Context, sessionID string) ([]models.EliminationRecord, error) {
	out := make([]models.EliminationRecord, 0)
	for _, rec := range r.records {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeElimRepo) ListByScope(_ context.Context, leagueID *string) ([]models.EliminationRecord, error) {
	out := make([]models.EliminationRecord, 0)
	for _, rec := range r.records {
		if leagueID == nil || rec.LeagueID == *leagueID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakePlayerRepo struct {
	players map[string]*models.Player
}

func newFakePlayerRepo(players []models.Player) *fakePlayerRepo {
	repo := &fakePlayerRepo{players: make(map[string]*models.Player)}
	for i := range players {
		p := players[i]
		repo.players[p.ID] = &p
	}
	return repo
}

func (r *fakePlayerRepo) Create(_ context.Context, p *models.Player) error {
	for _, existing := range r.players {
		if existing.Email == p.Email {
			return repositories.ErrPlayerEmailConflict
		}
	}
	p.CreatedAt = time.Now()
	stored := *p
	r.players[p.ID] = &stored
	return nil
}

func (r *fakePlayerRepo) GetByID(_ context.Context, id string) (*models.Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePlayerRepo) GetByEmail(_ context.Context, email string) (*models.Player, error) {
	for _, p := range r.players {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) GetByIDs(_ context.Context, ids []string) (map[string]*models.Player, error) {
	out := make(map[string]*models.Player, len(ids))
	for _, id := range ids {
		if p, ok := r.players[id]; ok {
			copied := *p
			out[id] = &copied
		}
	}
	return out, nil
}

func (r *fakePlayerRepo) List(_ context.Context) ([]models.Player, error) {
	out := make([]models.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakePlayerRepo) UpdateAvatarKey(_ context.Context, playerID string, avatarKey *string) error {
	p, ok := r.players[playerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.AvatarKey = avatarKey
	return nil
}

type fakeLeagueRepo struct {
	leagues map[string]*models.League
}

func (r *fakeLeagueRepo) Create(_ context.Context, l *models.League) error {
	l.CreatedAt = time.Now()
	stored := *l
	r.leagues[l.ID] = &stored
	return nil
}

func (r *fakeLeagueRepo) GetByID(_ context.Context, id string) (*models.League, error) {
	l, ok := r.leagues[id]
	if !ok {
		return nil, repositories.ErrLeagueNotFound
	}
	copied := *l
	return &copied, nil
}

func (r *fakeLeagueRepo) List(_ context.Context) ([]models.League, error) {
	out := make([]models.League, 0, len(r.leagues))
	for _, l := range r.leagues {
		out = append(out, *l)
	}
	return out, nil
}

type fakeRoster struct {
	adminID string
	members map[string]models.Player
}

func (r *fakeRoster) MembersOf(_ context.Context, _ string) ([]models.Player, error) {
	out := make([]models.Player, 0, len(r.members))
	for _, p := range r.members {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeRoster) IsMember(_ context.Context, _ string, playerID string) (bool, error) {
	_, ok := r.members[playerID]
	return ok, nil
}

func (r *fakeRoster) IsAdmin(_ context.Context, _ string, playerID string) (bool, error) {
	return playerID == r.adminID, nil
}

func (r *fakeRoster) Join(_ context.Context, _ string, playerID string) error {
	r.members[playerID] = models.Player{ID: playerID}
	return nil
}

type sessionEnv struct {
	svc         *SessionService
	sessionRepo *fakeSessionRepo
	elimRepo    *fakeElimRepo
	playerRepo  *fakePlayerRepo
	leagueRepo  *fakeLeagueRepo
	roster      *fakeRoster

	leagueID string
	adminID  string
	players  []models.Player
}

// newSessionEnv готовит лигу с memberCount игроками; первый игрок — админ.
func newSessionEnv(memberCount, buyIn int) *sessionEnv {
	players := makePlayers(memberCount)

	roster := &fakeRoster{
		adminID: players[0].ID,
		members: make(map[string]models.Player),
	}
	for _, p := range players {
		roster.members[p.ID] = p
	}

	leagueRepo := &fakeLeagueRepo{leagues: map[string]*models.League{
		"league-1": {
			ID:         "league-1",
			Name:       "Friday Night Poker",
			BuyIn:      buyIn,
			MaxPlayers: 20,
			GameFormat: "tournament",
			AdminID:    players[0].ID,
		},
	}}

	sessionRepo := newFakeSessionRepo()
	elimRepo := &fakeElimRepo{}
	playerRepo := newFakePlayerRepo(players)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewSessionService(nil, sessionRepo, elimRepo, playerRepo, leagueRepo, roster, nil, logger)

	return &sessionEnv{
		svc:         svc,
		sessionRepo: sessionRepo,
		elimRepo:    elimRepo,
		playerRepo:  playerRepo,
		leagueRepo:  leagueRepo,
		roster:      roster,
		leagueID:    "league-1",
		adminID:     players[0].ID,
		players:     players,
	}
}

func (e *sessionEnv) checkInAll(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := e.svc.CheckIn(context.Background(), e.leagueID, e.players[i].ID)
		require.NoError(t, err)
	}
}

func TestEnsureOpenSessionReusesCurrent(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()

	first, err := env.svc.EnsureOpenSession(ctx, env.leagueID)
	require.NoError(t, err)
	require.Equal(t, models.SessionOpen, first.State)

	second, err := env.svc.EnsureOpenSession(ctx, env.leagueID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "league must never hold two non-completed sessions")
}

func TestEnsureOpenSessionUnknownLeague(t *testing.T) {
	env := newSessionEnv(3, 100)

	_, err := env.svc.EnsureOpenSession(context.Background(), "missing-league")
	assert.ErrorIs(t, err, ErrLeagueNotFound)
}

func TestCheckInRequiresMembership(t *testing.T) {
	env := newSessionEnv(3, 100)

	_, err := env.svc.CheckIn(context.Background(), env.leagueID, "stranger")
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestCheckInIsIdempotent(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()

	_, err := env.svc.CheckIn(ctx, env.leagueID, env.players[0].ID)
	require.NoError(t, err)
	status, err := env.svc.CheckIn(ctx, env.leagueID, env.players[0].ID)
	require.NoError(t, err)

	assert.Equal(t, 1, status.CheckedIn)
	assert.Len(t, status.SeatAssignments, 1)
}

func TestCheckOutBeforeStartRemovesCheckIn(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()
	env.checkInAll(t, 2)

	status, err := env.svc.CheckOut(ctx, env.leagueID, env.players[1].ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, status.CheckedIn)
	assert.Equal(t, 0, status.EliminatedCount, "check-out before start must not touch the score")
	assert.Empty(t, env.elimRepo.records)
}

func TestStartRequiresAdmin(t *testing.T) {
	env := newSessionEnv(3, 100)
	env.checkInAll(t, 3)

	_, err := env.svc.Start(context.Background(), env.leagueID, env.players[1].ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestStartRequiresTwoCheckIns(t *testing.T) {
	env := newSessionEnv(3, 100)
	env.checkInAll(t, 1)

	_, err := env.svc.Start(context.Background(), env.leagueID, env.adminID)
	assert.ErrorIs(t, err, ErrInsufficientPlayers)
}

func TestStartSnapshotsPlayerCount(t *testing.T) {
	env := newSessionEnv(5, 100)
	env.checkInAll(t, 3)

	session, err := env.svc.Start(context.Background(), env.leagueID, env.adminID)
	require.NoError(t, err)

	assert.Equal(t, models.SessionStarted, session.State)
	assert.Equal(t, 3, session.PlayerCount)
	require.NotNil(t, session.StartedAt)
}

func TestStartTwiceFails(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()
	env.checkInAll(t, 2)

	_, err := env.svc.Start(ctx, env.leagueID, env.adminID)
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, env.leagueID, env.adminID)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestEliminationRequiresStartedSession(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()
	env.checkInAll(t, 2)

	position := 2
	_, err := env.svc.CheckOut(ctx, env.leagueID, env.players[1].ID, &position)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestEliminationRejectsInvalidPosition(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()
	env.checkInAll(t, 2)
	_, err := env.svc.Start(ctx, env.leagueID, env.adminID)
	require.NoError(t, err)

	position := 0
	_, err = env.svc.CheckOut(ctx, env.leagueID, env.players[1].ID, &position)
	assert.ErrorIs(t, err, ErrInvalidFinishPosition)
}

func TestEliminationRequiresCheckIn(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()
	env.checkInAll(t, 2)
	_, err := env.svc.Start(ctx, env.leagueID, env.adminID)
	require.NoError(t, err)

	// Третий игрок — член лиги, но за стол не садился.
	position := 2
	_, err = env.svc.CheckOut(ctx, env.leagueID, env.players[2].ID, &position)
	assert.ErrorIs(t, err, ErrNotCheckedIn)
	assert.Empty(t, env.elimRepo.records)
}

func TestEliminationRejectsDuplicatePosition(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()
	env.checkInAll(t, 3)
	_, err := env.svc.Start(ctx, env.leagueID, env.adminID)
	require.NoError(t, err)

	position := 3
	_, err = env.svc.CheckOut(ctx, env.leagueID, env.players[2].ID, &position)
	require.NoError(t, err)

	_, err = env.svc.CheckOut(ctx, env.leagueID, env.players[1].ID, &position)
	assert.ErrorIs(t, err, ErrDuplicateFinishPosition)
	assert.Len(t, env.elimRepo.records, 1)
}

func TestLateCheckInDoesNotChangePayouts(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()
	env.checkInAll(t, 2)
	_, err := env.svc.Start(ctx, env.leagueID, env.adminID)
	require.NoError(t, err)

	// Третий игрок подключается после старта: играть можно, но масштаб
	// очков и призов зафиксирован на момент старта.
	_, err = env.svc.CheckIn(ctx, env.leagueID, env.players[2].ID)
	require.NoError(t, err)

	position := 1
	status, err := env.svc.CheckOut(ctx, env.leagueID, env.players[0].ID, &position)
	require.NoError(t, err)

	require.Len(t, env.elimRepo.records, 1)
	record := env.elimRepo.records[0]
	assert.Equal(t, 100, record.Points)
	assert.Equal(t, 100, record.Earnings, "pool is frozen at 2 players x 100")
	assert.Equal(t, 1, status.EliminatedCount)
}

func TestCompleteRequiresStartedSession(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()
	env.checkInAll(t, 2)

	_, err := env.svc.Complete(ctx, env.leagueID, env.adminID, []FinishResult{
		{PlayerID: env.players[0].ID, FinishPosition: 1},
	})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestCompleteRecordsAllResults(t *testing.T) {
	env := newSessionEnv(5, 100)
	ctx := context.Background()
	env.checkInAll(t, 5)
	started, err := env.svc.Start(ctx, env.leagueID, env.adminID)
	require.NoError(t, err)

	results := make([]FinishResult, 0, 5)
	for i, p := range env.players {
		results = append(results, FinishResult{PlayerID: p.ID, FinishPosition: 5 - i})
	}

	session, err := env.svc.Complete(ctx, env.leagueID, env.adminID, results)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, session.State)
	require.NotNil(t, session.CompletedAt)

	records, err := env.elimRepo.ListBySession(ctx, started.ID)
	require.NoError(t, err)
	require.Len(t, records, 5)

	var winner *models.EliminationRecord
	for i := range records {
		if records[i].FinishPosition == 1 {
			winner = &records[i]
		}
	}
	require.NotNil(t, winner)
	assert.Equal(t, env.players[4].ID, winner.PlayerID)
	assert.Equal(t, 100, winner.Points)
	assert.Equal(t, 250, winner.Earnings, "5 players x 100: winner takes 350 minus buy-in")

	// Отметки сброшены, незавершённой сессии больше нет.
	assert.Empty(t, env.sessionRepo.checkins[started.ID])
	_, err = env.svc.Status(ctx, env.leagueID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCompleteRejectsPositionTakenLive(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()
	env.checkInAll(t, 3)
	_, err := env.svc.Start(ctx, env.leagueID, env.adminID)
	require.NoError(t, err)

	position := 3
	_, err = env.svc.CheckOut(ctx, env.leagueID, env.players[2].ID, &position)
	require.NoError(t, err)

	_, err = env.svc.Complete(ctx, env.leagueID, env.adminID, []FinishResult{
		{PlayerID: env.players[0].ID, FinishPosition: 1},
		{PlayerID: env.players[1].ID, FinishPosition: 3},
	})
	assert.ErrorIs(t, err, ErrDuplicateFinishPosition)
	assert.Len(t, env.elimRepo.records, 1, "rejected batch must not leave partial records")
}

func TestCompleteRejectsDuplicateWithinBatch(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()
	env.checkInAll(t, 2)
	_, err := env.svc.Start(ctx, env.leagueID, env.adminID)
	require.NoError(t, err)

	_, err = env.svc.Complete(ctx, env.leagueID, env.adminID, []FinishResult{
		{PlayerID: env.players[0].ID, FinishPosition: 1},
		{PlayerID: env.players[1].ID, FinishPosition: 1},
	})
	assert.ErrorIs(t, err, ErrDuplicateFinishPosition)
	assert.Empty(t, env.elimRepo.records)
}

// Полный игровой вечер на живых выбываниях: пять игроков отмечаются,
// сессия стартует, игроки выбывают по одному с мест 5..1, и рейтинг лиги
// собирается из записанных выбываний.
func TestLiveEliminationNightFeedsLeaderboard(t *testing.T) {
	env := newSessionEnv(5, 100)
	ctx := context.Background()
	env.checkInAll(t, 5)
	_, err := env.svc.Start(ctx, env.leagueID, env.adminID)
	require.NoError(t, err)

	var status *models.SessionStatus
	for i := 4; i >= 0; i-- {
		position := i + 1
		status, err = env.svc.CheckOut(ctx, env.leagueID, env.players[i].ID, &position)
		require.NoError(t, err, "position %d", position)
	}

	require.NotNil(t, status)
	assert.Equal(t, 0, status.CheckedIn)
	assert.Equal(t, 5, status.EliminatedCount)
	assert.True(t, status.GameStarted)
	assert.Empty(t, status.SeatAssignments)

	leaderboard := NewLeaderboardService(env.elimRepo, env.playerRepo, nil)
	entries, err := leaderboard.Leaderboard(ctx, &env.leagueID)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	winner := entries[0]
	assert.Equal(t, 1, winner.Rank)
	assert.Equal(t, env.players[0].ID, winner.PlayerID)
	assert.Equal(t, 100, winner.TotalPoints)
	assert.Equal(t, 1, winner.Wins)
	assert.InDelta(t, 100.0, winner.WinRate, 0.001)
	assert.InDelta(t, 1.0, winner.AvgFinish, 0.001)
	assert.Equal(t, 250, winner.TotalEarnings, "5 players x 100: winner takes 350 minus buy-in")

	// Места по убыванию очков: 100, 80, 60, 40, 40.
	assert.Equal(t, 80, entries[1].TotalPoints)
	assert.Equal(t, 60, entries[2].TotalPoints)
	assert.Equal(t, 40, entries[3].TotalPoints)
	assert.Equal(t, 40, entries[4].TotalPoints)
	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Rank)
	}
}

func TestResetOpensFreshSession(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()
	env.checkInAll(t, 2)
	started, err := env.svc.Start(ctx, env.leagueID, env.adminID)
	require.NoError(t, err)

	fresh, err := env.svc.Reset(ctx, env.leagueID, env.adminID)
	require.NoError(t, err)

	assert.NotEqual(t, started.ID, fresh.ID)
	assert.Equal(t, models.SessionOpen, fresh.State)

	old, err := env.sessionRepo.GetByID(ctx, started.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, old.State)
}

func TestStatusSeatsFollowCheckInOrder(t *testing.T) {
	env := newSessionEnv(3, 100)
	ctx := context.Background()

	order := []int{1, 2, 0}
	for _, i := range order {
		_, err := env.svc.CheckIn(ctx, env.leagueID, env.players[i].ID)
		require.NoError(t, err)
	}

	status, err := env.svc.Status(ctx, env.leagueID)
	require.NoError(t, err)

	require.Len(t, status.SeatAssignments, 3)
	for seat, i := range order {
		assert.Equal(t, env.players[i].ID, status.SeatAssignments[seat].PlayerID)
		assert.Equal(t, 1, status.SeatAssignments[seat].TableNumber)
		assert.Equal(t, seat+1, status.SeatAssignments[seat].SeatNumber)
	}
	assert.Equal(t, 3, status.TotalPlayers)
	assert.Equal(t, 1, status.TablesNeeded)
	assert.False(t, status.GameStarted)
}

func TestStatusWithoutSessionReturnsNotFound(t *testing.T) {
	env := newSessionEnv(3, 100)

	_, err := env.svc.Status(context.Background(), env.leagueID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
