package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pokernight/league-system/models"
	"github.com/pokernight/league-system/repositories"
)

type CreateLeagueInput struct {
	Name       string `json:"name"`
	BuyIn      int    `json:"buy_in"`
	MaxPlayers int    `json:"max_players"`
	GameFormat string `json:"game_format"`
}

// LeagueService управляет лигами; состав лиги — зона RosterService.
type LeagueService struct {
	leagueRepo     repositories.LeagueRepository
	membershipRepo repositories.MembershipRepository
}

func NewLeagueService(
	leagueRepo repositories.LeagueRepository,
	membershipRepo repositories.MembershipRepository,
) *LeagueService {
	return &LeagueService{
		leagueRepo:     leagueRepo,
		membershipRepo: membershipRepo,
	}
}

func (s *LeagueService) Create(ctx context.Context, adminID string, input CreateLeagueInput) (*models.League, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || input.BuyIn < 0 || input.MaxPlayers < 2 {
		return nil, ErrValidationFailed
	}
	if input.GameFormat == "" {
		input.GameFormat = "tournament"
	}

	league := &models.League{
		ID:         uuid.NewString(),
		Name:       input.Name,
		BuyIn:      input.BuyIn,
		MaxPlayers: input.MaxPlayers,
		GameFormat: input.GameFormat,
		AdminID:    adminID,
	}

	if err := s.leagueRepo.Create(ctx, league); err != nil {
		if errors.Is(err, repositories.ErrLeagueNameConflict) {
			return nil, ErrLeagueNameConflict
		}
		return nil, fmt.Errorf("failed to create league: %w", err)
	}

	// Создатель сразу становится членом-администратором.
	member := &models.LeagueMember{
		LeagueID: league.ID,
		PlayerID: adminID,
		IsAdmin:  true,
	}
	if err := s.membershipRepo.Add(ctx, member); err != nil && !errors.Is(err, repositories.ErrMemberAlreadyJoined) {
		return nil, fmt.Errorf("failed to add league admin as member: %w", err)
	}

	return league, nil
}

func (s *LeagueService) GetByID(ctx context.Context, id string) (*models.League, error) {
	league, err := s.leagueRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	return league, nil
}

func (s *LeagueService) List(ctx context.Context) ([]models.League, error) {
	return s.leagueRepo.List(ctx)
}
