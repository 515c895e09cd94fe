package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pokernight/league-system/models"
	"github.com/pokernight/league-system/repositories"
	"github.com/pokernight/league-system/storage"
)

// RosterService отвечает на вопросы о составе лиги: кто состоит, кто
// администрирует. Сессионный сервис ходит сюда перед каждым переходом.
type RosterService interface {
	MembersOf(ctx context.Context, leagueID string) ([]models.Player, error)
	IsMember(ctx context.Context, leagueID, playerID string) (bool, error)
	IsAdmin(ctx context.Context, leagueID, playerID string) (bool, error)
	Join(ctx context.Context, leagueID, playerID string) error
}

type rosterService struct {
	membershipRepo repositories.MembershipRepository
	leagueRepo     repositories.LeagueRepository
	uploader       storage.FileUploader
}

func NewRosterService(
	membershipRepo repositories.MembershipRepository,
	leagueRepo repositories.LeagueRepository,
	uploader storage.FileUploader,
) RosterService {
	return &rosterService{
		membershipRepo: membershipRepo,
		leagueRepo:     leagueRepo,
		uploader:       uploader,
	}
}

func (s *rosterService) MembersOf(ctx context.Context, leagueID string) ([]models.Player, error) {
	if _, err := s.leagueRepo.GetByID(ctx, leagueID); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to check league: %w", err)
	}

	players, err := s.membershipRepo.ListPlayersByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list league members: %w", err)
	}

	if s.uploader != nil {
		for i := range players {
			if players[i].AvatarKey != nil {
				url := s.uploader.GetPublicURL(*players[i].AvatarKey)
				players[i].AvatarURL = &url
			}
		}
	}
	return players, nil
}

func (s *rosterService) IsMember(ctx context.Context, leagueID, playerID string) (bool, error) {
	_, err := s.membershipRepo.Get(ctx, leagueID, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return true, nil
}

func (s *rosterService) IsAdmin(ctx context.Context, leagueID, playerID string) (bool, error) {
	league, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return false, ErrLeagueNotFound
		}
		return false, fmt.Errorf("failed to check league: %w", err)
	}
	if league.AdminID == playerID {
		return true, nil
	}

	member, err := s.membershipRepo.Get(ctx, leagueID, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return member.IsAdmin, nil
}

func (s *rosterService) Join(ctx context.Context, leagueID, playerID string) error {
	err := s.membershipRepo.Add(ctx, &models.LeagueMember{
		LeagueID: leagueID,
		PlayerID: playerID,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMemberAlreadyJoined):
			return ErrAlreadyMember
		case errors.Is(err, repositories.ErrLeagueNotFound):
			return ErrLeagueNotFound
		}
		return fmt.Errorf("failed to join league: %w", err)
	}
	return nil
}
