package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pokernight/league-system/models"
	"github.com/pokernight/league-system/repositories"
	"github.com/pokernight/league-system/storage"
)

var (
	ErrUnsupportedAvatarType = errors.New("unsupported avatar content type")
	ErrAvatarUploadsDisabled = errors.New("avatar uploads are not configured")
)

// PlayerService отвечает за профили игроков и загрузку аватаров в R2.
type PlayerService struct {
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
}

func NewPlayerService(playerRepo repositories.PlayerRepository, uploader storage.FileUploader) *PlayerService {
	return &PlayerService{
		playerRepo: playerRepo,
		uploader:   uploader,
	}
}

func (s *PlayerService) GetProfileByID(ctx context.Context, id string) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	s.resolveAvatarURL(player)
	return player, nil
}

func (s *PlayerService) List(ctx context.Context) ([]models.Player, error) {
	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range players {
		s.resolveAvatarURL(&players[i])
	}
	return players, nil
}

// UpdateAvatar загружает новое изображение аватара и удаляет прежнее.
func (s *PlayerService) UpdateAvatar(ctx context.Context, playerID string, contentType string, file io.Reader) (*models.Player, error) {
	if s.uploader == nil {
		return nil, ErrAvatarUploadsDisabled
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	ext, ok := avatarExtension(contentType)
	if !ok {
		return nil, ErrUnsupportedAvatarType
	}

	key := fmt.Sprintf("avatars/%s%s", playerID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	oldKey := player.AvatarKey
	if err := s.playerRepo.UpdateAvatarKey(ctx, playerID, &key); err != nil {
		return nil, err
	}
	if oldKey != nil && *oldKey != key {
		// Старый объект не критичен: ошибку удаления не поднимаем наверх.
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	player.AvatarKey = &key
	s.resolveAvatarURL(player)
	return player, nil
}

func (s *PlayerService) resolveAvatarURL(p *models.Player) {
	if s.uploader == nil || p.AvatarKey == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*p.AvatarKey); url != "" {
		p.AvatarURL = &url
	}
}

func avatarExtension(contentType string) (string, bool) {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png", true
	case "image/jpeg", "image/jpg":
		return ".jpg", true
	case "image/webp":
		return ".webp", true
	default:
		return "", false
	}
}
