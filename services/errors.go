package services

import "errors"

// Общие ошибки бизнес-правил, используемые в сервисах и маппинге HTTP.
// Все они локальные, синхронные и не подлежат повтору: переход либо
// применяется целиком, либо не применяется вовсе.
var (
	// Ресурс не найден
	ErrNotFound        = errors.New("requested resource not found")
	ErrLeagueNotFound  = errors.New("league not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrSessionNotFound = errors.New("session not found")

	// Нарушения правил сессии
	ErrNotEligible             = errors.New("player is not a member of this league")
	ErrNotCheckedIn            = errors.New("player is not checked in to this session")
	ErrNotAuthorized           = errors.New("only a league admin can perform this action")
	ErrInsufficientPlayers     = errors.New("need at least 2 checked-in players to start")
	ErrNotStarted              = errors.New("session has not been started")
	ErrAlreadyStarted          = errors.New("session has already been started")
	ErrInvalidTransition       = errors.New("invalid session state transition")
	ErrDuplicateFinishPosition = errors.New("finish position already recorded for this session")
	ErrInvalidFinishPosition   = errors.New("finish position must be a positive integer")

	// Ошибки валидации и конфликтов
	ErrValidationFailed   = errors.New("validation failed")
	ErrLeagueNameConflict = errors.New("league name already exists")
	ErrAlreadyMember      = errors.New("player is already a member of this league")

	// Ошибки аутентификации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
)
