package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/repositories"
	"github.com/google/uuid"
)

const (
	minPlayerAge = 18
	maxPlayerAge = 70
)

type PlayerService interface {
	Register(ctx context.Context, input PlayerInput) (*models.Player, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Player, error)
	List(ctx context.Context, status *models.PlayerStatus) ([]*models.Player, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Player, error)
	Reject(ctx context.Context, id uuid.UUID) (*models.Player, error)
	Update(ctx context.Context, id uuid.UUID, input PlayerInput) (*models.Player, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PlayerInput - анкета регистрации; та же форма используется при редактировании админом.
type PlayerInput struct {
	Name           string            `json:"name"`
	EmployeeNumber string            `json:"employee_number"`
	Location       string            `json:"location"`
	Designation    string            `json:"designation"`
	Age            int               `json:"age"`
	Gender         models.Gender     `json:"gender"`
	Categories     []models.Category `json:"category"`
	Team           *string           `json:"team,omitempty"`
	PhotoURL       *string           `json:"photo_url,omitempty"`
	Phone          string            `json:"phone"`
	Email          *string           `json:"email,omitempty"`
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	matchRepo  repositories.MatchRepository
	logger     *slog.Logger
}

func NewPlayerService(playerRepo repositories.PlayerRepository, matchRepo repositories.MatchRepository, logger *slog.Logger) PlayerService {
	return &playerService{playerRepo: playerRepo, matchRepo: matchRepo, logger: logger}
}

func (in PlayerInput) normalized() PlayerInput {
	in.Name = strings.TrimSpace(in.Name)
	in.EmployeeNumber = strings.TrimSpace(in.EmployeeNumber)
	in.Location = strings.TrimSpace(in.Location)
	in.Designation = strings.TrimSpace(in.Designation)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Team = trimOptional(in.Team)
	in.PhotoURL = trimOptional(in.PhotoURL)
	in.Email = trimOptional(in.Email)
	return in
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (in PlayerInput) validate() error {
	if n := utf8.RuneCountInString(in.Name); n < 2 || n > 100 {
		return fmt.Errorf("%w (2-100 characters)", ErrPlayerNameRequired)
	}
	if in.EmployeeNumber == "" {
		return fmt.Errorf("%w: employee number is required", ErrValidation)
	}
	if in.Location == "" {
		return fmt.Errorf("%w: location is required", ErrValidation)
	}
	if in.Designation == "" {
		return fmt.Errorf("%w: designation is required", ErrValidation)
	}
	if in.Age < minPlayerAge || in.Age > maxPlayerAge {
		return fmt.Errorf("%w: age must be between %d and %d", ErrValidation, minPlayerAge, maxPlayerAge)
	}
	if !in.Gender.IsValid() {
		return fmt.Errorf("%w: unknown gender %q", ErrValidation, in.Gender)
	}
	if len(in.Categories) == 0 {
		return ErrCategoryRequired
	}
	for _, c := range in.Categories {
		if !c.IsValid() {
			return fmt.Errorf("%w: unknown category %q", ErrValidation, c)
		}
	}
	if n := len(in.Phone); n < 10 || n > 15 {
		return fmt.Errorf("%w: phone number must be 10-15 digits", ErrValidation)
	}
	if in.Email != nil {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			return fmt.Errorf("%w: invalid email", ErrValidation)
		}
	}
	return nil
}

func (in PlayerInput) applyTo(p *models.Player) {
	p.Name = in.Name
	p.EmployeeNumber = in.EmployeeNumber
	p.Location = in.Location
	p.Designation = in.Designation
	p.Age = in.Age
	p.Gender = in.Gender
	p.Categories = dedupeCategories(in.Categories)
	p.Team = in.Team
	p.PhotoURL = in.PhotoURL
	p.Phone = in.Phone
	p.Email = in.Email
}

func dedupeCategories(categories []models.Category) []models.Category {
	seen := make(map[models.Category]bool, len(categories))
	result := make([]models.Category, 0, len(categories))
	for _, c := range categories {
		if !seen[c] {
			seen[c] = true
			result = append(result, c)
		}
	}
	return result
}

// Register creates a PENDING registration; an admin approves it later.
func (s *playerService) Register(ctx context.Context, input PlayerInput) (*models.Player, error) {
	input = input.normalized()
	if err := input.validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &models.Player{
		ID:           uuid.New(),
		Status:       models.PlayerStatusPending,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	input.applyTo(p)

	if err := s.playerRepo.Create(ctx, p); err != nil {
		return nil, mapPlayerStoreError("register player", err)
	}
	s.logger.InfoContext(ctx, "player registered",
		slog.String("player_id", p.ID.String()),
		slog.String("employee_number", p.EmployeeNumber))
	return p, nil
}

func (s *playerService) Get(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapPlayerStoreError("get player", err)
	}
	return p, nil
}

func (s *playerService) List(ctx context.Context, status *models.PlayerStatus) ([]*models.Player, error) {
	if status != nil && !status.IsValid() {
		return nil, ErrInvalidPlayerStatus
	}
	players, err := s.playerRepo.List(ctx, status)
	if err != nil {
		return nil, mapPlayerStoreError("list players", err)
	}
	if players == nil {
		return []*models.Player{}, nil
	}
	return players, nil
}

func (s *playerService) Approve(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return s.setStatus(ctx, id, models.PlayerStatusApproved)
}

func (s *playerService) Reject(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return s.setStatus(ctx, id, models.PlayerStatusRejected)
}

func (s *playerService) setStatus(ctx context.Context, id uuid.UUID, status models.PlayerStatus) (*models.Player, error) {
	p, err := s.playerRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, mapPlayerStoreError("update player status", err)
	}
	s.logger.InfoContext(ctx, "player status changed",
		slog.String("player_id", id.String()), slog.String("status", string(status)))
	return p, nil
}

func (s *playerService) Update(ctx context.Context, id uuid.UUID, input PlayerInput) (*models.Player, error) {
	input = input.normalized()
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUnlocked(ctx, id); err != nil {
		return nil, err
	}
	p, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapPlayerStoreError("get player", err)
	}
	input.applyTo(p)
	p.UpdatedAt = time.Now().UTC()

	if err := s.playerRepo.Update(ctx, p); err != nil {
		return nil, mapPlayerStoreError("update player", err)
	}
	return p, nil
}

func (s *playerService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.ensureUnlocked(ctx, id); err != nil {
		return err
	}
	if err := s.playerRepo.Delete(ctx, id); err != nil {
		return mapPlayerStoreError("delete player", err)
	}
	s.logger.InfoContext(ctx, "player deleted", slog.String("player_id", id.String()))
	return nil
}

// ensureUnlocked: результат завершённого матча не должен поменять участника задним числом.
func (s *playerService) ensureUnlocked(ctx context.Context, id uuid.UUID) error {
	locked, err := s.matchRepo.HasCompletedForPlayer(ctx, id)
	if err != nil {
		return mapMatchStoreError("check player lock", err)
	}
	if locked {
		return ErrPlayerLocked
	}
	return nil
}
