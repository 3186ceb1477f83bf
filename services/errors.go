package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/repositories"
)

// Виды ошибок, по которым handlers выбирают HTTP-статус. Конкретные ошибки ниже
// оборачивают один из них, проверять нужно через errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("requested resource not found")
	ErrTransport  = errors.New("store unavailable")
	ErrForbidden  = errors.New("operation not allowed for the current user")
)

var (
	// Матчи
	ErrMatchNotFound         = fmt.Errorf("%w: match not found", ErrNotFound)
	ErrMatchChanged          = fmt.Errorf("%w: match changed concurrently, reload and retry", ErrConflict)
	ErrMatchPlayerIneligible = fmt.Errorf("%w: match players must exist and be approved", ErrValidation)

	// Игроки
	ErrPlayerNotFound      = fmt.Errorf("%w: player not found", ErrNotFound)
	ErrPlayerNameRequired  = fmt.Errorf("%w: player name is required", ErrValidation)
	ErrEmployeeNumberTaken = fmt.Errorf("%w: employee number is already registered", ErrConflict)
	ErrPlayerLocked        = fmt.Errorf("%w: player has a completed match and cannot be changed", ErrConflict)
	ErrPlayerReferenced    = fmt.Errorf("%w: player is referenced by matches or winners", ErrConflict)
	ErrInvalidPlayerStatus = fmt.Errorf("%w: invalid player status", ErrValidation)
	ErrCategoryRequired    = fmt.Errorf("%w: at least one category is required", ErrValidation)

	// Победители
	ErrWinnerNotFound        = fmt.Errorf("%w: tournament winner not found", ErrNotFound)
	ErrInvalidWinnerPosition = fmt.Errorf("%w: position must be 'winner' or 'runner_up'", ErrValidation)

	// Импорт
	ErrUnsupportedImportFormat = fmt.Errorf("%w: import format must be csv or xlsx", ErrValidation)
	ErrImportMissingColumns    = fmt.Errorf("%w: import file misses required columns", ErrValidation)
)

// stateModelErrors - нарушения предусловий конечного автомата матча.
var stateModelErrors = []error{
	models.ErrInvalidTransition,
	models.ErrMatchNotLive,
	models.ErrMatchCompleted,
	models.ErrScoreUnderflow,
	models.ErrInvalidSide,
	models.ErrInvalidDelta,
	models.ErrAllSetsPlayed,
	models.ErrWinnerRequired,
	models.ErrMissingParticipant,
	models.ErrInvalidMatchState,
}

// validationError wraps err with ErrValidation while keeping it matchable.
func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func isStateModelError(err error) bool {
	for _, target := range stateModelErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// mapMatchStoreError translates repository failures of match operations into the
// service taxonomy.
func mapMatchStoreError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchConditionFailed):
		return ErrMatchChanged
	case errors.Is(err, repositories.ErrMatchPlayerInvalid):
		return ErrMatchPlayerIneligible
	case isStateModelError(err):
		return validationError(err)
	}
	return storeError(op, err)
}

func mapPlayerStoreError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrPlayerEmployeeNumberTaken):
		return ErrEmployeeNumberTaken
	case errors.Is(err, repositories.ErrPlayerReferenced):
		return ErrPlayerReferenced
	}
	return storeError(op, err)
}

func mapWinnerStoreError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrWinnerNotFound):
		return ErrWinnerNotFound
	case errors.Is(err, repositories.ErrWinnerPlayerInvalid):
		return ErrPlayerNotFound
	}
	return storeError(op, err)
}

func storeError(op string, err error) error {
	if errors.Is(err, repositories.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %s: %v", ErrTransport, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// outcomeLabel is the metrics label of a command result.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "rejected"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTransport):
		return "transport"
	}
	return "error"
}
