package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/google/uuid"
)

var (
	ErrWinnerNotFound      = errors.New("tournament winner not found")
	ErrWinnerPlayerInvalid = errors.New("tournament winner references an unknown player")
)

type WinnerRepository interface {
	// Upsert replaces the record for (category, position) if one exists.
	Upsert(ctx context.Context, w *models.TournamentWinner) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.TournamentWinner, error)
}

const winnerColumns = `id, player_id, partner_id, category, position, awarded_at`

type postgresWinnerRepository struct {
	db *sql.DB
}

func NewPostgresWinnerRepository(db *sql.DB) WinnerRepository {
	return &postgresWinnerRepository{db: db}
}

func scanWinner(row rowScanner) (*models.TournamentWinner, error) {
	var (
		w       models.TournamentWinner
		partner uuid.NullUUID
	)
	if err := row.Scan(&w.ID, &w.PlayerID, &partner, &w.Category, &w.Position, &w.AwardedAt); err != nil {
		return nil, err
	}
	if partner.Valid {
		w.PartnerID = &partner.UUID
	}
	return &w, nil
}

func (r *postgresWinnerRepository) Upsert(ctx context.Context, w *models.TournamentWinner) error {
	query := `
		INSERT INTO tournament_winners (player_id, partner_id, category, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (category, position) DO UPDATE
		SET player_id = EXCLUDED.player_id,
		    partner_id = EXCLUDED.partner_id,
		    awarded_at = NOW()
		RETURNING ` + winnerColumns

	saved, err := scanWinner(r.db.QueryRowContext(ctx, query,
		w.PlayerID, nullableUUID(w.PartnerID), w.Category, w.Position))
	if err != nil {
		if code, _, ok := pqErrorCode(err); ok && code == "23503" {
			return ErrWinnerPlayerInvalid
		}
		return wrapStoreError("upsert tournament winner", err)
	}
	*w = *saved
	return nil
}

func (r *postgresWinnerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournament_winners WHERE id = $1`, id)
	if err != nil {
		return wrapStoreError("delete tournament winner", err)
	}
	return checkAffectedRows(result, ErrWinnerNotFound)
}

func (r *postgresWinnerRepository) List(ctx context.Context) ([]*models.TournamentWinner, error) {
	query := `SELECT ` + winnerColumns + ` FROM tournament_winners ORDER BY category ASC, position DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapStoreError("list tournament winners", err)
	}
	defer rows.Close()

	winners := make([]*models.TournamentWinner, 0)
	for rows.Next() {
		w, scanErr := scanWinner(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan winner row: %w", scanErr)
		}
		winners = append(winners, w)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapStoreError("iterate tournament winners", err)
	}
	return winners, nil
}
