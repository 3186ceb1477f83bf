package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchConditionFailed: условный UPDATE не затронул строк, состояние изменилось конкурентно.
	ErrMatchConditionFailed = errors.New("match changed concurrently, conditional update did not apply")
	ErrMatchPlayerInvalid   = errors.New("match player reference is invalid")
)

type MatchFilter struct {
	Status   *models.MatchStatus
	Category *models.Category
}

// MatchRepository exposes every scoring mutation as one atomic conditional statement.
// Mutations return the row as it is after the change, including the new version.
type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	List(ctx context.Context, filter MatchFilter) ([]*models.Match, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Start(ctx context.Context, id uuid.UUID) (*models.Match, error)
	AdjustScore(ctx context.Context, id uuid.UUID, side models.Side, delta int) (*models.Match, error)
	EndSet(ctx context.Context, id uuid.UUID, side models.Side, autoComplete bool) (*models.Match, error)
	Complete(ctx context.Context, id uuid.UUID, winner models.Side) (*models.Match, error)
	HasCompletedForPlayer(ctx context.Context, playerID uuid.UUID) (bool, error)
}

const matchColumns = `id, player_a_id, player_a2_id, player_b_id, player_b2_id, category, court,
		scheduled_at, status, set1_a, set1_b, set2_a, set2_b, set3_a, set3_b,
		current_set, sets_won_a, sets_won_b, winner_side, version, created_at, updated_at,
		recent_commands`

type postgresMatchRepository struct {
	db SQLExecutor
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		m          models.Match
		a2, b2     uuid.NullUUID
		winnerSide sql.NullString
		commands   pq.StringArray
	)
	err := row.Scan(
		&m.ID,
		&m.PlayerAID,
		&a2,
		&m.PlayerBID,
		&b2,
		&m.Category,
		&m.Court,
		&m.ScheduledAt,
		&m.Status,
		&m.SetScores.Set1.A,
		&m.SetScores.Set1.B,
		&m.SetScores.Set2.A,
		&m.SetScores.Set2.B,
		&m.SetScores.Set3.A,
		&m.SetScores.Set3.B,
		&m.CurrentSet,
		&m.SetsWonA,
		&m.SetsWonB,
		&winnerSide,
		&m.Version,
		&m.CreatedAt,
		&m.UpdatedAt,
		&commands,
	)
	if err != nil {
		return nil, err
	}
	for _, raw := range commands {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid recent command id %q: %w", raw, err)
		}
		m.RecentCommands = append(m.RecentCommands, id)
	}
	if a2.Valid {
		m.PlayerA2ID = &a2.UUID
	}
	if b2.Valid {
		m.PlayerB2ID = &b2.UUID
	}
	if winnerSide.Valid {
		side := models.Side(winnerSide.String)
		m.WinnerSide = &side
	}
	return &m, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// sideColumn maps a validated side to its column suffix. The suffix is interpolated into
// SQL, so anything else is rejected.
func sideColumn(side models.Side) (string, error) {
	switch side {
	case models.SideA:
		return "a", nil
	case models.SideB:
		return "b", nil
	}
	return "", models.ErrInvalidSide
}

// recordCommand is the SET clause that prepends the command id in parameter n to
// recent_commands, keeping models.RecentCommandsKept entries.
func recordCommand(n int) string {
	return fmt.Sprintf(`recent_commands = CASE WHEN $%[1]d::uuid IS NULL THEN recent_commands
		ELSE (array_prepend($%[1]d::uuid, array_remove(recent_commands, $%[1]d::uuid)))[1:%[2]d] END`,
		n, models.RecentCommandsKept)
}

func commandArg(ctx context.Context) uuid.NullUUID {
	id := models.CommandIDFromContext(ctx)
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches
			(player_a_id, player_a2_id, player_b_id, player_b2_id, category, court, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + matchColumns

	created, err := scanMatch(r.db.QueryRowContext(ctx, query,
		match.PlayerAID,
		nullableUUID(match.PlayerA2ID),
		match.PlayerBID,
		nullableUUID(match.PlayerB2ID),
		match.Category,
		match.Court,
		match.ScheduledAt,
	))
	if err != nil {
		if code, _, ok := pqErrorCode(err); ok && code == "23503" { // foreign_key_violation
			return ErrMatchPlayerInvalid
		}
		return wrapStoreError("create match", err)
	}
	*match = *created
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, wrapStoreError(fmt.Sprintf("get match %s", id), err)
	}
	return m, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE TRUE`)

	args := []interface{}{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		queryBuilder.WriteString(" AND category = $" + strconv.Itoa(len(args)))
	}
	queryBuilder.WriteString(" ORDER BY scheduled_at ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, wrapStoreError("list matches", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapStoreError("iterate matches", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return wrapStoreError("delete match", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// conditionalUpdate runs an UPDATE … RETURNING and tells a missing row apart from a
// failed predicate.
func (r *postgresMatchRepository) conditionalUpdate(ctx context.Context, op string, id uuid.UUID, query string, args ...interface{}) (*models.Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx, query, args...))
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, wrapStoreError(op, err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, wrapStoreError(op, err)
	}
	if !exists {
		return nil, ErrMatchNotFound
	}
	return nil, ErrMatchConditionFailed
}

func (r *postgresMatchRepository) Start(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := `
		UPDATE matches
		SET status = 'LIVE',
		    current_set = GREATEST(current_set, 1),
		    ` + recordCommand(2) + `,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'UPCOMING'
		RETURNING ` + matchColumns
	return r.conditionalUpdate(ctx, "start match", id, query, id, commandArg(ctx))
}

// AdjustScore is a server-side increment; concurrent callers never overwrite each
// other's stale read. The predicate re-checks LIVE status and non-negativity.
func (r *postgresMatchRepository) AdjustScore(ctx context.Context, id uuid.UUID, side models.Side, delta int) (*models.Match, error) {
	col, err := sideColumn(side)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		UPDATE matches
		SET set1_%[1]s = set1_%[1]s + CASE WHEN current_set = 1 THEN $2::int ELSE 0 END,
		    set2_%[1]s = set2_%[1]s + CASE WHEN current_set = 2 THEN $2::int ELSE 0 END,
		    set3_%[1]s = set3_%[1]s + CASE WHEN current_set = 3 THEN $2::int ELSE 0 END,
		    %[3]s,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1
		  AND status = 'LIVE'
		  AND sets_won_a + sets_won_b < %[4]d
		  AND (CASE current_set WHEN 1 THEN set1_%[1]s WHEN 2 THEN set2_%[1]s ELSE set3_%[1]s END) + $2::int >= 0
		RETURNING %[2]s`, col, matchColumns, recordCommand(3), models.MaxSets)
	return r.conditionalUpdate(ctx, "adjust score", id, query, id, delta, commandArg(ctx))
}

func (r *postgresMatchRepository) EndSet(ctx context.Context, id uuid.UUID, side models.Side, autoComplete bool) (*models.Match, error) {
	col, err := sideColumn(side)
	if err != nil {
		return nil, err
	}
	// В строгом режиме матч завершается тем же оператором, когда сторона берёт второй сет.
	decided := fmt.Sprintf(`($2::boolean AND sets_won_%s + 1 >= %d)`, col, models.MaxSets/2+1)
	query := fmt.Sprintf(`
		UPDATE matches
		SET sets_won_%[1]s = sets_won_%[1]s + 1,
		    current_set = CASE WHEN %[2]s THEN current_set ELSE LEAST(current_set + 1, %[3]d) END,
		    status = CASE WHEN %[2]s THEN 'COMPLETED' ELSE status END,
		    winner_side = CASE WHEN %[2]s THEN $3 ELSE winner_side END,
		    %[5]s,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1
		  AND status = 'LIVE'
		  AND sets_won_a + sets_won_b < %[3]d
		RETURNING %[4]s`, col, decided, models.MaxSets, matchColumns, recordCommand(4))
	return r.conditionalUpdate(ctx, "end set", id, query, id, autoComplete, string(side), commandArg(ctx))
}

func (r *postgresMatchRepository) Complete(ctx context.Context, id uuid.UUID, winner models.Side) (*models.Match, error) {
	if _, err := sideColumn(winner); err != nil {
		return nil, err
	}
	query := `
		UPDATE matches
		SET status = 'COMPLETED',
		    winner_side = $2,
		    ` + recordCommand(3) + `,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND status <> 'COMPLETED'
		RETURNING ` + matchColumns
	return r.conditionalUpdate(ctx, "complete match", id, query, id, string(winner), commandArg(ctx))
}

func (r *postgresMatchRepository) HasCompletedForPlayer(ctx context.Context, playerID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM matches
			WHERE status = 'COMPLETED'
			  AND $1 IN (player_a_id, player_a2_id, player_b_id, player_b2_id)
		)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, playerID).Scan(&exists); err != nil {
		return false, wrapStoreError("check completed matches", err)
	}
	return exists, nil
}
