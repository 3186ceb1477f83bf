package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound            = errors.New("player not found")
	ErrPlayerEmployeeNumberTaken = errors.New("player with this employee number is already registered")
	ErrPlayerReferenced          = errors.New("player is referenced by matches or winners")
)

type PlayerRepository interface {
	Create(ctx context.Context, p *models.Player) error
	// CreateBatch inserts all players in one transaction: either every row lands or none.
	CreateBatch(ctx context.Context, players []*models.Player) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Player, error)
	List(ctx context.Context, status *models.PlayerStatus) ([]*models.Player, error)
	Update(ctx context.Context, p *models.Player) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.PlayerStatus) (*models.Player, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

const playerColumns = `id, name, employee_number, location, designation, age, gender, category,
		team, photo_url, phone, email, status, registered_at, updated_at`

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	var (
		p          models.Player
		categories pq.StringArray
		team       sql.NullString
		photoURL   sql.NullString
		email      sql.NullString
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.EmployeeNumber,
		&p.Location,
		&p.Designation,
		&p.Age,
		&p.Gender,
		&categories,
		&team,
		&photoURL,
		&p.Phone,
		&email,
		&p.Status,
		&p.RegisteredAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Categories = make([]models.Category, len(categories))
	for i, c := range categories {
		p.Categories[i] = models.Category(c)
	}
	if team.Valid {
		p.Team = &team.String
	}
	if photoURL.Valid {
		p.PhotoURL = &photoURL.String
	}
	if email.Valid {
		p.Email = &email.String
	}
	return &p, nil
}

func categoryArray(categories []models.Category) pq.StringArray {
	arr := make(pq.StringArray, len(categories))
	for i, c := range categories {
		arr[i] = string(c)
	}
	return arr
}

func mapPlayerWriteError(op string, err error) error {
	if code, constraint, ok := pqErrorCode(err); ok {
		switch code {
		case "23505": // unique_violation
			if constraint == "players_employee_number_key" {
				return ErrPlayerEmployeeNumberTaken
			}
		case "23503": // foreign_key_violation
			return ErrPlayerReferenced
		}
	}
	return wrapStoreError(op, err)
}

func insertPlayer(ctx context.Context, db SQLExecutor, p *models.Player) error {
	query := `
		INSERT INTO players
			(name, employee_number, location, designation, age, gender, category, team, photo_url, phone, email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + playerColumns

	created, err := scanPlayer(db.QueryRowContext(ctx, query,
		p.Name,
		p.EmployeeNumber,
		p.Location,
		p.Designation,
		p.Age,
		p.Gender,
		categoryArray(p.Categories),
		p.Team,
		p.PhotoURL,
		p.Phone,
		p.Email,
		p.Status,
	))
	if err != nil {
		return mapPlayerWriteError("create player", err)
	}
	*p = *created
	return nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	return insertPlayer(ctx, r.db, p)
}

func (r *postgresPlayerRepository) CreateBatch(ctx context.Context, players []*models.Player) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreError("begin player batch", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, p := range players {
		if err = insertPlayer(ctx, tx, p); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return wrapStoreError("commit player batch", err)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	p, err := scanPlayer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, wrapStoreError("get player", err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Player, error) {
	result := make(map[uuid.UUID]*models.Player, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = ANY($1::uuid[])`

	strIDs := make(pq.StringArray, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	rows, err := r.db.QueryContext(ctx, query, strIDs)
	if err != nil {
		return nil, wrapStoreError("get players by ids", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, scanErr := scanPlayer(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", scanErr)
		}
		result[p.ID] = p
	}
	if err = rows.Err(); err != nil {
		return nil, wrapStoreError("iterate players", err)
	}
	return result, nil
}

func (r *postgresPlayerRepository) List(ctx context.Context, status *models.PlayerStatus) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY registered_at DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreError("list players", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p, scanErr := scanPlayer(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", scanErr)
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapStoreError("iterate players", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) Update(ctx context.Context, p *models.Player) error {
	query := `
		UPDATE players
		SET name = $2, employee_number = $3, location = $4, designation = $5, age = $6,
		    gender = $7, category = $8, team = $9, phone = $10, email = $11,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + playerColumns

	updated, err := scanPlayer(r.db.QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		p.EmployeeNumber,
		p.Location,
		p.Designation,
		p.Age,
		p.Gender,
		categoryArray(p.Categories),
		p.Team,
		p.Phone,
		p.Email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlayerNotFound
		}
		return mapPlayerWriteError("update player", err)
	}
	*p = *updated
	return nil
}

func (r *postgresPlayerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PlayerStatus) (*models.Player, error) {
	query := `
		UPDATE players SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + playerColumns
	p, err := scanPlayer(r.db.QueryRowContext(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, wrapStoreError("update player status", err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return mapPlayerWriteError("delete player", err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
