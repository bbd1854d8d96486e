package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/location"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const locationColumns = `
	l.id, l.name, l.address, l.latitude, l.longitude, l.radius_meters,
	l.working_hours, l.active, l.created_by, l.created_at, l.updated_at`

type locationRepository struct {
	db *database.DB
}

func NewLocationRepository(db *database.DB) location.LocationRepository {
	return &locationRepository{db: db}
}

func scanLocation(row pgx.Row) (location.Location, error) {
	var loc location.Location
	var workingHours []byte
	err := row.Scan(
		&loc.ID, &loc.Name, &loc.Address, &loc.Latitude, &loc.Longitude, &loc.RadiusMeters,
		&workingHours, &loc.Active, &loc.CreatedBy, &loc.CreatedAt, &loc.UpdatedAt,
	)
	if err != nil {
		return location.Location{}, err
	}
	if len(workingHours) > 0 {
		if err := json.Unmarshal(workingHours, &loc.WorkingHours); err != nil {
			return location.Location{}, fmt.Errorf("failed to decode working hours: %w", err)
		}
	}
	return loc, nil
}

// Create implements location.LocationRepository.
func (r *locationRepository) Create(ctx context.Context, loc location.Location) (location.Location, error) {
	q := GetQuerier(ctx, r.db)

	workingHours, err := json.Marshal(loc.WorkingHours)
	if err != nil {
		return location.Location{}, fmt.Errorf("failed to encode working hours: %w", err)
	}

	query := `
		INSERT INTO locations (
			name, address, latitude, longitude, radius_meters, working_hours, active, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING id, created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		loc.Name,
		loc.Address,
		loc.Latitude,
		loc.Longitude,
		loc.RadiusMeters,
		workingHours,
		loc.Active,
		loc.CreatedBy,
	).Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)

	if err != nil {
		return location.Location{}, fmt.Errorf("failed to create location: %w", database.ClassifyError(err))
	}

	return loc, nil
}

// GetByID implements location.LocationRepository.
func (r *locationRepository) GetByID(ctx context.Context, id string) (location.Location, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + locationColumns + ` FROM locations l WHERE l.id = $1`

	loc, err := scanLocation(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location.Location{}, location.ErrLocationNotFound
		}
		return location.Location{}, fmt.Errorf("failed to get location: %w", database.ClassifyError(err))
	}

	return loc, nil
}

// Update implements location.LocationRepository.
func (r *locationRepository) Update(ctx context.Context, loc location.Location) error {
	q := GetQuerier(ctx, r.db)

	workingHours, err := json.Marshal(loc.WorkingHours)
	if err != nil {
		return fmt.Errorf("failed to encode working hours: %w", err)
	}

	query := `
		UPDATE locations
		SET name = $2, address = $3, latitude = $4, longitude = $5,
			radius_meters = $6, working_hours = $7, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		loc.ID, loc.Name, loc.Address, loc.Latitude, loc.Longitude, loc.RadiusMeters, workingHours,
	)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", database.ClassifyError(err))
	}
	if tag.RowsAffected() == 0 {
		return location.ErrLocationNotFound
	}

	return nil
}

// SetActive implements location.LocationRepository.
func (r *locationRepository) SetActive(ctx context.Context, id string, active bool) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE locations SET active = $2, updated_at = NOW() WHERE id = $1`

	tag, err := q.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to set location active flag: %w", database.ClassifyError(err))
	}
	if tag.RowsAffected() == 0 {
		return location.ErrLocationNotFound
	}

	return nil
}

// List implements location.LocationRepository.
func (r *locationRepository) List(ctx context.Context) ([]location.Location, error) {
	return r.list(ctx, `SELECT `+locationColumns+` FROM locations l ORDER BY l.name ASC`)
}

// ListActive implements location.LocationRepository.
func (r *locationRepository) ListActive(ctx context.Context) ([]location.Location, error) {
	return r.list(ctx, `SELECT `+locationColumns+` FROM locations l WHERE l.active ORDER BY l.id ASC`)
}

func (r *locationRepository) list(ctx context.Context, query string) ([]location.Location, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var result []location.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		result = append(result, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", database.ClassifyError(err))
	}

	return result, nil
}
