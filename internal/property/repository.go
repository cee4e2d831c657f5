package property

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/evcraddock/estate-bot/internal/fields"
)

var (
	// ErrNotFound is returned when a property does not exist or belongs to
	// another owner.
	ErrNotFound = errors.New("property not found")

	// ErrRequiredField is returned when an update tries to clear a required field.
	ErrRequiredField = errors.New("required field cannot be cleared")
)

// Repository provides owner-scoped CRUD operations for properties.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO properties
	(owner_id, title, property_type, city, neighborhood, address, area, price,
	 bedrooms, floor, year_built, parking, elevator, storage, description)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, owner_id, title, property_type, city, neighborhood, address, area, price,
	bedrooms, floor, year_built, parking, elevator, storage, description, created_at, updated_at`

// Create validates and stores a new property, returning it with its ID.
func (r *Repository) Create(ctx context.Context, p *Property) (*Property, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx, insertSQL,
		p.OwnerID, p.Title, string(p.Type), p.City, p.Neighborhood, p.Address,
		p.Area, p.Price, p.Bedrooms, p.Floor, p.YearBuilt,
		p.Parking, p.Elevator, p.Storage, p.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.Get(ctx, id, p.OwnerID)
}

// Get returns a property by ID if it belongs to owner.
func (r *Repository) Get(ctx context.Context, id, owner int64) (*Property, error) {
	query := fmt.Sprintf("SELECT %s FROM properties WHERE id = ? AND owner_id = ?", selectColumns)
	row := r.db.QueryRowContext(ctx, query, id, owner)

	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %d: %w", id, err)
	}

	return p, nil
}

// ListByOwner returns all properties of owner in creation order.
func (r *Repository) ListByOwner(ctx context.Context, owner int64) (props []*Property, err error) {
	query := fmt.Sprintf("SELECT %s FROM properties WHERE owner_id = ? ORDER BY id", selectColumns)

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		props = append(props, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}

	return props, nil
}

// Update applies a change-set to an owned property. Set fields are written,
// cleared fields become NULL, untouched fields keep their stored value.
func (r *Repository) Update(ctx context.Context, id, owner int64, changes fields.Partial) (*Property, error) {
	if changes.IsEmpty() {
		return nil, fmt.Errorf("no changes for property %d", id)
	}

	current, err := r.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if _, err := current.Apply(changes); err != nil {
		return nil, err
	}

	var sets []string
	var args []interface{}
	for _, n := range changes.Names() {
		sets = append(sets, string(n)+" = ?")
		if changes.IsCleared(n) {
			args = append(args, nil)
			continue
		}
		v, _ := changes.Value(n)
		args = append(args, v)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id, owner)

	query := "UPDATE properties SET " + strings.Join(sets, ", ") + " WHERE id = ? AND owner_id = ?"
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating property: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
	}

	return r.Get(ctx, id, owner)
}

// Delete removes an owned property.
func (r *Repository) Delete(ctx context.Context, id, owner int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM properties WHERE id = ? AND owner_id = ?", id, owner)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property %d: %w", id, ErrNotFound)
	}

	return nil
}

// Stats summarizes an owner's listings.
type Stats struct {
	Count        int            `json:"count"`
	AveragePrice float64        `json:"average_price"`
	ByCity       map[string]int `json:"by_city"`
}

// Stats returns listing counts and the average asking price for owner.
func (r *Repository) Stats(ctx context.Context, owner int64) (stats *Stats, err error) {
	stats = &Stats{ByCity: make(map[string]int)}

	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), AVG(price) FROM properties WHERE owner_id = ?", owner,
	).Scan(&stats.Count, &avg); err != nil {
		return nil, fmt.Errorf("counting properties: %w", err)
	}
	stats.AveragePrice = avg.Float64

	rows, err := r.db.QueryContext(ctx,
		"SELECT city, COUNT(*) FROM properties WHERE owner_id = ? GROUP BY city", owner,
	)
	if err != nil {
		return nil, fmt.Errorf("grouping properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var city string
		var n int
		if err := rows.Scan(&city, &n); err != nil {
			return nil, fmt.Errorf("scanning city count: %w", err)
		}
		stats.ByCity[city] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating city counts: %w", err)
	}

	return stats, nil
}
