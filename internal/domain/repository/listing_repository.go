package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"mjmgmt/internal/common"
	"mjmgmt/internal/domain/model"
)

type ListingRepository interface {
	// Create inserts the listing and appends its id to the owner's
	// listing references in a single transaction.
	Create(ctx context.Context, listing *model.Listing) error
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	FindByUser(ctx context.Context, userID string) ([]model.Listing, error)
	Update(ctx context.Context, listing *model.Listing) error
	Delete(ctx context.Context, id string) error
}

type pgListingRepository struct {
	db *sql.DB
}

func NewPgListingRepository(db *sql.DB) ListingRepository {
	return &pgListingRepository{db: db}
}

func (r *pgListingRepository) Create(ctx context.Context, l *model.Listing) error {
	images, err := json.Marshal(l.Images)
	if err != nil {
		return fmt.Errorf("pgListingRepository.Create: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgListingRepository.Create: failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	insert := `INSERT INTO listings (id, title, description, rent, rooms, location, status, images, user_id)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err = tx.ExecContext(ctx, insert,
		l.ID, l.Title, l.Description, l.Rent, l.Rooms, l.Location, l.Status, images, l.UserID,
	); err != nil {
		return fmt.Errorf("pgListingRepository.Create: %w", err)
	}

	appendRef := `UPDATE users SET listing_ids = listing_ids || to_jsonb($1::text),
	                               updated_at = CURRENT_TIMESTAMP
	              WHERE id = $2`
	res, err := tx.ExecContext(ctx, appendRef, l.ID, l.UserID)
	if err != nil {
		return fmt.Errorf("pgListingRepository.Create: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("owner not found: %w", common.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgListingRepository.Create: failed to commit: %w", err)
	}
	return nil
}

func (r *pgListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	query := `SELECT id, title, description, rent, rooms, location, status, images, user_id, created_at, updated_at
	          FROM listings WHERE id = $1`
	l := &model.Listing{}
	var images []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.Title, &l.Description, &l.Rent, &l.Rooms, &l.Location, &l.Status, &images, &l.UserID, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgListingRepository.FindByID: %w", err)
	}
	if err := json.Unmarshal(images, &l.Images); err != nil {
		return nil, fmt.Errorf("pgListingRepository.FindByID: %w", err)
	}
	return l, nil
}

func (r *pgListingRepository) FindByUser(ctx context.Context, userID string) ([]model.Listing, error) {
	query := `SELECT id, title, description, rent, rooms, location, status, images, user_id, created_at, updated_at
	          FROM listings WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgListingRepository.FindByUser: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var l model.Listing
		var images []byte
		if err := rows.Scan(
			&l.ID, &l.Title, &l.Description, &l.Rent, &l.Rooms, &l.Location, &l.Status, &images, &l.UserID, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgListingRepository.FindByUser: %w", err)
		}
		if err := json.Unmarshal(images, &l.Images); err != nil {
			return nil, fmt.Errorf("pgListingRepository.FindByUser: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgListingRepository.FindByUser: %w", err)
	}
	return listings, nil
}

func (r *pgListingRepository) Update(ctx context.Context, l *model.Listing) error {
	images, err := json.Marshal(l.Images)
	if err != nil {
		return fmt.Errorf("pgListingRepository.Update: %w", err)
	}
	query := `UPDATE listings SET
	            title = $1, description = $2, rent = $3, rooms = $4, location = $5,
	            status = $6, images = $7, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $8`
	res, err := r.db.ExecContext(ctx, query,
		l.Title, l.Description, l.Rent, l.Rooms, l.Location, l.Status, images, l.ID,
	)
	if err != nil {
		return fmt.Errorf("pgListingRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes the listing record only. The owner's listing_ids entry is
// left in place; reads derive listings from listings.user_id, so the stale
// reference is inert.
func (r *pgListingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgListingRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
