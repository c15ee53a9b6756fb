package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/iliyamo/parking-spot-reservation/internal/model"
)

// SpotCatalogRepo reads the spot catalog owned by the catalog service.  The
// engine uses it to validate explicit spots and to enumerate candidates for
// any-spot bookings.  It never writes: catalog CRUD lives elsewhere.
type SpotCatalogRepo struct {
    db *sql.DB
}

// NewSpotCatalogRepo returns a SpotCatalogRepo bound to the given database.
func NewSpotCatalogRepo(db *sql.DB) *SpotCatalogRepo { return &SpotCatalogRepo{db: db} }

// ActiveSpots returns the ids of all in-service spots in a lot, ascending.
// The ordering is part of the contract: any-spot bookings walk candidates
// in this order so every replica resolves a request identically.
func (r *SpotCatalogRepo) ActiveSpots(ctx context.Context, lotID uint64) ([]uint64, error) {
    const q = `
        SELECT id
          FROM spots
         WHERE lot_id = ? AND is_active = 1
         ORDER BY id ASC`

    rows, err := r.db.QueryContext(ctx, q, lotID)
    if err != nil {
        return nil, fmt.Errorf("%w: query active spots: %v", model.ErrStorageUnavailable, err)
    }
    defer rows.Close()

    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, fmt.Errorf("%w: scan spot id: %v", model.ErrStorageUnavailable, err)
        }
        ids = append(ids, id)
    }
    if err := rows.Err(); err != nil {
        return nil, fmt.Errorf("%w: iterate spots: %v", model.ErrStorageUnavailable, err)
    }
    return ids, nil
}

// SpotActive reports whether the spot exists in the lot and is in service.
// An unknown spot is (false, nil), not an error.
func (r *SpotCatalogRepo) SpotActive(ctx context.Context, lotID, spotID uint64) (bool, error) {
    const q = `SELECT is_active FROM spots WHERE lot_id = ? AND id = ?`

    var active bool
    err := r.db.QueryRowContext(ctx, q, lotID, spotID).Scan(&active)
    if errors.Is(err, sql.ErrNoRows) {
        return false, nil
    }
    if err != nil {
        return false, fmt.Errorf("%w: query spot: %v", model.ErrStorageUnavailable, err)
    }
    return active, nil
}
