package model

// SpotRef identifies a physical parking spot by its lot and spot ids.
// The catalog service owns spot metadata (location, labels, active flag);
// this service only ever carries the reference.  SpotRef is comparable and
// is used as a map key throughout the ledger.
//
// Fields:
//  LotID  – lot the spot belongs to.
//  SpotID – spot within the lot.
type SpotRef struct {
    LotID  uint64 `json:"lot_id"`  // lots.id in the catalog service
    SpotID uint64 `json:"spot_id"` // spots.id in the catalog service
}
