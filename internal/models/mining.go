package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Card is an owned upgrade card stored in the "cards" collection.
// Puissance and Bonus are hourly NXO rate contributions while the card is
// active; Energie is a capacity stat used by the shop, not by mining.
// Wire names follow the original game client.
type Card struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"userId"`
	Name      string             `bson:"name" json:"name"`
	Puissance float64            `bson:"puissance" json:"puissance"`
	Bonus     float64            `bson:"bonus" json:"bonus"`
	Active    bool               `bson:"active" json:"active"`
	Energie   float64            `bson:"energie" json:"energie"`
}

// MiningRecord is the per-user singleton in the "mining_records"
// collection. NXO is the accrued-not-yet-collected amount; it only moves
// up during a session and resets to zero on collect. Timestamps are epoch
// milliseconds because that is what the browser client compares against
// Date.now(). A record is active iff NextMining > 0 and now < NextMining.
type MiningRecord struct {
	UserID     string  `bson:"user_id" json:"userId"`
	NXO        float64 `bson:"nxo" json:"NXO"`
	LastMining int64   `bson:"last_mining" json:"last-mining"`
	NextMining int64   `bson:"next_mining" json:"next-mining"`
	Puissance  float64 `bson:"puissance_mining" json:"puissance-mining"`
	Bonus      float64 `bson:"bonus" json:"bonus"`
	Carte      string  `bson:"carte,omitempty" json:"carte,omitempty"`
}

// ActiveAt reports whether a session is running at the given epoch-ms time.
func (r *MiningRecord) ActiveAt(nowMS int64) bool {
	return r.NextMining > 0 && nowMS < r.NextMining
}

// MiningStart is an Active Session Index entry in the "mining_start"
// collection: one entry per running session, keyed by user. TotalS is the
// hourly rate snapshot fixed at session start; Total is the closed-form
// session entitlement the sweep reconciles against at the deadline.
type MiningStart struct {
	UserID string  `bson:"user_id" json:"userId"`
	Total  float64 `bson:"total" json:"total"`
	TotalS float64 `bson:"total_s" json:"totalS"`
	Next   int64   `bson:"next" json:"next"`
}

// MiningData is the read projection returned by /mining-data and pushed
// over the websocket feed. RemainingMS is derived server-side and only set
// while a session is running.
type MiningData struct {
	MiningRecord `bson:",inline"`
	RemainingMS  *int64 `bson:"-" json:"remaining-ms,omitempty"`
}
