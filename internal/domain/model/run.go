// Package model contains domain models passed between pipeline stages.
package model

import "encoding/json"

// Run represents a raw speedrun record as returned by the remote
// leaderboard API. Fields mirror the upstream JSON; unknown fields are
// dropped during decoding and required-field validation is deferred to
// the normalization stage.
type Run struct {
	ID        string            `json:"id"`
	Weblink   string            `json:"weblink"`
	Status    Status            `json:"status"`
	Category  string            `json:"category"`
	Level     *string           `json:"level"`
	Players   []Player          `json:"players"`
	Date      string            `json:"date"`
	Submitted string            `json:"submitted"`
	Times     *Times            `json:"times"`
	Values    map[string]string `json:"values"`

	// raw preserves the record exactly as received so cache write-back
	// does not lose fields this process does not model.
	raw json.RawMessage
}

// Status is the verification state attached to a run.
type Status struct {
	Status string `json:"status"`
}

// Player identifies one participant of a run. The first participant is
// the attributed player.
type Player struct {
	Rel  string `json:"rel"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Times carries the run durations. PrimaryT is the primary duration in
// seconds and may have sub-second precision.
type Times struct {
	PrimaryT float64 `json:"primary_t"`
}

// UnmarshalJSON decodes a run while retaining the original payload.
func (r *Run) UnmarshalJSON(data []byte) error {
	type alias Run
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = Run(a)
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the original payload back when one was retained, so
// a fetched record round-trips through the cache byte-for-byte in
// content. Runs constructed in code marshal their modeled fields.
func (r Run) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	type alias Run
	return json.Marshal(alias(r))
}

// PlayerID returns the attributed player's id, or nil when the run has
// no participants.
func (r Run) PlayerID() *string {
	if len(r.Players) == 0 {
		return nil
	}
	if r.Players[0].ID == "" {
		return nil
	}
	id := r.Players[0].ID
	return &id
}

// CatalogEntry is one row of a category or level catalog.
type CatalogEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
