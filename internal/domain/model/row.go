package model

import "fmt"

// Row is the fixed-shape normalized record handed to rendering code.
// Obsolete and Place are filled in by the ranking engine; Place is nil
// for obsolete rows.
type Row struct {
	ID            string   `json:"id"`
	Weblink       string   `json:"weblink"`
	CategoryID    string   `json:"category"`
	CategoryName  string   `json:"category_name"`
	LevelID       *string  `json:"level"`
	LevelName     string   `json:"level_name"`
	PlayerID      *string  `json:"player_id"`
	PlayerName    string   `json:"player_name"`
	Seconds       float64  `json:"primary_t"`
	NoteID        string   `json:"note"`
	NoteName      string   `json:"note_name"`
	CharacterID   string   `json:"character"`
	CharacterName string   `json:"character_name"`
	Date          string   `json:"date"`
	Submitted     string   `json:"submitted"`
	Obsolete      bool     `json:"obsolete"`
	Place         *int     `json:"place"`
}

// IsLevelRun reports whether the row belongs to an individual level
// rather than a full-game category.
func (r Row) IsLevelRun() bool {
	return r.LevelID != nil
}

// FormatSeconds renders a duration in seconds as H:MM:SS.xx, M:SS.xx or
// S.xx depending on magnitude, rounding to centiseconds.
func FormatSeconds(t float64) string {
	if t < 0 {
		return ""
	}
	totalCS := int64(t*100 + 0.5)
	totalSeconds := totalCS / 100
	frac := totalCS % 100

	s := totalSeconds % 60
	m := (totalSeconds / 60) % 60
	h := totalSeconds / 3600

	switch {
	case h > 0:
		return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, frac)
	case m > 0:
		return fmt.Sprintf("%d:%02d.%02d", m, s, frac)
	default:
		return fmt.Sprintf("%d.%02d", s, frac)
	}
}
