// Package ranking computes obsolescence flags and competition places for
// normalized runs. It is a pure computation over a fixed partition of
// rows and performs no I/O.
package ranking

import (
	"sort"
	"strings"

	"github.com/okian/runboard/internal/domain/model"
)

// keySep joins grouping fields into a single map key. Unit separator is
// not a legal character in any upstream identifier.
const keySep = "\x1f"

// GroupFunc derives the grouping key of a row. Rows with equal keys
// compete against each other; groups are processed independently.
type GroupFunc func(r model.Row) string

// LevelGroup groups individual-level runs by level, category and
// character.
func LevelGroup(r model.Row) string {
	level := ""
	if r.LevelID != nil {
		level = *r.LevelID
	}
	return strings.Join([]string{level, r.CategoryID, r.CharacterID}, keySep)
}

// FullGameGroup groups full-game runs by category and character.
func FullGameGroup(r model.Row) string {
	return strings.Join([]string{r.CategoryID, r.CharacterID}, keySep)
}

// Apply fills Obsolete and Place on every row in place.
//
// A row is obsolete when the same player holds a strictly faster run
// with the same note in the same group; exact duration ties at the
// player's best are all kept. Non-obsolete rows then receive competition
// places within the group: equal durations share a place and the next
// distinct duration's place equals the count of strictly faster rows
// plus one. Obsolete rows receive no place.
//
// Rows without an attributed player have no cohort identity: they are
// always obsolete and never placed.
func Apply(rows []model.Row, group GroupFunc) {
	markObsolete(rows, group)
	assignPlaces(rows, group)
}

// cohortKey extends the group key with player and note, the identity
// obsolescence is decided within. The row must carry a player id.
func cohortKey(r model.Row, group GroupFunc) string {
	return strings.Join([]string{group(r), *r.PlayerID, r.NoteID}, keySep)
}

func markObsolete(rows []model.Row, group GroupFunc) {
	best := make(map[string]float64)
	for i := range rows {
		if rows[i].PlayerID == nil {
			continue
		}
		k := cohortKey(rows[i], group)
		if b, ok := best[k]; !ok || rows[i].Seconds < b {
			best[k] = rows[i].Seconds
		}
	}
	for i := range rows {
		if rows[i].PlayerID == nil {
			rows[i].Obsolete = true
			rows[i].Place = nil
			continue
		}
		rows[i].Obsolete = rows[i].Seconds != best[cohortKey(rows[i], group)]
		rows[i].Place = nil
	}
}

func assignPlaces(rows []model.Row, group GroupFunc) {
	// Collect indexes of non-obsolete rows per group.
	groups := make(map[string][]int)
	for i := range rows {
		if rows[i].Obsolete {
			continue
		}
		k := group(rows[i])
		groups[k] = append(groups[k], i)
	}

	for _, idx := range groups {
		sort.SliceStable(idx, func(a, b int) bool {
			return rows[idx[a]].Seconds < rows[idx[b]].Seconds
		})
		for pos, i := range idx {
			place := pos + 1
			// Ties share the place of the first equal duration.
			if pos > 0 && rows[i].Seconds == rows[idx[pos-1]].Seconds {
				place = *rows[idx[pos-1]].Place
			}
			p := place
			rows[i].Place = &p
		}
	}
}
