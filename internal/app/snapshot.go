package app

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/okian/runboard/internal/domain/model"
)

// snapshotHeader is the stable column order of the processed CSV.
var snapshotHeader = []string{
	"id", "weblink",
	"category", "category_name",
	"level", "level_name",
	"player_id", "player_name",
	"primary_t",
	"note", "note_name",
	"character", "character_name",
	"date", "submitted",
	"obsolete", "place",
}

// writeSnapshot persists rows as CSV via temp-file-then-rename, the
// same replace discipline the cache files use.
func writeSnapshot(path string, rows []model.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(snapshotHeader); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(snapshotRecord(row)); err != nil {
			f.Close()
			return fmt.Errorf("write snapshot row %s: %w", row.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// readSnapshot loads a previously written CSV back into rows.
func readSnapshot(path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("snapshot %s has no header", path)
	}

	rows := make([]model.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(snapshotHeader) {
			return nil, fmt.Errorf("snapshot %s has a short record", path)
		}
		row, err := parseSnapshotRecord(record)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func snapshotRecord(row model.Row) []string {
	level, player := "", ""
	if row.LevelID != nil {
		level = *row.LevelID
	}
	if row.PlayerID != nil {
		player = *row.PlayerID
	}
	place := ""
	if row.Place != nil {
		place = strconv.Itoa(*row.Place)
	}

	return []string{
		row.ID, row.Weblink,
		row.CategoryID, row.CategoryName,
		level, row.LevelName,
		player, row.PlayerName,
		strconv.FormatFloat(row.Seconds, 'f', -1, 64),
		row.NoteID, row.NoteName,
		row.CharacterID, row.CharacterName,
		row.Date, row.Submitted,
		strconv.FormatBool(row.Obsolete),
		place,
	}
}

func parseSnapshotRecord(record []string) (model.Row, error) {
	seconds, err := strconv.ParseFloat(record[8], 64)
	if err != nil {
		return model.Row{}, fmt.Errorf("bad duration %q: %w", record[8], err)
	}
	obsolete, err := strconv.ParseBool(record[15])
	if err != nil {
		return model.Row{}, fmt.Errorf("bad obsolete flag %q: %w", record[15], err)
	}

	row := model.Row{
		ID:            record[0],
		Weblink:       record[1],
		CategoryID:    record[2],
		CategoryName:  record[3],
		LevelName:     record[5],
		PlayerName:    record[7],
		Seconds:       seconds,
		NoteID:        record[9],
		NoteName:      record[10],
		CharacterID:   record[11],
		CharacterName: record[12],
		Date:          record[13],
		Submitted:     record[14],
		Obsolete:      obsolete,
	}
	if record[4] != "" {
		level := record[4]
		row.LevelID = &level
	}
	if record[6] != "" {
		player := record[6]
		row.PlayerID = &player
	}
	if record[16] != "" {
		place, err := strconv.Atoi(record[16])
		if err != nil {
			return model.Row{}, fmt.Errorf("bad place %q: %w", record[16], err)
		}
		row.Place = &place
	}
	return row, nil
}
