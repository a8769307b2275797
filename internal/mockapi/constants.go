package mockapi

// Default identifiers used when the caller does not override them. They
// match the production game so a client pointed at the mock needs no
// configuration changes.
const (
	defaultGameID         = "o1y3y346"
	defaultNoteVarID      = "68kwme38"
	defaultCharacterVarID = "38dgox08"
)

// Catalog fixtures served for the default game.
var (
	defaultCategories = []catalogEntry{
		{ID: "wkpjpzjk", Name: "Normal"},
		{ID: "7dg69w4k", Name: "Hard"},
		{ID: "n2y1y72o", Name: "Expert"},
	}

	defaultLevels = []catalogEntry{
		{ID: "ldyy9y9d", Name: "Westopolis"},
		{ID: "gdr99r9d", Name: "Digital Circuit"},
		{ID: "nwlzyzjd", Name: "Glyphic Canyon"},
		{ID: "ywe1k1jw", Name: "Lethal Highway"},
		{ID: "69z25vjd", Name: "Cryptic Castle"},
	}

	noteValues      = []string{"qvvz0dwq", "le2v08zl"}
	characterValues = []string{"lr36ddwl", "1dkonngl", "10v9yypl"}
)
