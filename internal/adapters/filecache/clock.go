package filecache

// refreshDoc is the on-disk shape of the refresh timestamp file.
type refreshDoc struct {
	LastRefresh float64 `json:"last_refresh"`
}

// Clock persists the last successful refresh time. It backs the
// cooldown policy that throttles on-demand refreshes.
type Clock struct {
	path string
}

// NewClock returns a clock stored at path. The file is not required to
// exist before the first Set.
func NewClock(path string) *Clock {
	return &Clock{path: path}
}

// Last returns the stored epoch seconds of the last refresh. The second
// return is false when the file is missing or unreadable.
func (c *Clock) Last() (float64, bool) {
	var doc refreshDoc
	if err := Read(c.path, &doc); err != nil {
		return 0, false
	}
	return doc.LastRefresh, true
}

// Set stores ts as the last refresh time via atomic replace.
func (c *Clock) Set(ts float64) error {
	return Write(c.path, refreshDoc{LastRefresh: ts})
}
