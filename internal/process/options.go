package process

import "github.com/okian/runboard/pkg/logger"

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithCatalogCaches sets the cache files backing the category and level
// catalogs.
func WithCatalogCaches(categoryCache, levelCache string) Option {
	return func(p *Processor) {
		p.categoryCache = categoryCache
		p.levelCache = levelCache
	}
}

// WithPlayerCache sets the file persisting resolved player names.
func WithPlayerCache(path string) Option {
	return func(p *Processor) {
		p.playerCache = path
	}
}

// WithNoteNames sets the display names for note attribute values.
func WithNoteNames(names map[string]string) Option {
	return func(p *Processor) {
		if names != nil {
			p.noteNames = names
		}
	}
}

// WithCharacterNames sets the display names for character attribute
// values.
func WithCharacterNames(names map[string]string) Option {
	return func(p *Processor) {
		if names != nil {
			p.characterNames = names
		}
	}
}

// WithLogger sets a custom logger for the processor.
func WithLogger(log logger.Logger) Option {
	return func(p *Processor) {
		if log != nil {
			p.log = log
		}
	}
}
