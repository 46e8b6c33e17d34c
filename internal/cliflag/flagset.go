package cliflag

import (
	"flag"

	"github.com/peterbourgon/ff/v4"
)

// Config names and documents a single flag, independent of its value
// type, so every binary registers flags the same way the teacher's
// cmd/flag package does.
type Config struct {
	Name  string
	Usage string
}

// Set wraps ff.FlagSet with a Register helper that panics on a
// programmer error (duplicate flag name) instead of forcing every call
// site to check it.
type Set struct {
	*ff.FlagSet
}

func (fs *Set) Register(c Config, v flag.Value) {
	if _, err := fs.AddFlag(ff.FlagConfig{
		LongName: c.Name,
		Usage:    c.Usage,
		Value:    v,
	}); err != nil {
		panic(err)
	}
}
