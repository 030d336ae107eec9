// Package config loads the sizing constants of the socket core from an
// optional ini file, the same way the teacher loads EDS/network
// parameters with gopkg.in/ini.v1 in pkg/od/parser.go.
package config

import "gopkg.in/ini.v1"

// Sizing holds the driver's compile-time-ish constants (spec §6.4): B is
// the per-socket ring buffer capacity, N the socket table size, KMax the
// largest allowed listener backlog, and UnixPathMax the longest bind path.
type Sizing struct {
	BufferSize  int
	TableSize   int
	KMax        int
	UnixPathMax int
}

// Default mirrors the historical /dev/uds defaults: a modest per-socket
// buffer, a small table, and a conservative backlog ceiling.
func Default() Sizing {
	return Sizing{
		BufferSize:  4096,
		TableSize:   64,
		KMax:        16,
		UnixPathMax: 108,
	}
}

// Load reads sizing overrides from an ini file under a [uxsockd] section,
// falling back to Default() for any key that is absent. An empty path is
// not an error. It simply yields the defaults. A non-empty path that
// cannot be loaded returns the ini error alongside the defaults.
func Load(path string) (Sizing, error) {
	sizing := Default()
	if path == "" {
		return sizing, nil
	}
	file, err := ini.Load(path)
	if err != nil {
		return sizing, err
	}
	section := file.Section("uxsockd")
	sizing.BufferSize = section.Key("buffer_size").MustInt(sizing.BufferSize)
	sizing.TableSize = section.Key("table_size").MustInt(sizing.TableSize)
	sizing.KMax = section.Key("backlog_max").MustInt(sizing.KMax)
	sizing.UnixPathMax = section.Key("unix_path_max").MustInt(sizing.UnixPathMax)
	return sizing, nil
}
