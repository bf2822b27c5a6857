// Package config loads graphctl's configuration from an optional TOML
// file and environment variable overrides, per SPEC_FULL.md §6
// "Environment variables".
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds graphctl's runtime configuration. Fields correspond 1:1
// to the environment variables named in SPEC_FULL.md §6.
type Config struct {
	// Backend selects the storage backend name. GRAPH_BACKEND
	// overrides this when set; unknown values fall back to "sqlite".
	Backend string `toml:"backend"`
	// DBPath is the database path, or "memory" for an in-memory store.
	// GRAPH_DB_PATH overrides this when set.
	DBPath string `toml:"db_path"`
	// BenchFile is consumed only by the out-of-scope bench harness;
	// parsed here so a future bench binary in this module's lineage
	// can read it. SQLITEGRAPH_BENCH_FILE overrides this when set.
	BenchFile string `toml:"bench_file"`
	// FuzzIters sets fuzz iteration count for property tests.
	// SQLITEGRAPH_FUZZ_ITERS overrides this when set.
	FuzzIters int `toml:"fuzz_iters"`
}

// Default returns the built-in defaults before any file or
// environment override is applied.
func Default() Config {
	return Config{
		Backend:   "sqlite",
		DBPath:    "memory",
		FuzzIters: 100,
	}
}

// Load reads path (if non-empty and present) as TOML into a Config
// seeded with Default, then applies environment variable overrides. A
// missing path is not an error — it simply means defaults plus
// environment apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, err
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GRAPH_BACKEND"); v != "" {
		cfg.Backend = normalizeBackend(v)
	}
	if v := os.Getenv("GRAPH_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SQLITEGRAPH_BENCH_FILE"); v != "" {
		cfg.BenchFile = v
	}
	if v := os.Getenv("SQLITEGRAPH_FUZZ_ITERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FuzzIters = n
		}
	}
}

// normalizeBackend maps any unrecognized backend name to "sqlite", per
// SPEC_FULL.md §6: "unknown values default to the SQL backend."
func normalizeBackend(name string) string {
	switch name {
	case "sqlite", "memstore":
		return name
	default:
		return "sqlite"
	}
}
