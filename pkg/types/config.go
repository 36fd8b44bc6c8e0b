// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every adapter that talks to
// a bibliographic source or a ranking catalog.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// Rate is the sustained request rate in requests per second, shared by
	// every host the client talks to.
	Rate float64 `json:"rate" yaml:"rate" mapstructure:"rate"`

	// Burst is the number of requests allowed back to back.
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`

	// MaxRetries bounds retries on HTTP 429 responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// CatalogConfig locates the ranking catalogs.
type CatalogConfig struct {
	// CoreURL is the CORE conference ranking search page.
	CoreURL string `json:"core_url" yaml:"core_url" mapstructure:"core_url"`

	// ScimagoURL is the Scimago Journal Rank site root.
	ScimagoURL string `json:"scimago_url" yaml:"scimago_url" mapstructure:"scimago_url"`

	// LookupTimeout bounds each catalog request of a lookup: the CORE query,
	// or each of the Scimago search and series requests. A timeout counts as
	// a failed lookup and is cached as unknown.
	LookupTimeout time.Duration `json:"lookup_timeout" yaml:"lookup_timeout" mapstructure:"lookup_timeout"`

	// Fixture, when set, replaces both live catalogs with a local YAML file.
	Fixture string `json:"fixture,omitempty" yaml:"fixture,omitempty" mapstructure:"fixture"`
}

// SourceConfig locates the bibliographic sources.
type SourceConfig struct {
	// DBLPURL is the DBLP site root.
	DBLPURL string `json:"dblp_url" yaml:"dblp_url" mapstructure:"dblp_url"`

	// HALURL is the HAL search API endpoint.
	HALURL string `json:"hal_url" yaml:"hal_url" mapstructure:"hal_url"`

	// HALRows is the maximum number of HAL documents fetched per author.
	HALRows int `json:"hal_rows" yaml:"hal_rows" mapstructure:"hal_rows"`
}

// CacheBackend selects the durable rank cache store.
type CacheBackend string

const (
	CacheJSON   CacheBackend = "json"
	CacheSQLite CacheBackend = "sqlite"
)

// CacheConfig holds rank cache persistence settings.
type CacheConfig struct {
	// Enabled turns on loading and saving the cache between runs.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Backend selects json (one file per catalog) or sqlite (one database).
	Backend CacheBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Dir is the directory holding the cache files.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// UnknownTTL is how long an "unknown" record is trusted before it is
	// queried again. Zero keeps unknown records forever.
	UnknownTTL time.Duration `json:"unknown_ttl" yaml:"unknown_ttl" mapstructure:"unknown_ttl"`
}

// NormalizeConfig selects the title normalization rules.
type NormalizeConfig struct {
	// Fold applies Unicode compatibility folding (NFKC).
	Fold bool `json:"fold" yaml:"fold" mapstructure:"fold"`

	// StripColon removes ':' characters.
	StripColon bool `json:"strip_colon" yaml:"strip_colon" mapstructure:"strip_colon"`

	// Ampersand is "remove" or "space": what "&amp;" becomes.
	Ampersand string `json:"ampersand" yaml:"ampersand" mapstructure:"ampersand"`
}

// OutputConfig controls what a rank run writes besides the JSON results.
type OutputConfig struct {
	// YAML also writes the results as <out>.yaml.
	YAML bool `json:"yaml" yaml:"yaml" mapstructure:"yaml"`

	// Table prints a result table on stdout.
	Table bool `json:"table" yaml:"table" mapstructure:"table"`

	// MetricsFile, when set, receives lookup counters in Prometheus text format.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// Config is the full configuration tree.
type Config struct {
	HTTP      HTTPConfig      `json:"http" yaml:"http" mapstructure:"http"`
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Source    SourceConfig    `json:"source" yaml:"source" mapstructure:"source"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" mapstructure:"cache"`
	Normalize NormalizeConfig `json:"normalize" yaml:"normalize" mapstructure:"normalize"`
	Output    OutputConfig    `json:"output" yaml:"output" mapstructure:"output"`

	// Patch is the path of the venue override table.
	Patch string `json:"patch" yaml:"patch" mapstructure:"patch"`
}

// DefaultConfig returns the configuration used when no file, environment
// variable, or flag overrides a value.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			UserAgent:  "pubrank/0.1",
			Rate:       1,
			Burst:      1,
			MaxRetries: 3,
		},
		Catalog: CatalogConfig{
			CoreURL:       "http://portal.core.edu.au/conf-ranks/",
			ScimagoURL:    "https://www.scimagojr.com/",
			LookupTimeout: 3 * time.Second,
		},
		Source: SourceConfig{
			DBLPURL: "https://dblp.org",
			HALURL:  "https://api.archives-ouvertes.fr/search/",
			HALRows: 500,
		},
		Cache: CacheConfig{
			Backend:    CacheJSON,
			Dir:        ".",
			UnknownTTL: 30 * 24 * time.Hour,
		},
		Normalize: NormalizeConfig{
			Fold:       true,
			StripColon: true,
			Ampersand:  "remove",
		},
		Patch: "patch.json",
	}
}
