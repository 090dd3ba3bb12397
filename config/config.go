// Package config provides configuration loading and management for
// semcrawl.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete semcrawl configuration
type Config struct {
	SPARQL       SPARQLConfig   `yaml:"sparql"`
	Graphs       GraphsConfig   `yaml:"graphs"`
	NATS         NATSConfig     `yaml:"nats"`
	Queues       QueuesConfig   `yaml:"queues"`
	Cache        CacheConfig    `yaml:"cache"`
	Search       ServiceConfig  `yaml:"search"`
	Registration ServiceConfig  `yaml:"registration"`
	Indexing     IndexingConfig `yaml:"indexing"`
	HTTP         HTTPConfig     `yaml:"http"`
}

// SPARQLConfig configures the triple store query endpoint
type SPARQLConfig struct {
	Endpoint string `yaml:"endpoint"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// Timeout bounds a single HTTP query
	Timeout time.Duration `yaml:"timeout"`
}

// GraphsConfig names the named graphs the crawler reads
type GraphsConfig struct {
	Draft     string `yaml:"draft"`
	Published string `yaml:"published"`
	// Metadata graphs hold the type hierarchy
	Metadata []string `yaml:"metadata"`
	// Entities graphs hold controlled vocabularies and other labelled terms
	Entities []string `yaml:"entities"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	URL string `yaml:"url"`
}

// QueuesConfig configures the work queues
type QueuesConfig struct {
	// Enabled routes work through JetStream (default true). When disabled,
	// reindex units and index requests are processed in-process.
	Enabled       *bool         `yaml:"enabled,omitempty"`
	Stream        string        `yaml:"stream"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	AckWait       time.Duration `yaml:"ack_wait"`
	MaxDeliver    int           `yaml:"max_deliver"`
	BatchSize     int           `yaml:"batch_size"`
	// Wait is how long a receive blocks for the first message
	Wait          time.Duration `yaml:"wait"`
	DrainInterval time.Duration `yaml:"drain_interval"`
}

// IsEnabled reports whether queues are enabled.
func (q QueuesConfig) IsEnabled() bool {
	return q.Enabled == nil || *q.Enabled
}

// CacheConfig configures the shared cache
type CacheConfig struct {
	// Backend is "nats" (JetStream key-value bucket) or "memory"
	Backend     string        `yaml:"backend"`
	Bucket      string        `yaml:"bucket"`
	ResourceTTL time.Duration `yaml:"resource_ttl"`
	MetadataTTL time.Duration `yaml:"metadata_ttl"`
	EntityTTL   time.Duration `yaml:"entity_ttl"`
}

// ServiceConfig configures an HTTP collaborator
type ServiceConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// IndexingConfig configures resolution and reindex runs
type IndexingConfig struct {
	// ResolutionTimeout bounds the store queries of one resolution
	ResolutionTimeout time.Duration `yaml:"resolution_timeout"`
	// PollInterval is how often a reindex checks whether its queue drained
	PollInterval time.Duration `yaml:"poll_interval"`
}

// HTTPConfig configures the HTTP server
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Cache backends.
const (
	CacheNATS   = "nats"
	CacheMemory = "memory"
)

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SPARQL: SPARQLConfig{
			Endpoint: "http://localhost:3030/colid/query",
			Timeout:  60 * time.Second,
		},
		Graphs: GraphsConfig{
			Draft:     "https://pid.bayer.com/resource/4.0/draft",
			Published: "https://pid.bayer.com/resource/4.0/published",
			Metadata:  []string{"https://pid.bayer.com/resource/4.0/metadata"},
			Entities:  []string{"https://pid.bayer.com/resource/4.0/entities"},
		},
		NATS: NATSConfig{
			URL: "nats://localhost:4222",
		},
		Queues: QueuesConfig{
			Stream:        "SEMCRAWL",
			SubjectPrefix: "semcrawl",
			AckWait:       5 * time.Minute,
			MaxDeliver:    5,
			BatchSize:     10,
			Wait:          time.Second,
			DrainInterval: 5 * time.Second,
		},
		Cache: CacheConfig{
			Backend:     CacheNATS,
			Bucket:      "SEMCRAWL_CACHE",
			ResourceTTL: 6 * time.Hour,
			MetadataTTL: 24 * time.Hour,
			EntityTTL:   24 * time.Hour,
		},
		Search: ServiceConfig{
			URL: "http://localhost:8081",
		},
		Registration: ServiceConfig{
			URL: "http://localhost:8082",
		},
		Indexing: IndexingConfig{
			ResolutionTimeout: 60 * time.Second,
			PollInterval:      5 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.SPARQL.Endpoint == "" {
		return fmt.Errorf("sparql.endpoint is required")
	}
	if c.Graphs.Draft == "" || c.Graphs.Published == "" {
		return fmt.Errorf("graphs.draft and graphs.published are required")
	}
	if len(c.Graphs.Metadata) == 0 {
		return fmt.Errorf("graphs.metadata is required")
	}
	switch c.Cache.Backend {
	case CacheNATS, CacheMemory:
	default:
		return fmt.Errorf("cache.backend must be %q or %q", CacheNATS, CacheMemory)
	}
	if c.Cache.ResourceTTL <= 0 || c.Cache.MetadataTTL <= 0 || c.Cache.EntityTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.Queues.BatchSize <= 0 {
		return fmt.Errorf("queues.batch_size must be positive")
	}
	if c.NeedsNATS() && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when queues or the nats cache are enabled")
	}
	return nil
}

// NeedsNATS reports whether any component uses NATS.
func (c *Config) NeedsNATS() bool {
	return c.Queues.IsEnabled() || c.Cache.Backend == CacheNATS
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// SPARQL
	mergeString(&c.SPARQL.Endpoint, other.SPARQL.Endpoint)
	mergeString(&c.SPARQL.User, other.SPARQL.User)
	mergeString(&c.SPARQL.Password, other.SPARQL.Password)
	mergeDuration(&c.SPARQL.Timeout, other.SPARQL.Timeout)

	// Graphs
	mergeString(&c.Graphs.Draft, other.Graphs.Draft)
	mergeString(&c.Graphs.Published, other.Graphs.Published)
	if len(other.Graphs.Metadata) > 0 {
		c.Graphs.Metadata = other.Graphs.Metadata
	}
	if len(other.Graphs.Entities) > 0 {
		c.Graphs.Entities = other.Graphs.Entities
	}

	mergeString(&c.NATS.URL, other.NATS.URL)

	// Queues
	if other.Queues.Enabled != nil {
		enabled := *other.Queues.Enabled
		c.Queues.Enabled = &enabled
	}
	mergeString(&c.Queues.Stream, other.Queues.Stream)
	mergeString(&c.Queues.SubjectPrefix, other.Queues.SubjectPrefix)
	mergeDuration(&c.Queues.AckWait, other.Queues.AckWait)
	if other.Queues.MaxDeliver != 0 {
		c.Queues.MaxDeliver = other.Queues.MaxDeliver
	}
	if other.Queues.BatchSize != 0 {
		c.Queues.BatchSize = other.Queues.BatchSize
	}
	mergeDuration(&c.Queues.Wait, other.Queues.Wait)
	mergeDuration(&c.Queues.DrainInterval, other.Queues.DrainInterval)

	// Cache
	mergeString(&c.Cache.Backend, other.Cache.Backend)
	mergeString(&c.Cache.Bucket, other.Cache.Bucket)
	mergeDuration(&c.Cache.ResourceTTL, other.Cache.ResourceTTL)
	mergeDuration(&c.Cache.MetadataTTL, other.Cache.MetadataTTL)
	mergeDuration(&c.Cache.EntityTTL, other.Cache.EntityTTL)

	// Collaborators
	mergeString(&c.Search.URL, other.Search.URL)
	mergeString(&c.Search.Token, other.Search.Token)
	mergeString(&c.Registration.URL, other.Registration.URL)
	mergeString(&c.Registration.Token, other.Registration.Token)

	mergeDuration(&c.Indexing.ResolutionTimeout, other.Indexing.ResolutionTimeout)
	mergeDuration(&c.Indexing.PollInterval, other.Indexing.PollInterval)
	mergeString(&c.HTTP.Addr, other.HTTP.Addr)
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
