// Package config provides configuration loading and management for anner-rdf.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/anner-rdf/export"
	"github.com/c360studio/anner-rdf/graph"
	"github.com/c360studio/anner-rdf/vocabulary/onner"
)

// Config represents the complete anner-rdf configuration
type Config struct {
	Output      OutputConfig      `yaml:"output"`
	Publication PublicationConfig `yaml:"publication"`
	Schema      SchemaConfig      `yaml:"schema"`
	NATS        NATSConfig        `yaml:"nats"`
	Server      ServerConfig      `yaml:"server"`
	Watch       WatchConfig       `yaml:"watch"`
}

// OutputConfig configures where and how RDF is written
type OutputConfig struct {
	// Format is the serialization format: turtle or ntriples (default: turtle)
	Format string `yaml:"format"`
	// Dir is the output directory (empty = next to the input, or stdout)
	Dir string `yaml:"dir"`
}

// PublicationConfig holds the literals of the publication profile
type PublicationConfig struct {
	Title string `yaml:"title"`
	Date  string `yaml:"date"`
	DOI   string `yaml:"doi"`
}

// SchemaConfig configures the labeling schema and NER system individuals
type SchemaConfig struct {
	// Name is the labeling schema name (default: CelloGraph)
	Name string `yaml:"name"`
	// Labels is the ordered label list; a label's number is its 1-based index
	Labels []string `yaml:"labels"`
	// NERSystem is the NER system individual (default: Cellulosic_NER_Model)
	NERSystem string `yaml:"ner_system"`
	// NERVersion is the NER system version (default: 1.0)
	NERVersion string `yaml:"ner_version"`
}

// NATSConfig configures optional graph publishing
type NATSConfig struct {
	// URL is the NATS server URL (empty = publishing disabled)
	URL string `yaml:"url"`
	// Subject is the graph ingest subject (default: graph.ingest.entity)
	Subject string `yaml:"subject"`
}

// ServerConfig configures the HTTP service
type ServerConfig struct {
	// Addr is the listen address (default: :8080)
	Addr string `yaml:"addr"`
	// MaxBodyBytes limits request bodies (default: 10 MiB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
	// ShutdownTimeout bounds graceful shutdown (default: 10s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// WatchConfig configures the directory watcher
type WatchConfig struct {
	// Debounce delays conversion until writes settle (default: 500ms)
	Debounce time.Duration `yaml:"debounce"`
	// ExcludeDirs are directory names skipped while watching
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	pub := export.DefaultPublication()
	return &Config{
		Output: OutputConfig{
			Format: string(export.FormatTurtle),
		},
		Publication: PublicationConfig{
			Title: pub.Title,
			Date:  pub.Date,
			DOI:   pub.DOI,
		},
		Schema: SchemaConfig{
			Name:       onner.DefaultSchemaName,
			Labels:     append([]string(nil), onner.DefaultLabels...),
			NERSystem:  onner.DefaultNERSystem,
			NERVersion: onner.DefaultSystemVersion,
		},
		NATS: NATSConfig{
			URL:     "", // Publishing disabled
			Subject: "graph.ingest.entity",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxBodyBytes:    10 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Watch: WatchConfig{
			Debounce:    500 * time.Millisecond,
			ExcludeDirs: []string{".git", "node_modules"},
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if c.Schema.Name == "" {
		return fmt.Errorf("schema.name is required")
	}
	if len(c.Schema.Labels) == 0 {
		return fmt.Errorf("schema.labels must not be empty")
	}
	seen := make(map[string]bool, len(c.Schema.Labels))
	for _, l := range c.Schema.Labels {
		if l == "" {
			return fmt.Errorf("schema.labels must not contain empty labels")
		}
		if seen[l] {
			return fmt.Errorf("schema.labels contains duplicate label %q", l)
		}
		seen[l] = true
	}
	if c.Schema.NERSystem == "" {
		return fmt.Errorf("schema.ner_system is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// Format returns the parsed output format.
func (c *Config) Format() export.Format {
	f, err := export.ParseFormat(c.Output.Format)
	if err != nil {
		return export.FormatTurtle
	}
	return f
}

// ExporterOptions returns the RDF exporter options described by the config.
func (c *Config) ExporterOptions() []export.Option {
	return []export.Option{
		export.WithPublication(export.Publication{
			Title: c.Publication.Title,
			Date:  c.Publication.Date,
			DOI:   c.Publication.DOI,
		}),
		export.WithLabelingSchema(onner.LabelingSchema{
			Name:   c.Schema.Name,
			Labels: append([]string(nil), c.Schema.Labels...),
		}),
		export.WithNERSystem(c.Schema.NERSystem, c.Schema.NERVersion),
	}
}

// GraphMetadata returns the publication, schema and NER system values
// published to the graph, matching ExporterOptions.
func (c *Config) GraphMetadata() graph.Metadata {
	return graph.Metadata{
		Publication: export.Publication{
			Title: c.Publication.Title,
			Date:  c.Publication.Date,
			DOI:   c.Publication.DOI,
		},
		Schema: onner.LabelingSchema{
			Name:   c.Schema.Name,
			Labels: append([]string(nil), c.Schema.Labels...),
		},
		NERSystem:     c.Schema.NERSystem,
		SystemVersion: c.Schema.NERVersion,
	}
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

// loadLayer reads a config file without defaults so that Merge only sees the
// values the file sets.
func loadLayer(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Output
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.Dir != "" {
		c.Output.Dir = other.Output.Dir
	}

	// Publication
	if other.Publication.Title != "" {
		c.Publication.Title = other.Publication.Title
	}
	if other.Publication.Date != "" {
		c.Publication.Date = other.Publication.Date
	}
	if other.Publication.DOI != "" {
		c.Publication.DOI = other.Publication.DOI
	}

	// Schema
	if other.Schema.Name != "" {
		c.Schema.Name = other.Schema.Name
	}
	if len(other.Schema.Labels) > 0 {
		c.Schema.Labels = other.Schema.Labels
	}
	if other.Schema.NERSystem != "" {
		c.Schema.NERSystem = other.Schema.NERSystem
	}
	if other.Schema.NERVersion != "" {
		c.Schema.NERVersion = other.Schema.NERVersion
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.MaxBodyBytes != 0 {
		c.Server.MaxBodyBytes = other.Server.MaxBodyBytes
	}
	if other.Server.ShutdownTimeout != 0 {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if len(other.Watch.ExcludeDirs) > 0 {
		c.Watch.ExcludeDirs = other.Watch.ExcludeDirs
	}
}
