// Package config provides configuration loading for eventsync.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mindfulina/eventsync/internal/content"
	"github.com/mindfulina/eventsync/internal/eventbrite"
	"github.com/mindfulina/eventsync/internal/github"
	"github.com/mindfulina/eventsync/internal/telemetry"
)

// EnvPrefix is the prefix of environment variables read by eventsync
const EnvPrefix = "EVENTSYNC"

const (
	// BackendGitHub writes records through the GitHub contents API
	BackendGitHub = "github"

	// BackendGit writes records by pushing to a git remote
	BackendGit = "git"
)

const (
	defaultAddress      = ":8080"
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 90 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	defaultCallTimeout  = 30 * time.Second
	defaultKeyring      = "eventsync"
	defaultGitHubOwner  = "thekizoch"
	defaultGitHubRepo   = "mindfulina"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Registration RegistrationConfig `yaml:"registration"`
	Content      ContentConfig      `yaml:"content"`
	Credentials  CredentialsConfig  `yaml:"credentials"`
	Telemetry    *telemetry.Config  `yaml:"telemetry,omitempty"`
}

// ServerConfig defines the HTTP listener
type ServerConfig struct {
	Address      string        `yaml:"address,omitempty"`
	ReadTimeout  time.Duration `yaml:"readTimeout,omitempty"`
	WriteTimeout time.Duration `yaml:"writeTimeout,omitempty"`
	IdleTimeout  time.Duration `yaml:"idleTimeout,omitempty"`
}

// RegistrationConfig defines the Eventbrite integration
type RegistrationConfig struct {
	// Enabled turns the registration integration on. Defaults to true.
	Enabled *bool `yaml:"enabled,omitempty"`

	APIURL                 string        `yaml:"apiURL,omitempty"`
	TemplateEventID        string        `yaml:"templateEventID,omitempty"`
	OrganizerID            string        `yaml:"organizerID,omitempty"`
	VenueID                string        `yaml:"venueID,omitempty"`
	Timezone               string        `yaml:"timezone,omitempty"`
	Capacity               int           `yaml:"capacity,omitempty"`
	ImageID                string        `yaml:"imageID,omitempty"`
	DefaultName            string        `yaml:"defaultName,omitempty"`
	DefaultDescriptionHTML string        `yaml:"defaultDescriptionHTML,omitempty"`
	Timeout                time.Duration `yaml:"timeout,omitempty"`
}

// IsEnabled reports whether registrations are created
func (r *RegistrationConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// ContentConfig defines where event records are written
type ContentConfig struct {
	// Backend is github or git
	Backend         string        `yaml:"backend,omitempty"`
	Directory       string        `yaml:"directory,omitempty"`
	CoverImage      string        `yaml:"coverImage,omitempty"`
	DefaultTitle    string        `yaml:"defaultTitle,omitempty"`
	DefaultLocation string        `yaml:"defaultLocation,omitempty"`
	DefaultBody     string        `yaml:"defaultBody,omitempty"`
	Timeout         time.Duration `yaml:"timeout,omitempty"`

	GitHub *GitHubConfig `yaml:"github,omitempty"`
	Git    *GitConfig    `yaml:"git,omitempty"`
}

// GitHubConfig identifies the repository written through the contents API
type GitHubConfig struct {
	APIURL string `yaml:"apiURL,omitempty"`
	Owner  string `yaml:"owner,omitempty"`
	Repo   string `yaml:"repo,omitempty"`
	Branch string `yaml:"branch,omitempty"`
}

// GitConfig identifies the remote written by the git backend
type GitConfig struct {
	Repository  string `yaml:"repository"`
	Branch      string `yaml:"branch,omitempty"`
	Username    string `yaml:"username,omitempty"`
	AuthorName  string `yaml:"authorName,omitempty"`
	AuthorEmail string `yaml:"authorEmail,omitempty"`
	WebURL      string `yaml:"webURL,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses YAML configuration, applies defaults and validates the result
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Default returns the configuration used when no file is given
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	s := &c.Server
	s.Address = orDefault(s.Address, defaultAddress)
	s.ReadTimeout = durationOrDefault(s.ReadTimeout, defaultReadTimeout)
	s.WriteTimeout = durationOrDefault(s.WriteTimeout, defaultWriteTimeout)
	s.IdleTimeout = durationOrDefault(s.IdleTimeout, defaultIdleTimeout)

	r := &c.Registration
	r.APIURL = orDefault(r.APIURL, eventbrite.DefaultBaseURL)
	r.TemplateEventID = orDefault(r.TemplateEventID, eventbrite.DefaultTemplateEventID)
	r.Timezone = orDefault(r.Timezone, eventbrite.DefaultTimezone)
	r.ImageID = orDefault(r.ImageID, eventbrite.DefaultImageID)
	r.DefaultName = orDefault(r.DefaultName, eventbrite.DefaultEventName)
	r.Timeout = durationOrDefault(r.Timeout, defaultCallTimeout)
	if r.Capacity == 0 {
		r.Capacity = eventbrite.DefaultCapacity
	}

	ct := &c.Content
	ct.Backend = orDefault(ct.Backend, BackendGitHub)
	ct.Directory = orDefault(ct.Directory, content.DefaultDirectory)
	ct.CoverImage = orDefault(ct.CoverImage, content.DefaultCover)
	ct.DefaultTitle = orDefault(ct.DefaultTitle, content.DefaultTitle)
	ct.DefaultLocation = orDefault(ct.DefaultLocation, content.DefaultLocation)
	ct.Timeout = durationOrDefault(ct.Timeout, defaultCallTimeout)
	if ct.Backend == BackendGitHub {
		if ct.GitHub == nil {
			ct.GitHub = &GitHubConfig{}
		}
		ct.GitHub.APIURL = orDefault(ct.GitHub.APIURL, github.DefaultAPIURL)
		ct.GitHub.Owner = orDefault(ct.GitHub.Owner, defaultGitHubOwner)
		ct.GitHub.Repo = orDefault(ct.GitHub.Repo, defaultGitHubRepo)
		ct.GitHub.Branch = orDefault(ct.GitHub.Branch, github.DefaultBranch)
	}
	if ct.Git != nil {
		ct.Git.Branch = orDefault(ct.Git.Branch, github.DefaultBranch)
	}

	c.Credentials.KeyringService = orDefault(c.Credentials.KeyringService, defaultKeyring)
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Registration.IsEnabled() {
		r := c.Registration
		if _, err := time.LoadLocation(r.Timezone); err != nil {
			return fmt.Errorf("registration.timezone %q is not a valid IANA zone: %w", r.Timezone, err)
		}
		if r.Capacity <= 0 {
			return fmt.Errorf("registration.capacity must be positive, got %d", r.Capacity)
		}
		if strings.TrimSpace(r.TemplateEventID) == "" {
			return fmt.Errorf("registration.templateEventID is required")
		}
	}

	switch c.Content.Backend {
	case BackendGitHub:
		if c.Content.GitHub.Owner == "" || c.Content.GitHub.Repo == "" {
			return fmt.Errorf("content.github.owner and content.github.repo are required")
		}
	case BackendGit:
		if c.Content.Git == nil || c.Content.Git.Repository == "" {
			return fmt.Errorf("content.git.repository is required when backend is %s", BackendGit)
		}
	default:
		return fmt.Errorf("content.backend must be %s or %s, got %q", BackendGitHub, BackendGit, c.Content.Backend)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func durationOrDefault(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
