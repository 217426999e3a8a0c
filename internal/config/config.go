package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/andybalholm/cascadia"

	"github.com/vango-dev/docsave/internal/errors"
	"github.com/vango-dev/docsave/pkg/diff"
	"github.com/vango-dev/docsave/pkg/format"
	"github.com/vango-dev/docsave/pkg/sanitize"
	"github.com/vango-dev/docsave/pkg/snapshot"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "docsave.json"

	// DefaultPort is the default HTTP service port.
	DefaultPort = 8080

	// DefaultHost is the default HTTP service host.
	DefaultHost = "localhost"

	// DefaultBodyLimit caps request documents at 10 MiB.
	DefaultBodyLimit = 10 << 20

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = "10s"

	// DefaultOutput is the default directory for saved artifacts.
	DefaultOutput = "snapshot"
)

// Config represents the complete docsave.json configuration.
type Config struct {
	// Generator is written to the generator meta of every snapshot.
	Generator string `json:"generator,omitempty"`

	// Sanitize controls which markup is stripped before saving.
	Sanitize SanitizeConfig `json:"sanitize,omitempty"`

	// Format controls re-indentation of the output.
	Format FormatConfig `json:"format,omitempty"`

	// Diff locates the diff service and the previous version.
	Diff diff.Config `json:"diff,omitempty"`

	// EPubGenerator is the EPUB conversion service.
	EPubGenerator string `json:"epubGenerator,omitempty"`

	// Server contains HTTP service configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Publish contains artifact storage configuration.
	Publish PublishConfig `json:"publish,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string

	// generatorSet records that the file named a generator.
	generatorSet bool
}

// SanitizeConfig contains cleanup settings.
type SanitizeConfig struct {
	// Remove is a selector list of elements dropped from snapshots.
	Remove string `json:"remove,omitempty"`

	// SidebarClass is removed from <html> and <body>.
	SidebarClass string `json:"sidebarClass,omitempty"`
}

// FormatConfig contains Reformatter settings.
type FormatConfig struct {
	// IndentSize is the number of spaces per nesting level.
	IndentSize int `json:"indentSize,omitempty"`

	// Inline overrides the elements kept in the text flow.
	Inline []string `json:"inline,omitempty"`

	// Unformatted overrides the elements copied verbatim.
	Unformatted []string `json:"unformatted,omitempty"`

	// NoFinalNewline drops the trailing newline.
	NoFinalNewline bool `json:"noFinalNewline,omitempty"`
}

// ServerConfig contains HTTP service settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// BodyLimit is the maximum request document size in bytes.
	BodyLimit int64 `json:"bodyLimit,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`
}

// PublishConfig contains artifact storage settings. When S3.Bucket is set
// artifacts are uploaded; otherwise they are written to Output.
type PublishConfig struct {
	// Output is the directory artifacts are written to.
	Output string `json:"output,omitempty"`

	// S3 configures uploads to a bucket.
	S3 S3Config `json:"s3,omitempty"`
}

// S3Config contains S3 upload settings.
type S3Config struct {
	Bucket   string `json:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory.
// It looks for docsave.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E041").
				WithSubject(path).
				WithSuggestion("Create " + ConfigFileName + " or pass --config")
		}
		return nil, errors.New("E040").WithSubject(path).Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E040").
			WithSubject(path).
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.generatorSet = cfg.Generator != ""
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E040").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E040").WithSubject(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// DefaultGeneratorTo replaces the default generator with name, typically
// the tool name and build version. A generator from the file is kept.
func (c *Config) DefaultGeneratorTo(name string) {
	if !c.generatorSet && name != "" {
		c.Generator = name
	}
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Generator == "" {
		c.Generator = sanitize.DefaultGenerator
	}
	if c.Sanitize.Remove == "" {
		c.Sanitize.Remove = sanitize.DefaultRemove
	}
	if c.Sanitize.SidebarClass == "" {
		c.Sanitize.SidebarClass = sanitize.DefaultSidebarClass
	}

	defaults := format.DefaultOptions()
	if c.Format.IndentSize == 0 {
		c.Format.IndentSize = defaults.IndentSize
	}
	if c.Format.Inline == nil {
		c.Format.Inline = defaults.Inline
	}
	if c.Format.Unformatted == nil {
		c.Format.Unformatted = defaults.Unformatted
	}

	if c.Diff.Tool == "" {
		c.Diff.Tool = diff.DefaultTool
	}
	if c.EPubGenerator == "" {
		c.EPubGenerator = snapshot.DefaultEPubGenerator
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.BodyLimit == 0 {
		c.Server.BodyLimit = DefaultBodyLimit
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Publish.Output == "" {
		c.Publish.Output = DefaultOutput
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E042").
			WithSubject("server.port").
			WithDetail("Port must be between 0 and 65535")
	}
	if c.Server.BodyLimit < 0 {
		return errors.New("E042").
			WithSubject("server.bodyLimit").
			WithDetail("Body limit must not be negative")
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return errors.New("E042").
			WithSubject("server.shutdownTimeout").
			WithSuggestion("Use a Go duration such as \"10s\"").
			Wrap(err)
	}
	if c.Format.IndentSize < 0 {
		return errors.New("E042").
			WithSubject("format.indentSize").
			WithDetail("Indent size must not be negative")
	}
	if _, err := cascadia.Compile(c.Sanitize.Remove); err != nil {
		return errors.New("E042").
			WithSubject("sanitize.remove").
			Wrap(err)
	}
	return nil
}

// Address returns the listen address of the HTTP service.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// ShutdownTimeout returns the parsed graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// OutputPath returns the absolute path of the artifact directory.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.Publish.Output) {
		return c.Publish.Output
	}
	return filepath.Join(c.Dir(), c.Publish.Output)
}

// UsesS3 reports whether artifacts are uploaded to S3.
func (c *Config) UsesS3() bool {
	return c.Publish.S3.Bucket != ""
}

// SanitizeConfig returns the sanitizer settings.
func (c *Config) SanitizeConfig() sanitize.Config {
	return sanitize.Config{
		Remove:       c.Sanitize.Remove,
		SidebarClass: c.Sanitize.SidebarClass,
		Generator:    c.Generator,
	}
}

// FormatOptions returns the Reformatter settings.
func (c *Config) FormatOptions() format.Options {
	return format.Options{
		IndentSize:     c.Format.IndentSize,
		Inline:         c.Format.Inline,
		Unformatted:    c.Format.Unformatted,
		EndWithNewline: !c.Format.NoFinalNewline,
	}
}

// SnapshotOptions returns the save menu settings.
func (c *Config) SnapshotOptions() snapshot.Options {
	return snapshot.Options{
		Diff:          c.Diff,
		EPubGenerator: c.EPubGenerator,
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// docsave.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E041").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working
// directory or its nearest parent holding docsave.json.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
