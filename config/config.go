// Package config loads the pipeline configuration from a YAML file, with
// secrets taken from the environment.
package config

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arobison203/autoortho/errors"
)

// DefaultPath is where the pipeline configuration is looked up when no path
// is given.
const DefaultPath = ".aoforge.yaml"

// Config holds a pipeline run's configuration.
type Config struct {
	// SourceDir is the checkout root containing the build recipe.
	SourceDir string `yaml:"source_dir"`

	// DistDir is where recipes drop artifacts, relative to SourceDir.
	DistDir string `yaml:"dist_dir"`

	// Recipe configures the build-recipe runner.
	Recipe RecipeConfig `yaml:"recipe"`

	// Storage configures transient artifact storage.
	Storage StorageConfig `yaml:"storage"`

	// Release configures release publication.
	Release ReleaseConfig `yaml:"release"`
}

// RecipeConfig names the external programs the pipeline drives.
type RecipeConfig struct {
	// Program is the build-recipe runner. Defaults to "make".
	Program string `yaml:"program"`

	// Archiver is the archiving tool. Defaults to "zip".
	Archiver string `yaml:"archiver"`
}

// StorageConfig identifies the S3 bucket transient artifacts upload to.
type StorageConfig struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
}

// ReleaseConfig identifies the repository releases attach to. The API token
// is never read from the file; it comes from the GITHUB_TOKEN environment
// variable.
type ReleaseConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`

	// Token is populated from the environment on Load.
	Token string `yaml:"-"`
}

// Load reads the configuration from path, applies defaults, and pulls
// secrets from the environment. A missing file yields the defaults alone.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}

	f, err := os.Open(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, errors.Wrapf(errors.CodeInvalidConfig, err, "opening config %s", path)
	default:
		defer f.Close()
		if err := decode(f, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults()
	cfg.Release.Token = os.Getenv("GITHUB_TOKEN")
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.Wrap(errors.CodeInvalidConfig, err, "parsing config")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.SourceDir == "" {
		c.SourceDir = "."
	}
	if c.DistDir == "" {
		c.DistDir = "dist"
	}
	if c.Recipe.Program == "" {
		c.Recipe.Program = "make"
	}
	if c.Recipe.Archiver == "" {
		c.Recipe.Archiver = "zip"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}
}

// ValidateForPublish checks the fields publication requires. Build-only
// invocations (plan, resolve) skip this.
func (c *Config) ValidateForPublish(release bool) error {
	if c.Storage.Bucket == "" {
		return errors.New(errors.CodeInvalidConfig, "storage.bucket is required for publication")
	}
	if release {
		if c.Release.Owner == "" || c.Release.Repo == "" {
			return errors.New(errors.CodeInvalidConfig, "release.owner and release.repo are required for release publication")
		}
		if c.Release.Token == "" {
			return errors.New(errors.CodeInvalidConfig, "GITHUB_TOKEN is required for release publication")
		}
	}
	return nil
}
