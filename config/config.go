// Package config holds the settings for the tools and the service.
package config

import (
	"errors"
	"fmt"
	"io/ioutil"

	"github.com/Comcast/treetags/core"

	"github.com/jsccast/yaml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Modes for RefreshTransientBuildOnPSS.
const (
	RefreshAuto  = "auto"
	RefreshTrue  = "true"
	RefreshFalse = "false"
)

type Config struct {
	// PartialStateSaving turns on marking of new subtrees.
	PartialStateSaving bool `json:"partialStateSaving" yaml:"partialStateSaving"`

	// RefreshTransientBuildOnPSS is "auto", "true" or "false".
	// With "auto", the flag is on only for templates that have
	// dynamic tags.
	RefreshTransientBuildOnPSS string `json:"refreshTransientBuildOnPSS" yaml:"refreshTransientBuildOnPSS"`

	// DynamicSection asks control-flow tags to tell their parents
	// to refresh dynamically.
	DynamicSection bool `json:"dynamicSection,omitempty" yaml:"dynamicSection,omitempty"`

	// IdPrefix is the id of the root section.
	IdPrefix string `json:"idPrefix,omitempty" yaml:"idPrefix,omitempty"`

	// Interpreter is the default interpreter for "${...}"
	// attributes.
	Interpreter string `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`

	// StorageFile is a bbolt filename.  Empty means in-memory
	// storage.
	StorageFile string `json:"storageFile,omitempty" yaml:"storageFile,omitempty"`

	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	HTTPPort string `json:"httpPort,omitempty" yaml:"httpPort,omitempty"`

	// MQTTBroker, if not empty, is where rendered views are
	// published.
	MQTTBroker string `json:"mqttBroker,omitempty" yaml:"mqttBroker,omitempty"`
	MQTTTopic  string `json:"mqttTopic,omitempty" yaml:"mqttTopic,omitempty"`
}

func Default() *Config {
	return &Config{
		PartialStateSaving:         true,
		RefreshTransientBuildOnPSS: RefreshAuto,
		Interpreter:                core.DefaultInterpreter,
		LogLevel:                   "info",
		HTTPPort:                   ":8080",
		MQTTTopic:                  "views",
	}
}

// Parse reads YAML (or JSON) on top of the defaults.
func Parse(bs []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the file.  An empty filename gives the defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(bs)
}

var BadMode = errors.New("bad refreshTransientBuildOnPSS")

func (c *Config) Validate() error {
	switch c.RefreshTransientBuildOnPSS {
	case RefreshAuto, RefreshTrue, RefreshFalse:
	case "":
		c.RefreshTransientBuildOnPSS = RefreshAuto
	default:
		return fmt.Errorf("%w: %q", BadMode, c.RefreshTransientBuildOnPSS)
	}
	if _, err := c.level(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MQTTBroker != "" && c.MQTTTopic == "" {
		return errors.New("config: mqttBroker needs an mqttTopic")
	}
	return nil
}

// Flags gives the structural flags for a template.
func (c *Config) Flags(t *core.Template) core.Flags {
	f := core.Flags{
		PartialStateSaving: c.PartialStateSaving,
		DynamicSection:     c.DynamicSection,
	}
	switch c.RefreshTransientBuildOnPSS {
	case RefreshTrue:
		f.RefreshTransientBuildOnPSS = true
	case RefreshAuto, "":
		f.RefreshTransientBuildOnPSS = t != nil && t.Dynamic()
	}
	return f
}

func (c *Config) level() (zapcore.Level, error) {
	var l zapcore.Level
	if c.LogLevel == "" {
		return zapcore.InfoLevel, nil
	}
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

// Logger makes a production logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	l, err := c.level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(l)
	return zc.Build()
}
