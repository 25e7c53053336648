package server

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig is the configuration of the tomd server.
type ServerConfig struct {
	// port to listen on
	ServerPort string `yaml:"port"`

	// connection string for the database
	DBURI string `yaml:"dbURI"`

	// root directory of the media store holding data product payloads
	MediaRoot string `yaml:"mediaRoot"`

	// key signing API tokens
	JWTKey string `yaml:"jwtKey"`

	// token lifetime in hours. 0 means tokens do not expire.
	TokenLifetimeHours int `yaml:"tokenLifetimeHours"`

	Brokers  BrokerConfig  `yaml:"brokers"`
	Catalogs CatalogConfig `yaml:"catalogs"`

	// survey source names usable for target aliases (GAIA, ZTF, ...)
	SourceChoices []string `yaml:"sourceChoices"`

	// declared extra fields, applied as defaults at target creation
	ExtraFields []ExtraField `yaml:"extraFields"`
}

type BrokerConfig struct {
	MARSURL string `yaml:"marsURL"`
	FinkURL string `yaml:"finkURL"`
}

// DefaultSimbadURL is the TAP root used when catalogs.simbadURL is not set.
const DefaultSimbadURL = "https://simbad.u-strasbg.fr/simbad/sim-tap"

type CatalogConfig struct {
	SimbadURL string `yaml:"simbadURL"`
}

var ErrInvalidExtraField = errors.New("config: extra field is invalid")

// ExtraField declares a typed extra key targets may carry.
type ExtraField struct {
	Name    string
	Type    string // one of "number", "boolean", "datetime", "string"
	Default string
}

func (f *ExtraField) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Name    string `yaml:"name"`
		Type    string `yaml:"type"`
		Default string `yaml:"default"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidExtraField)
	}
	switch raw.Type {
	case "number", "boolean", "datetime", "string":
		// pass
	case "":
		raw.Type = "string"
	default:
		return fmt.Errorf("%w: unknown type %s of %s", ErrInvalidExtraField, raw.Type, raw.Name)
	}

	f.Name = raw.Name
	f.Type = raw.Type
	f.Default = raw.Default
	return nil
}

// HasSource tests whether the source name is configured, case-insensitively.
// It returns the configured spelling of the name.
func (c *ServerConfig) HasSource(name string) (string, bool) {
	for _, source := range c.SourceChoices {
		if strings.EqualFold(source, name) {
			return source, true
		}
	}
	return "", false
}
