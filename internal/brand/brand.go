// Package brand provides centralized branding constants for dockwall.
// The identity is loaded from brand.json at compile time via go:embed so
// that scripts and doc generators can read the same file.
package brand

import (
	_ "embed"
	"encoding/json"
)

//go:embed brand.json
var brandJSON []byte

// Brand holds all branding information.
type Brand struct {
	Name             string `json:"name"`
	LowerName        string `json:"lowerName"`
	BinaryName       string `json:"binaryName"`
	Description      string `json:"description"`
	DefaultConfigDir string `json:"defaultConfigDir"`
	ConfigFileName   string `json:"configFileName"`
}

var b Brand

// Exported convenience variables, initialized from brand.json.
var (
	Name             string
	LowerName        string
	BinaryName       string
	Description      string
	DefaultConfigDir string
	ConfigFileName   string

	// Version is set at build time via -ldflags.
	Version = "dev"
)

func init() {
	if err := json.Unmarshal(brandJSON, &b); err != nil {
		panic("failed to parse brand.json: " + err.Error())
	}

	Name = b.Name
	LowerName = b.LowerName
	BinaryName = b.BinaryName
	Description = b.Description
	DefaultConfigDir = b.DefaultConfigDir
	ConfigFileName = b.ConfigFileName
}

// Get returns the full brand record.
func Get() Brand {
	return b
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	return DefaultConfigDir + "/" + ConfigFileName
}
