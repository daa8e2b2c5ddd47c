// Package sysinfo describes the host device to web pages through the
// injected systemInfo constant.
package sysinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Themes
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// SafeArea holds the insets that page content should avoid
type SafeArea struct {
	Top    float64 `json:"top" yaml:"top" toml:"top"`
	Left   float64 `json:"left" yaml:"left" toml:"left"`
	Bottom float64 `json:"bottom" yaml:"bottom" toml:"bottom"`
	Right  float64 `json:"right" yaml:"right" toml:"right"`
}

// SystemInfo is serialised verbatim into `const systemInfo = {...};`
type SystemInfo struct {
	SDKVersion   string    `json:"SDKVersion" yaml:"sdkVersion" toml:"sdkVersion"`
	ScreenWidth  float64   `json:"screenWidth" yaml:"screenWidth" toml:"screenWidth"`
	ScreenHeight float64   `json:"screenHeight" yaml:"screenHeight" toml:"screenHeight"`
	SafeArea     *SafeArea `json:"safeArea,omitempty" yaml:"safeArea" toml:"safeArea"`
	Theme        string    `json:"theme" yaml:"theme" toml:"theme"`
}

// Default returns the values used when no profile is configured
func Default() SystemInfo {
	return SystemInfo{
		SDKVersion:   "0.1",
		ScreenWidth:  375,
		ScreenHeight: 812,
		Theme:        ThemeLight,
	}
}

// Script renders the system info declaration injected ahead of page scripts
func (s SystemInfo) Script() (string, error) {
	data, err := sonic.ConfigStd.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode system info: %w", err)
	}
	return "const systemInfo = " + string(data) + ";", nil
}

// LoadProfile reads a device profile and applies it over base. The format
// follows the extension: .yaml/.yml, .toml or .json. Zero values in the
// profile leave base untouched.
func LoadProfile(path string, base SystemInfo) (SystemInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read profile: %w", err)
	}

	var profile SystemInfo
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &profile)
	case ".toml":
		err = toml.Unmarshal(data, &profile)
	case ".json":
		err = sonic.ConfigStd.Unmarshal(data, &profile)
	default:
		return base, fmt.Errorf("unsupported profile format %q", ext)
	}
	if err != nil {
		return base, fmt.Errorf("parse profile %s: %w", filepath.Base(path), err)
	}

	return merge(base, profile), nil
}

func merge(base, profile SystemInfo) SystemInfo {
	if profile.SDKVersion != "" {
		base.SDKVersion = profile.SDKVersion
	}
	if profile.ScreenWidth > 0 {
		base.ScreenWidth = profile.ScreenWidth
	}
	if profile.ScreenHeight > 0 {
		base.ScreenHeight = profile.ScreenHeight
	}
	if profile.SafeArea != nil {
		area := *profile.SafeArea
		base.SafeArea = &area
	}
	if profile.Theme != "" {
		base.Theme = profile.Theme
	}
	return base
}
