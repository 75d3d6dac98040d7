// Package config reads and writes the host's YAML configuration file.
package config

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Scene    SceneConfig    `yaml:"scene"`
	Display  DisplayConfig  `yaml:"display"`
	Render   RenderConfig   `yaml:"render"`
	Camera   CameraConfig   `yaml:"camera"`
	Debug    DebugConfig    `yaml:"debug"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

type SceneConfig struct {
	Name     string  `yaml:"name"`
	OBJPath  string  `yaml:"obj_path"`
	OBJScale float64 `yaml:"obj_scale"`
	Seed     uint64  `yaml:"seed"`
}

// DisplayConfig sizes the character grid.  Zero columns or rows mean "fit the
// terminal".
type DisplayConfig struct {
	Cols       int     `yaml:"cols"`
	Rows       int     `yaml:"rows"`
	PresentFPS float64 `yaml:"present_fps"`
}

type RenderConfig struct {
	SuperSample int     `yaml:"supersample"`
	Workers     int     `yaml:"workers"`
	Bands       int     `yaml:"bands"`
	TAA         bool    `yaml:"taa"`
	TAAAlpha    float64 `yaml:"taa_alpha"`
}

// CameraConfig overrides the scene's default pose when Override is set.
type CameraConfig struct {
	Override bool       `yaml:"override"`
	Position [3]float64 `yaml:"position"`
	Yaw      float64    `yaml:"yaw"`
	Pitch    float64    `yaml:"pitch"`
	// Fov of zero keeps the scene's default.
	Fov float64 `yaml:"fov"`
	// OrbitSpeed turns the camera by this many radians per second.
	OrbitSpeed float64 `yaml:"orbit_speed"`
}

type DebugConfig struct {
	View  int     `yaml:"view"`
	Scale float64 `yaml:"scale"`
}

// SnapshotConfig controls periodic frame dumps.  Every of zero disables them.
type SnapshotConfig struct {
	Every     int    `yaml:"every"`
	BadgerDir string `yaml:"badger_dir"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	PNGDir    string `yaml:"png_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene: SceneConfig{
			Name:     "demo",
			OBJScale: 1,
			Seed:     1337,
		},
		Display: DisplayConfig{
			PresentFPS: 30,
		},
		Render: RenderConfig{
			SuperSample: 1,
			TAA:         true,
			TAAAlpha:    0.5,
		},
		Debug: DebugConfig{
			Scale: 0.08,
		},
		Snapshot: SnapshotConfig{
			Prefix: "conray/snapshots",
		},
	}
}

// LoadConfig returns the defaults overlaid with the file's contents.  On
// error the defaults (possibly partly overlaid) come back alongside it.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	data, err := ioutil.ReadFile(filePath)
	if err != nil {
		return config, fmt.Errorf("while reading config file: %w", err)
	}

	if err := yaml.UnmarshalStrict(data, config); err != nil {
		return config, fmt.Errorf("while parsing config: %w", err)
	}

	return config, nil
}

func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("while serializing config: %w", err)
	}

	if err := ioutil.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("while writing config file: %w", err)
	}

	return nil
}
