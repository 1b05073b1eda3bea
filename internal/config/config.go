// Package config handles codec configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/avarabsp/internal/exporter"
	"github.com/Faultbox/avarabsp/internal/importer"
	"github.com/Faultbox/avarabsp/pkg/encoding"
	"github.com/Faultbox/avarabsp/pkg/triangulate"
)

// Config holds all codec settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Import  ImportConfig  `yaml:"import"`
	Names   NamesConfig   `yaml:"names"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig selects the output variant written by export.
type ExportConfig struct {
	ColorEncoding string `yaml:"color_encoding"`
	RadiusMode    string `yaml:"radius_mode"`
	NormalMode    string `yaml:"normal_mode"`
	BoundsMode    string `yaml:"bounds_mode"`
	Triangulation string `yaml:"triangulation"`
	Extension     string `yaml:"extension"`
	Adjacency     bool   `yaml:"adjacency"`
	Indent        bool   `yaml:"indent"`
}

// ImportConfig holds import settings.
type ImportConfig struct {
	Mode           string  `yaml:"mode"`
	RotateXDegrees float32 `yaml:"rotate_x_degrees"`
	ApplyNormals   bool    `yaml:"apply_normals"`
}

// NamesConfig controls how object names read from host scenes are decoded.
type NamesConfig struct {
	Charset string `yaml:"charset"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			ColorEncoding: exporter.FloatRGBA.String(),
			RadiusMode:    exporter.RadiusMeasured.String(),
			NormalMode:    exporter.NormalPolygon.String(),
			BoundsMode:    exporter.BoundsDominance.String(),
			Triangulation: triangulate.Fan.String(),
			Extension:     exporter.ExtJSON,
			Adjacency:     false,
			Indent:        true,
		},
		Import: ImportConfig{
			Mode:           importer.ModeAll.String(),
			RotateXDegrees: 90,
			ApplyNormals:   false,
		},
		Names: NamesConfig{
			Charset: encoding.UTF8,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ExportOptions converts the export section into typed exporter options.
func (c *Config) ExportOptions() (exporter.Options, error) {
	opts := exporter.DefaultOptions()
	var err error

	if opts.Colors, err = exporter.ParseColorEncoding(c.Export.ColorEncoding); err != nil {
		return opts, err
	}
	if opts.Radius, err = exporter.ParseRadiusMode(c.Export.RadiusMode); err != nil {
		return opts, err
	}
	if opts.Normals, err = exporter.ParseNormalMode(c.Export.NormalMode); err != nil {
		return opts, err
	}
	if opts.Bounds, err = exporter.ParseBoundsMode(c.Export.BoundsMode); err != nil {
		return opts, err
	}
	if opts.Triangulation, err = triangulate.ParseMode(c.Export.Triangulation); err != nil {
		return opts, err
	}

	switch c.Export.Extension {
	case exporter.ExtJSON, exporter.ExtLegacyJSON:
		opts.Extension = c.Export.Extension
	case "":
		opts.Extension = exporter.ExtJSON
	default:
		return opts, fmt.Errorf("unknown extension %q", c.Export.Extension)
	}

	opts.Adjacency = c.Export.Adjacency
	opts.Indent = c.Export.Indent
	return opts, nil
}

// ImportOptions converts the import section into typed importer options.
func (c *Config) ImportOptions() (importer.Options, error) {
	opts := importer.DefaultOptions()
	mode, err := importer.ParseMode(c.Import.Mode)
	if err != nil {
		return opts, err
	}
	opts.Mode = mode
	opts.RotateXDegrees = c.Import.RotateXDegrees
	if c.Import.ApplyNormals {
		opts.NormalHook = importer.ApplyNormals
	}
	return opts, nil
}

// NameDecoder returns the decoder for object names.
func (c *Config) NameDecoder() (*encoding.Decoder, error) {
	return encoding.NewDecoder(c.Names.Charset)
}

// Validate reports the first setting that cannot be converted.
func (c *Config) Validate() error {
	if _, err := c.ExportOptions(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := c.ImportOptions(); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if _, err := c.NameDecoder(); err != nil {
		return fmt.Errorf("names: %w", err)
	}
	return nil
}
