package config

import "github.com/spf13/pflag"

var (
	flagConfig        string
	flagDebug         bool
	flagLogFile       string
	flagColorEncoding string
	flagTriangulation string
	flagExtension     string
	flagImportMode    string
	flagApplyNormals  bool
	flagCharset       string
)

// BindFlags registers the global flags on fs. Call it once on the root
// command's persistent flag set.
func BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagConfig, "config", "", "Path to config file")
	fs.BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	fs.StringVar(&flagLogFile, "log-file", "", "Write logs to a rotating file")
	fs.StringVar(&flagColorEncoding, "colors", "", "Color encoding: float-rgba, packed-rgb24, marker-or-direct")
	fs.StringVar(&flagTriangulation, "triangulation", "", "Triangulation when the host has none: fan, ear")
	fs.StringVar(&flagExtension, "ext", "", "Output extension: .json, .avarabsp.json")
	fs.StringVar(&flagImportMode, "mode", "", "Multi-file import: all, first")
	fs.BoolVar(&flagApplyNormals, "apply-normals", false, "Apply document normals to imported faces")
	fs.StringVar(&flagCharset, "charset", "", "Charset of object names in input scenes")
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if flagDebug {
		cfg.Logging.Level = "debug"
	}
	if flagLogFile != "" {
		cfg.Logging.LogFile = flagLogFile
	}
	if flagColorEncoding != "" {
		cfg.Export.ColorEncoding = flagColorEncoding
	}
	if flagTriangulation != "" {
		cfg.Export.Triangulation = flagTriangulation
	}
	if flagExtension != "" {
		cfg.Export.Extension = flagExtension
	}
	if flagImportMode != "" {
		cfg.Import.Mode = flagImportMode
	}
	if flagApplyNormals {
		cfg.Import.ApplyNormals = true
	}
	if flagCharset != "" {
		cfg.Names.Charset = flagCharset
	}
}
