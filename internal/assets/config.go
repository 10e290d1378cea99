package assets

type Config struct {
	// Directory the entry points and output paths are relative to
	BaseDir string
	// Entry point glob patterns (e.g., "ui/*.js")
	EntryPointGlobs []string
	// Output directory for built files, served under PublicPath
	OutputDir string
	// Path to metafile
	MetafilePath string
	// URL prefix the output directory is served from
	PublicPath string
	// Whether to minify output
	Minify bool
	// Whether to enable source maps
	SourceMap bool
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		BaseDir:         ".",
		EntryPointGlobs: []string{"ui/app.js", "ui/*.css"},
		OutputDir:       "public",
		MetafilePath:    "public/meta.json",
		PublicPath:      "/static/",
		Minify:          true,
		SourceMap:       true,
	}
}
