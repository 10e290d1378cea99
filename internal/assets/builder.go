package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// Build runs esbuild with the configured settings and loads metadata
func (p *Pipeline) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	baseDir, err := filepath.Abs(p.config.BaseDir)
	if err != nil {
		return err
	}

	var entryPoints []string
	for _, pattern := range p.config.EntryPointGlobs {
		matches, err := filepath.Glob(filepath.Join(baseDir, pattern))
		if err != nil {
			return err
		}
		for _, match := range matches {
			rel, err := filepath.Rel(baseDir, match)
			if err != nil {
				return err
			}
			entryPoints = append(entryPoints, filepath.ToSlash(rel))
		}
	}

	if len(entryPoints) == 0 {
		return errors.New("no entry points found")
	}

	log.Info().Strs("entrypoints", entryPoints).Msg("Building assets")

	result := api.Build(api.BuildOptions{
		AbsWorkingDir:     baseDir,
		EntryPoints:       entryPoints,
		EntryNames:        "[name]-[hash]",
		Bundle:            true,
		Splitting:         true,
		Write:             true,
		Outdir:            filepath.Join(baseDir, p.config.OutputDir),
		Format:            api.FormatESModule,
		Target:            api.ES2020,
		MinifyWhitespace:  p.config.Minify,
		MinifyIdentifiers: p.config.Minify,
		MinifySyntax:      p.config.Minify,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         cond(p.config.SourceMap, api.SourceMapLinked, api.SourceMapNone),
		Metafile:          true,
		LogLevel:          api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", msg.Text).Msg("Build error")
		}
		return errors.New("esbuild failed with errors")
	}

	for _, file := range result.OutputFiles {
		log.Info().Str("file", file.Path).Msg("Built file")
	}

	// Write metafile
	if err := os.WriteFile(filepath.Join(baseDir, p.config.MetafilePath), []byte(result.Metafile), 0600); err != nil {
		return err
	}

	return p.parseMetadata([]byte(result.Metafile))
}

// LoadMetafile reads the metafile written by an earlier Build.
func (p *Pipeline) LoadMetafile() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(p.config.BaseDir, p.config.MetafilePath))
	if err != nil {
		return fmt.Errorf("failed to read metafile: %w", err)
	}

	return p.parseMetadata(data)
}

func (p *Pipeline) parseMetadata(data []byte) error {
	var metadata BuildMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return err
	}

	p.metadata = &metadata
	return nil
}

// Scripts returns the URLs of the bundle built for a JavaScript entry point
// followed by the chunks it imports. It returns nothing before assets are built.
func (p *Pipeline) Scripts(entryPointPath string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil
	}

	scripts := []string{}
	visited := make(map[string]bool)

	// Find the output file for this entrypoint
	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint == entryPointPath && strings.HasSuffix(outputPath, ".js") {
			visited[outputPath] = true
			scripts = append(scripts, p.url(outputPath))
			p.addDependencies(info, &scripts, visited)
			break
		}
	}

	return scripts
}

// Styles returns the URLs of the stylesheets built for an entry point, either a
// CSS entry point or the CSS bundle of a JavaScript one.
func (p *Pipeline) Styles(entryPointPath string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil
	}

	var styles []string
	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint != entryPointPath {
			continue
		}
		switch {
		case strings.HasSuffix(outputPath, ".css"):
			styles = append(styles, p.url(outputPath))
		case info.CSSBundle != "":
			styles = append(styles, p.url(info.CSSBundle))
		}
	}

	return styles
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.External || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true
		*scripts = append(*scripts, p.url(imp.Path))

		if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
			p.addDependencies(chunkInfo, scripts, visited)
		}
	}
}

// url maps a metafile output path to the URL it is served from.
func (p *Pipeline) url(outputPath string) string {
	rel := strings.TrimPrefix(outputPath, filepath.ToSlash(filepath.Clean(p.config.OutputDir))+"/")
	return p.config.PublicPath + rel
}

// FileServer serves the built output directory; mount it under PublicPath.
func (p *Pipeline) FileServer() http.Handler {
	return http.StripPrefix(p.config.PublicPath, http.FileServer(http.Dir(filepath.Join(p.config.BaseDir, p.config.OutputDir))))
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
