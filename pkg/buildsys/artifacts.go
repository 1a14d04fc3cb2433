package buildsys

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"

	"github.com/kcenon/file-manager/build-tools/pkg"
)

// globstar only matches one or more directories, so each pattern also has
// its top-level form.
var (
	libraryPatterns    = []string{"*.a", "**/*.a", "*.so", "**/*.so", "*.dylib", "**/*.dylib"}
	executablePatterns = []string{"bin/*", "**/bin/*"}
)

// resolvePatterns expands globstar patterns relative to base and returns the
// matches relative to base.
func resolvePatterns(base string, patterns []string) ([]string, error) {
	result := []string{}
	cfg := expand.Config{
		Env: expand.ListEnviron("PWD=" + base),
		ReadDir2: func(path string) ([]fs.DirEntry, error) {
			if path == "" {
				path = "."
			}
			if !filepath.IsAbs(path) {
				path = filepath.Join(base, path)
			}

			return os.ReadDir(path)
		},
		GlobStar: true,
	}

	parser := syntax.NewParser()
	seen := map[string]bool{}

	for _, item := range patterns {
		words := make([]*syntax.Word, 0)
		err := parser.Words(strings.NewReader(item), func(w *syntax.Word) bool {
			words = append(words, w)
			return true
		})
		if err != nil {
			return nil, eris.Wrapf(err, "Failed to parse pattern %s", item)
		}

		matches, err := expand.Fields(&cfg, words...)
		if err != nil {
			return nil, eris.Wrapf(err, "Failed to resolve pattern %s", item)
		}

		for _, match := range matches {
			// If a pattern didn't match anything, it's returned as a result. Skip those results.
			if strings.Contains(match, "*") {
				continue
			}

			if filepath.IsAbs(match) {
				rel, err := filepath.Rel(base, match)
				if err != nil {
					continue
				}
				match = rel
			}

			match = filepath.ToSlash(filepath.Clean(match))
			if !seen[match] {
				seen[match] = true
				result = append(result, match)
			}
		}
	}

	sort.Strings(result)
	return result, nil
}

func isCMakeInternal(path string) bool {
	for _, part := range strings.Split(path, "/") {
		if part == "CMakeFiles" {
			return true
		}
	}

	return false
}

// ListArtifacts finds libraries and executables in the build directory and
// logs each of them. A missing build directory or zero matches is fine.
func (b *Builder) ListArtifacts(ctx context.Context) []Artifact {
	ctx, stage := b.beginStage(ctx, StageArtifacts)
	pkg.PrintTask("Build artifacts")

	buildDir := b.BuildDir()
	artifacts := []Artifact{}

	libs, err := resolvePatterns(buildDir, libraryPatterns)
	if err != nil {
		log(ctx).Warn().Err(err).Msg("Failed to search for libraries")
	}
	for _, lib := range libs {
		if isCMakeInternal(lib) || !isFile(filepath.Join(buildDir, lib)) {
			continue
		}

		log(ctx).Info().Str("path", lib).Msgf("Library: %s", lib)
		artifacts = append(artifacts, Artifact{Path: lib, Kind: ArtifactLibrary})
	}

	exes, err := resolvePatterns(buildDir, executablePatterns)
	if err != nil {
		log(ctx).Warn().Err(err).Msg("Failed to search for executables")
	}
	for _, exe := range exes {
		if isCMakeInternal(exe) {
			continue
		}

		info, err := os.Stat(filepath.Join(buildDir, exe))
		if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
			continue
		}

		log(ctx).Info().Str("path", exe).Msgf("Executable: %s", exe)
		artifacts = append(artifacts, Artifact{Path: exe, Kind: ArtifactExecutable})
	}

	if len(artifacts) == 0 {
		log(ctx).Debug().Msg("No artifacts found")
	}

	b.report.Artifacts = artifacts
	b.endStage(stage, ResultSuccess)
	return artifacts
}
