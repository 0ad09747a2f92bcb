package rewrite

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// releaseHeader marks a file as machine-generated so an editor or code
// owner doesn't hand-edit it; excludeBuildTag is stamped onto the
// original source once Release has produced a permanent sibling, so a
// plain `go build` (no overlay) picks up the released file instead of
// recompiling the untransformed original.
const (
	releaseHeader   = "// Code generated by ompgo. DO NOT EDIT.\n"
	releaseBuildTag = "//go:build ompgo\n\n"
	excludeBuildTag = "//go:build !ompgo\n\n"
)

// releasePathFor returns the permanent sibling path for a transformed
// source file, e.g. "main.go" -> "main_ompgo.go".
func releasePathFor(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + "_ompgo" + ext
}

// Release takes every shadow file a prior Run recorded in e.Overlay and
// writes its content permanently alongside the original as
// `<name>_ompgo.go`, tagged `//go:build ompgo`, and stamps
// the original with `//go:build !ompgo` so the two are mutually
// exclusive to the build. Calling Release again is idempotent: an
// original already carrying the exclude tag is left alone.
func (e *Engine) Release() error {
	for orig, shadow := range e.Overlay.Replace {
		content, err := os.ReadFile(shadow)
		if err != nil {
			return fmt.Errorf("ompgo: read shadow for release %s: %w", orig, err)
		}
		releasedPath := releasePathFor(orig)
		releasedContent := releaseHeader + releaseBuildTag + string(content)
		if err := os.WriteFile(releasedPath, []byte(releasedContent), 0o644); err != nil {
			return fmt.Errorf("ompgo: write released %s: %w", releasedPath, err)
		}
		if err := stampExcludeTag(orig); err != nil {
			return fmt.Errorf("ompgo: tag original %s: %w", orig, err)
		}
	}
	return nil
}

// Release runs a fresh Engine over root and immediately releases its
// output, the single-shot entry point `cmd/ompgo`'s `release`
// subcommand calls; Engine.Release is exposed separately for callers
// that already hold a ran Engine (e.g. a `generate` step immediately
// followed by a `release` step in the same process).
func Release(root string) error {
	e := NewEngine(root)
	if err := e.Run(); err != nil {
		return err
	}
	return e.Release()
}

// stampExcludeTag prepends excludeBuildTag to path unless it is
// already present.
func stampExcludeTag(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.HasPrefix(string(data), excludeBuildTag) {
		return nil
	}
	return os.WriteFile(path, append([]byte(excludeBuildTag), data...), 0o644)
}

// unstampExcludeTag removes a leading excludeBuildTag from path, if any.
func unstampExcludeTag(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(string(data), excludeBuildTag) {
		return nil
	}
	return os.WriteFile(path, data[len(excludeBuildTag):], 0o644)
}

// ReleaseClean removes every `_ompgo.go` released sibling under root
// and strips the `//go:build !ompgo` tag from the corresponding
// original, undoing Release.
func ReleaseClean(root string) error {
	var released []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			base := info.Name()
			if path != root && (strings.HasPrefix(base, ".") || base == "vendor" || base == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, "_ompgo.go") {
			released = append(released, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, path := range released {
		ext := filepath.Ext(path)
		orig := strings.TrimSuffix(path, "_ompgo"+ext) + ext
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("ompgo: remove released %s: %w", path, err)
		}
		if _, err := os.Stat(orig); err == nil {
			if err := unstampExcludeTag(orig); err != nil {
				return fmt.Errorf("ompgo: untag original %s: %w", orig, err)
			}
		}
	}
	return nil
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
