// SPDX-License-Identifier: EPL-2.0

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ik5/samplekit/audio"
)

const (
	// DefaultStem replaces names that sanitize to nothing.
	DefaultStem = "project"
	// MaxStemLen is the longest stem ProjectFile will allocate.
	MaxStemLen = 120

	archiveExt = ".zip"
)

// Workspace subdirectories.
const (
	ImportsDir    = "imports/audio"
	RecordingsDir = "recordings"
	ProjectsDir   = "projects"
	CacheDir      = "cache"
)

var (
	unsafeChars     = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	underscoreRuns  = regexp.MustCompile(`_{2,}`)
	trailingArchive = regexp.MustCompile(`(?i)\.zip$`)
)

// Workspace is the sandbox every allocated path must resolve into.
type Workspace struct {
	Root string
}

// Location is an allocated archive path.
type Location struct {
	Path   string
	Stem   string
	Suffix int // 0 means no -N suffix
}

// NewWorkspace resolves root to an absolute, symlink-free path and creates it.
func NewWorkspace(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %q: %w", abs, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return &Workspace{Root: abs}, nil
}

// Dir returns the workspace subdirectory rel, creating it on demand.
func (w *Workspace) Dir(rel string) (string, error) {
	dir := filepath.Join(w.Root, filepath.FromSlash(rel))
	if !w.Contains(dir) {
		return "", &audio.PathSafetyError{Path: dir, Reason: "resolves outside the workspace"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return dir, nil
}

// Contains reports whether path resolves inside the workspace root.
func (w *Workspace) Contains(path string) bool {
	rel, err := filepath.Rel(w.Root, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// SanitizeStem turns an untrusted name into a safe file stem: directory
// components are dropped, anything outside [A-Za-z0-9._-] becomes '_', ".."
// is collapsed, underscore runs are squeezed and leading/trailing '_' and '.'
// are trimmed. A name with nothing left becomes DefaultStem.
func SanitizeStem(raw string) string {
	name := raw
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	name = unsafeChars.ReplaceAllString(name, "_")
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", "_")
	}
	name = underscoreRuns.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_.")

	if name == "" {
		return DefaultStem
	}
	return name
}

func stripArchiveExt(name string) string {
	for trailingArchive.MatchString(name) {
		name = trailingArchive.ReplaceAllString(name, "")
	}
	return name
}

// ProjectFile allocates a fresh archive path under projects/ for base.
//
// Existing siblings named <stem>.zip or <stem>-N.zip are counted and the
// search starts at that count, so a gap left by a deleted archive is never
// reused: with myproj.zip, myproj-1.zip and myproj-3.zip present the next
// allocation is myproj-4.zip.
func (w *Workspace) ProjectFile(base string) (Location, error) {
	dir, err := w.Dir(ProjectsDir)
	if err != nil {
		return Location{}, err
	}

	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	stem := stripArchiveExt(SanitizeStem(stripArchiveExt(base)))
	if stem == "" {
		stem = DefaultStem
	}

	switch {
	case strings.HasPrefix(stem, "."):
		return Location{}, &audio.PathSafetyError{Path: stem, Reason: "hidden file name"}
	case len(stem) > MaxStemLen:
		return Location{}, &audio.PathSafetyError{
			Path:   stem,
			Reason: fmt.Sprintf("stem is %d characters, limit is %d", len(stem), MaxStemLen),
		}
	}

	used, err := usedSuffixes(dir, stem)
	if err != nil {
		return Location{}, err
	}

	n := len(used)
	for used[n] {
		n++
	}

	name := stem + archiveExt
	if n > 0 {
		name = stem + "-" + strconv.Itoa(n) + archiveExt
	}
	path := filepath.Join(dir, name)

	if !w.Contains(path) {
		return Location{}, &audio.PathSafetyError{Path: path, Reason: "resolves outside the workspace"}
	}

	return Location{Path: path, Stem: stem, Suffix: n}, nil
}

// usedSuffixes scans dir for <stem>(-N)?.zip. The bare name counts as 0.
func usedSuffixes(dir, stem string) (map[int]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	re := regexp.MustCompile(`^` + regexp.QuoteMeta(stem) + `(?:-(\d+))?\.zip$`)
	used := make(map[int]bool)
	for _, e := range entries {
		m := re.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if m[1] == "" {
			used[0] = true
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			used[n] = true
		}
	}
	return used, nil
}

// UniqueFile returns a path in dir for name that does not exist yet,
// appending " (2)", " (3)", ... before the extension on collision. Only the
// base of name is used.
func (w *Workspace) UniqueFile(dir, name string) (string, error) {
	name = filepath.Base(filepath.FromSlash(name))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", &audio.PathSafetyError{Path: name, Reason: "not a file name"}
	}

	candidate := filepath.Join(dir, name)
	if !w.Contains(candidate) {
		return "", &audio.PathSafetyError{Path: candidate, Reason: "resolves outside the workspace"}
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}
