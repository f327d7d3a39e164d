// Package pymodule maps checker file paths to dotted Python module names and
// reduces module sets to minimal covering forms for config generation.
package pymodule

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// knownExtensions are the Python file extensions stripped when deriving a
// module name from a file path.
var knownExtensions = []string{".py", ".pyi", ".pyx", ".pyc", ".pyo"}

// Validate checks that a dotted module name contains only identifier
// characters and periods, and neither starts nor ends with a period.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("empty module name")
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return fmt.Errorf("invalid module name %q: cannot start or end with a period", name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return fmt.Errorf("invalid module name %q: unexpected character %q", name, r)
		}
	}
	return nil
}

// FromPath derives the dotted module name for a source file path as reported
// by the checker. Errors in an __init__.py belong to the package itself, not
// to a submodule named "__init__".
func FromPath(path string) (string, error) {
	stem := filepath.ToSlash(filepath.Clean(path))
	for _, ext := range knownExtensions {
		if strings.HasSuffix(stem, ext) {
			stem = strings.TrimSuffix(stem, ext)
			break
		}
	}

	if strings.Contains(stem, ".") {
		return "", fmt.Errorf("module name heuristic failed: unexpected '.' in path %q", path)
	}

	stem = strings.TrimSuffix(stem, "__init__")
	name := strings.Trim(strings.ReplaceAll(stem, "/", "."), ".")
	if err := Validate(name); err != nil {
		return "", fmt.Errorf("path %q: %w", path, err)
	}
	return name, nil
}

// MinCover returns the minimum set of modules such that every input module is
// either present or covered by an ancestor package in the result. The result
// is sorted.
func MinCover(names []string) []string {
	// "foo" always sorts before "foo.<anything>", so one sorted pass suffices.
	sorted := make([]string, 0, len(names))
	sorted = append(sorted, names...)
	sort.Strings(sorted)

	prefixes := make(map[string]bool)
	var result []string
	for _, name := range sorted {
		parts := strings.Split(name, ".")

		covered := false
		for i := 1; i < len(parts); i++ {
			if prefixes[strings.Join(parts[:i], ".")] {
				covered = true
				break
			}
		}
		if !covered && !prefixes[name] {
			prefixes[name] = true
			result = append(result, name)
		}
	}
	return result
}

// ChildLister enumerates the modules contained in a package.
type ChildLister interface {
	Children(pkg string) ([]string, error)
}

// CollapseSiblings replaces complete sibling groups with their parent package:
// if every module inside package X appears in the set, the set keeps X instead
// of each child. Runs to a fixed point; the result is sorted.
//
// This slightly widens the covered surface (the parent also covers code in its
// __init__.py), but keeps generated configs from growing enormous.
func CollapseSiblings(names []string, lister ChildLister) ([]string, error) {
	current := make(map[string]bool, len(names))
	for _, n := range names {
		current[n] = true
	}

	for {
		next, changed, err := collapseOnce(current, lister)
		if err != nil {
			return nil, err
		}
		if !changed {
			result := make([]string, 0, len(next))
			for n := range next {
				result = append(result, n)
			}
			sort.Strings(result)
			return result, nil
		}
		current = next
	}
}

func collapseOnce(current map[string]bool, lister ChildLister) (map[string]bool, bool, error) {
	parentOf := make(map[string]string)
	next := make(map[string]bool)

	for name := range current {
		idx := strings.LastIndex(name, ".")
		if idx < 0 {
			// Top-level module, nothing to collapse into.
			next[name] = true
			continue
		}
		parentOf[name] = name[:idx]
	}

	// A parent replaces its children only when the set holds every module the
	// parent contains.
	unseen := make(map[string]map[string]bool)
	for _, parent := range parentOf {
		if _, done := unseen[parent]; done {
			continue
		}
		children, err := lister.Children(parent)
		if err != nil {
			return nil, false, fmt.Errorf("listing children of %q: %w", parent, err)
		}
		set := make(map[string]bool, len(children))
		for _, child := range children {
			set[child] = true
		}
		unseen[parent] = set
	}
	for name, parent := range parentOf {
		delete(unseen[parent], name)
	}

	changed := false
	for parent, remaining := range unseen {
		if len(remaining) == 0 {
			next[parent] = true
			changed = true
		}
	}
	for name, parent := range parentOf {
		if len(unseen[parent]) > 0 {
			next[name] = true
		}
	}

	return next, changed, nil
}

// TreeIndex lists package contents by scanning a source tree on disk.
type TreeIndex struct {
	// Root is the directory the checker's reported paths are relative to.
	Root string
}

// Children returns the dotted names of the modules directly contained in pkg.
// A directory is a package only if it holds an __init__ file. Direct children
// are enough for CollapseSiblings: collapsed subpackages participate in the
// next fixed-point round as ordinary members of their own parent.
func (ix *TreeIndex) Children(pkg string) ([]string, error) {
	dir := filepath.Join(ix.Root, filepath.FromSlash(strings.ReplaceAll(pkg, ".", "/")))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var children []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if isPackageDir(filepath.Join(dir, name)) {
				children = append(children, pkg+"."+name)
			}
			continue
		}

		stem, ok := moduleStem(name)
		if !ok || stem == "__init__" {
			continue
		}
		children = append(children, pkg+"."+stem)
	}

	sort.Strings(children)
	return children, nil
}

func isPackageDir(dir string) bool {
	for _, init := range []string{"__init__.py", "__init__.pyi"} {
		if _, err := os.Stat(filepath.Join(dir, init)); err == nil {
			return true
		}
	}
	return false
}

func moduleStem(filename string) (string, bool) {
	for _, ext := range []string{".py", ".pyi"} {
		if strings.HasSuffix(filename, ext) {
			return strings.TrimSuffix(filename, ext), true
		}
	}
	return "", false
}
