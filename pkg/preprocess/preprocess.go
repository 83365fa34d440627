// Package preprocess resolves `@use "path"` directives into a single
// logical source buffer before the lexer ever runs. It is a
// textual inclusion pass, not a linker.
package preprocess

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxSourceBytes is the size cap on any single source file read during
	// preprocessing.
	MaxSourceBytes = 10 * 1024 * 1024
	// MaxPreprocessedBytes caps the accumulated spliced buffer.
	MaxPreprocessedBytes = 50 * 1024 * 1024
	// MaxModules caps the number of distinct modules a single compilation
	// may pull in through @use, counting the entry file.
	MaxModules = 64
)

// StdlibRoot locates the directory tree that `std/…` imports resolve
// against. It tries, in order: a "std" directory under the current working
// directory, a "std" directory next to the running executable, and a "std"
// directory one level above the executable — mirroring a typical installed
// layout of `<prefix>/bin/nullc` next to `<prefix>/std`. Falls back to
// "./std" if every candidate is absent, so callers get a stable (if
// non-existent) path rather than an error at this stage.
func StdlibRoot() string {
	candidates := []string{"std"}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "std"),
			filepath.Join(dir, "..", "std"),
		)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "std"
}

// state threads the bookkeeping shared across the whole preprocessing run:
// the module-identity set for cycle detection and the running byte total
// against MaxPreprocessedBytes.
type state struct {
	stdRoot   string
	visited   map[string]bool // resolved absolute path -> already spliced
	total     int             // bytes emitted so far
	modules   int             // distinct modules spliced so far (entry file counts as 1)
}

// Preprocess resolves every @use directive reachable from src, whose own
// location is entryPath (used to resolve "./…" imports and to seed the
// cycle-detection set). Returns the fully spliced buffer ready for the
// lexer.
func Preprocess(src string, entryPath string) (string, error) {
	absEntry, err := filepath.Abs(entryPath)
	if err != nil {
		absEntry = entryPath
	}
	st := &state{
		stdRoot: StdlibRoot(),
		visited: map[string]bool{absEntry: true},
		modules: 1,
	}
	if len(src) > MaxSourceBytes {
		return "", fmt.Errorf("source file %s exceeds maximum size of %d bytes", entryPath, MaxSourceBytes)
	}
	baseDir := filepath.Dir(absEntry)
	out, err := st.run(src, baseDir)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (st *state) resolve(path string, baseDir string) string {
	switch {
	case strings.HasPrefix(path, "std/"):
		return filepath.Join(st.stdRoot, strings.TrimPrefix(path, "std/"))
	case strings.HasPrefix(path, "./"):
		return filepath.Join(baseDir, strings.TrimPrefix(path, "./"))
	default:
		return path
	}
}

// run scans src linearly outside of string literals, splicing each @use
// directive it finds in place. Non-directive text, including newlines, is
// copied verbatim so diagnostic line numbers downstream stay meaningful.
func (st *state) run(src string, baseDir string) (string, error) {
	var out strings.Builder
	i := 0
	n := len(src)
	for i < n {
		if strings.HasPrefix(src[i:], "@use") && (i+4 >= n || !isIdentByte(src[i+4])) {
			directiveStart := i
			j := i + 4
			for j < n && (src[j] == ' ' || src[j] == '\t') {
				j++
			}
			if j >= n || src[j] != '"' {
				return "", fmt.Errorf("malformed @use directive at offset %d: expected a quoted path", directiveStart)
			}
			j++
			pathStart := j
			for j < n && src[j] != '"' {
				if src[j] == '\\' && j+1 < n {
					j++
				}
				j++
			}
			if j >= n {
				return "", fmt.Errorf("malformed @use directive at offset %d: unterminated path literal", directiveStart)
			}
			path := src[pathStart:j]
			j++ // closing quote

			// Optional "as alias" clause: consume it but it carries no
			// preprocessing weight; only the parser cares about the alias
			// when a @use directive survives verbatim into the AST.
			k := j
			for k < n && (src[k] == ' ' || src[k] == '\t') {
				k++
			}
			if strings.HasPrefix(src[k:], "as") && (k+2 >= n || !isIdentByte(src[k+2])) {
				k += 2
				for k < n && (src[k] == ' ' || src[k] == '\t') {
					k++
				}
				for k < n && isIdentByte(src[k]) {
					k++
				}
			}
			i = k

			spliced, err := st.splice(path, baseDir)
			if err != nil {
				return "", err
			}
			out.WriteString(spliced)
			st.total += len(spliced)
			if st.total > MaxPreprocessedBytes {
				return "", fmt.Errorf("preprocessed buffer exceeds maximum size of %d bytes", MaxPreprocessedBytes)
			}
			continue
		}

		if src[i] == '"' {
			start := i
			i++
			for i < n && src[i] != '"' {
				if src[i] == '\\' && i+1 < n {
					i++
				}
				i++
			}
			if i < n {
				i++
			}
			out.WriteString(src[start:i])
			continue
		}

		out.WriteByte(src[i])
		i++
	}
	return out.String(), nil
}

// splice resolves, reads, and recursively preprocesses a single @use
// target, returning the text to substitute for the directive.
func (st *state) splice(path string, baseDir string) (string, error) {
	resolved := st.resolve(path, baseDir)
	abs, err := filepath.Abs(resolved)
	if err != nil {
		abs = resolved
	}

	// Diamond and cyclic imports are skipped silently, not errors — the
	// module-identity set guarantees termination regardless of the shape
	// of the @use graph.
	if st.visited[abs] {
		return "", nil
	}
	st.visited[abs] = true
	st.modules++
	if st.modules > MaxModules {
		return "", fmt.Errorf("import of %q exceeds maximum module count of %d", path, MaxModules)
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to resolve @use %q: %w", path, err)
	}
	if len(content) > MaxSourceBytes {
		return "", fmt.Errorf("module %q exceeds maximum size of %d bytes", path, MaxSourceBytes)
	}

	return st.run(string(content), filepath.Dir(resolved))
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
