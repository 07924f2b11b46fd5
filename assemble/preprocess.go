package assemble

import "strings"

// Reader loads the text of an imported file by path, relative to
// whatever base the caller's implementation chooses.
type Reader func(path string) (string, error)

// Preprocess inlines every `#import "path"` line's file contents in
// place, recursively, before parsing ever sees them. Grounded on
// preprocessor.rs's recursive file-inlining approach, but keyed to
// the `#import "path"` token this assembler's grammar actually
// recognizes rather than the reference's bare `@file` convention.
func Preprocess(source string, read Reader) (string, error) {
	return preprocess(source, read, map[string]bool{})
}

func preprocess(source string, read Reader, active map[string]bool) (string, error) {
	var out strings.Builder
	for _, line := range splitLines(source) {
		path, ok := importPath(line)
		if !ok {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}
		if active[path] {
			return "", &ImportError{Path: path, Err: errCyclicImport}
		}
		text, err := read(path)
		if err != nil {
			return "", &ImportError{Path: path, Err: err}
		}
		active[path] = true
		expanded, err := preprocess(text, read, active)
		delete(active, path)
		if err != nil {
			return "", err
		}
		out.WriteString(expanded)
		if len(expanded) > 0 && expanded[len(expanded)-1] != '\n' {
			out.WriteByte('\n')
		}
	}
	return out.String(), nil
}

// importPath reports whether line is (ignoring surrounding space) a
// bare `#import "path"` directive, and if so its path.
func importPath(line string) (string, bool) {
	s := newScanner(line)
	s.skipSpace()
	if !s.matchCI("#import") {
		return "", false
	}
	if !s.sp1() {
		return "", false
	}
	if !s.matchByte('"') {
		return "", false
	}
	start := s.pos
	for !s.eof() && s.peek() != '"' {
		s.pos++
	}
	if s.eof() {
		return "", false
	}
	path := s.text[start:s.pos]
	s.pos++
	s.skipSpace()
	if !s.eof() && !strings.HasPrefix(s.rest(), "//") {
		return "", false
	}
	return path, true
}

type importCycleError struct{}

func (importCycleError) Error() string { return "cyclic #import" }

var errCyclicImport = importCycleError{}
