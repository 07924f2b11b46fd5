package assemble

import "os"

// Assemble parses and assembles already-preprocessed source text into
// a little-endian stream of 16-bit words, ready to load into ROM/RAM.
func Assemble(source string) ([]uint16, error) {
	symbols, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return assembleSymbols(symbols)
}

// AssembleFile preprocesses (inlining #import lines via read), then
// assembles, the named file's contents.
func AssembleFile(path string, read Reader) ([]uint16, error) {
	text, err := read(path)
	if err != nil {
		return nil, &ImportError{Path: path, Err: err}
	}
	expanded, err := Preprocess(text, read)
	if err != nil {
		return nil, err
	}
	return Assemble(expanded)
}

// OSReader is a Reader backed by the local filesystem, for CLI use.
func OSReader(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bytes flattens a word stream into little-endian bytes, matching
// from_string_bytes/from_file_bytes.
func Bytes(words []uint16) []byte {
	out := make([]byte, 0, len(words)*2)
	for _, w := range words {
		out = append(out, byte(w), byte(w>>8))
	}
	return out
}
