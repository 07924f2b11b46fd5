package assemble

import "testing"

func TestPreprocessInlinesImports(t *testing.T) {
	files := map[string]string{
		"main.asm": "#import \"lib.asm\"\nHLT\n",
		"lib.asm":  "NOP\n",
	}
	read := func(path string) (string, error) { return files[path], nil }

	got, err := Preprocess(files["main.asm"], read)
	if err != nil {
		t.Fatalf("Preprocess error: %v", err)
	}
	want := "NOP\nHLT\n"
	if got != want {
		t.Errorf("Preprocess = %q, want %q", got, want)
	}
}

func TestPreprocessDetectsCycles(t *testing.T) {
	files := map[string]string{
		"a.asm": "#import \"b.asm\"\n",
		"b.asm": "#import \"a.asm\"\n",
	}
	read := func(path string) (string, error) { return files[path], nil }

	if _, err := Preprocess(files["a.asm"], read); err == nil {
		t.Fatalf("expected a cyclic import error")
	}
}
