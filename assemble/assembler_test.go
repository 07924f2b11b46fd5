package assemble

import "testing"

func TestAssembleSimpleOps(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []uint16
	}{
		{"nop", "NOP", []uint16{0x0000}},
		{"hlt", "HLT", []uint16{0x0080}},
		{"interrupt", "INT 3", []uint16{0x0400 | (3 << 3)}},
		{"break", "BRK 0", []uint16{0x0400 | 0x0080}},
		{"not", "NOT A", []uint16{0x6400}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assemble(tt.src)
			if err != nil {
				t.Fatalf("Assemble(%q) error: %v", tt.src, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Assemble(%q) = %#v, want %#v", tt.src, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Assemble(%q)[%d] = 0x%04X, want 0x%04X", tt.src, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAssembleStackOp(t *testing.T) {
	got, err := Assemble("PUT [A,B,F]")
	if err != nil {
		t.Fatalf("Assemble error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 word, got %#v", got)
	}
	want := uint16(0x1000 | 0x0001 | 0x0002 | 0x0100)
	if got[0] != want {
		t.Errorf("PUT [A,B,F] = 0x%04X, want 0x%04X", got[0], want)
	}
}

func TestLayoutShrinksSmallConstantToShortForm(t *testing.T) {
	// The short CMP form only needs one word when its constant
	// argument fits a signed byte; the layout pass must discover
	// that without ever overcounting the program's final length.
	src := "CMP A,10\n"
	got, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected CMP A,10 to assemble short (1 word), got %#v", got)
	}
}

func TestLayoutKeepsLongFormForLargeConstant(t *testing.T) {
	src := "CMP A,1000\n"
	got, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected CMP A,1000 to assemble long (2 words), got %#v", got)
	}
	if got[1] != 1000 {
		t.Errorf("immediate word = %d, want 1000", got[1])
	}
}

func TestLayoutResolvesForwardLabelToShortForm(t *testing.T) {
	// "JMP label" at address 0 referencing a label a few words
	// ahead must converge to the short one-word jump form once the
	// label's (small) address is known, not stay pessimistically
	// long just because the label appeared after the jump in source.
	src := "JMP label\nNOP\nNOP\nlabel: HLT\n"
	got, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 words total, got %#v", got)
	}
	if got[3] != 0x0080 {
		t.Errorf("label: HLT encoded as 0x%04X, want 0x0080", got[3])
	}
}

func TestAssembleUnknownLabelErrors(t *testing.T) {
	if _, err := Assemble("JMP nowhere\n"); err == nil {
		t.Fatalf("expected an unknown-label error")
	}
}

// TestConditionBitsMatchDecoder pins conditionEncode's bit values
// directly: an unconditional jump must use code 0 (code 1 is an
// undefined condition on the decode side, so encoding "always" as
// anything else would make every plain JMP/JML fail to decode), and
// ">" (carry-and-not-zero) and "V."/"Lt" (overflow) must not have
// their codes swapped. "JMP 5" fits the byte-immediate short form, so
// it encodes in the 0xE000 "JMl b" row, not the 0x5000 argument-mode
// row that "JMl word"/"(word)" use.
func TestConditionBitsMatchDecoder(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want uint16
	}{
		{"unconditional", "JMP 5", 0xE000 | (5 << 3) | 0},
		{"zero", "Z.JMP 5", 0xE000 | (5 << 3) | 2},
		{"carry-not-zero", ">JMP 5", 0xE000 | (5 << 3) | 5},
		{"overflow", "V.JMP 5", 0xE000 | (5 << 3) | 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assemble(tt.src)
			if err != nil {
				t.Fatalf("Assemble(%q) error: %v", tt.src, err)
			}
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("Assemble(%q) = %#v, want [0x%04X]", tt.src, got, tt.want)
			}
		})
	}
}

func TestAssembleWordDirective(t *testing.T) {
	got, err := Assemble("#word 1,2,3\n")
	if err != nil {
		t.Fatalf("Assemble error: %v", err)
	}
	want := []uint16{1, 2, 3}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("word[%d] = %d, want %d", i, got[i], w)
		}
	}
}

func TestAssembleStarDirectiveLayout(t *testing.T) {
	got, err := Assemble("#define * = 4\nHLT\n")
	if err != nil {
		t.Fatalf("Assemble error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 words (4 zero-filled then HLT), got %#v", got)
	}
	if got[4] != 0x0080 {
		t.Errorf("got[4] = 0x%04X, want 0x0080", got[4])
	}
}
