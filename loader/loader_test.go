package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"00100000000000010000000000000101",
		"",
		"  00000000001000100001100000100000  ",
	}, "\n")
	words, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("got %d words, want 3", len(words))
	}
	if words[0] != 0x20010005 {
		t.Errorf("words[0] = %#x, want 0x20010005", words[0])
	}
	if words[1] != 0 {
		t.Errorf("empty line should load as nop, got %#x", words[1])
	}
	if words[2] != 0x00221820 {
		t.Errorf("words[2] = %#x, want 0x00221820", words[2])
	}
}

func TestParseRejectsMalformedLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"short line", "0101"},
		{"long line", strings.Repeat("0", 33)},
		{"bad character", strings.Repeat("0", 31) + "2"},
	}
	for _, tt := range tests {
		_, err := Parse(strings.NewReader(tt.input))
		if err == nil {
			t.Errorf("%s: Parse should fail", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), "line 1") {
			t.Errorf("%s: error %q should name the offending line", tt.name, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.txt")
	content := "00100000000000010000000000000101\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	words, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(words) != 1 || words[0] != 0x20010005 {
		t.Errorf("LoadFile = %#x, want one word 0x20010005", words)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("LoadFile should fail for a missing file")
	}
}
