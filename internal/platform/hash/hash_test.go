package hash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBytesMatchesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.bin")
	data := []byte("%PDF-1.3 dossier")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sum, size, err := File(p)
	if err != nil {
		t.Fatalf("file hash: %v", err)
	}
	if size != int64(len(data)) {
		t.Fatalf("size=%d", size)
	}
	if sum != Bytes(data) {
		t.Fatalf("file=%s bytes=%s", sum, Bytes(data))
	}
}

func TestTextTrimsParts(t *testing.T) {
	if Text(" a ", "b") != Text("a", "b ") {
		t.Fatalf("expected whitespace-insensitive parts")
	}
	if Text("a", "b") == Text("ab") {
		t.Fatalf("separator must be significant")
	}
}
