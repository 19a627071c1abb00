package ramdisk

import (
	"bytes"
	"testing"
)

func TestDetectGzip(t *testing.T) {
	data, err := Compress([]byte("hello ramdisk"), Gzip)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if got := Detect(data); got != Gzip {
		t.Errorf("Detect() = %v, want Gzip", got)
	}
}

func TestCompressExtractRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("boot image ramdisk contents "), 50)

	compressed, err := Compress(original, Gzip)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	extracted, err := Extract(compressed, Gzip)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !bytes.Equal(extracted, original) {
		t.Error("round trip through Compress/Extract changed the contents")
	}
}

func TestDetectUnknown(t *testing.T) {
	if got := Detect([]byte{0x00, 0x00}); got != Unknown {
		t.Errorf("Detect() = %v, want Unknown", got)
	}
}

func TestReplacerRejectsLengthMismatch(t *testing.T) {
	_, err := NewReplacer(false, [2]string{"short", "a much longer replacement"})
	if err == nil {
		t.Fatal("NewReplacer should reject mismatched replacement lengths")
	}
}

func TestReplacerAppliesAndReverses(t *testing.T) {
	data := []byte("preserve /media across restore")

	r, err := NewReplacer(false, [2]string{"/media", "/.twrp"})
	if err != nil {
		t.Fatalf("NewReplacer() error = %v", err)
	}
	patched := r.Replace(data)
	if !bytes.Contains(patched, []byte("/.twrp")) {
		t.Error("forward replacement did not apply")
	}

	rev, err := NewReplacer(true, [2]string{"/media", "/.twrp"})
	if err != nil {
		t.Fatalf("NewReplacer(reverse) error = %v", err)
	}
	restored := rev.Replace(patched)
	if !bytes.Contains(restored, []byte("/media")) {
		t.Error("reverse replacement did not restore the original")
	}
}

func TestPatchTwrpStorage(t *testing.T) {
	data := []byte("\x00/media\x00 and Data (excl. storage) text")
	patched, err := PatchTwrpStorage(data, false)
	if err != nil {
		t.Fatalf("PatchTwrpStorage() error = %v", err)
	}
	if bytes.Contains(patched, []byte("/media\x00")) {
		t.Error("/media should have been rewritten")
	}
	if !bytes.Contains(patched, []byte("/.twrp\x00")) {
		t.Error("expected /.twrp after patching")
	}
}
