package model

import "testing"

func TestNewDefaults(t *testing.T) {
	img := New()

	if got, want := img.KernelAddress(), uint32(0x10008000); got != want {
		t.Errorf("KernelAddress() = 0x%x, want 0x%x", got, want)
	}
	if got, want := img.RamdiskAddress(), uint32(0x11000000); got != want {
		t.Errorf("RamdiskAddress() = 0x%x, want 0x%x", got, want)
	}
	if got, want := img.SecondBootloaderAddress(), uint32(0x10f00000); got != want {
		t.Errorf("SecondBootloaderAddress() = 0x%x, want 0x%x", got, want)
	}
	if got, want := img.KernelTagsAddress(), uint32(0x10000100); got != want {
		t.Errorf("KernelTagsAddress() = 0x%x, want 0x%x", got, want)
	}
	if got, want := img.PageSize(), uint32(2048); got != want {
		t.Errorf("PageSize() = %d, want %d", got, want)
	}
	if img.BoardName() != "" || img.Cmdline() != "" {
		t.Error("board/cmdline should default to empty")
	}
	if img.IplAddress() != 0 || img.RpmAddress() != 0 || img.AppsblAddress() != 0 {
		t.Error("sony addresses should default to zero")
	}
}

func TestSetPayloadUpdatesSize(t *testing.T) {
	img := New()
	img.SetKernelImage([]byte{0xAA, 0xAA, 0xAA})
	if got, want := img.KernelSize(), uint32(3); got != want {
		t.Errorf("KernelSize() = %d, want %d", got, want)
	}

	img.SetRamdiskImage(make([]byte, 32))
	if got, want := img.RamdiskSize(), uint32(32); got != want {
		t.Errorf("RamdiskSize() = %d, want %d", got, want)
	}
}

func TestDigestIsPureFunctionOfPayloads(t *testing.T) {
	kernel := []byte{1, 2, 3}
	ramdisk := []byte{4, 5}
	second := []byte{6}

	d1 := Digest(kernel, ramdisk, second, nil)
	d2 := Digest(kernel, ramdisk, second, nil)
	if d1 != d2 {
		t.Error("digest is not deterministic")
	}

	a := New()
	a.SetKernelImage(kernel)
	a.SetRamdiskImage(ramdisk)
	a.SetSecondBootloaderImage(second)
	a.SetBoardName("board-a")

	b := New()
	b.SetKernelImage(kernel)
	b.SetRamdiskImage(ramdisk)
	b.SetSecondBootloaderImage(second)
	b.SetBoardName("board-b")

	if a.Digest20() != b.Digest20() {
		t.Error("digest changed when an unrelated field changed")
	}
}

func TestEnsureDigestOnlyRecomputesWhenDirty(t *testing.T) {
	img := New()
	img.SetKernelImage([]byte{1, 2, 3})
	img.EnsureDigest()
	want := img.HdrID()

	// A loaded id is trusted verbatim even if it disagrees with the
	// payload digest, until a payload setter invalidates it.
	img.SetHdrID([8]uint32{0xDEADBEEF, 0, 0, 0, 0, 0, 0, 0})
	img.EnsureDigest()
	if img.HdrID() == want {
		t.Fatal("SetHdrID should have installed the new id verbatim")
	}
	if img.HdrID()[0] != 0xDEADBEEF {
		t.Error("stored id should be kept verbatim until invalidated")
	}

	img.SetRamdiskImage([]byte{9})
	img.EnsureDigest()
	if img.HdrID()[0] == 0xDEADBEEF {
		t.Error("a payload setter should force digest recomputation")
	}
}

func TestEqualExcludesEntrypointAndType(t *testing.T) {
	a := New()
	a.SetKernelImage([]byte{1, 2, 3})
	a.SetEntrypointAddress(0x1111)
	a.SetSourceType(Android)
	a.EnsureDigest()

	b := New()
	b.SetKernelImage([]byte{1, 2, 3})
	b.SetEntrypointAddress(0x2222)
	b.SetSourceType(Bump)
	b.SetType(Loki)
	b.EnsureDigest()

	if !a.Equal(b) {
		t.Error("Equal should ignore entrypoint and source/target type")
	}

	c := New()
	c.SetKernelImage([]byte{1, 2, 3, 4})
	c.EnsureDigest()
	if a.Equal(c) {
		t.Error("Equal should notice differing payloads")
	}
}

func TestModelKeepsBoardNameUntruncated(t *testing.T) {
	img := New()
	long := "0123456789abcdefghij" // 20 bytes, over the 16-byte field
	img.SetBoardName(long)
	if got := img.BoardName(); got != long {
		t.Errorf("BoardName() getter should return the untruncated value, got %q", got)
	}
	// Truncation to the wire width is the serializing codec's job;
	// the model stores the field verbatim until Create.
}
