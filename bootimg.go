// Package bootimg reads, manipulates, and writes Android-style boot
// images across all four supported on-disk variants (Android, Loki,
// Bump, Sony ELF32), dispatching to the matching codec by content.
package bootimg

import (
	"fmt"
	"os"

	"github.com/barlumicheal/DualBootPatcher/android"
	"github.com/barlumicheal/DualBootPatcher/bump"
	"github.com/barlumicheal/DualBootPatcher/loki"
	"github.com/barlumicheal/DualBootPatcher/model"
	"github.com/barlumicheal/DualBootPatcher/sonyelf"
	"github.com/sirupsen/logrus"
)

// formatCodec is the capability set every on-disk variant implements.
type formatCodec interface {
	IsValid(data []byte) bool
	Load(img *model.Image, data []byte) error
	Create(img *model.Image) ([]byte, error)
}

// codecEntry pairs a variant with its codec. Order matters: Loki and Bump
// are Android supersets and must be probed before plain Android.
type codecEntry struct {
	typ   model.ImageType
	codec formatCodec
}

var codecs = []codecEntry{
	{model.Loki, loki.Codec{}},
	{model.Bump, bump.Codec{}},
	{model.Android, android.Codec{}},
	{model.SonyElf, sonyelf.Codec{}},
}

func codecFor(t model.ImageType) (formatCodec, bool) {
	for _, c := range codecs {
		if c.typ == t {
			return c.codec, true
		}
	}
	return nil, false
}

// Load detects the on-disk variant and populates img. It parses into a
// fresh scratch record and swaps it in only on success, so a failed load
// never leaves img half-populated.
func (img *Image) Load(data []byte) error {
	for _, c := range codecs {
		logrus.WithField("format", c.typ).Debug("bootimg: probing codec")
		if !c.codec.IsValid(data) {
			continue
		}

		scratch := model.New()
		if err := c.codec.Load(scratch, data); err != nil {
			return newError(ParseError, fmt.Sprintf("loading %s image", c.typ), err)
		}
		scratch.SetSourceType(c.typ)

		img.Image = scratch
		return nil
	}
	return newError(ParseError, "no codec recognized the buffer", nil)
}

// LoadFile reads path and loads it.
func (img *Image) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newIOError(IoOpen, path, err)
	}
	return img.Load(data)
}

// Create serializes img according to its current target type.
func (img *Image) Create() ([]byte, error) {
	c, ok := codecFor(img.Type())
	if !ok {
		return nil, newError(UnknownTargetType, fmt.Sprintf("target type %s", img.Type()), nil)
	}

	out, err := c.Create(img.Image)
	if err != nil {
		return nil, newError(ParseError, fmt.Sprintf("creating %s image", img.Type()), err)
	}
	return out, nil
}

// CreateFile serializes img and writes the result to path.
func (img *Image) CreateFile(path string) error {
	data, err := img.Create()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return newIOError(IoWrite, path, err)
	}
	return nil
}
