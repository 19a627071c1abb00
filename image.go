package bootimg

import "github.com/barlumicheal/DualBootPatcher/model"

// ImageType is the closed set of on-disk boot image variants this library
// understands.
type ImageType = model.ImageType

// The four on-disk variants, re-exported from model for library callers
// that never need to import it directly.
const (
	Android = model.Android
	Loki    = model.Loki
	Bump    = model.Bump
	SonyElf = model.SonyElf
)

// Image is the intermediate representation of a boot image, plus the
// dispatcher methods (Load, Create, ...) that pick a format codec. It
// embeds *model.Image so every getter/setter/reset defined there is
// promoted directly onto Image.
type Image struct {
	*model.Image
}

// New constructs an Image with every field at its documented default.
func New() *Image {
	return &Image{model.New()}
}

// Equal reports structural equality: shadows the promoted
// model.Image.Equal so callers can compare two Images directly instead of
// reaching through the embedded field.
func (img *Image) Equal(other *Image) bool {
	if other == nil {
		return false
	}
	return img.Image.Equal(other.Image)
}

// Clone returns a deep copy of img.
func (img *Image) Clone() *Image {
	return &Image{img.Image.Clone()}
}
