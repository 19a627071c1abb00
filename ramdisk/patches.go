package ramdisk

// TwrpStoragePatch rewrites a TWRP ramdisk so /data/media backups land
// under /.twrp instead, preserving /data/media across a restore. Ported
// from the Dual Boot Patcher TWRP injector's fixed-width string table.
var TwrpStoragePatch = [][2]string{
	{"\x00/media\x00", "\x00/.twrp\x00"},
	{"Data (excl. storage)", "Data (incl. storage)"},
	{
		"Backups of {1} do not include any files in internal storage such as pictures or downloads.",
		"Backups of {1} include files in internal storage such as pictures and downloads.          ",
	},
}

// PatchTwrpStorage applies TwrpStoragePatch to a ramdisk in the given
// direction; reverse=true undoes the patch.
func PatchTwrpStorage(data []byte, reverse bool) ([]byte, error) {
	r, err := NewReplacer(reverse, TwrpStoragePatch...)
	if err != nil {
		return nil, err
	}
	return r.Replace(data), nil
}
