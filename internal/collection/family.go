package collection

import (
	"fmt"
	"strings"
)

// Family narrows the LoRA list to one top-level folder of the collection.
type Family int

const (
	Universal Family = iota
	FLUX
	SDXL
	FLUX2
	Qwen
	Zimage
)

var Families = []Family{Universal, FLUX, SDXL, FLUX2, Qwen, Zimage}

var familyInfo = map[Family]struct {
	prefix  string
	display string
}{
	Universal: {"", "Universal"},
	FLUX:      {"FLUX", "FLUX"},
	SDXL:      {"SDXL", "SDXL"},
	FLUX2:     {"FLUX2", "FLUX 2"},
	Qwen:      {"Qwen", "Qwen"},
	Zimage:    {"Zimage", "Z-Image"},
}

// Prefix is the folder name the family's LoRAs live under. Universal has
// none.
func (f Family) Prefix() string {
	return familyInfo[f].prefix
}

func (f Family) DisplayName() string {
	if info, ok := familyInfo[f]; ok {
		return info.display
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

func (f Family) String() string {
	return f.DisplayName()
}

// Contains reports whether identifier sits under the family's folder.
func (f Family) Contains(identifier string) bool {
	prefix := f.Prefix()
	if prefix == "" {
		return true
	}
	id := strings.ToLower(strings.ReplaceAll(identifier, "\\", "/"))
	return strings.HasPrefix(id, strings.ToLower(prefix)+"/")
}

// ParseFamily accepts a prefix or display name, case-insensitively. The
// empty string means Universal.
func ParseFamily(s string) (Family, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Universal, nil
	}
	for _, f := range Families {
		info := familyInfo[f]
		if strings.EqualFold(s, info.prefix) || strings.EqualFold(s, info.display) {
			return f, nil
		}
	}
	switch strings.ToLower(s) {
	case "all", "universal":
		return Universal, nil
	case "flux-2", "flux 2", "flux_2":
		return FLUX2, nil
	case "z-image", "zimage", "z_image":
		return Zimage, nil
	}
	return Universal, fmt.Errorf("unknown model family %q", s)
}
