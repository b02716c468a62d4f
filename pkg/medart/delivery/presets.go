package delivery

import (
	"sort"

	"github.com/tendant/medical-artists/pkg/medart"
)

// Preset names
const (
	PresetThumbnail = "thumbnail"
	PresetMedium    = "medium"
	PresetFull      = "full"
)

var presets = map[string]medart.TransformSpec{
	PresetThumbnail: {Width: 320, Height: 320, Quality: 80, Format: "webp"},
	PresetMedium:    {Width: 1024, Height: 1024, Quality: 85, Format: "webp"},
	PresetFull:      {Quality: 90},
}

// PresetSpec returns the transform registered under name
func PresetSpec(name string) (medart.TransformSpec, bool) {
	spec, ok := presets[name]
	return spec, ok
}

// PresetNames returns the registered preset names in sorted order
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetURLs builds one URL per preset for key
func PresetURLs(b medart.URLBuilder, key string) map[string]string {
	urls := make(map[string]string, len(presets))
	for name, spec := range presets {
		urls[name] = b.BuildURL(key, spec)
	}
	return urls
}
