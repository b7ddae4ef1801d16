package cropwatch

import (
	"fmt"
	"sort"
)

// Profile names the Model trained for one crop
type Profile struct {
	Name string
	// Model is the ONNX model file name
	Model string
	// Labels is the file holding the class labels, one per line
	Labels string
}

var profiles = map[string]Profile{
	"paddy": {
		Name:   "paddy",
		Model:  "PaddyDet.onnx",
		Labels: "paddy_labels.txt",
	},
	"groundnut": {
		Name:   "groundnut",
		Model:  "GroundnutDet.onnx",
		Labels: "groundnut_labels.txt",
	},
}

// LookupProfile returns the crop Profile with the given name
func LookupProfile(name string) (Profile, error) {

	p, ok := profiles[name]

	if !ok {
		return Profile{}, fmt.Errorf("unknown crop profile %q, expected one of %v",
			name, ProfileNames())
	}

	return p, nil
}

// ProfileNames returns the names of the known crop profiles
func ProfileNames() []string {

	names := make([]string, 0, len(profiles))

	for n := range profiles {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
