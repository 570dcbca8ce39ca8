package gstreamer

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// ini keys of the [tracker] section and the tracker property they set,
// integer keys are parsed before use
var trackerKeys = []struct {
	key      string
	property string
	integer  bool
}{
	{"tracker-width", "tracker-width", true},
	{"tracker-height", "tracker-height", true},
	{"gpu-id", "gpu_id", true},
	{"ll-lib-file", "ll-lib-file", false},
	{"ll-config-file", "ll-config-file", false},
	{"enable-batch-process", "enable_batch_process", true},
	{"enable-past-frame", "enable_past_frame", true},
}

// LoadTrackerProperties reads the [tracker] section of a tracker config file.
// Unknown keys are ignored.
func LoadTrackerProperties(path string) ([]Property, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("gstreamer load tracker config: %w", err)
	}

	s, err := f.GetSection("tracker")
	if err != nil {
		return nil, fmt.Errorf("gstreamer tracker config: %w", err)
	}

	props := []Property{}
	for _, k := range trackerKeys {
		if !s.HasKey(k.key) {
			continue
		}

		key := s.Key(k.key)
		if k.integer {
			n, err := key.Int()
			if err != nil {
				return nil, fmt.Errorf("gstreamer tracker config %s: %w", k.key, err)
			}
			props = append(props, Property{Name: k.property, Value: fmt.Sprint(n)})
		} else {
			props = append(props, Property{Name: k.property, Value: key.String()})
		}
	}

	return props, nil
}
