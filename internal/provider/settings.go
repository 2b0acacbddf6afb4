package provider

import (
	"fmt"
	"time"
)

// Duration reads a duration-valued setting from a factory config map.
// Config files deliver durations as strings ("120s"); programmatic callers
// may pass a time.Duration. A missing or nil key returns zero.
func Duration(cfg map[string]any, key string) (time.Duration, error) {
	v, ok := cfg[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, fmt.Errorf("setting %q: %w", key, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("setting %q: cannot interpret %T as a duration", key, v)
	}
}
