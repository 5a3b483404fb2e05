package utils

import (
	"github.com/tliron/commonlog"
)

// LogError logs err under msg and reports whether there was one. Used where a
// failure must not abort the surrounding operation.
func LogError(log commonlog.Logger, err error, msg string) bool {
	if err == nil {
		return false
	}
	log.Errorf("%s: %v", msg, err)
	return true
}

// FirstNonEmpty returns the first non-empty string of values.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
