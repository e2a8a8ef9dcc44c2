package common

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

func GetResponseTime(init time.Time) string {
	timeDiff := time.Since(init).Milliseconds()
	return fmt.Sprintf("%dms", timeDiff)
}

// LockKey joins a lock prefix and its id parts, e.g. member:<guild>:<user>.
func LockKey(prefix string, parts ...string) string {
	return prefix + ":" + strings.Join(parts, ":")
}

// DecodeCached converts a cached value back into T. The in-memory cache hands
// back the stored value as is; Redis hands back generic JSON which is
// re-encoded into T.
func DecodeCached[T any](val interface{}) (T, bool) {
	var out T
	if typed, ok := val.(T); ok {
		return typed, true
	}
	if p, ok := val.(*T); ok && p != nil {
		return *p, true
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}
