package extractor

import (
	"github.com/tidwall/gjson"
)

// normalizePath accepts "$.field", "$" and bare gjson paths.
func normalizePath(path string) string {
	if len(path) > 0 && path[0] == '$' {
		if len(path) > 1 && path[1] == '.' {
			return path[2:]
		}
		if len(path) == 1 {
			return "@this"
		}
	}
	return path
}

func findJSONPath(body []byte, path string, logger Logger) string {
	path = normalizePath(path)
	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		if logger != nil {
			logger.Warn("JSONPath not found: %s", path)
		}
		return ""
	}
	return result.String()
}

// Int64 returns the integer at path. ok is false when the body is not JSON,
// the path is missing or the value is not a number.
func Int64(body []byte, path string) (value int64, ok bool) {
	if !gjson.ValidBytes(body) {
		return 0, false
	}
	result := gjson.GetBytes(body, normalizePath(path))
	if result.Type != gjson.Number {
		return 0, false
	}
	return result.Int(), true
}

// Strings returns the string elements of the array at path, or nil.
func Strings(body []byte, path string) []string {
	result := gjson.GetBytes(body, normalizePath(path))
	if !result.IsArray() {
		return nil
	}
	items := result.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}
