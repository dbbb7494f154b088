// Package extractor pulls values out of ledger response bodies with JSON
// path expressions.
package extractor

// Logger receives a warning when a path does not match.
type Logger interface {
	Warn(format string, args ...interface{})
}

// Extractor names one value to pull from a response body.
type Extractor struct {
	// JSONPath is a path such as "$.id", "id" or "failures.#".
	JSONPath string

	// Variable is the key the value is stored under.
	Variable string
}

// ExtractAll applies every extractor to body. Missing paths yield "" and a
// warning on logger, which may be nil.
func ExtractAll(body []byte, extractors []Extractor, logger Logger) map[string]string {
	result := make(map[string]string, len(extractors))
	for _, ex := range extractors {
		if ex.JSONPath == "" {
			continue
		}
		result[ex.Variable] = findJSONPath(body, ex.JSONPath, logger)
	}
	return result
}
