package metrics

import "sort"

// StatusBucket is the count of responses for one endpoint/status pair.
type StatusBucket struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Code     string `json:"code" yaml:"code"`
	Count    int    `json:"count" yaml:"count"`
}

// FlattenStatusBuckets converts an endpoint->status map into rows sorted by
// descending count, then endpoint and code.
func FlattenStatusBuckets(buckets map[string]map[string]int) []StatusBucket {
	if len(buckets) == 0 {
		return nil
	}
	var rows []StatusBucket
	for endpoint, codes := range buckets {
		for code, count := range codes {
			rows = append(rows, StatusBucket{Endpoint: endpoint, Code: code, Count: count})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		if rows[i].Endpoint != rows[j].Endpoint {
			return rows[i].Endpoint < rows[j].Endpoint
		}
		return rows[i].Code < rows[j].Code
	})
	return rows
}
