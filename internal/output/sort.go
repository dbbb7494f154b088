package output

import "sort"

type namedCount struct {
	name  string
	count int
}

func sortedCounts(m map[string]int) []namedCount {
	rows := make([]namedCount, 0, len(m))
	for name, count := range m {
		rows = append(rows, namedCount{name, count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].name < rows[j].name
	})
	return rows
}
