package weather

import "github.com/i474232898/weather-dashboard/internal/common"

// PopularCities feeds search suggestions.
var PopularCities = []string{
	"London", "New York", "Tokyo", "Paris", "Dubai",
	"Sydney", "Singapore", "Berlin", "Mumbai", "Shanghai",
	"Toronto", "Cairo", "Moscow", "São Paulo", "Seoul",
}

// Suggest returns up to limit cities whose name contains query, ignoring case.
func Suggest(query string, cities []string, limit int) []string {
	out := []string{}
	if common.Fold(query) == "" || limit <= 0 {
		return out
	}
	for _, c := range cities {
		if common.ContainsFold(c, query) {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
