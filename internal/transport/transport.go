package transport

import (
	"sort"
	"strings"

	"erp/portal/internal/model"
)

// Search keeps routes whose name or any stop name contains query, ignoring
// case. Stops of every returned route are ordered by stop_order.
func Search(routes []model.Route, query string) []model.Route {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Route, 0, len(routes))
	for _, route := range routes {
		if query != "" && !matches(route, query) {
			continue
		}
		stops := append([]model.Stop(nil), route.Stops...)
		sort.SliceStable(stops, func(i, j int) bool { return stops[i].Order < stops[j].Order })
		route.Stops = stops
		out = append(out, route)
	}
	return out
}

func matches(route model.Route, query string) bool {
	if strings.Contains(strings.ToLower(route.Name), query) {
		return true
	}
	for _, stop := range route.Stops {
		if strings.Contains(strings.ToLower(stop.Name), query) {
			return true
		}
	}
	return false
}
