// Package routes provides declarative route registration for ServeMux.
package routes

import "net/http"

// Group organizes routes under a shared path prefix.
type Group struct {
	Prefix string
	Routes []Route
}

// Register adds all routes from the given groups to the mux using
// method-qualified patterns.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		for _, route := range group.Routes {
			pattern := route.Method + " " + group.Prefix + route.Pattern
			mux.HandleFunc(pattern, route.Handler)
		}
	}
}
