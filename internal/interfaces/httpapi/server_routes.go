package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerCompetitionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/competitions", handler.ListCompetitions)
	mux.HandleFunc("GET /v1/competitions/{code}/fixtures", handler.DiscoverFixtures)
	mux.HandleFunc("POST /v1/competitions/refresh", handler.RefreshCompetitions)
}

func registerCacheRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("DELETE /v1/competitions/{code}/cache", handler.ClearCompetitionCache)
	mux.HandleFunc("DELETE /v1/cache", handler.ClearAllCache)
}
