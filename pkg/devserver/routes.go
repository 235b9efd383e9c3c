package devserver

import (
	"net/http"

	"github.com/gigglobal/gigs/pkg/gigapi"
	"github.com/klauspost/compress/gzhttp"
)

// NotificationsPath is the websocket endpoint publishing catalog changes.
const NotificationsPath = "/api/v1/notifications"

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET "+gigapi.SearchPath+"/{from}/{size}/{type}", gzhttp.GzipHandler(http.HandlerFunc(s.HandleSearch)))
	mux.HandleFunc("POST /api/v1/gig", s.HandleCreateGig)
	mux.HandleFunc("DELETE /api/v1/gig/{id}", s.HandleDeleteGig)
	// Not gzipped: the upgrade needs the raw connection.
	mux.HandleFunc("GET "+NotificationsPath, s.HandleNotifications)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
