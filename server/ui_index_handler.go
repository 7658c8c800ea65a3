package server

import (
	"net/http"
)

// IndexPageData is the model for the landing page
type IndexPageData struct {
	AppName string
}

// IndexHandler renders the landing page, or sends a signed-in user on to
// the dashboard.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.currentSession(r).Authenticated() {
			redirectSuccess(w, r, RouteDashboard)
			return
		}

		s.render(w, r, http.StatusOK, PageIndex, IndexPageData{
			AppName: s.config.GetAppName(),
		})
	}
}
