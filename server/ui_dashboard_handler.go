package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/knowledge-hub/measurements"
	"github.com/jrsteele09/knowledge-hub/users"
)

// DashboardPageData is the model for the dashboard. Measurements is the
// backend document as received; View is its display layout.
type DashboardPageData struct {
	AppName      string
	User         users.Identity
	Measurements json.RawMessage
	View         measurements.View
}

// DashboardHandler renders the recent measurements for user. Backend
// failures surface as an empty list, never as an error page.
func (s *Server) DashboardHandler() IdentityHandler {
	return func(w http.ResponseWriter, r *http.Request, user users.Identity) {
		data := s.measurements.Recent(r.Context())

		w.Header().Set("Cache-Control", "no-store")
		s.render(w, r, http.StatusOK, PageDashboard, DashboardPageData{
			AppName:      s.config.GetAppName(),
			User:         user,
			Measurements: data,
			View:         measurements.NewView(data),
		})
	}
}
