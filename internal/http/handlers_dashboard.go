package http

import (
	"net/http"
	"time"

	applog "duitku/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	if cached, ok := s.dashboardCache.Get(uid); ok {
		NewResponse().Data(toDashboardResponse(cached)).Generation(s.generation.Load()).Write(w)
		return
	}

	overview, err := s.dashboard.Overview(r.Context(), uid, time.Now())
	if err != nil {
		s.writeError(w, r, err, "Gagal memuat dashboard", applog.ComponentDashboard, applog.OpRead)
		return
	}
	s.dashboardCache.Set(uid, overview)

	NewResponse().Data(toDashboardResponse(overview)).Generation(s.generation.Load()).Write(w)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit := queryInt(r, "limit", 50)

	items, err := s.notifications.List(r.Context(), userID(r), unreadOnly, limit)
	if err != nil {
		s.writeError(w, r, err, "Gagal memuat notifikasi", applog.ComponentNotification, applog.OpList)
		return
	}
	out := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, toNotificationResponse(n))
	}
	NewResponse().Data(out).Generation(s.generation.Load()).Write(w)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	if err := s.notifications.MarkRead(r.Context(), userID(r), id); err != nil {
		s.writeError(w, r, err, "Gagal memperbarui notifikasi", applog.ComponentNotification, applog.OpUpdate)
		return
	}
	NewResponse().Generation(s.generation.Load()).Write(w)
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := s.notifications.MarkAllRead(r.Context(), userID(r)); err != nil {
		s.writeError(w, r, err, "Gagal memperbarui notifikasi", applog.ComponentNotification, applog.OpUpdate)
		return
	}
	NewResponse().Generation(s.generation.Load()).Write(w)
}
