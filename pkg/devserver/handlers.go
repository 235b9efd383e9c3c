package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gigglobal/gigs/pkg/gigapi"
	"github.com/gigglobal/gigs/pkg/query"
	"github.com/gigglobal/gigs/pkg/realtime"
	"github.com/gorilla/websocket"
)

// HandleSearch serves GET /api/v1/gig/search/{from}/{size}/{type}?{query}.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	from, err := strconv.ParseInt(r.PathValue("from"), 10, 64)
	if err != nil || from < 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid from %q", r.PathValue("from")))
		return
	}
	size, err := strconv.Atoi(r.PathValue("size"))
	if err != nil || size < 1 || size > MaxPageSize {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid size %q", r.PathValue("size")))
		return
	}
	dir := r.PathValue("type")
	if dir != gigapi.Forward && dir != gigapi.Backward {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid type %q", dir))
		return
	}
	q, err := query.Parse(r.URL.RawQuery)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid query string")
		return
	}

	gigs, total := s.catalog.Search(q, from, size, dir)
	s.log.Debugf("search %q from %d size %d %s: %d/%d", q.Encode(), from, size, dir, len(gigs), total)
	s.writeJSON(w, http.StatusOK, gigapi.Response{
		Message: "gigs found",
		Total:   total,
		Gigs:    gigs,
	})
}

// HandleCreateGig adds the posted gig and announces it.
func (s *Server) HandleCreateGig(w http.ResponseWriter, r *http.Request) {
	var g gigapi.Gig
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&g); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid gig: "+err.Error())
		return
	}
	if g.Title == "" {
		s.writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	g = s.catalog.Add(g)
	s.publish(realtime.NewEvent(realtime.GigCreated, g.ID, g.Title))
	s.writeJSON(w, http.StatusCreated, g)
}

// HandleDeleteGig removes a gig and announces it.
func (s *Server) HandleDeleteGig(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.catalog.Remove(id) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("gig %s not found", id))
		return
	}
	s.publish(realtime.NewEvent(realtime.GigDeleted, id, ""))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"gigs":   s.catalog.Len(),
	})
}

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// HandleNotifications streams hub events as JSON text frames until the
// client goes away.
func (s *Server) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id, events := s.hub.Register()
	defer s.hub.Unregister(id)
	s.log.Debugf("notification listener %d connected from %s", id, r.RemoteAddr)

	// Reads only to notice the client closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		var e realtime.Event
		select {
		case <-gone:
			s.log.Debugf("notification listener %d disconnected", id)
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			e = ev
		case <-ticker.C:
			e = realtime.NewEvent(realtime.Heartbeat, "", "")
		}

		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := conn.WriteJSON(e); err != nil {
			s.log.Debugf("write to listener %d: %v", id, err)
			return
		}
	}
}
