package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/Comcast/treetags/tools"
	"github.com/Comcast/treetags/view"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Service serves one template's views over HTTP and websockets.
type Service struct {
	Renderer  *view.Renderer
	Publisher Publisher
	Logger    *zap.Logger

	upgrader websocket.Upgrader

	// conns counts open websocket connections.
	sync.Mutex
	conns int
}

func NewService(r *view.Renderer, logger *zap.Logger) *Service {
	return &Service{
		Renderer: r,
		Logger:   logger,
	}
}

// Handler returns the service's routes:
//
//	POST   /render       body is a view.Request, response is a view.Result
//	POST   /render.html  same, but the response is HTML
//	DELETE /views/ID     forgets a view
//	GET    /ws           websocket; each message is a view.Request
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/render", s.handleRender(false))
	mux.HandleFunc("/render.html", s.handleRender(true))
	mux.HandleFunc("/views/", s.handleViews)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

func (s *Service) render(ctx context.Context, req *view.Request) (*view.Result, error) {
	res, err := s.Renderer.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.Publisher != nil {
		if err := s.Publisher.Publish(ctx, res); err != nil {
			s.Logger.Warn("publish", zap.String("view", res.ViewId), zap.Error(err))
		}
	}
	return res, nil
}

func (s *Service) handleRender(html bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		var req view.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := s.render(r.Context(), &req)
		if err != nil {
			s.Logger.Error("render", zap.String("view", req.ViewId), zap.Error(err))
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if html {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("X-View-Id", res.ViewId)
			for _, c := range res.Tree.Children {
				if err = tools.RenderHTML(c, w); err != nil {
					s.Logger.Error("html", zap.Error(err))
					return
				}
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err = json.NewEncoder(w).Encode(res); err != nil {
			s.Logger.Error("encode", zap.Error(err))
		}
	}
}

func (s *Service) handleViews(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/views/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		http.Error(w, "DELETE only", http.StatusMethodNotAllowed)
		return
	}
	if err := s.Renderer.Forget(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// wsError is sent back when a websocket request fails.
type wsError struct {
	Error string `json:"error"`
}

// handleWebSocket holds one view per connection.  A request without a
// view id uses the connection's view.
func (s *Service) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("upgrade", zap.Error(err))
		return
	}
	defer c.Close()

	s.Lock()
	s.conns++
	s.Unlock()
	defer func() {
		s.Lock()
		s.conns--
		s.Unlock()
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var viewId string
	for {
		var req view.Request
		if err := c.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.Logger.Debug("websocket read", zap.Error(err))
			}
			return
		}
		if req.ViewId == "" {
			req.ViewId = viewId
		}
		var reply interface{}
		res, err := s.render(ctx, &req)
		if err != nil {
			reply = &wsError{Error: err.Error()}
		} else {
			viewId = res.ViewId
			reply = res
		}
		if err = c.WriteJSON(reply); err != nil {
			s.Logger.Debug("websocket write", zap.Error(err))
			return
		}
	}
}

// Conns reports the number of open websocket connections.
func (s *Service) Conns() int {
	s.Lock()
	defer s.Unlock()
	return s.conns
}
