package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/npratt/stagegraph/internal/graph"
)

// health handles GET /health.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, success(HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Ready:   s.engine.Scene().Ready,
	}))
}

// getGraph handles GET /api/graph.
func (s *Server) getGraph(c *gin.Context) {
	c.JSON(http.StatusOK, success(s.engine.Scene()))
}

// toggle handles POST /api/nodes/:id/toggle. Unknown IDs report
// toggled=false rather than an error.
func (s *Server) toggle(c *gin.Context) {
	id := c.Param("id")
	toggled := s.engine.Toggle(id)
	c.JSON(http.StatusOK, success(ToggleResponse{
		ID:      id,
		Toggled: toggled,
		Version: s.engine.Scene().Version,
	}))
}

// viewport handles PUT /api/viewport.
func (s *Server) viewport(c *gin.Context) {
	var req ViewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "invalid request: "+err.Error()))
		return
	}
	if *req.Width < 0 {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "width must not be negative"))
		return
	}

	changed, err := s.engine.SetViewportWidth(*req.Width)
	if err != nil {
		s.logger.Error("relayout failed", "width", *req.Width, "error", err)
		c.JSON(http.StatusInternalServerError, failure(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, success(ViewportResponse{
		Width:   *req.Width,
		Preset:  s.engine.Preset().Name,
		Changed: changed,
	}))
}

// openTask handles GET /api/tasks/:id: it fires the open hook and returns
// the task with its detail route.
func (s *Server) openTask(c *gin.Context) {
	id := c.Param("id")
	if !s.engine.Open(id) {
		c.JSON(http.StatusNotFound, failure(http.StatusNotFound, "task not found: "+id))
		return
	}
	task, ok := s.engine.Task(id)
	if !ok {
		c.JSON(http.StatusNotFound, failure(http.StatusNotFound, "task not found: "+id))
		return
	}
	c.JSON(http.StatusOK, success(TaskDetail{Task: task, Route: graph.DetailRoute(id)}))
}

// stream handles GET /api/graph/stream: it sends the current scene, then
// every published scene until the client goes away.
func (s *Server) stream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	scenes, cancel := s.engine.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("stream read error", "error", err)
				}
				return
			}
		}
	}()

	if err := writeScene(conn, s.engine.Scene()); err != nil {
		return
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		case scene, ok := <-scenes:
			if !ok {
				return
			}
			if err := writeScene(conn, scene); err != nil {
				s.logger.Debug("stream write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeScene(conn *websocket.Conn, scene graph.Scene) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(scene)
}
