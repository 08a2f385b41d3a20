package api

import "github.com/npratt/stagegraph/internal/taskstore"

// Response is the JSON envelope for every API reply.
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func success[T any](data T) Response[T] {
	return Response[T]{Code: 0, Message: "success", Data: data}
}

func failure(code int, message string) Response[any] {
	return Response[any]{Code: code, Message: message}
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Ready   bool   `json:"ready"`
}

// ToggleResponse is returned by POST /api/nodes/:id/toggle.
type ToggleResponse struct {
	ID      string `json:"id"`
	Toggled bool   `json:"toggled"`
	Version uint64 `json:"version"`
}

// ViewportRequest is the body of PUT /api/viewport.
type ViewportRequest struct {
	Width *float64 `json:"width" binding:"required"`
}

// ViewportResponse reports the preset chosen for a viewport width.
type ViewportResponse struct {
	Width   float64 `json:"width"`
	Preset  string  `json:"preset"`
	Changed bool    `json:"changed"`
}

// TaskDetail is returned when a task node is opened.
type TaskDetail struct {
	Task  taskstore.Task `json:"task"`
	Route string         `json:"route"`
}
