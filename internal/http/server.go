package http

import (
	"github.com/gin-gonic/gin"
)

// Server owns the assembled dashboard API engine. Route wiring lives in
// NewRouter; Server only binds the listen address.
type Server struct {
	Engine *gin.Engine
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg)}
}

func (s *Server) Run(address string) error {
	return s.Engine.Run(address)
}
