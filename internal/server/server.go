// Package server exposes a small HTTP surface for liveness probes.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports how many game sessions are live.
type SessionCounter interface {
	ActiveSessions() int
}

type Server struct {
	store    Pinger
	sessions SessionCounter
	log      zerolog.Logger
}

func New(store Pinger, sessions SessionCounter, log zerolog.Logger) *Server {
	return &Server{store: store, sessions: sessions, log: log}
}

// Run blocks serving HTTP on the given port.
func (s *Server) Run(port int) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Bot is running!")
	})
	r.GET("/healthz", s.healthz)

	addr := fmt.Sprintf(":%d", port)
	s.log.Info().Str("addr", addr).Msg("health server listening")
	return r.Run(addr)
}

func (s *Server) healthz(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "ok"
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.log.Warn().Err(err).Msg("health check ping failed")
		status = http.StatusServiceUnavailable
		dbStatus = "degraded"
	}
	c.JSON(status, gin.H{
		"status":          dbStatus,
		"active_sessions": s.sessions.ActiveSessions(),
	})
}
