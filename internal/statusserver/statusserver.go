// Package statusserver exposes a small gin HTTP API reporting the live
// progress of a generation or lookup run, the ambient status surface
// SPEC_FULL.md asks for alongside the engine packages.
package statusserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// GeneratorStatus snapshots a running table-generation pass.
type GeneratorStatus struct {
	TableName  string `json:"table_name"`
	ChainsDone uint64 `json:"chains_done"`
	ChainsTotal uint64 `json:"chains_total"`
}

// LookupStatus snapshots a running lookup pass.
type LookupStatus struct {
	TargetsTotal   int `json:"targets_total"`
	TargetsCracked int `json:"targets_cracked"`
	TablesSearched int `json:"tables_searched"`
}

// Server reports whatever status the running process has set via
// SetGenerator/SetLookup. It holds no business logic of its own; it is a
// read-only window onto state owned by the generator/lookup engines.
type Server struct {
	mu        sync.RWMutex
	generator *GeneratorStatus
	lookup    *LookupStatus

	port   string
	router *gin.Engine
	server *http.Server
}

// New builds a status Server listening on port (e.g. ":8090").
func New(port string, devMode bool) *Server {
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{port: port, router: router}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/ping", s.handlePing)
	s.router.GET("/status/generator", s.handleGeneratorStatus)
	s.router.GET("/status/lookup", s.handleLookupStatus)
}

func (s *Server) handlePing(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (s *Server) handleGeneratorStatus(c *gin.Context) {
	s.mu.RLock()
	gs := s.generator
	s.mu.RUnlock()
	if gs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no generation run in progress"})
		return
	}
	c.JSON(http.StatusOK, gs)
}

func (s *Server) handleLookupStatus(c *gin.Context) {
	s.mu.RLock()
	ls := s.lookup
	s.mu.RUnlock()
	if ls == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no lookup run in progress"})
		return
	}
	c.JSON(http.StatusOK, ls)
}

// SetGenerator updates the status reported for the active generation run.
// Passing nil clears it.
func (s *Server) SetGenerator(gs *GeneratorStatus) {
	s.mu.Lock()
	s.generator = gs
	s.mu.Unlock()
}

// SetLookup updates the status reported for the active lookup run.
// Passing nil clears it.
func (s *Server) SetLookup(ls *LookupStatus) {
	s.mu.Lock()
	s.lookup = ls
	s.mu.Unlock()
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.server = &http.Server{
		Addr:         s.port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
