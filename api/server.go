// Package api exposes the planner over a small REST surface: trigger a
// solve, then query cost, capacity and curtailment views of the results.
package api

import (
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/enersys/microplan/core/logger"
	"github.com/enersys/microplan/core/plan"
	"github.com/enersys/microplan/core/solver"
	infralogger "github.com/enersys/microplan/infra/logger"
)

// Server routes planning requests to a single Study guarded by a mutex:
// one solve at a time, reads see the last completed run.
type Server struct {
	mu     sync.Mutex
	study  *plan.Study
	solver solver.Solver
	log    logger.Logger
}

// NewServer wires the study and backend into a Server.
func NewServer(study *plan.Study, sv solver.Solver, log logger.Logger) *Server {
	if log == nil {
		log = infralogger.NopLogger{}
	}
	return &Server{study: study, solver: sv, log: log}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if os.Getenv("APP_ENV") != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.POST("/solve", s.handleSolve)
	v1.GET("/results/cost", s.handleCost)
	v1.GET("/results/capacity/:tech", s.handleCapacity)
	v1.GET("/results/curtailment", s.handleCurtailment)
	return router
}

// Run starts the HTTP server on addr.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}
