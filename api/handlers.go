package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/enersys/microplan/core/plan"
	"github.com/enersys/microplan/core/solver"
)

// ErrorResponse wraps an error payload.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable code alongside the human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CostResponse is the objective breakdown of a completed run.
type CostResponse struct {
	RunID      string  `json:"run_id"`
	Status     string  `json:"status"`
	Total      float64 `json:"total_cost"`
	Investment float64 `json:"investment_cost"`
	Operation  float64 `json:"operation_cost"`
	Shedding   float64 `json:"shedding_cost"`
}

// CapacityResponse lists installed capacity per candidate unit.
type CapacityResponse struct {
	Tech  string             `json:"tech"`
	Units []plan.CapacityRow `json:"units"`
}

// CurtailmentResponse groups the shedding and curtailment tables.
type CurtailmentResponse struct {
	DemandShed plan.Table `json:"demand_shed"`
	SolarCurt  plan.Table `json:"solar_curtailment"`
	WindCurt   plan.Table `json:"wind_curtailment"`
}

func (s *Server) handleSolve(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.study.Solve(c.Request.Context(), s.solver)
	if err != nil {
		s.writeSolveError(c, err)
		return
	}
	c.JSON(http.StatusOK, costResponse(r))
}

func (s *Server) handleCost(c *gin.Context) {
	r, ok := s.results(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, costResponse(r))
}

func (s *Server) handleCapacity(c *gin.Context) {
	r, ok := s.results(c)
	if !ok {
		return
	}
	tech := c.Param("tech")
	var units []plan.CapacityRow
	switch tech {
	case "conv":
		units = r.InstalledConv()
	case "solar":
		units = r.InstalledSolar()
	case "wind":
		units = r.InstalledWind()
	case "battery":
		units = r.InstalledBattery()
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
			Code:    "UNKNOWN_TECH",
			Message: "tech must be one of conv, solar, wind, battery",
		}})
		return
	}
	c.JSON(http.StatusOK, CapacityResponse{Tech: tech, Units: units})
}

func (s *Server) handleCurtailment(c *gin.Context) {
	r, ok := s.results(c)
	if !ok {
		return
	}
	cu := r.Curtailment()
	c.JSON(http.StatusOK, CurtailmentResponse{
		DemandShed: cu.DemandShed,
		SolarCurt:  cu.SolarCurt,
		WindCurt:   cu.WindCurt,
	})
}

// results fetches the last run, answering 409 when no solve completed yet.
func (s *Server) results(c *gin.Context) (*plan.Results, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.study.Results()
	if err != nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: ErrorDetail{
			Code:    "NO_RESULTS",
			Message: err.Error(),
		}})
		return nil, false
	}
	return r, true
}

func (s *Server) writeSolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, solver.ErrInfeasible):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{
			Code:    "INFEASIBLE",
			Message: err.Error(),
		}})
	case errors.Is(err, solver.ErrUnbounded):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{
			Code:    "UNBOUNDED",
			Message: err.Error(),
		}})
	case errors.Is(err, solver.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: ErrorDetail{
			Code:    "SOLVER_UNAVAILABLE",
			Message: err.Error(),
		}})
	case errors.Is(err, solver.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: ErrorDetail{
			Code:    "SOLVE_TIMEOUT",
			Message: err.Error(),
		}})
	default:
		s.log.Errorf("solve failed: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
			Code:    "SOLVE_ERROR",
			Message: err.Error(),
		}})
	}
}

func costResponse(r *plan.Results) CostResponse {
	return CostResponse{
		RunID:      r.RunID,
		Status:     r.Status.String(),
		Total:      r.Objective,
		Investment: r.Invest,
		Operation:  r.Operation,
		Shedding:   r.Shedding,
	}
}
