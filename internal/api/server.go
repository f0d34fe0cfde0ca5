package api

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/linalg/internal/logger"
	"github.com/samcharles93/linalg/pkg/einsum"
	"github.com/samcharles93/linalg/pkg/tensor"
)

// maxElements bounds the size of one request tensor and of a result.
const maxElements = 1 << 24

type Server struct {
	store  *ContractionStore
	engine *einsum.Engine
	log    logger.Logger
	clock  func() time.Time
}

func NewServer(store *ContractionStore, engine *einsum.Engine, log logger.Logger) *Server {
	if store == nil {
		store = NewContractionStore(0)
	}
	if engine == nil {
		engine = einsum.New(einsum.DefaultConfig())
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		store:  store,
		engine: engine,
		log:    log,
		clock:  time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/contractions", s.handleCreateContraction)
	e.GET("/v1/contractions/:id", s.handleGetContraction)
	e.DELETE("/v1/contractions/:id", s.handleDeleteContraction)
	e.POST("/v1/plans", s.handleCreatePlan)
	e.GET("/healthz", s.handleHealth)
}

func (s *Server) handleCreateContraction(c *echo.Context) error {
	req, err := decodeJSON[ContractionRequest](c.Request().Body)
	if err != nil {
		return writeFailure(c, err)
	}
	if strings.TrimSpace(req.Expression) == "" {
		return writeFailure(c, newInvalidRequest("expression", "expression is required"))
	}
	tensors, err := toTensors(req.Tensors)
	if err != nil {
		return writeFailure(c, err)
	}

	plan, err := s.engine.Plan(req.Expression, tensors...)
	if err != nil {
		return writeFailure(c, err)
	}
	shape := plan.OutputShape()
	if _, ok := elementCount(shape); !ok {
		return writeFailure(c, newInvalidRequest("expression", "result too large"))
	}
	alpha := 1.0
	if req.Alpha != nil {
		alpha = *req.Alpha
	}

	start := s.clock()
	result := tensor.New(shape...)
	if err := plan.InvokeInto(result, alpha, 0, tensors...); err != nil {
		s.log.Error("contraction failed", "expression", req.Expression, "error", err)
		return writeFailure(c, err)
	}
	elapsed := s.clock().Sub(start)

	resp := ContractionResponse{
		ID:         newContractionID(),
		Object:     "contraction",
		CreatedAt:  start.Unix(),
		Expression: req.Expression,
		Shape:      shape,
		Data:       result.Data,
		DurationMS: float64(elapsed.Microseconds()) / 1000,
		Steps:      planSteps(plan),
	}
	if req.Store == nil || *req.Store {
		s.store.Put(resp)
	}
	s.log.Info("contraction completed",
		"id", resp.ID,
		"expression", req.Expression,
		"shape", tensor.FormatShape(shape),
		"duration", elapsed,
	)
	return writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleGetContraction(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return writeNotFound(c, "contraction not found")
	}
	resp, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "contraction not found")
	}
	return writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleDeleteContraction(c *echo.Context) error {
	id := c.Param("id")
	if id == "" || !s.store.Delete(id) {
		return writeNotFound(c, "contraction not found")
	}
	return writeJSON(c, http.StatusOK, DeleteContractionResponse{
		ID:      id,
		Object:  "contraction.deleted",
		Deleted: true,
	})
}

func (s *Server) handleCreatePlan(c *echo.Context) error {
	req, err := decodeJSON[PlanRequest](c.Request().Body)
	if err != nil {
		return writeFailure(c, err)
	}
	if strings.TrimSpace(req.Expression) == "" {
		return writeFailure(c, newInvalidRequest("expression", "expression is required"))
	}
	for _, shape := range req.Shapes {
		if slices.ContainsFunc(shape, func(d int) bool { return d < 0 }) {
			return writeFailure(c, newInvalidRequest("shapes", "negative dimension"))
		}
	}
	plan, err := einsum.NewPlan(s.engine.Config(), req.Expression, req.Shapes...)
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, PlanResponse{
		Object:      "plan",
		Expression:  plan.Expression(),
		OutputShape: plan.OutputShape(),
		Flops:       plan.Flops(),
		Steps:       planSteps(plan),
		Tree:        plan.Root().String(),
	})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}
