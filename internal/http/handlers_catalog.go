package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/services"
)

type categoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	kind, err := core.ParseTransactionKind(req.Kind)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	c, err := s.deps.Categories.Create(r.Context(), ownerFrom(r.Context()), sanitizeInput(req.Name), kind)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(c).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Categories.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	if items == nil {
		items = []core.Category{}
	}
	NewJSONResponse().Body(items).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Categories.Delete(r.Context(), ownerFrom(r.Context()), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Body(map[string]any{"deleted": true, "id": id}).Write(w)
}

type goalRequest struct {
	Name          *string          `json:"name"`
	TargetAmount  *decimal.Decimal `json:"targetAmount"`
	CurrentAmount *decimal.Decimal `json:"currentAmount"`
	DueDate       *core.Date       `json:"dueDate"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	in := services.NewGoal{Name: deref(sanitizePtr(req.Name))}
	if req.TargetAmount != nil {
		in.TargetAmount = *req.TargetAmount
	}
	if req.CurrentAmount != nil {
		in.CurrentAmount = *req.CurrentAmount
	}
	if req.DueDate != nil {
		in.DueDate = *req.DueDate
	}

	g, err := s.deps.Goals.Create(r.Context(), ownerFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Header("Location", "/goals/"+g.ID).Body(g).Write(w)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Goals.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	if items == nil {
		items = []core.SavingGoal{}
	}
	NewJSONResponse().Body(items).Write(w)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Goals.Get(r.Context(), ownerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(g).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	g, err := s.deps.Goals.Update(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), services.GoalPatch{
		Name:          sanitizePtr(req.Name),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		DueDate:       req.DueDate,
	})
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(g).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Goals.Delete(r.Context(), ownerFrom(r.Context()), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Body(map[string]any{"deleted": true, "id": id}).Write(w)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	summary, err := s.deps.Summary.Monthly(r.Context(), ownerFrom(r.Context()), params.Year, params.Month)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(summary).Write(w)
}
