package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/services"
)

type createAccountRequest struct {
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

// updateAccountRequest has no balance field: balances move only through
// transactions, and unknown fields are rejected.
type updateAccountRequest struct {
	Name     *string `json:"name"`
	Kind     *string `json:"kind"`
	Currency *string `json:"currency"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	in := services.NewAccount{
		Name:           sanitizeInput(req.Name),
		Currency:       req.Currency,
		OpeningBalance: req.OpeningBalance,
	}
	if req.Kind != "" {
		kind, err := core.ParseAccountKind(req.Kind)
		if err != nil {
			s.writeError(w, r, log.OpCreate, err)
			return
		}
		in.Kind = kind
	}

	a, err := s.deps.Accounts.Create(r.Context(), ownerFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Header("Location", "/accounts/"+a.ID).Body(a).Write(w)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Accounts.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	if items == nil {
		items = []core.Account{}
	}
	NewJSONResponse().Body(items).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Accounts.Get(r.Context(), ownerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(a).Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	p := services.AccountPatch{Name: sanitizePtr(req.Name), Currency: req.Currency}
	if req.Kind != nil {
		kind, err := core.ParseAccountKind(*req.Kind)
		if err != nil {
			s.writeError(w, r, log.OpUpdate, err)
			return
		}
		p.Kind = &kind
	}

	a, err := s.deps.Accounts.Update(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), p)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(a).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Accounts.Delete(r.Context(), ownerFrom(r.Context()), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Body(map[string]any{"deleted": true, "id": id}).Write(w)
}
