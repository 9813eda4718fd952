package http

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/log"
)

// transactionRequest is shared by create and update; on update every field
// is optional.
type transactionRequest struct {
	Account     *string          `json:"account"`
	Type        *string          `json:"type"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *core.Date       `json:"date"`
	ToAccount   *string          `json:"toAccount"`
}

func (req transactionRequest) draft() (core.Transaction, error) {
	if req.Type == nil {
		return core.Transaction{}, fmt.Errorf("%w: type is required", core.ErrInvalidKind)
	}
	kind, err := core.ParseTransactionKind(*req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	if req.Amount == nil {
		return core.Transaction{}, fmt.Errorf("%w: amount is required", core.ErrInvalidAmount)
	}
	t := core.Transaction{
		Account:     deref(sanitizePtr(req.Account)),
		Kind:        kind,
		Category:    deref(sanitizePtr(req.Category)),
		Description: deref(sanitizePtr(req.Description)),
		Amount:      *req.Amount,
		ToAccount:   deref(sanitizePtr(req.ToAccount)),
	}
	if req.Date != nil {
		t.Date = *req.Date
	}
	return t, nil
}

func (req transactionRequest) patch() (ledger.Patch, error) {
	p := ledger.Patch{
		Account:     sanitizePtr(req.Account),
		Category:    sanitizePtr(req.Category),
		Description: sanitizePtr(req.Description),
		Amount:      req.Amount,
		Date:        req.Date,
		ToAccount:   sanitizePtr(req.ToAccount),
	}
	if req.Type != nil {
		kind, err := core.ParseTransactionKind(*req.Type)
		if err != nil {
			return ledger.Patch{}, err
		}
		p.Kind = &kind
	}
	return p, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	draft, err := req.draft()
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	t, err := s.deps.Transactions.Create(r.Context(), ownerFrom(r.Context()), draft)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Header("Location", "/transactions/"+t.ID).Body(t).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	t, err := s.deps.Transactions.Update(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(t).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Transactions.Delete(r.Context(), ownerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Body(map[string]any{"deleted": true, "id": t.ID}).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Transactions.Get(r.Context(), ownerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(t).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePageParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	items, err := s.deps.Transactions.List(r.Context(), ownerFrom(r.Context()), page.Limit, page.Offset)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	if items == nil {
		items = []core.Transaction{}
	}
	NewJSONResponse().Body(map[string]any{
		"items":  items,
		"limit":  page.Limit,
		"offset": page.Offset,
	}).Write(w)
}
