package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/services"
)

type subscriptionRequest struct {
	Name            *string          `json:"name"`
	Amount          *decimal.Decimal `json:"amount"`
	NextBillingDate *core.Date       `json:"nextBillingDate"`
	Frequency       *string          `json:"frequency"`
	Notes           *string          `json:"notes"`
	DefaultAccount  *string          `json:"defaultAccount"`
}

func (req subscriptionRequest) frequency() (*core.Frequency, error) {
	if req.Frequency == nil {
		return nil, nil
	}
	f, err := core.ParseFrequency(*req.Frequency)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

type chargeRequest struct {
	AccountID string    `json:"accountId"`
	Date      core.Date `json:"date"`
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	freq, err := req.frequency()
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	in := services.NewSubscription{
		Name:           deref(sanitizePtr(req.Name)),
		Notes:          deref(sanitizePtr(req.Notes)),
		DefaultAccount: deref(sanitizePtr(req.DefaultAccount)),
	}
	if req.Amount != nil {
		in.Amount = *req.Amount
	}
	if req.NextBillingDate != nil {
		in.NextBillingDate = *req.NextBillingDate
	}
	if freq != nil {
		in.Frequency = *freq
	}

	sub, err := s.deps.Subscriptions.Create(r.Context(), ownerFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Header("Location", "/subscriptions/"+sub.ID).Body(sub).Write(w)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Subscriptions.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	if items == nil {
		items = []core.Subscription{}
	}
	NewJSONResponse().Body(items).Write(w)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.deps.Subscriptions.Get(r.Context(), ownerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(sub).Write(w)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	freq, err := req.frequency()
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	p := services.SubscriptionPatch{
		Name:            sanitizePtr(req.Name),
		Amount:          req.Amount,
		NextBillingDate: req.NextBillingDate,
		Frequency:       freq,
		Notes:           sanitizePtr(req.Notes),
		DefaultAccount:  sanitizePtr(req.DefaultAccount),
	}

	sub, err := s.deps.Subscriptions.Update(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), p)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(sub).Write(w)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Subscriptions.Delete(r.Context(), ownerFrom(r.Context()), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Body(map[string]any{"deleted": true, "id": id}).Write(w)
}

// handleChargeSubscription bills one period and answers with the created
// transaction. The advanced billing date travels in X-Next-Billing-Date. An
// empty body charges the subscription's default account at its next billing
// date.
func (s *Server) handleChargeSubscription(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if r.ContentLength != 0 {
		if err := DecodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, log.OpCharge, err)
			return
		}
	}

	t, sub, err := s.deps.Subscriptions.Charge(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), req.AccountID, req.Date)
	if err != nil {
		s.writeError(w, r, log.OpCharge, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).
		Header("Location", "/transactions/"+t.ID).
		Header("X-Next-Billing-Date", sub.NextBillingDate.String()).
		Body(t).Write(w)
}
