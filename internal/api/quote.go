package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crosschain-swap-indexer/internal/domain"
	"crosschain-swap-indexer/internal/quoting"
)

// QuoteResponse is the best quote for a swap.
type QuoteResponse struct {
	RequestID          string           `json:"requestId"`
	Route              domain.RouteKind `json:"route"`
	ResponderID        string           `json:"responderId"`
	SrcAsset           domain.Asset     `json:"srcAsset"`
	DestAsset          domain.Asset     `json:"destAsset"`
	DepositAmount      *AmountJSON      `json:"depositAmount"`
	IntermediateAmount *AmountJSON      `json:"intermediateAmount,omitempty"`
	EgressAmount       *AmountJSON      `json:"egressAmount"`
	Responses          int              `json:"responses"`
	Fees               []FeeJSON        `json:"fees,omitempty"`
}

func (s *Server) getQuote(c *gin.Context) {
	src, err := domain.ParseAsset(c.Query("srcAsset"))
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	dest, err := domain.ParseAsset(c.Query("destAsset"))
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := domain.ParseAmount(c.Query("amount"))
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.quotes.Quote(c.Request.Context(), src, dest, amount)
	switch {
	case errors.Is(err, quoting.ErrInvalidRequest):
		abort(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, quoting.ErrNoQuotes):
		s.logger.Warn("no quotes", zap.String("src", src.String()), zap.String("dest", dest.String()), zap.Error(err))
		abort(c, http.StatusServiceUnavailable, "no quotes available")
		return
	case err != nil:
		s.logger.Error("quote failed", zap.Error(err))
		abort(c, http.StatusInternalServerError, "internal error")
		return
	}

	resp := QuoteResponse{
		RequestID:     res.Request.RequestID,
		Route:         res.Request.Route,
		ResponderID:   res.Best.ResponderID,
		SrcAsset:      src,
		DestAsset:     dest,
		DepositAmount: amountJSON(src, amount),
		Responses:     len(res.Quotes),
	}
	if egress, err := domain.ParseAmount(res.Best.EgressAmount); err == nil {
		resp.EgressAmount = amountJSON(dest, egress)
	}
	if res.Best.IntermediateAmount != "" {
		if mid, err := domain.ParseAmount(res.Best.IntermediateAmount); err == nil {
			resp.IntermediateAmount = amountJSON(s.settlement, mid)
		}
	}
	for _, f := range res.Fees {
		resp.Fees = append(resp.Fees, FeeJSON{Type: f.Type, Amount: amountJSON(f.Asset, f.Amount)})
	}
	c.JSON(http.StatusOK, resp)
}
