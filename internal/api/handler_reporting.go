package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
	"github.com/keithkandiawan/personal-finance/internal/core/services"
)

type reportingHandler struct {
	snapshotRepo portsrepo.SnapshotRepository
	rateRepo     portsrepo.RateRepository
}

func registerReportingRoutes(rg *gin.RouterGroup, snapshotRepo portsrepo.SnapshotRepository, rateRepo portsrepo.RateRepository) {
	h := &reportingHandler{snapshotRepo: snapshotRepo, rateRepo: rateRepo}

	rg.GET("/balances", h.listBalances)
	rg.GET("/networth", h.listNetWorthHistory)
	rg.GET("/rates", h.listRates)
}

type balanceResponse struct {
	AccountName    string `json:"accountName"`
	AccountType    string `json:"accountType"`
	CurrencyCode   string `json:"currencyCode"`
	Quantity       string `json:"quantity"`
	ValueBase      string `json:"valueBase,omitempty"`
	ValueSecondary string `json:"valueSecondary,omitempty"`
	AsOf           string `json:"asOf"`
}

func (h *reportingHandler) listBalances(c *gin.Context) {
	balances, err := h.snapshotRepo.ListLatestBalances(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load balances"})
		return
	}

	resp := make([]balanceResponse, 0, len(balances))
	for _, b := range balances {
		item := balanceResponse{
			AccountName:  b.AccountName,
			AccountType:  string(b.AccountType),
			CurrencyCode: b.CurrencyCode,
			Quantity:     b.Quantity.String(),
			AsOf:         b.Timestamp.Format(time.RFC3339),
		}
		if b.ValueBase != nil {
			item.ValueBase = b.ValueBase.String()
		}
		if b.ValueSecondary != nil {
			item.ValueSecondary = b.ValueSecondary.String()
		}
		resp = append(resp, item)
	}
	c.JSON(http.StatusOK, resp)
}

type historyQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=0"`
}

func (h *reportingHandler) listNetWorthHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	history, err := h.snapshotRepo.ListNetWorthHistory(c.Request.Context(), q.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load net worth history"})
		return
	}
	if history == nil {
		history = []domain.NetWorthSummary{}
	}
	c.JSON(http.StatusOK, history)
}

type rateResponse struct {
	CurrencyID string `json:"currencyID"`
	Rate       string `json:"rate"`
	Source     string `json:"source"`
	UpdatedAt  string `json:"updatedAt"`
	Stale      bool   `json:"stale"`
}

func (h *reportingHandler) listRates(c *gin.Context) {
	rates, err := h.rateRepo.ListRates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rates"})
		return
	}

	cutoff := time.Now().Add(-services.StaleRateWindow)
	resp := make([]rateResponse, 0, len(rates))
	for _, r := range rates {
		resp = append(resp, rateResponse{
			CurrencyID: r.CurrencyID,
			Rate:       r.Rate.String(),
			Source:     r.Source,
			UpdatedAt:  r.UpdatedAt.Format(time.RFC3339),
			Stale:      r.UpdatedAt.Before(cutoff),
		})
	}
	c.JSON(http.StatusOK, resp)
}
