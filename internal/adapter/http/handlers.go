package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coinfolio/coinfolio-backend/internal/domain"
	"github.com/coinfolio/coinfolio-backend/internal/usecase/ledger"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Decimals cross the wire as strings to avoid float rounding in clients.
type positionResponse struct {
	Asset            string `json:"asset"`
	QuantityHeld     string `json:"quantityHeld"`
	CostBasisUsd     string `json:"costBasisUsd"`
	PriceUsd         string `json:"priceUsd"`
	MarketValueUsd   string `json:"marketValueUsd"`
	UnrealizedPnlUsd string `json:"unrealizedPnlUsd"`
	PnlPercent       string `json:"pnlPercent"`
	Change7dPercent  string `json:"change7dPercent"`
}

type clientEquityResponse struct {
	ProfileID        string `json:"profileId"`
	Name             string `json:"name"`
	OwnershipPercent string `json:"ownershipPercent"`
	EquityValueUsd   string `json:"equityValueUsd"`
	PnlUsd           string `json:"pnlUsd"`
}

type overviewResponse struct {
	CashBalanceUsd         string                 `json:"cashBalanceUsd"`
	Positions              []positionResponse     `json:"positions"`
	TotalMarketValueUsd    string                 `json:"totalMarketValueUsd"`
	TotalPortfolioValueUsd string                 `json:"totalPortfolioValueUsd"`
	TotalUnrealizedPnlUsd  string                 `json:"totalUnrealizedPnlUsd"`
	TotalPnlPercent        string                 `json:"totalPnlPercent"`
	Clients                []clientEquityResponse `json:"clients"`
	Warnings               []string               `json:"warnings"`
}

type realizedSaleResponse struct {
	Asset       string    `json:"asset"`
	SoldAt      time.Time `json:"soldAt"`
	ProceedsUsd string    `json:"proceedsUsd"`
	CostUsd     string    `json:"costUsd"`
	PnlUsd      string    `json:"pnlUsd"`
	PnlPercent  string    `json:"pnlPercent"`
}

type transactionResponse struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	ProfileID     *string   `json:"profileId"`
	Type          string    `json:"type"`
	Asset         string    `json:"asset"`
	ValueUsd      string    `json:"valueUsd"`
	AssetQuantity string    `json:"assetQuantity"`
	PricePerUnit  string    `json:"pricePerUnit"`
}

type recordTransactionRequest struct {
	ProfileID     *string `json:"profileId"`
	Type          string  `json:"type"`
	Asset         string  `json:"asset"`
	ValueUsd      string  `json:"valueUsd"`
	AssetQuantity string  `json:"assetQuantity"`
	PricePerUnit  string  `json:"pricePerUnit"`
}

type createProfileRequest struct {
	Name string `json:"name"`
}

type profileResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	TotalDepositedUsd string `json:"totalDepositedUsd"`
}

// --- Helpers ---

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: msg})
}

func (s *Server) internalError(c *gin.Context, where string, err error) {
	s.Logger.Error("internal_error", zap.String("where", where), zap.Error(err))
	c.JSON(http.StatusInternalServerError, apiError{Code: "internal_server_error", Message: "internal server error"})
}

// parseDecimal parses an optional decimal field; empty means zero.
func parseDecimal(v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v)
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:            tx.ID.String(),
		CreatedAt:     tx.CreatedAt,
		Type:          string(tx.Type),
		Asset:         tx.Asset,
		ValueUsd:      tx.ValueUSD.String(),
		AssetQuantity: tx.AssetQuantity.String(),
		PricePerUnit:  tx.PricePerUnit.String(),
	}
	if tx.ProfileID != nil {
		id := tx.ProfileID.String()
		resp.ProfileID = &id
	}
	return resp
}

func toProfileResponse(profile *domain.Profile) profileResponse {
	return profileResponse{
		ID:                profile.ID.String(),
		Name:              profile.Name,
		TotalDepositedUsd: profile.TotalDepositedUSD.String(),
	}
}

// --- Handlers ---

func (s *Server) getPortfolio(c *gin.Context) {
	overview, err := s.DashboardService.GetOverview(c.Request.Context())
	if err != nil {
		s.internalError(c, "GetOverview", err)
		return
	}

	snapshot := overview.Snapshot
	resp := overviewResponse{
		CashBalanceUsd:         snapshot.CashBalanceUSD.String(),
		Positions:              make([]positionResponse, 0, len(snapshot.Positions)),
		TotalMarketValueUsd:    snapshot.TotalMarketValueUSD.String(),
		TotalPortfolioValueUsd: snapshot.TotalPortfolioValueUSD.String(),
		TotalUnrealizedPnlUsd:  snapshot.TotalUnrealizedPnlUSD.String(),
		TotalPnlPercent:        snapshot.TotalPnlPercent.String(),
		Clients:                make([]clientEquityResponse, 0, len(overview.Clients)),
		Warnings:               overview.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}

	for _, pos := range snapshot.Positions {
		resp.Positions = append(resp.Positions, positionResponse{
			Asset:            pos.Asset,
			QuantityHeld:     pos.QuantityHeld.String(),
			CostBasisUsd:     pos.CostBasisUSD.String(),
			PriceUsd:         pos.PriceUSD.String(),
			MarketValueUsd:   pos.MarketValueUSD.String(),
			UnrealizedPnlUsd: pos.UnrealizedPnlUSD.String(),
			PnlPercent:       pos.PnlPercent.String(),
			Change7dPercent:  pos.Change7dPercent.String(),
		})
	}

	for _, client := range overview.Clients {
		resp.Clients = append(resp.Clients, clientEquityResponse{
			ProfileID:        client.ProfileID.String(),
			Name:             client.Name,
			OwnershipPercent: client.OwnershipPercent.String(),
			EquityValueUsd:   client.EquityValueUSD.String(),
			PnlUsd:           client.PnlUSD.String(),
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) getRealizedSales(c *gin.Context) {
	overview, err := s.DashboardService.GetOverview(c.Request.Context())
	if err != nil {
		s.internalError(c, "GetOverview", err)
		return
	}

	rows := make([]realizedSaleResponse, 0, len(overview.RealizedSales))
	for _, sale := range overview.RealizedSales {
		rows = append(rows, realizedSaleResponse{
			Asset:       sale.Asset,
			SoldAt:      sale.SoldAt,
			ProceedsUsd: sale.ProceedsUSD.String(),
			CostUsd:     sale.CostUSD.String(),
			PnlUsd:      sale.PnlUSD.String(),
			PnlPercent:  sale.PnlPercent.String(),
		})
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) getTransactions(c *gin.Context) {
	transactions, err := s.LedgerService.ListTransactions(c.Request.Context())
	if err != nil {
		s.internalError(c, "ListTransactions", err)
		return
	}

	rows := make([]transactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, toTransactionResponse(tx))
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) postTransaction(c *gin.Context) {
	var req recordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body")
		return
	}

	input := ledger.RecordTransactionInput{
		Type:  domain.TransactionType(req.Type),
		Asset: req.Asset,
	}

	if req.ProfileID != nil && *req.ProfileID != "" {
		id, err := uuid.Parse(*req.ProfileID)
		if err != nil {
			s.badRequest(c, "invalid profileId format")
			return
		}
		input.ProfileID = &id
	}

	var err error
	if input.ValueUSD, err = parseDecimal(req.ValueUsd); err != nil {
		s.badRequest(c, "invalid valueUsd format")
		return
	}
	if input.AssetQuantity, err = parseDecimal(req.AssetQuantity); err != nil {
		s.badRequest(c, "invalid assetQuantity format")
		return
	}
	if input.PricePerUnit, err = parseDecimal(req.PricePerUnit); err != nil {
		s.badRequest(c, "invalid pricePerUnit format")
		return
	}

	tx, err := s.LedgerService.Record(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, apiError{Code: "not_found", Message: err.Error()})
		case errors.Is(err, ledger.ErrInvalidInput):
			s.badRequest(c, err.Error())
		default:
			s.internalError(c, "Record", err)
		}
		return
	}

	c.JSON(http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) getProfiles(c *gin.Context) {
	profiles, err := s.LedgerService.ListProfiles(c.Request.Context())
	if err != nil {
		s.internalError(c, "ListProfiles", err)
		return
	}

	rows := make([]profileResponse, 0, len(profiles))
	for _, profile := range profiles {
		rows = append(rows, toProfileResponse(profile))
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) postProfile(c *gin.Context) {
	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body")
		return
	}

	profile, err := s.LedgerService.CreateProfile(c.Request.Context(), req.Name)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidInput) {
			s.badRequest(c, err.Error())
		} else {
			s.internalError(c, "CreateProfile", err)
		}
		return
	}

	c.JSON(http.StatusCreated, toProfileResponse(profile))
}
