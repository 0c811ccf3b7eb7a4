package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plrectco/dcf/internal/service"
)

type dcfRequest struct {
	Years              int      `json:"years"`
	Tickers            []string `json:"tickers"`
	TerminalGrowthRate *float64 `json:"terminalGrowthRate"`
	MarketReturn       *float64 `json:"marketReturn"`
}

func (h ApiHandler) dcf(c *gin.Context) {
	var requestBody dcfRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(fmt.Errorf("invalid request body: %w", err), c, http.StatusBadRequest)
		return
	}

	opts := service.ValuationOptions{
		Years:              requestBody.Years,
		TerminalGrowthRate: h.Config.TerminalGrowthRate,
		MarketReturn:       h.Config.MarketReturn,
	}
	if opts.Years == 0 {
		opts.Years = h.Config.DefaultYears
	}
	if requestBody.TerminalGrowthRate != nil {
		opts.TerminalGrowthRate = *requestBody.TerminalGrowthRate
	}
	if requestBody.MarketReturn != nil {
		opts.MarketReturn = *requestBody.MarketReturn
	}

	report, err := h.ValuationService.ValueBatch(c.Request.Context(), requestBody.Tickers, opts)
	if err != nil {
		returnErrorJsonCode(err, c, statusCodeForError(err))
		return
	}

	c.JSON(http.StatusOK, report)
}
