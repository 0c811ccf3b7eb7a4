package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plrectco/dcf/internal/domain"
	mock_repository "github.com/plrectco/dcf/internal/repository/mocks"
	"github.com/plrectco/dcf/internal/service"
	"github.com/plrectco/dcf/internal/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newTestSnapshot(ticker string, price float64) *domain.FinancialSnapshot {
	return &domain.FinancialSnapshot{
		Ticker:                 ticker,
		CurrentPrice:           price,
		MarketCap:              800_000_000,
		Beta:                   1.2,
		SharesOutstanding:      10_000_000,
		RiskFreeRate:           0.04,
		TotalDebt:              200_000_000,
		InterestExpense:        domain.Float64Ptr(10_000_000),
		TaxProvision:           21_000_000,
		PretaxIncome:           100_000_000,
		FreeCashFlow:           50_000_000,
		CashAndEquivalents:     30_000_000,
		NearTermGrowthEstimate: 0.05,
	}
}

func newTestEngine(t *testing.T) (*gin.Engine, *mock_repository.MockSnapshotRepository) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	snapshotRepository := mock_repository.NewMockSnapshotRepository(ctrl)

	handler := ApiHandler{
		ValuationService: service.NewValuationService(snapshotRepository),
		Config:           *util.NewDefaultConfig(),
		Logger:           zap.NewNop().Sugar(),
	}
	return handler.InitializeRouterEngine(), snapshotRepository
}

func post(engine *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dcf", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	return w
}

func TestDcfResolver(t *testing.T) {
	t.Run("ranks tickers", func(t *testing.T) {
		engine, snapshotRepository := newTestEngine(t)
		snapshotRepository.EXPECT().Get(gomock.Any(), "AAA").Return(newTestSnapshot("AAA", 500), nil)
		snapshotRepository.EXPECT().Get(gomock.Any(), "BBB").Return(newTestSnapshot("BBB", 10), nil)
		snapshotRepository.EXPECT().Get(gomock.Any(), "ZZZZ").Return(nil, &domain.NotFoundError{Ticker: "ZZZZ"})

		w := post(engine, `{"years": 5, "tickers": ["AAA", "BBB", "ZZZZ"]}`)
		require.Equal(t, http.StatusOK, w.Code)

		report := domain.BatchReport{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		require.Equal(t, 5, report.Years)
		require.Len(t, report.Ranked, 2)
		require.Equal(t, "BBB", report.Ranked[0].Ticker)
		require.Len(t, report.Ranked[0].CashFlows, 5)
		require.Equal(t, 0.03, report.Ranked[0].TerminalGrowthRate)
		require.Equal(t, []domain.TickerFailure{
			{Ticker: "ZZZZ", Kind: domain.ErrorKindNotFound, Message: "failed to get snapshot for ZZZZ: ticker ZZZZ not found"},
		}, report.Failures)

		_, err := uuid.Parse(w.Header().Get(requestIDHeader))
		require.NoError(t, err)
	})

	t.Run("overrides assumptions", func(t *testing.T) {
		engine, snapshotRepository := newTestEngine(t)
		snapshotRepository.EXPECT().Get(gomock.Any(), "AAA").Return(newTestSnapshot("AAA", 100), nil)

		w := post(engine, `{"tickers": ["AAA"], "terminalGrowthRate": 0.02, "marketReturn": 0.09}`)
		require.Equal(t, http.StatusOK, w.Code)

		report := domain.BatchReport{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		require.Equal(t, 10, report.Years)
		require.Equal(t, 0.02, report.Ranked[0].TerminalGrowthRate)
	})

	t.Run("overflowing horizon still returns a body", func(t *testing.T) {
		engine, snapshotRepository := newTestEngine(t)
		hot := newTestSnapshot("HOT", 100)
		hot.NearTermGrowthEstimate = 0.12
		snapshotRepository.EXPECT().Get(gomock.Any(), "HOT").Return(hot, nil)

		w := post(engine, `{"years": 8000, "tickers": ["HOT"]}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotZero(t, w.Body.Len())

		report := domain.BatchReport{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		require.Empty(t, report.Ranked)
		require.Len(t, report.Failures, 1)
		require.Equal(t, domain.ErrorKindNonFinite, report.Failures[0].Kind)
	})

	t.Run("bad input", func(t *testing.T) {
		engine, _ := newTestEngine(t)

		for _, body := range []string{
			`{"years": 5, "tickers": []}`,
			`{"years": -1, "tickers": ["AAA"]}`,
			`{"years": "ten"}`,
		} {
			w := post(engine, body)
			require.Equal(t, http.StatusBadRequest, w.Code, body)
			require.Contains(t, w.Body.String(), `"error"`)
		}
	})
}

func TestHealth(t *testing.T) {
	engine, _ := newTestEngine(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "welcome to dcf")
}
