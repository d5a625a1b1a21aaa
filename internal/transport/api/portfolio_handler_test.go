package api

import (
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/logger"
	"github.com/fsdevblog/groph-trader/internal/service/tokens"
	"github.com/fsdevblog/groph-trader/internal/transport/api/mocks"
	"github.com/fsdevblog/groph-trader/internal/transport/api/testutils"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PortfolioHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockTradingService *mocks.MockTradingServicer
	userID             int64
	token              string
}

func TestPortfolioHandlerSuite(t *testing.T) {
	suite.Run(t, new(PortfolioHandlerTestSuite))
}

func (s *PortfolioHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	s.mockTradingService = mocks.NewMockTradingServicer(mockCtrl)

	jwtSecret := []byte("super secret key")
	s.userID = 3
	token, tokenErr := tokens.GenerateUserJWT(s.userID, time.Hour, jwtSecret)
	s.Require().NoError(tokenErr)
	s.token = token

	router, err := New(RouterArgs{
		Logger:         logger.New(io.Discard, "error"),
		TradingService: s.mockTradingService,
		JWTSecretKey:   jwtSecret,
	})
	s.Require().NoError(err)
	s.router = router
}

func (s *PortfolioHandlerTestSuite) get(url string) *http.Response {
	return testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    url,
	}, testutils.WithHeader("Accept", "application/json"), testutils.WithBearer(s.token))
}

func (s *PortfolioHandlerTestSuite) TestIndex() {
	s.mockTradingService.EXPECT().GetPortfolio(gomock.Any(), s.userID).Return(&domain.Portfolio{
		Cash: decimal.RequireFromString("2167.36"),
		Holdings: []domain.Holding{{
			Symbol: "AAPL",
			Name:   "Apple Inc.",
			Shares: 10,
			Price:  decimal.NewFromInt(150),
			Total:  decimal.NewFromInt(1500),
		}},
		GrandTotal: decimal.RequireFromString("3667.36"),
	}, nil).Times(1)

	resp := s.get(RouteGroup + PortfolioRoute)
	s.Equal(http.StatusOK, resp.StatusCode)

	var body PortfolioResponse
	s.Require().NoError(testutils.DecodeJSON(resp, &body))
	s.Equal("$2,167.36", body.CashUSD)
	s.Equal("$3,667.36", body.GrandTotalUSD)
	s.InDelta(3667.36, body.GrandTotal, 0.001)
	s.Require().Len(body.Holdings, 1)
	s.Equal("AAPL", body.Holdings[0].Symbol)
	s.Equal(int64(10), body.Holdings[0].Shares)
	s.Equal("$1,500.00", body.Holdings[0].TotalUSD)
}

func (s *PortfolioHandlerTestSuite) TestIndex_QuoteUnavailable() {
	cases := []struct {
		name string
		err  error
	}{
		{
			name: "quote service down",
			err:  errors.Wrap(domain.ErrQuoteUnavailable, "valuating portfolio of user 3: lookup AAPL"),
		}, {
			// делистинг: тикер из журнала сервис котировок больше не знает.
			name: "delisted holding",
			err: fmt.Errorf("valuating portfolio of user 3: %w: %s",
				domain.ErrQuoteUnavailable, "lookup GONE: invalid symbol"),
		},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			s.mockTradingService.EXPECT().GetPortfolio(gomock.Any(), s.userID).Return(nil, t.err).Times(1)

			resp := s.get(RouteGroup + PortfolioRoute)
			s.Equal(http.StatusServiceUnavailable, resp.StatusCode)

			var body struct {
				Error string `json:"error"`
			}
			s.Require().NoError(testutils.DecodeJSON(resp, &body))
			s.Equal(domain.ErrQuoteUnavailable.Error(), body.Error)
		})
	}
}

func (s *PortfolioHandlerTestSuite) TestHistory() {
	s.Run("empty", func() {
		s.mockTradingService.EXPECT().GetHistory(gomock.Any(), s.userID).Return(nil, nil).Times(1)

		resp := s.get(RouteGroup + HistoryRoute)
		defer resp.Body.Close()
		s.Equal(http.StatusNoContent, resp.StatusCode)
	})

	s.Run("ordered", func() {
		now := time.Now().UTC().Truncate(time.Second)
		history := []domain.Transaction{
			{
				OperationID: uuid.New(),
				Kind:        domain.TransactionKindBought,
				Symbol:      "AAPL",
				Shares:      10,
				SharePrice:  decimal.NewNullDecimal(decimal.NewFromInt(150)),
				Amount:      decimal.NewFromInt(-1500),
				CreatedAt:   now.Add(-time.Minute),
			}, {
				OperationID: uuid.New(),
				Kind:        domain.TransactionKindSold,
				Symbol:      "AAPL",
				Shares:      -4,
				SharePrice:  decimal.NewNullDecimal(decimal.NewFromInt(160)),
				Amount:      decimal.NewFromInt(640),
				CreatedAt:   now,
			},
		}
		s.mockTradingService.EXPECT().GetHistory(gomock.Any(), s.userID).Return(history, nil).Times(1)

		resp := s.get(RouteGroup + HistoryRoute)
		s.Equal(http.StatusOK, resp.StatusCode)

		var body []TransactionResponse
		s.Require().NoError(testutils.DecodeJSON(resp, &body))
		s.Require().Len(body, 2)
		s.Equal("BOUGHT", body[0].Kind)
		s.Equal("SOLD", body[1].Kind)
		s.Equal(int64(-4), body[1].Shares)
		s.Equal("$640.00", body[1].AmountUSD)
		s.True(body[0].CreatedAt.Before(body[1].CreatedAt))
	})
}

func (s *PortfolioHandlerTestSuite) TestQuote() {
	s.mockTradingService.EXPECT().Quote(gomock.Any(), "aapl").Return(&domain.Quote{
		Symbol: "AAPL",
		Name:   "Apple Inc.",
		Price:  decimal.RequireFromString("150.255"),
	}, nil).Times(1)
	s.mockTradingService.EXPECT().Quote(gomock.Any(), "ZZZZ").
		Return(nil, errors.Wrap(domain.ErrInvalidSymbol, "lookup ZZZZ")).Times(1)

	resp := s.get(RouteGroup + "/quote/aapl")
	s.Equal(http.StatusOK, resp.StatusCode)
	var body QuoteResponse
	s.Require().NoError(testutils.DecodeJSON(resp, &body))
	s.Equal("AAPL", body.Symbol)
	s.Equal("$150.26", body.PriceUSD)

	notFound := s.get(RouteGroup + "/quote/ZZZZ")
	defer notFound.Body.Close()
	s.Equal(http.StatusNotFound, notFound.StatusCode)
}
