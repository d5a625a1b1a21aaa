package quotes

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/transport/quotes/client"
	"github.com/fsdevblog/groph-trader/internal/transport/quotes/mocks"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type GatewayTestSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	mockClient *mocks.MockClient
	mockCache  *mocks.MockCache
	gateway    *Gateway
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewayTestSuite))
}

func (s *GatewayTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockClient = mocks.NewMockClient(s.ctrl)
	s.mockCache = mocks.NewMockCache(s.ctrl)

	l := logrus.New()
	l.SetOutput(io.Discard)

	s.gateway = New(s.mockClient, l).
		SetTimeout(100 * time.Millisecond).
		SetWorkers(2)
}

func (s *GatewayTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *GatewayTestSuite) TestLookup_Success() {
	s.mockClient.EXPECT().GetQuote(gomock.Any(), "AAPL").Return(&client.Response{
		Symbol:      "aapl",
		CompanyName: "Apple Inc.",
		LatestPrice: decimal.NewFromInt(150),
	}, nil)

	quote, err := s.gateway.Lookup(s.T().Context(), " aapl ")
	s.Require().NoError(err)
	s.Equal("AAPL", quote.Symbol)
	s.Equal("Apple Inc.", quote.Name)
	s.True(decimal.NewFromInt(150).Equal(quote.Price))
}

func (s *GatewayTestSuite) TestLookup_CacheMissThenStore() {
	s.gateway.SetCache(s.mockCache)

	s.mockCache.EXPECT().Get(gomock.Any(), "AAPL").Return(nil, domain.ErrRecordNotFound)
	s.mockClient.EXPECT().GetQuote(gomock.Any(), "AAPL").Return(&client.Response{
		Symbol:      "AAPL",
		CompanyName: "Apple Inc.",
		LatestPrice: decimal.NewFromInt(150),
	}, nil)
	s.mockCache.EXPECT().Set(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, quote domain.Quote) error {
			s.Equal("AAPL", quote.Symbol)
			return nil
		})

	_, err := s.gateway.Lookup(s.T().Context(), "AAPL")
	s.Require().NoError(err)
}

func (s *GatewayTestSuite) TestLookup_CacheHit() {
	s.gateway.SetCache(s.mockCache)

	cached := &domain.Quote{Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.NewFromInt(149)}
	s.mockCache.EXPECT().Get(gomock.Any(), "AAPL").Return(cached, nil)
	// котировка есть в кеше, внешний сервис не вызывается.
	s.mockClient.EXPECT().GetQuote(gomock.Any(), gomock.Any()).Times(0)

	quote, err := s.gateway.Lookup(s.T().Context(), "AAPL")
	s.Require().NoError(err)
	s.Equal(cached, quote)
}

func (s *GatewayTestSuite) TestLookup_Errors() {
	s.mockClient.EXPECT().GetQuote(gomock.Any(), "ZZZZ").Return(nil, client.ErrNotFound)
	s.mockClient.EXPECT().GetQuote(gomock.Any(), "DOWN").
		Return(nil, client.NewStatusCodeError(http.StatusBadGateway))
	s.mockClient.EXPECT().GetQuote(gomock.Any(), "SLOW").
		DoAndReturn(func(ctx context.Context, _ string) (*client.Response, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
	// Retry-After больше таймаута: повторной попытки быть не должно.
	s.mockClient.EXPECT().GetQuote(gomock.Any(), "BUSY").
		Return(nil, client.NewTooManyRequestError(time.Minute)).Times(1)

	cases := []struct {
		name    string
		symbol  string
		wantErr error
	}{
		{name: "unknown symbol", symbol: "ZZZZ", wantErr: domain.ErrInvalidSymbol},
		{name: "bad gateway", symbol: "DOWN", wantErr: domain.ErrQuoteUnavailable},
		{name: "timeout", symbol: "SLOW", wantErr: domain.ErrQuoteUnavailable},
		{name: "rate limited", symbol: "BUSY", wantErr: domain.ErrQuoteUnavailable},
		{name: "malformed symbol", symbol: "A B", wantErr: domain.ErrInvalidInput},
		{name: "empty symbol", symbol: "", wantErr: domain.ErrInvalidInput},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			quote, err := s.gateway.Lookup(s.T().Context(), t.symbol)
			s.Require().ErrorIs(err, t.wantErr)
			s.Nil(quote)
		})
	}
}

func (s *GatewayTestSuite) TestLookup_RetryAfterTooManyRequests() {
	s.gateway.SetTimeout(3 * time.Second)

	gomock.InOrder(
		s.mockClient.EXPECT().GetQuote(gomock.Any(), "AAPL").
			Return(nil, client.NewTooManyRequestError(10*time.Millisecond)),
		s.mockClient.EXPECT().GetQuote(gomock.Any(), "AAPL").
			Return(&client.Response{Symbol: "AAPL", LatestPrice: decimal.NewFromInt(1)}, nil),
	)

	quote, err := s.gateway.Lookup(s.T().Context(), "AAPL")
	s.Require().NoError(err)
	s.Equal("AAPL", quote.Symbol)
}

func (s *GatewayTestSuite) TestLookupMany() {
	s.mockClient.EXPECT().GetQuote(gomock.Any(), "AAPL").
		Return(&client.Response{Symbol: "AAPL", LatestPrice: decimal.NewFromInt(150)}, nil).AnyTimes()
	s.mockClient.EXPECT().GetQuote(gomock.Any(), "MSFT").
		Return(&client.Response{Symbol: "MSFT", LatestPrice: decimal.NewFromInt(300)}, nil).AnyTimes()
	s.mockClient.EXPECT().GetQuote(gomock.Any(), "GONE").
		Return(nil, client.ErrNotFound).AnyTimes()

	s.Run("all resolved", func() {
		quotes, err := s.gateway.LookupMany(s.T().Context(), []string{"AAPL", "MSFT"})
		s.Require().NoError(err)
		s.Len(quotes, 2)
		s.True(decimal.NewFromInt(150).Equal(quotes["AAPL"].Price))
		s.True(decimal.NewFromInt(300).Equal(quotes["MSFT"].Price))
	})

	s.Run("one missing", func() {
		quotes, err := s.gateway.LookupMany(s.T().Context(), []string{"AAPL", "GONE", "MSFT"})
		s.Require().ErrorIs(err, domain.ErrInvalidSymbol)
		s.Nil(quotes)
	})

	s.Run("empty", func() {
		quotes, err := s.gateway.LookupMany(s.T().Context(), nil)
		s.Require().NoError(err)
		s.Empty(quotes)
	})
}
