package service

import (
	"testing"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/repository/repoargs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PortfolioServiceTestSuite struct {
	suite.Suite
	store   *memStore
	quotes  *fakeQuotes
	service *PortfolioService
	userID  int64
}

func TestPortfolioServiceSuite(t *testing.T) {
	suite.Run(t, new(PortfolioServiceTestSuite))
}

func (s *PortfolioServiceTestSuite) SetupTest() {
	s.store = newMemStore()
	s.quotes = newFakeQuotes()
	s.service = NewPortfolioService(&memUOW{store: s.store}, s.quotes)
	s.userID = s.store.addUser(decimal.RequireFromString("1234.56"))
}

// record дописывает запись в журнал напрямую, минуя торговые операции.
func (s *PortfolioServiceTestSuite) record(userID int64, symbol string, shares int64) {
	repo := &memTransRepo{store: s.store, locking: true}
	kind := domain.TransactionKindBought
	if shares < 0 {
		kind = domain.TransactionKindSold
	}
	_, err := repo.Create(s.T().Context(), repoargs.TransactionCreate{
		UserID:      userID,
		OperationID: uuid.New(),
		Kind:        kind,
		Symbol:      symbol,
		Shares:      shares,
		SharePrice:  decimal.NewNullDecimal(decimal.NewFromInt(1)),
	})
	s.Require().NoError(err)
}

func (s *PortfolioServiceTestSuite) TestPositions() {
	s.record(s.userID, "MSFT", 3)
	s.record(s.userID, "AAPL", 10)
	s.record(s.userID, "AAPL", -4)
	s.record(s.userID, "NFLX", 2)
	s.record(s.userID, "NFLX", -2)
	// чужие записи не учитываются.
	s.record(s.store.addUser(decimal.Zero), "AAPL", 100)

	positions, err := s.service.Positions(s.T().Context(), s.userID)
	s.Require().NoError(err)
	s.Equal([]domain.Position{
		{Symbol: "AAPL", Shares: 6},
		{Symbol: "MSFT", Shares: 3},
	}, positions)
}

func (s *PortfolioServiceTestSuite) TestValuate() {
	s.record(s.userID, "AAPL", 10)
	s.record(s.userID, "MSFT", 3)
	s.quotes.setPrice("AAPL", "150.25")
	s.quotes.setPrice("MSFT", "310.10")

	portfolio, err := s.service.Valuate(s.T().Context(), s.userID)
	s.Require().NoError(err)

	s.True(decimal.RequireFromString("1234.56").Equal(portfolio.Cash))
	s.Require().Len(portfolio.Holdings, 2)
	s.Equal("AAPL", portfolio.Holdings[0].Symbol)
	s.Equal("AAPL Inc.", portfolio.Holdings[0].Name)
	s.True(decimal.RequireFromString("1502.50").Equal(portfolio.Holdings[0].Total))
	s.True(decimal.RequireFromString("930.30").Equal(portfolio.Holdings[1].Total))

	expected := portfolio.Cash
	for _, h := range portfolio.Holdings {
		s.True(h.Price.Mul(decimal.NewFromInt(h.Shares)).Equal(h.Total))
		expected = expected.Add(h.Total)
	}
	s.True(expected.Equal(portfolio.GrandTotal))
	s.True(decimal.RequireFromString("3667.36").Equal(portfolio.GrandTotal))
}

func (s *PortfolioServiceTestSuite) TestValuate_Empty() {
	portfolio, err := s.service.Valuate(s.T().Context(), s.userID)
	s.Require().NoError(err)
	s.Empty(portfolio.Holdings)
	s.True(portfolio.Cash.Equal(portfolio.GrandTotal))
	s.Zero(s.quotes.calls)
}

func (s *PortfolioServiceTestSuite) TestValuate_QuoteFailureSurfaced() {
	s.record(s.userID, "AAPL", 1)
	s.record(s.userID, "GONE", 5)
	s.quotes.setPrice("AAPL", "150")

	// GONE есть в журнале, но сервис котировок его больше не знает.
	_, err := s.service.Valuate(s.T().Context(), s.userID)
	s.Require().ErrorIs(err, domain.ErrQuoteUnavailable)
	s.Require().NotErrorIs(err, domain.ErrInvalidSymbol)

	s.quotes.setUnavailable("AAPL", true)
	s.quotes.setPrice("GONE", "1")
	_, err = s.service.Valuate(s.T().Context(), s.userID)
	s.Require().ErrorIs(err, domain.ErrQuoteUnavailable)
}

func (s *PortfolioServiceTestSuite) TestValuate_Idempotent() {
	s.record(s.userID, "AAPL", 7)
	s.quotes.setPrice("AAPL", "99.99")
	before := s.store.state()

	first, err := s.service.Valuate(s.T().Context(), s.userID)
	s.Require().NoError(err)
	second, err := s.service.Valuate(s.T().Context(), s.userID)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(before, s.store.state())
}

func (s *PortfolioServiceTestSuite) TestUnknownUser() {
	_, err := s.service.Valuate(s.T().Context(), 999)
	s.Require().ErrorIs(err, domain.ErrRecordNotFound)
}
