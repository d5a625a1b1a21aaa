package service

import (
	"context"
	"testing"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/repository/repoargs"
	"github.com/fsdevblog/groph-trader/internal/service/mocks"
	"github.com/fsdevblog/groph-trader/pkg/uow"
	uowmocks "github.com/fsdevblog/groph-trader/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerTestSuite struct {
	suite.Suite
	mockCtrl      *gomock.Controller
	mockTX        *uowmocks.MockTX
	mockUserRepo  *mocks.MockUserRepository
	mockTransRepo *mocks.MockTransactionRepository
	ledger        *Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (s *LedgerTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockTX = uowmocks.NewMockTX(s.mockCtrl)
	s.mockUserRepo = mocks.NewMockUserRepository(s.mockCtrl)
	s.mockTransRepo = mocks.NewMockTransactionRepository(s.mockCtrl)
	s.ledger = NewLedger()

	// Мок получения репозиториев из транзакции.
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.UserRepoName)).
		Return(s.mockUserRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.TransactionRepoName)).
		Return(s.mockTransRepo, nil).AnyTimes()
}

func (s *LedgerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *LedgerTestSuite) TestDebit() {
	var userID int64 = 7
	cash := decimal.RequireFromString("1000.00")

	cases := []struct {
		name     string
		amount   decimal.Decimal
		wantErr  error
		wantCash decimal.Decimal
	}{
		{name: "less than cash", amount: decimal.NewFromInt(400), wantCash: decimal.NewFromInt(600)},
		{name: "equal to cash", amount: cash, wantCash: decimal.Zero},
		{name: "more than cash", amount: decimal.RequireFromString("1000.01"), wantErr: domain.ErrInsufficientFunds},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			s.mockUserRepo.EXPECT().LockCash(gomock.Any(), userID).Return(cash, nil)
			if t.wantErr == nil {
				s.mockUserRepo.EXPECT().AddCash(gomock.Any(), userID, t.amount.Neg()).Return(t.wantCash, nil)
			}

			newCash, err := s.ledger.Debit(s.T().Context(), s.mockTX, userID, t.amount)
			if t.wantErr != nil {
				s.Require().ErrorIs(err, t.wantErr)
				return
			}
			s.Require().NoError(err)
			s.True(t.wantCash.Equal(newCash))
		})
	}
}

func (s *LedgerTestSuite) TestDebit_LockError() {
	s.mockUserRepo.EXPECT().LockCash(gomock.Any(), int64(1)).Return(decimal.Zero, domain.ErrUnknown)
	s.mockUserRepo.EXPECT().AddCash(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := s.ledger.Debit(s.T().Context(), s.mockTX, 1, decimal.NewFromInt(1))
	s.Require().ErrorIs(err, domain.ErrUnknown)
}

func (s *LedgerTestSuite) TestCredit() {
	s.mockUserRepo.EXPECT().LockCash(gomock.Any(), int64(1)).Return(decimal.NewFromInt(1000), nil)
	s.mockUserRepo.EXPECT().AddCash(gomock.Any(), int64(1), decimal.NewFromInt(500)).
		Return(decimal.NewFromInt(1500), nil)

	cash, err := s.ledger.Credit(s.T().Context(), s.mockTX, 1, decimal.NewFromInt(500))
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(1500).Equal(cash))
}

func (s *LedgerTestSuite) TestCredit_CashLimit() {
	s.mockUserRepo.EXPECT().LockCash(gomock.Any(), int64(1)).Return(decimal.NewFromInt(1000), nil).Times(2)
	s.mockUserRepo.EXPECT().AddCash(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, delta decimal.Decimal) (decimal.Decimal, error) {
			return decimal.NewFromInt(1000).Add(delta), nil
		}).Times(1)

	// ровно до предела зачислить можно.
	upToLimit := domain.MaxCash.Sub(decimal.NewFromInt(1000))
	cash, err := s.ledger.Credit(s.T().Context(), s.mockTX, 1, upToLimit)
	s.Require().NoError(err)
	s.True(domain.MaxCash.Equal(cash))

	// на цент больше - нет, и до хранилища запрос не доходит.
	_, err = s.ledger.Credit(s.T().Context(), s.mockTX, 1, upToLimit.Add(decimal.RequireFromString("0.01")))
	s.Require().ErrorIs(err, domain.ErrCashLimit)
	s.Require().ErrorIs(err, domain.ErrInvalidInput)
}

func (s *LedgerTestSuite) TestAppend() {
	args := repoargs.TransactionCreate{
		UserID:      1,
		OperationID: uuid.New(),
		Kind:        domain.TransactionKindDeposit,
		Amount:      decimal.NewFromInt(500),
	}
	s.mockTransRepo.EXPECT().Create(gomock.Any(), args).
		Return(&domain.Transaction{ID: 10, UserID: 1, OperationID: args.OperationID, Kind: args.Kind}, nil)

	trans, err := s.ledger.Append(s.T().Context(), s.mockTX, args)
	s.Require().NoError(err)
	s.Equal(int64(10), trans.ID)
}

func (s *LedgerTestSuite) TestHolding() {
	s.mockTransRepo.EXPECT().SumShares(gomock.Any(), int64(1), "AAPL").Return(int64(12), nil)

	shares, err := s.ledger.Holding(s.T().Context(), s.mockTX, 1, "AAPL")
	s.Require().NoError(err)
	s.Equal(int64(12), shares)
}
