package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"optionrank/pkg/contracts/domain"
)

// MockChainProvider is a testify mock of domain.ChainProvider
type MockChainProvider struct {
	mock.Mock
}

func (m *MockChainProvider) FetchChain(ctx context.Context, symbol string, expiry time.Time) (*domain.ChainSnapshot, error) {
	args := m.Called(ctx, symbol, expiry)
	snap, _ := args.Get(0).(*domain.ChainSnapshot)
	return snap, args.Error(1)
}
