package crm

import (
	"context"
	"testing"

	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func snap(clientID uint, number, source, fundType, date, amount string) crm.Snapshot {
	s := crm.Snapshot{
		ClientID:     clientID,
		FundCode:     number,
		Amount:       decimal.RequireFromString(amount),
		SnapshotDate: date,
		IsActive:     true,
	}
	if number != "" {
		s.FundNumber = strPtr(number)
	}
	if source != "" {
		s.Source = strPtr(source)
	}
	if fundType != "" {
		s.FundType = strPtr(fundType)
	}
	return s
}

func portfolio() []crm.Snapshot {
	return []crm.Snapshot{
		snap(1, "100", "FNX", "גמל", "2024-01-01", "1000.105"),
		snap(1, "101", "AS", "השתלמות", "2024-01-01", "500"),
		snap(2, "200", "", "", "2024-01-01", "250.50"),
		snap(1, "100", "FNX", "גמל", "2024-02-01", "1100"),
		snap(2, "200", "AS", "", "2024-02-01", "300"),
		snap(2, "201", "AS", "", "2024-02-15", "50"),
	}
}

func TestSnapshotService_Summary(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to the latest month", func(t *testing.T) {
		repo := new(MockSnapshotRepository)
		svc := NewSnapshotService(nil, repo, nil, nil)
		repo.On("FindActive", ctx).Return(portfolio(), nil)

		resp, err := svc.Summary(ctx, "")
		require.NoError(t, err)
		require.NotNil(t, resp.Month)
		assert.Equal(t, "2024-02", *resp.Month)
		assert.Equal(t, 1450.0, resp.Total)
		assert.Equal(t, []BreakdownItem{{Name: "FNX", Amount: 1100}, {Name: "AS", Amount: 350}}, resp.BySource)
		assert.Equal(t, []BreakdownItem{{Name: "גמל", Amount: 1100}, {Name: crm.UnknownFundType, Amount: 350}}, resp.ByFundType)
	})

	t.Run("explicit month with unknown labels and rounding", func(t *testing.T) {
		repo := new(MockSnapshotRepository)
		svc := NewSnapshotService(nil, repo, nil, nil)
		repo.On("FindActive", ctx).Return(portfolio(), nil)

		resp, err := svc.Summary(ctx, "2024-01")
		require.NoError(t, err)
		assert.Equal(t, 1750.61, resp.Total)
		assert.Contains(t, resp.BySource, BreakdownItem{Name: crm.UnknownSource, Amount: 250.5})
	})

	t.Run("no snapshots", func(t *testing.T) {
		repo := new(MockSnapshotRepository)
		svc := NewSnapshotService(nil, repo, nil, nil)
		repo.On("FindActive", ctx).Return([]crm.Snapshot{}, nil)

		resp, err := svc.Summary(ctx, "")
		require.NoError(t, err)
		assert.Nil(t, resp.Month)
		assert.Zero(t, resp.Total)
		assert.Empty(t, resp.BySource)
	})

	t.Run("served from cache until invalidated", func(t *testing.T) {
		repo := new(MockSnapshotRepository)
		clients := new(MockClientRepository)
		cache := newMemoryCache()
		svc := NewSnapshotService(clients, repo, cache, nil)
		repo.On("FindActive", ctx).Return(portfolio(), nil).Once()

		first, err := svc.Summary(ctx, "")
		require.NoError(t, err)
		second, err := svc.Summary(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		repo.AssertNumberOfCalls(t, "FindActive", 1)

		clients.On("FindByID", ctx, uint(1)).Return(newTestClient(1, "1", "x"), nil)
		repo.On("Save", ctx, mock.AnythingOfType("*crm.Snapshot")).Return(nil)
		_, err = svc.Create(ctx, 1, CreateSnapshotRequest{
			FundCode:     "100",
			Amount:       decimal.NewFromInt(10),
			SnapshotDate: "2024-03-01",
		})
		require.NoError(t, err)
		assert.Zero(t, cache.len())
	})
}

func TestSnapshotService_Create(t *testing.T) {
	ctx := context.Background()
	clients := new(MockClientRepository)
	repo := new(MockSnapshotRepository)
	svc := NewSnapshotService(clients, repo, nil, nil)

	clients.On("FindByID", ctx, uint(1)).Return(newTestClient(1, "1", "x"), nil)
	clients.On("FindByID", ctx, uint(2)).Return(nil, shared.ErrClientNotFound)
	repo.On("Save", ctx, mock.AnythingOfType("*crm.Snapshot")).Return(nil)

	inactive := false
	resp, err := svc.Create(ctx, 1, CreateSnapshotRequest{
		FundCode:     "555",
		FundName:     strPtr(" "),
		Source:       strPtr("FNX"),
		Amount:       decimal.RequireFromString("12.5"),
		SnapshotDate: "2024-03-01",
		IsActive:     &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, 12.5, resp.Amount)
	assert.Nil(t, resp.FundName)
	assert.False(t, resp.IsActive)

	_, err = svc.Create(ctx, 1, CreateSnapshotRequest{FundCode: "555", SnapshotDate: "03/2024"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Create(ctx, 2, CreateSnapshotRequest{FundCode: "555", SnapshotDate: "2024-03-01"})
	assert.ErrorIs(t, err, shared.ErrClientNotFound)
}

func TestSnapshotService_MonthlyChange(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSnapshotRepository)
	svc := NewSnapshotService(nil, repo, nil, nil)

	data := append(portfolio(),
		snap(3, "300", "", "", "2023-12-01", "0"),
	)
	repo.On("FindActive", ctx).Return(data, nil)

	points, err := svc.MonthlyChange(ctx)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "2023-12", points[0].Month)
	assert.Nil(t, points[0].Change)
	assert.Nil(t, points[0].PercentChange)

	assert.Equal(t, 1750.61, points[1].Total)
	require.NotNil(t, points[1].Change)
	assert.Equal(t, 1750.61, *points[1].Change)
	assert.Nil(t, points[1].PercentChange, "previous total of zero has no percentage")

	require.NotNil(t, points[2].PercentChange)
	assert.Equal(t, -300.61, *points[2].Change)
	assert.Equal(t, -17.17, *points[2].PercentChange)
}

func TestSnapshotService_History(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSnapshotRepository)
	svc := NewSnapshotService(nil, repo, nil, nil)

	repo.On("FindActive", ctx).Return(portfolio(), nil)
	repo.On("FindActiveByClient", ctx, uint(2)).Return([]crm.Snapshot{
		snap(2, "200", "", "", "2024-01-01", "250.50"),
		snap(2, "200", "AS", "", "2024-02-01", "300"),
	}, nil)

	all, err := svc.History(ctx, 0)
	require.NoError(t, err)
	// 2024-02-01 and 2024-02-15 fall into one month
	assert.Equal(t, []HistoryPoint{
		{Month: "2024-01", Amount: 1750.61},
		{Month: "2024-02", Amount: 1450},
	}, all)

	one, err := svc.History(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []HistoryPoint{
		{Month: "2024-01", Amount: 250.5},
		{Month: "2024-02", Amount: 300},
	}, one)
}

func TestSnapshotService_FundHistory(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSnapshotRepository)
	svc := NewSnapshotService(nil, repo, nil, nil)

	repo.On("FindByClientAndFund", ctx, uint(1), "100").Return([]crm.Snapshot{
		snap(1, "100", "FNX", "גמל", "2024-01-01", "1000"),
		snap(1, "100", "", "גמל", "2024-02-01", "1100.25"),
	}, nil)

	points, err := svc.FundHistory(ctx, 1, " 100 ")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Nil(t, points[0].Change)
	assert.Equal(t, "FNX", points[0].Source)
	assert.Equal(t, "", points[1].Source)
	assert.Equal(t, 100.25, *points[1].Change)

	_, err = svc.FundHistory(ctx, 0, "100")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestSnapshotService_ClientsSummary(t *testing.T) {
	ctx := context.Background()
	clients := new(MockClientRepository)
	repo := new(MockSnapshotRepository)
	svc := NewSnapshotService(clients, repo, newMemoryCache(), nil)

	clients.On("FindAll", ctx).Return([]client.Client{
		*newTestClient(1, "111", "זאב"),
		*newTestClient(2, "222", "אבי"),
		*newTestClient(3, "333", "בני"),
	}, nil)
	repo.On("FindActive", ctx).Return(portfolio(), nil)

	items, err := svc.ClientsSummary(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "אבי", items[0].FullName)
	assert.Equal(t, 350.0, items[0].TotalAmount)
	assert.Equal(t, "אלטשולר-שחם", items[0].Sources)
	assert.Equal(t, "AS", items[0].RawSources)
	assert.Equal(t, 2, items[0].FundCount)
	assert.Equal(t, "2024-02-15", *items[0].LastUpdate)

	assert.Equal(t, "בני", items[1].FullName)
	assert.Equal(t, crm.NoData, items[1].Sources)
	assert.Zero(t, items[1].FundCount)
	assert.Nil(t, items[1].LastUpdate)

	jan, err := svc.ClientsSummary(ctx, "2024-01")
	require.NoError(t, err)
	assert.Equal(t, "זאב", jan[2].FullName)
	assert.Equal(t, "אלטשולר-שחם, הפניקס", jan[2].Sources)
	assert.Equal(t, "AS,FNX", jan[2].RawSources)
	assert.Equal(t, 1500.11, jan[2].TotalAmount)
}
