package crm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SnapshotService handles balance snapshots and the portfolio analytics built on them
type SnapshotService struct {
	clientRepo   client.ClientRepository
	snapshotRepo crm.SnapshotRepository
	cache        appshared.ReportCache
	logger       *zap.Logger
}

// NewSnapshotService creates a new SnapshotService
func NewSnapshotService(
	clientRepo client.ClientRepository,
	snapshotRepo crm.SnapshotRepository,
	cache appshared.ReportCache,
	logger *zap.Logger,
) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{
		clientRepo:   clientRepo,
		snapshotRepo: snapshotRepo,
		cache:        cache,
		logger:       logger,
	}
}

// ListForClient returns the client's snapshots, newest first
func (s *SnapshotService) ListForClient(ctx context.Context, clientID uint) ([]SnapshotResponse, error) {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return nil, err
	}
	snapshots, err := s.snapshotRepo.FindByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	items := make([]SnapshotResponse, len(snapshots))
	for i := range snapshots {
		items[i] = ToSnapshotResponse(&snapshots[i])
	}
	return items, nil
}

// Create adds a snapshot for the client
func (s *SnapshotService) Create(ctx context.Context, clientID uint, req CreateSnapshotRequest) (*SnapshotResponse, error) {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return nil, err
	}

	snapshot, err := crm.NewSnapshot(clientID, req.FundCode, req.Amount, strings.TrimSpace(req.SnapshotDate))
	if err != nil {
		return nil, err
	}
	snapshot.FundType = client.CleanText(req.FundType)
	snapshot.FundName = client.CleanText(req.FundName)
	snapshot.FundNumber = client.CleanText(req.FundNumber)
	snapshot.Source = client.CleanText(req.Source)
	if req.IsActive != nil {
		snapshot.IsActive = *req.IsActive
	}

	if err := s.snapshotRepo.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	appshared.InvalidateCRM(ctx, s.cache, s.logger)

	resp := ToSnapshotResponse(snapshot)
	return &resp, nil
}

// Summary totals the active snapshots of one month. An empty month selects
// the latest month present.
func (s *SnapshotService) Summary(ctx context.Context, month string) (*SummaryResponse, error) {
	month = strings.TrimSpace(month)
	key := appshared.CRMCachePrefix + "summary:" + month
	resp, err := appshared.CachedJSON(ctx, s.cache, s.logger, key, func() (*SummaryResponse, error) {
		snapshots, err := s.snapshotRepo.FindActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshots: %w", err)
		}
		return summarize(snapshots, month), nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func summarize(snapshots []crm.Snapshot, month string) *SummaryResponse {
	resp := &SummaryResponse{BySource: []BreakdownItem{}, ByFundType: []BreakdownItem{}}
	if month != "" {
		resp.Month = &month
	}

	target := month
	if target == "" {
		target = latestMonth(snapshots)
		if target == "" {
			return resp
		}
		resp.Month = &target
	}

	total := decimal.Zero
	bySource := map[string]decimal.Decimal{}
	byType := map[string]decimal.Decimal{}
	for _, snap := range snapshots {
		if snap.Month() != target {
			continue
		}
		total = total.Add(snap.Amount)

		src := crm.UnknownSource
		if snap.Source != nil && *snap.Source != "" {
			src = *snap.Source
		}
		bySource[src] = bySource[src].Add(snap.Amount)

		fundType := crm.UnknownFundType
		if snap.FundType != nil && *snap.FundType != "" {
			fundType = *snap.FundType
		}
		byType[fundType] = byType[fundType].Add(snap.Amount)
	}

	resp.Total = round2(total)
	resp.BySource = breakdown(bySource)
	resp.ByFundType = breakdown(byType)
	return resp
}

// MonthlyChange returns the month-over-month change of the overall total
func (s *SnapshotService) MonthlyChange(ctx context.Context) ([]MonthlyChangePoint, error) {
	snapshots, err := s.snapshotRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	totals := map[string]decimal.Decimal{}
	for _, snap := range snapshots {
		if m := snap.Month(); len(m) == 7 {
			totals[m] = totals[m].Add(snap.Amount)
		}
	}

	points := make([]MonthlyChangePoint, 0, len(totals))
	var prev *decimal.Decimal
	for _, month := range sortedKeys(totals) {
		total := totals[month]
		point := MonthlyChangePoint{Month: month, Total: round2(total)}
		if prev != nil {
			change := total.Sub(*prev)
			point.Change = floatPtr(round2(change))
			if prev.IsPositive() {
				point.PercentChange = floatPtr(round2(change.Div(*prev).Mul(decimal.NewFromInt(100))))
			}
		}
		points = append(points, point)
		prev = &total
	}
	return points, nil
}

// History returns the total per month for one client, or for all clients
// when clientID is 0.
func (s *SnapshotService) History(ctx context.Context, clientID uint) ([]HistoryPoint, error) {
	var (
		snapshots []crm.Snapshot
		err       error
	)
	if clientID == 0 {
		snapshots, err = s.snapshotRepo.FindActive(ctx)
	} else {
		snapshots, err = s.snapshotRepo.FindActiveByClient(ctx, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	totals := map[string]decimal.Decimal{}
	for _, snap := range snapshots {
		if m := snap.Month(); len(m) == 7 {
			totals[m] = totals[m].Add(snap.Amount)
		}
	}

	points := make([]HistoryPoint, 0, len(totals))
	for _, month := range sortedKeys(totals) {
		points = append(points, HistoryPoint{Month: month, Amount: round2(totals[month])})
	}
	return points, nil
}

// FundHistory returns the time series of one fund with the change from the
// previous point.
func (s *SnapshotService) FundHistory(ctx context.Context, clientID uint, fundNumber string) ([]FundHistoryPoint, error) {
	fundNumber = strings.TrimSpace(fundNumber)
	if clientID == 0 || fundNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "client_id and fund_number are required")
	}
	snapshots, err := s.snapshotRepo.FindByClientAndFund(ctx, clientID, fundNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund history: %w", err)
	}

	points := make([]FundHistoryPoint, 0, len(snapshots))
	var prev *decimal.Decimal
	for i := range snapshots {
		amount := snapshots[i].Amount
		point := FundHistoryPoint{
			Date:   snapshots[i].SnapshotDate,
			Amount: round2(amount),
			Source: snapshots[i].SourceOrEmpty(),
		}
		if prev != nil {
			point.Change = floatPtr(round2(amount.Sub(*prev)))
		}
		points = append(points, point)
		prev = &amount
	}
	return points, nil
}

type clientBucket struct {
	total       decimal.Decimal
	sources     map[string]bool
	fundNumbers map[string]bool
	lastUpdate  string
}

// ClientsSummary returns one row per client for the given month (latest
// month when empty), ordered by full name.
func (s *SnapshotService) ClientsSummary(ctx context.Context, month string) ([]ClientSummaryItem, error) {
	month = strings.TrimSpace(month)
	key := appshared.CRMCachePrefix + "clients-summary:" + month
	return appshared.CachedJSON(ctx, s.cache, s.logger, key, func() ([]ClientSummaryItem, error) {
		clients, err := s.clientRepo.FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list clients: %w", err)
		}
		snapshots, err := s.snapshotRepo.FindActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshots: %w", err)
		}
		return summarizeClients(clients, snapshots, month), nil
	})
}

func summarizeClients(clients []client.Client, snapshots []crm.Snapshot, month string) []ClientSummaryItem {
	target := month
	if target == "" {
		target = latestMonth(snapshots)
	}

	buckets := make(map[uint]*clientBucket, len(clients))
	for _, c := range clients {
		buckets[c.ID] = &clientBucket{sources: map[string]bool{}, fundNumbers: map[string]bool{}}
	}
	for _, snap := range snapshots {
		if target == "" || snap.Month() != target {
			continue
		}
		b, ok := buckets[snap.ClientID]
		if !ok {
			continue
		}
		b.total = b.total.Add(snap.Amount)
		if src := snap.SourceOrEmpty(); src != "" {
			b.sources[src] = true
		}
		if num := snap.FundNumberOrEmpty(); num != "" {
			b.fundNumbers[num] = true
		}
		if snap.SnapshotDate > b.lastUpdate {
			b.lastUpdate = snap.SnapshotDate
		}
	}

	ordered := make([]client.Client, len(clients))
	copy(ordered, clients)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].FullName < ordered[j].FullName
	})

	items := make([]ClientSummaryItem, 0, len(ordered))
	for _, c := range ordered {
		b := buckets[c.ID]
		codes := make([]string, 0, len(b.sources))
		for code := range b.sources {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		item := ClientSummaryItem{
			ClientID:    c.ID,
			FullName:    c.FullName,
			IDNumber:    client.Deref(c.IDNumber),
			TotalAmount: round2(b.total),
			Sources:     crm.NoData,
			RawSources:  crm.NoData,
			FundCount:   len(b.fundNumbers),
		}
		if len(codes) > 0 {
			names := make([]string, len(codes))
			for i, code := range codes {
				names[i] = crm.SourceDisplayName(code)
			}
			item.Sources = strings.Join(names, ", ")
			item.RawSources = strings.Join(codes, ",")
		}
		if b.lastUpdate != "" {
			item.LastUpdate = client.StringPtr(b.lastUpdate)
		}
		items = append(items, item)
	}
	return items
}

func latestMonth(snapshots []crm.Snapshot) string {
	latest := ""
	for _, snap := range snapshots {
		if m := snap.Month(); len(m) == 7 && m > latest {
			latest = m
		}
	}
	return latest
}

func breakdown(totals map[string]decimal.Decimal) []BreakdownItem {
	items := make([]BreakdownItem, 0, len(totals))
	for name, amount := range totals {
		items = append(items, BreakdownItem{Name: name, Amount: round2(amount)})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Amount != items[j].Amount {
			return items[i].Amount > items[j].Amount
		}
		return items[i].Name < items[j].Name
	})
	return items
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func floatPtr(v float64) *float64 {
	return &v
}
