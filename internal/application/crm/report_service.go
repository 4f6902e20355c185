package crm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReportService renders the per-client balance report
type ReportService struct {
	clientRepo   client.ClientRepository
	snapshotRepo crm.SnapshotRepository
	html         appshared.HTMLRenderer
	pdf          appshared.PDFRenderer
	clock        clockwork.Clock
	logger       *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	clientRepo client.ClientRepository,
	snapshotRepo crm.SnapshotRepository,
	html appshared.HTMLRenderer,
	pdf appshared.PDFRenderer,
	clock clockwork.Clock,
	logger *zap.Logger,
) *ReportService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		clientRepo:   clientRepo,
		snapshotRepo: snapshotRepo,
		html:         html,
		pdf:          pdf,
		clock:        clock,
		logger:       logger,
	}
}

type reportClient struct {
	FullName string
	IDNumber string
	Phone    string
	Email    string
}

type reportRow struct {
	Company      string
	FundType     string
	FundName     string
	FundNumber   string
	SnapshotDate string
	Amount       decimal.Decimal
}

type reportData struct {
	Client      reportClient
	Month       string
	GeneratedAt time.Time
	Rows        []reportRow
	Total       decimal.Decimal
}

// ClientReport renders the balances of the client's report date as PDF,
// falling back to the HTML document when PDF rendering fails.
func (s *ReportService) ClientReport(ctx context.Context, clientID uint, month string) (*appshared.Document, error) {
	c, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.snapshotRepo.FindActiveByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	data, ok := buildReportData(c, snapshots, month)
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND", "No data found for this client")
	}
	data.GeneratedAt = s.clock.Now()

	html, err := s.html.RenderHTML(ctx, appshared.TemplateClientReport, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render client report: %w", err)
	}

	filename := "client_report_" + SafeFilenamePart(reportDisplayName(c)) + ".pdf"
	pdf, err := s.pdf.RenderPDF(ctx, html, "client_report")
	if err != nil {
		s.logger.Warn("Client report PDF rendering failed, serving HTML",
			zap.Uint("client_id", clientID), zap.Error(err))
		return &appshared.Document{
			Content:     html,
			ContentType: appshared.ContentTypeHTML,
			Filename:    strings.TrimSuffix(filename, ".pdf") + ".html",
		}, nil
	}

	return &appshared.Document{Content: pdf, ContentType: appshared.ContentTypePDF, Filename: filename}, nil
}

func buildReportData(c *client.Client, snapshots []crm.Snapshot, month string) (*reportData, bool) {
	reportDate := selectReportDate(snapshots, month)
	if reportDate == "" {
		return nil, false
	}

	rows := make([]reportRow, 0)
	total := decimal.Zero
	for _, snap := range snapshots {
		if snap.SnapshotDate != reportDate {
			continue
		}
		total = total.Add(snap.Amount)
		rows = append(rows, reportRow{
			Company:      crm.SourceDisplayName(snap.SourceOrEmpty()),
			FundType:     client.Deref(snap.FundType),
			FundName:     client.Deref(snap.FundName),
			FundNumber:   snap.FundNumberOrEmpty(),
			SnapshotDate: snap.SnapshotDate,
			Amount:       snap.Amount,
		})
	}
	if len(rows) == 0 {
		return nil, false
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount.GreaterThan(rows[j].Amount)
	})

	return &reportData{
		Client: reportClient{
			FullName: c.FullName,
			IDNumber: client.Deref(c.IDNumber),
			Phone:    client.Deref(c.Phone),
			Email:    client.Deref(c.Email),
		},
		Month: crm.MonthOf(reportDate),
		Rows:  rows,
		Total: total,
	}, true
}

// selectReportDate picks the latest snapshot date within month, else the
// latest date overall
func selectReportDate(snapshots []crm.Snapshot, month string) string {
	month = strings.TrimSpace(month)
	latest, latestInMonth := "", ""
	for _, snap := range snapshots {
		d := snap.SnapshotDate
		if d == "" {
			continue
		}
		if d > latest {
			latest = d
		}
		if len(month) == 7 && month[4] == '-' && strings.HasPrefix(d, month) && d > latestInMonth {
			latestInMonth = d
		}
	}
	if latestInMonth != "" {
		return latestInMonth
	}
	return latest
}

func reportDisplayName(c *client.Client) string {
	if c.FullName != "" {
		return c.FullName
	}
	if id := client.Deref(c.IDNumber); id != "" {
		return id
	}
	return fmt.Sprintf("client_%d", c.ID)
}

// SafeFilenamePart keeps letters, digits and Hebrew characters and replaces
// everything else with "_"
func SafeFilenamePart(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || (r >= 0x0590 && r <= 0x05FF) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
