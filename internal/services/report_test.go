package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oelv/crm-funnel-backend/internal/analytics"
	"github.com/oelv/crm-funnel-backend/internal/clients/redis"
	"github.com/oelv/crm-funnel-backend/internal/data/repos/reports"
	"github.com/oelv/crm-funnel-backend/internal/domain"
	"github.com/oelv/crm-funnel-backend/internal/platform/apierr"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

type fakeRowRepo struct {
	rows    []domain.FollowRow
	err     error
	fetches int
}

func (f *fakeRowRepo) FetchRows(ctx context.Context, from, to time.Time) ([]domain.FollowRow, error) {
	f.fetches++
	return f.rows, f.err
}

type fakeCache struct {
	store  map[string]*domain.CachedReport
	getErr error
	puts   int
}

func (f *fakeCache) Get(ctx context.Context, key string) (*domain.CachedReport, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.store[key], nil
}

func (f *fakeCache) Put(ctx context.Context, key string, payload *domain.CachedReport) error {
	if f.store == nil {
		f.store = map[string]*domain.CachedReport{}
	}
	f.store[key] = payload
	f.puts++
	return nil
}

func (f *fakeCache) Close() error { return nil }

type fakeSnapRepo struct {
	created []*domain.ReportSnapshot
	err     error
}

func (f *fakeSnapRepo) Create(ctx context.Context, snap *domain.ReportSnapshot) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, snap)
	return nil
}

func (f *fakeSnapRepo) List(ctx context.Context, limit int) ([]*domain.ReportSnapshot, error) {
	return f.created, nil
}

func (f *fakeSnapRepo) Get(ctx context.Context, id uuid.UUID) (*domain.ReportSnapshot, error) {
	for _, s := range f.created {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, errors.New("not found")
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func testRows(t *testing.T) []domain.FollowRow {
	t.Helper()
	intake := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	follow := intake.Add(time.Hour)
	text := "客户到店面谈"
	return []domain.FollowRow{{
		MemberID:   42,
		IntakeTime: &intake,
		Nickname:   "用户",
		Gender:     2,
		SourceFrom: 8,
		SiteName:   "北京一店",
		FollowTime: &follow,
		FollowText: &text,
	}}
}

func newTestService(t *testing.T, rowRepo *fakeRowRepo, cache *fakeCache, snaps *fakeSnapRepo) ReportService {
	t.Helper()
	analyzer := analytics.NewAnalyzer(analytics.DefaultRules(), analytics.DefaultChannelMap)
	cfg := ReportConfig{
		DefaultFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		CacheMaxAge: time.Hour,
	}
	// Pass untyped nils so the service's nil checks hold.
	var cacheIface redis.ReportCache
	if cache != nil {
		cacheIface = cache
	}
	var snapIface reports.SnapshotRepo
	if snaps != nil {
		snapIface = snaps
	}
	return NewReportService(testLogger(t), rowRepo, snapIface, cacheIface, analyzer, cfg)
}

func TestGetReportExtractsAndCaches(t *testing.T) {
	rowRepo := &fakeRowRepo{rows: testRows(t)}
	cache := &fakeCache{}
	snaps := &fakeSnapRepo{}
	svc := newTestService(t, rowRepo, cache, snaps)

	report, err := svc.GetReport(context.Background(), ReportQuery{})
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if report.TotalUsers != 1 {
		t.Fatalf("expected 1 user, got %d", report.TotalUsers)
	}
	if rowRepo.fetches != 1 {
		t.Fatalf("expected 1 extraction, got %d", rowRepo.fetches)
	}
	if cache.puts != 1 {
		t.Fatalf("expected the payload cached, got %d puts", cache.puts)
	}
	if len(snaps.created) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snaps.created))
	}
	if snaps.created[0].TotalUsers != 1 || snaps.created[0].RowCount != 1 {
		t.Fatalf("snapshot carries wrong counts: %+v", snaps.created[0])
	}

	// Second call must serve the fresh cache entry.
	if _, err := svc.GetReport(context.Background(), ReportQuery{}); err != nil {
		t.Fatalf("GetReport (cached): %v", err)
	}
	if rowRepo.fetches != 1 {
		t.Fatalf("fresh cache entry must suppress extraction, got %d fetches", rowRepo.fetches)
	}
}

func TestGetReportRefreshBypassesCache(t *testing.T) {
	rowRepo := &fakeRowRepo{rows: testRows(t)}
	cache := &fakeCache{}
	svc := newTestService(t, rowRepo, cache, &fakeSnapRepo{})

	if _, err := svc.GetReport(context.Background(), ReportQuery{}); err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if _, err := svc.GetReport(context.Background(), ReportQuery{Refresh: true}); err != nil {
		t.Fatalf("GetReport (refresh): %v", err)
	}
	if rowRepo.fetches != 2 {
		t.Fatalf("refresh must force re-extraction, got %d fetches", rowRepo.fetches)
	}
}

func TestGetReportStaleCacheReextracts(t *testing.T) {
	rowRepo := &fakeRowRepo{rows: testRows(t)}
	cache := &fakeCache{store: map[string]*domain.CachedReport{}}
	svc := newTestService(t, rowRepo, cache, &fakeSnapRepo{})

	// Seed every key with an ancient payload; any normalized query misses.
	if _, err := svc.GetReport(context.Background(), ReportQuery{}); err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	for k := range cache.store {
		cache.store[k].ExtractedAt = time.Now().UTC().Add(-2 * time.Hour)
	}
	if _, err := svc.GetReport(context.Background(), ReportQuery{}); err != nil {
		t.Fatalf("GetReport (stale): %v", err)
	}
	if rowRepo.fetches != 2 {
		t.Fatalf("stale cache entry must re-extract, got %d fetches", rowRepo.fetches)
	}
}

func TestGetReportCacheErrorFailsOpen(t *testing.T) {
	rowRepo := &fakeRowRepo{rows: testRows(t)}
	cache := &fakeCache{getErr: errors.New("redis down")}
	svc := newTestService(t, rowRepo, cache, &fakeSnapRepo{})

	report, err := svc.GetReport(context.Background(), ReportQuery{})
	if err != nil {
		t.Fatalf("cache failure must not fail the request: %v", err)
	}
	if report.TotalUsers != 1 {
		t.Fatalf("expected extracted report, got %+v", report)
	}
}

func TestGetReportDataSourceError(t *testing.T) {
	rowRepo := &fakeRowRepo{err: errors.New("connection refused")}
	svc := newTestService(t, rowRepo, nil, &fakeSnapRepo{})

	_, err := svc.GetReport(context.Background(), ReportQuery{})
	if err == nil {
		t.Fatalf("expected error from failing data source")
	}
	if apierr.StatusOf(err) != 502 || apierr.CodeOf(err) != "data_source_unavailable" {
		t.Fatalf("expected 502 data_source_unavailable, got %d %s", apierr.StatusOf(err), apierr.CodeOf(err))
	}
}

func TestGetReportSnapshotFailureIsNotFatal(t *testing.T) {
	rowRepo := &fakeRowRepo{rows: testRows(t)}
	snaps := &fakeSnapRepo{err: errors.New("disk full")}
	svc := newTestService(t, rowRepo, nil, snaps)

	if _, err := svc.GetReport(context.Background(), ReportQuery{}); err != nil {
		t.Fatalf("snapshot failure must not fail the request: %v", err)
	}
}

func TestGetLeadsFilterAndPaginate(t *testing.T) {
	intake := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	later := intake.Add(48 * time.Hour)
	rows := testRows(t)
	rows = append(rows, domain.FollowRow{
		MemberID:   43,
		IntakeTime: &later,
		SiteName:   "上海二店",
		SourceFrom: 1,
	})
	rowRepo := &fakeRowRepo{rows: rows}
	svc := newTestService(t, rowRepo, nil, &fakeSnapRepo{})

	page, err := svc.GetLeads(context.Background(), ReportQuery{}, LeadFilter{Store: "北京一店"})
	if err != nil {
		t.Fatalf("GetLeads: %v", err)
	}
	if page.Total != 2 || page.FilteredTotal != 1 || len(page.Items) != 1 {
		t.Fatalf("store filter wrong: total=%d filtered=%d items=%d", page.Total, page.FilteredTotal, len(page.Items))
	}
	if page.Items[0].MemberID != 42 {
		t.Fatalf("expected member 42, got %d", page.Items[0].MemberID)
	}

	page, err = svc.GetLeads(context.Background(), ReportQuery{}, LeadFilter{DateFrom: "2025-03-11"})
	if err != nil {
		t.Fatalf("GetLeads (date): %v", err)
	}
	if page.FilteredTotal != 1 || page.Items[0].MemberID != 43 {
		t.Fatalf("date filter wrong: %+v", page)
	}

	page, err = svc.GetLeads(context.Background(), ReportQuery{}, LeadFilter{Page: 2, PageSize: 1})
	if err != nil {
		t.Fatalf("GetLeads (page 2): %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].MemberID != 43 {
		t.Fatalf("pagination wrong: %+v", page.Items)
	}

	page, err = svc.GetLeads(context.Background(), ReportQuery{}, LeadFilter{Page: 9})
	if err != nil {
		t.Fatalf("GetLeads (past end): %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("page past the end must be empty, got %d items", len(page.Items))
	}
}

func TestGetLeadsConfiguredDefaultPageSize(t *testing.T) {
	intake := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rows := testRows(t)
	rows = append(rows, domain.FollowRow{MemberID: 43, IntakeTime: &intake, SiteName: "北京一店", SourceFrom: 1})
	analyzer := analytics.NewAnalyzer(analytics.DefaultRules(), analytics.DefaultChannelMap)
	svc := NewReportService(testLogger(t), &fakeRowRepo{rows: rows}, nil, nil, analyzer, ReportConfig{
		DefaultFrom:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DefaultPageSize: 1,
	})

	page, err := svc.GetLeads(context.Background(), ReportQuery{}, LeadFilter{})
	if err != nil {
		t.Fatalf("GetLeads: %v", err)
	}
	if page.PageSize != 1 || len(page.Items) != 1 || page.FilteredTotal != 2 {
		t.Fatalf("configured default page size not applied: %+v", page)
	}

	// An explicit page_size still wins over the configured default.
	page, err = svc.GetLeads(context.Background(), ReportQuery{}, LeadFilter{PageSize: 2})
	if err != nil {
		t.Fatalf("GetLeads (explicit): %v", err)
	}
	if page.PageSize != 2 || len(page.Items) != 2 {
		t.Fatalf("explicit page size must override the default: %+v", page)
	}
}

func TestGetLeadSortsFollowupsAndMisses(t *testing.T) {
	intake := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	t2 := intake.Add(2 * time.Hour)
	t1 := intake.Add(time.Hour)
	n2, n1 := "第二次", "第一次"
	rows := []domain.FollowRow{
		{MemberID: 42, IntakeTime: &intake, SiteName: "北京一店", SourceFrom: 1, FollowTime: &t2, FollowText: &n2},
		{MemberID: 42, IntakeTime: &intake, SiteName: "北京一店", SourceFrom: 1, FollowTime: &t1, FollowText: &n1},
	}
	svc := newTestService(t, &fakeRowRepo{rows: rows}, nil, &fakeSnapRepo{})

	lead, err := svc.GetLead(context.Background(), ReportQuery{}, 42)
	if err != nil {
		t.Fatalf("GetLead: %v", err)
	}
	if len(lead.Followups) != 2 || lead.Followups[0].Text != "第一次" {
		t.Fatalf("followups must be chronological: %+v", lead.Followups)
	}

	_, err = svc.GetLead(context.Background(), ReportQuery{}, 999)
	if apierr.StatusOf(err) != 404 || apierr.CodeOf(err) != "lead_not_found" {
		t.Fatalf("expected 404 lead_not_found, got %v", err)
	}
}

func TestListSnapshotsWithoutRepo(t *testing.T) {
	svc := newTestService(t, &fakeRowRepo{}, nil, nil)
	snaps, err := svc.ListSnapshots(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if snaps == nil || len(snaps) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", snaps)
	}
}
