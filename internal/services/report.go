package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/oelv/crm-funnel-backend/internal/analytics"
	"github.com/oelv/crm-funnel-backend/internal/clients/redis"
	"github.com/oelv/crm-funnel-backend/internal/data/repos/leads"
	"github.com/oelv/crm-funnel-backend/internal/data/repos/reports"
	"github.com/oelv/crm-funnel-backend/internal/domain"
	"github.com/oelv/crm-funnel-backend/internal/platform/apierr"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

// ReportQuery selects the extraction range. Zero values fall back to the
// configured default start date and to "now".
type ReportQuery struct {
	From    time.Time
	To      time.Time
	Refresh bool
}

// LeadFilter mirrors the dashboard's drill-down table controls.
type LeadFilter struct {
	Store    string
	DateFrom string // YYYY-MM-DD, inclusive
	DateTo   string // YYYY-MM-DD, inclusive
	Page     int
	PageSize int
}

// LeadPage is one page of the filtered detail table.
type LeadPage struct {
	Items         []*domain.ClassifiedLead `json:"items"`
	FilteredTotal int                      `json:"filteredTotal"`
	Total         int                      `json:"total"`
	Page          int                      `json:"page"`
	PageSize      int                      `json:"pageSize"`
}

type ReportService interface {
	GetReport(ctx context.Context, q ReportQuery) (*domain.FunnelReport, error)
	GetLeads(ctx context.Context, q ReportQuery, f LeadFilter) (*LeadPage, error)
	GetLead(ctx context.Context, q ReportQuery, memberID int64) (*domain.ClassifiedLead, error)
	ListSnapshots(ctx context.Context, limit int) ([]*domain.ReportSnapshot, error)
	StartRefreshLoop(ctx context.Context)
}

type ReportConfig struct {
	DefaultFrom  time.Time
	CacheMaxAge  time.Duration
	RefreshEvery time.Duration
	// DefaultPageSize applies when a leads query carries no page_size;
	// zero falls back to 100.
	DefaultPageSize int
}

type reportService struct {
	log      *logger.Logger
	rowRepo  leads.FollowRowRepo
	snapRepo reports.SnapshotRepo
	cache    redis.ReportCache // nil degrades to always-extract
	analyzer *analytics.Analyzer
	cfg      ReportConfig
	group    singleflight.Group
	now      func() time.Time
}

func NewReportService(
	log *logger.Logger,
	rowRepo leads.FollowRowRepo,
	snapRepo reports.SnapshotRepo,
	cache redis.ReportCache,
	analyzer *analytics.Analyzer,
	cfg ReportConfig,
) ReportService {
	return &reportService{
		log:      log.With("service", "ReportService"),
		rowRepo:  rowRepo,
		snapRepo: snapRepo,
		cache:    cache,
		analyzer: analyzer,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *reportService) normalize(q ReportQuery) ReportQuery {
	if q.From.IsZero() {
		q.From = s.cfg.DefaultFrom
	}
	if q.To.IsZero() {
		q.To = s.now().UTC()
	}
	return q
}

func cacheKey(q ReportQuery) string {
	return fmt.Sprintf("funnel:report:%s:%s",
		q.From.UTC().Format("2006-01-02"),
		q.To.UTC().Format("2006-01-02"),
	)
}

func (s *reportService) GetReport(ctx context.Context, q ReportQuery) (*domain.FunnelReport, error) {
	payload, err := s.getCached(ctx, q)
	if err != nil {
		return nil, err
	}
	return payload.Report, nil
}

// getCached serves from the cache store when fresh, otherwise extracts.
// Concurrent requests for the same range coalesce into one extraction.
func (s *reportService) getCached(ctx context.Context, q ReportQuery) (*domain.CachedReport, error) {
	q = s.normalize(q)
	key := cacheKey(q)

	if s.cache != nil && !q.Refresh {
		payload, err := s.cache.Get(ctx, key)
		if err != nil {
			// An unavailable cache must not block the dashboard.
			s.log.Warn("cache read failed, extracting", "key", key, "error", err)
		} else if payload != nil && !payload.Stale(s.cfg.CacheMaxAge, s.now()) {
			return payload, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.extract(ctx, q, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CachedReport), nil
}

func (s *reportService) extract(ctx context.Context, q ReportQuery, key string) (*domain.CachedReport, error) {
	start := s.now()
	rows, err := s.rowRepo.FetchRows(ctx, q.From, q.To)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, "data_source_unavailable", err)
	}

	report := s.analyzer.Analyze(rows)
	payload := &domain.CachedReport{
		Report:      report,
		RowCount:    len(rows),
		ExtractedAt: s.now().UTC(),
	}
	s.log.Info("extraction complete",
		"rows", len(rows),
		"users", report.TotalUsers,
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, payload); err != nil {
			s.log.Warn("cache write failed", "key", key, "error", err)
		}
	}
	s.saveSnapshot(ctx, q, payload)
	return payload, nil
}

// saveSnapshot records the run for the history view. Persistence failures
// never fail the report request.
func (s *reportService) saveSnapshot(ctx context.Context, q ReportQuery, payload *domain.CachedReport) {
	if s.snapRepo == nil {
		return
	}
	raw, err := json.Marshal(payload.Report)
	if err != nil {
		s.log.Warn("snapshot encode failed", "error", err)
		return
	}
	snap := &domain.ReportSnapshot{
		RangeFrom:  q.From.UTC(),
		RangeTo:    q.To.UTC(),
		RowCount:   payload.RowCount,
		TotalUsers: payload.Report.TotalUsers,
		Payload:    datatypes.JSON(raw),
	}
	if err := s.snapRepo.Create(ctx, snap); err != nil {
		s.log.Warn("snapshot write failed", "error", err)
	}
}

func (s *reportService) GetLeads(ctx context.Context, q ReportQuery, f LeadFilter) (*LeadPage, error) {
	report, err := s.GetReport(ctx, q)
	if err != nil {
		return nil, err
	}

	filtered := make([]*domain.ClassifiedLead, 0, len(report.DetailedData))
	for _, lead := range report.DetailedData {
		if f.Store != "" && lead.StoreName != f.Store {
			continue
		}
		if f.DateFrom != "" || f.DateTo != "" {
			date := lead.IntakeDate()
			if date == "" {
				continue
			}
			if f.DateFrom != "" && date < f.DateFrom {
				continue
			}
			if f.DateTo != "" && date > f.DateTo {
				continue
			}
		}
		filtered = append(filtered, lead)
	}

	page, size := f.Page, f.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 500 {
		size = s.cfg.DefaultPageSize
		if size <= 0 || size > 500 {
			size = 100
		}
	}
	start := (page - 1) * size
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}

	return &LeadPage{
		Items:         filtered[start:end],
		FilteredTotal: len(filtered),
		Total:         len(report.DetailedData),
		Page:          page,
		PageSize:      size,
	}, nil
}

func (s *reportService) GetLead(ctx context.Context, q ReportQuery, memberID int64) (*domain.ClassifiedLead, error) {
	report, err := s.GetReport(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, lead := range report.DetailedData {
		if lead.MemberID != memberID {
			continue
		}
		// The detail modal shows follow-ups chronologically; row order is
		// not guaranteed to be.
		detail := *lead
		detail.Followups = append([]domain.Followup(nil), lead.Followups...)
		sort.Slice(detail.Followups, func(i, j int) bool {
			return detail.Followups[i].Time.Before(detail.Followups[j].Time)
		})
		return &detail, nil
	}
	return nil, apierr.New(http.StatusNotFound, "lead_not_found", fmt.Errorf("member %d not in current extraction", memberID))
}

func (s *reportService) ListSnapshots(ctx context.Context, limit int) ([]*domain.ReportSnapshot, error) {
	if s.snapRepo == nil {
		return []*domain.ReportSnapshot{}, nil
	}
	return s.snapRepo.List(ctx, limit)
}

// StartRefreshLoop periodically re-extracts the default range so the first
// dashboard load of the day is warm. Disabled when RefreshEvery is zero.
func (s *reportService) StartRefreshLoop(ctx context.Context) {
	if s.cfg.RefreshEvery <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(s.cfg.RefreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.GetReport(ctx, ReportQuery{Refresh: true}); err != nil {
					s.log.Warn("background refresh failed", "error", err)
				}
			}
		}
	}()
}
