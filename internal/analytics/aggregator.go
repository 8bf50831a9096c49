package analytics

import (
	"sort"
	"strconv"

	"github.com/oelv/crm-funnel-backend/internal/domain"
)

// Analyzer turns the flat join rows into the display-ready FunnelReport.
// It holds only immutable configuration and is safe for concurrent use;
// each Analyze call is a pure function over its input.
type Analyzer struct {
	rules      RuleSet
	channels   ChannelMap
	categories []CategoryRule
	classifier *Classifier
}

func NewAnalyzer(rules RuleSet, channels ChannelMap) *Analyzer {
	return &Analyzer{
		rules:      rules,
		channels:   channels,
		categories: DefaultCategoryRules,
		classifier: NewClassifier(rules),
	}
}

// leadStats caches the per-lead derived values every metric reads, so the
// keyword rules run once per lead instead of once per metric.
type leadStats struct {
	lead        *domain.Lead
	date        string // intake date, "" when intake time is absent
	channel     string
	category    string
	hasFollowup bool
	deep        bool
	invalid     bool // already suppressed by deep
	// unreachable is the whole-history >threshold rule (connection rate).
	unreachable bool
	// unreachableWindow is the all-windowed-notes rule (three-day rate).
	unreachableWindow bool
}

// Analyze groups, classifies and aggregates. Malformed rows never abort the
// run: absent optional fields drop out of the affected computation only.
func (a *Analyzer) Analyze(rows []domain.FollowRow) *domain.FunnelReport {
	leads := Group(rows)
	if len(leads) == 0 {
		return a.emptyReport()
	}

	stats := make([]leadStats, 0, len(leads))
	detailed := make([]*domain.ClassifiedLead, 0, len(leads))
	for _, l := range leads {
		texts := l.FollowupTexts()
		tags := a.classifier.Classify(texts)

		st := leadStats{
			lead:        l,
			date:        l.IntakeDate(),
			channel:     a.channels.Name(l.ChannelCode),
			hasFollowup: len(texts) > 0,
			deep:        tags.Has(domain.TagDeepCommunication),
			invalid:     tags.Has(domain.TagInvalidData),
			unreachable: a.classifier.Unreachable(texts),
		}
		st.category = Categorize(st.channel, a.categories)
		if windowed := l.FollowupsWithin(a.rules.WindowDays); len(windowed) > 0 {
			st.unreachableWindow = a.classifier.UnreachableWindow(windowed)
		}
		stats = append(stats, st)

		detailed = append(detailed, &domain.ClassifiedLead{
			Lead:            *l,
			Channel:         st.channel,
			GenderLabel:     genderLabel(l.Gender),
			Classifications: tags.List(),
		})
	}

	return &domain.FunnelReport{
		TotalUsers:              len(stats),
		ConnectionRate:          connectionRate(stats),
		ThreeDayConnectionRate:  threeDayConnectionRate(stats),
		DeepCommunicationRate:   tagRate(stats, func(s *leadStats) bool { return s.deep }),
		InvalidDataRate:         tagRate(stats, func(s *leadStats) bool { return s.invalid }),
		FollowupStatus:          followupStatus(stats),
		ChannelDistribution:     distribution(stats, func(s *leadStats) string { return s.channel }),
		StoreDistribution:       distribution(stats, func(s *leadStats) string { return s.lead.StoreName }),
		TimeDistribution:        timeDistribution(stats),
		ConnectionTrend:         trend(stats, connectionRate),
		ThreeDayConnectionTrend: trend(stats, threeDayConnectionRate),
		DeepCommTrend:           trend(stats, deepRate),
		InvalidDataTrend:        trend(stats, invalidRate),
		ChannelCategoryTrends:   a.categoryTrends(stats),
		StoreFollowupFreq3Day:   a.storeFollowupFrequency(stats, 3),
		StoreFollowupFreq7Day:   a.storeFollowupFrequency(stats, 7),
		DetailedData:            detailed,
	}
}

// connectionRate is 100 × (1 − unreachable/withFollowup) under the
// whole-history threshold rule. Leads without any follow-up stay out of the
// denominator.
func connectionRate(stats []leadStats) string {
	withFollowup, unreachable := 0, 0
	for i := range stats {
		if stats[i].hasFollowup {
			withFollowup++
			if stats[i].unreachable {
				unreachable++
			}
		}
	}
	return formatRate(withFollowup-unreachable, withFollowup)
}

// threeDayConnectionRate uses the stricter windowed rule over all leads.
// Leads with no windowed follow-ups (or no intake time) are never counted
// unreachable, but they stay in the denominator.
func threeDayConnectionRate(stats []leadStats) string {
	unreachable := 0
	for i := range stats {
		if stats[i].unreachableWindow {
			unreachable++
		}
	}
	return formatRate(len(stats)-unreachable, len(stats))
}

func deepRate(stats []leadStats) string {
	return tagRate(stats, func(s *leadStats) bool { return s.deep })
}

func invalidRate(stats []leadStats) string {
	return tagRate(stats, func(s *leadStats) bool { return s.invalid })
}

// tagRate is the share of leads with ≥1 follow-up carrying the picked tag.
func tagRate(stats []leadStats, pick func(*leadStats) bool) string {
	withFollowup, tagged := 0, 0
	for i := range stats {
		if !stats[i].hasFollowup {
			continue
		}
		withFollowup++
		if pick(&stats[i]) {
			tagged++
		}
	}
	return formatRate(tagged, withFollowup)
}

// followupStatus buckets every lead exactly once by priority. Unlike the
// connection rate this histogram has no keyword-hit threshold: any lead that
// reached neither the deep nor the invalid stage counts as unreachable,
// including leads with no follow-up at all.
func followupStatus(stats []leadStats) domain.FollowupStatus {
	var out domain.FollowupStatus
	for i := range stats {
		switch {
		case stats[i].deep:
			out.DeepCommunication++
		case stats[i].invalid:
			out.InvalidData++
		default:
			out.Unreachable++
		}
	}
	return out
}

// distribution counts leads per first-seen key, descending by count. Empty
// keys (e.g. leads without an assigned store) are skipped.
func distribution(stats []leadStats, key func(*leadStats) string) []domain.CountEntry {
	counts := map[string]int{}
	for i := range stats {
		k := key(&stats[i])
		if k == "" {
			continue
		}
		counts[k]++
	}
	out := make([]domain.CountEntry, 0, len(counts))
	for name, count := range counts {
		out = append(out, domain.CountEntry{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func timeDistribution(stats []leadStats) []domain.DateCount {
	counts := map[string]int{}
	for i := range stats {
		if stats[i].date == "" {
			continue
		}
		counts[stats[i].date]++
	}
	out := make([]domain.DateCount, 0, len(counts))
	for date, count := range counts {
		out = append(out, domain.DateCount{Date: date, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// trend recomputes a rate formula per intake-date cohort, ascending by date.
// Leads without a valid intake timestamp are excluded rather than corrupting
// a bucket key.
func trend(stats []leadStats, rate func([]leadStats) string) []domain.TrendPoint {
	byDate := map[string][]leadStats{}
	for i := range stats {
		if stats[i].date == "" {
			continue
		}
		byDate[stats[i].date] = append(byDate[stats[i].date], stats[i])
	}
	out := make([]domain.TrendPoint, 0, len(byDate))
	for date, cohort := range byDate {
		out = append(out, domain.TrendPoint{Date: date, Value: rate(cohort)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// categoryTrends recomputes the connection/deep/invalid trend formulas per
// channel category, categories in name order.
func (a *Analyzer) categoryTrends(stats []leadStats) []domain.CategoryTrends {
	byCategory := map[string][]leadStats{}
	for i := range stats {
		byCategory[stats[i].category] = append(byCategory[stats[i].category], stats[i])
	}
	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]domain.CategoryTrends, 0, len(names))
	for _, name := range names {
		cohort := byCategory[name]
		out = append(out, domain.CategoryTrends{
			Category:    name,
			Connection:  trend(cohort, connectionRate),
			DeepComm:    trend(cohort, deepRate),
			InvalidData: trend(cohort, invalidRate),
		})
	}
	return out
}

// storeFollowupFrequency averages, per store and intake date, the number of
// follow-ups a lead received within [intake, intake+days]. Stores in name
// order, dates ascending.
func (a *Analyzer) storeFollowupFrequency(stats []leadStats, days int) []domain.StoreFrequencyTrend {
	type cell struct {
		total int
		leads int
	}
	byStore := map[string]map[string]*cell{}
	for i := range stats {
		store := stats[i].lead.StoreName
		if store == "" || stats[i].date == "" {
			continue
		}
		dates, ok := byStore[store]
		if !ok {
			dates = map[string]*cell{}
			byStore[store] = dates
		}
		c, ok := dates[stats[i].date]
		if !ok {
			c = &cell{}
			dates[stats[i].date] = c
		}
		c.total += len(stats[i].lead.FollowupsWithin(days))
		c.leads++
	}

	stores := make([]string, 0, len(byStore))
	for store := range byStore {
		stores = append(stores, store)
	}
	sort.Strings(stores)

	out := make([]domain.StoreFrequencyTrend, 0, len(stores))
	for _, store := range stores {
		dates := byStore[store]
		points := make([]domain.TrendPoint, 0, len(dates))
		for date, c := range dates {
			avg := float64(c.total) / float64(c.leads)
			points = append(points, domain.TrendPoint{
				Date:  date,
				Value: strconv.FormatFloat(avg, 'f', 2, 64),
			})
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
		out = append(out, domain.StoreFrequencyTrend{Store: store, Points: points})
	}
	return out
}

func (a *Analyzer) emptyReport() *domain.FunnelReport {
	return &domain.FunnelReport{
		ConnectionRate:          "0.00",
		ThreeDayConnectionRate:  "0.00",
		DeepCommunicationRate:   "0.00",
		InvalidDataRate:         "0.00",
		ChannelDistribution:     []domain.CountEntry{},
		StoreDistribution:       []domain.CountEntry{},
		TimeDistribution:        []domain.DateCount{},
		ConnectionTrend:         []domain.TrendPoint{},
		ThreeDayConnectionTrend: []domain.TrendPoint{},
		DeepCommTrend:           []domain.TrendPoint{},
		InvalidDataTrend:        []domain.TrendPoint{},
		ChannelCategoryTrends:   []domain.CategoryTrends{},
		StoreFollowupFreq3Day:   []domain.StoreFrequencyTrend{},
		StoreFollowupFreq7Day:   []domain.StoreFrequencyTrend{},
		DetailedData:            []*domain.ClassifiedLead{},
	}
}

// formatRate renders numer/denom as a percentage with exactly two decimals,
// "0.00" on an empty denominator. Downstream charts and tables rely on the
// fixed formatting.
func formatRate(numer, denom int) string {
	if denom <= 0 {
		return "0.00"
	}
	return strconv.FormatFloat(float64(numer)/float64(denom)*100, 'f', 2, 64)
}

func genderLabel(code int) string {
	switch code {
	case 1:
		return "男"
	case 2:
		return "女"
	default:
		return "未知"
	}
}
