package domain

import "time"

// CountEntry is one slice of a distribution, pre-sorted descending by count.
type CountEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DateCount is one point of a count-per-intake-date series, ascending by date.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TrendPoint is one point of a rate series. Value is always a percentage
// string with exactly two decimals; charts rely on that formatting.
type TrendPoint struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// FollowupStatus is the 3-bucket priority histogram. Every lead lands in
// exactly one bucket: deep communication first, else invalid data, else
// unreachable by elimination. This bucket boundary is intentionally different
// from the threshold-based unreachable rule behind ConnectionRate.
type FollowupStatus struct {
	DeepCommunication int `json:"deepCommunication"`
	InvalidData       int `json:"invalidData"`
	Unreachable       int `json:"unreachable"`
}

// CategoryTrends carries the per-intake-date rate series of one channel
// category (coarse marketing-platform bucket).
type CategoryTrends struct {
	Category    string       `json:"category"`
	Connection  []TrendPoint `json:"connection"`
	DeepComm    []TrendPoint `json:"deepComm"`
	InvalidData []TrendPoint `json:"invalidData"`
}

// StoreFrequencyTrend carries, for one store, the average number of
// follow-ups per lead inside the rolling day-window, per intake date.
type StoreFrequencyTrend struct {
	Store  string       `json:"store"`
	Points []TrendPoint `json:"points"`
}

// FunnelReport is the display-ready aggregation result. Every value is
// pre-sorted and pre-formatted; the dashboard does no further computation.
type FunnelReport struct {
	TotalUsers              int                   `json:"totalUsers"`
	ConnectionRate          string                `json:"connectionRate"`
	ThreeDayConnectionRate  string                `json:"threeDayConnectionRate"`
	DeepCommunicationRate   string                `json:"deepCommunicationRate"`
	InvalidDataRate         string                `json:"invalidDataRate"`
	FollowupStatus          FollowupStatus        `json:"followupStatus"`
	ChannelDistribution     []CountEntry          `json:"channelDistribution"`
	StoreDistribution       []CountEntry          `json:"storeDistribution"`
	TimeDistribution        []DateCount           `json:"timeDistribution"`
	ConnectionTrend         []TrendPoint          `json:"connectionTrend"`
	ThreeDayConnectionTrend []TrendPoint          `json:"threeDayConnectionTrend"`
	DeepCommTrend           []TrendPoint          `json:"deepCommTrend"`
	InvalidDataTrend        []TrendPoint          `json:"invalidDataTrend"`
	ChannelCategoryTrends   []CategoryTrends      `json:"channelCategoryTrends"`
	StoreFollowupFreq3Day   []StoreFrequencyTrend `json:"storeFollowupFrequency3d"`
	StoreFollowupFreq7Day   []StoreFrequencyTrend `json:"storeFollowupFrequency7d"`
	DetailedData            []*ClassifiedLead     `json:"detailedData"`
}

// CachedReport is the payload the cache store round-trips. Freshness is
// decided against ExtractedAt, mirroring the dashboard's old localStorage
// cache.
type CachedReport struct {
	Report      *FunnelReport `json:"report"`
	RowCount    int           `json:"rowCount"`
	ExtractedAt time.Time     `json:"extractedAt"`
}

// Stale reports whether the payload is older than maxAge.
func (c *CachedReport) Stale(maxAge time.Duration, now time.Time) bool {
	if c == nil || c.Report == nil {
		return true
	}
	return now.Sub(c.ExtractedAt) > maxAge
}
