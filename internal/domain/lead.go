package domain

import (
	"time"
)

// FollowRow is one row of the denormalized member × follow-up × site join.
// A member with N follow-ups appears N times with identical intake fields; a
// member with no follow-ups appears once with FollowTime/FollowText absent.
type FollowRow struct {
	MemberID   int64      `gorm:"column:mid" json:"mid"`
	IntakeTime *time.Time `gorm:"column:createtime" json:"createtime"`
	Nickname   string     `gorm:"column:nickname" json:"nickname"`
	Mobile     string     `gorm:"column:mobile" json:"mobile"`
	Gender     int        `gorm:"column:gender" json:"gender"`
	AgeYear    int        `gorm:"column:ageyear" json:"ageyear"`
	Height     int        `gorm:"column:height" json:"height"`
	Education  string     `gorm:"column:education" json:"education"`
	TrueName   string     `gorm:"column:truename" json:"truename"`
	SourceFrom int        `gorm:"column:sourcefrom" json:"sourcefrom"`
	SiteName   string     `gorm:"column:sitename" json:"sitename"`
	FollowTime *time.Time `gorm:"column:addtime" json:"addtime"`
	FollowText *string    `gorm:"column:logcont" json:"logcont"`
}

// HasFollowup reports whether the row carries a complete follow-up entry.
// The two fields are jointly present or jointly absent per the join contract;
// a half-present pair is treated as absent.
func (r *FollowRow) HasFollowup() bool {
	return r.FollowTime != nil && r.FollowText != nil && *r.FollowText != ""
}

// Followup is a timestamped free-text call-log note.
type Followup struct {
	Time time.Time `json:"time"`
	Text string    `json:"content"`
}

// Lead is one unique member folded out of the join, in first-seen order.
// It is immutable after grouping; classification produces a ClassifiedLead.
type Lead struct {
	MemberID    int64      `json:"mid"`
	IntakeTime  *time.Time `json:"createtime"`
	Nickname    string     `json:"nickname"`
	Mobile      string     `json:"mobile"`
	Gender      int        `json:"gender"`
	AgeYear     int        `json:"age"`
	Height      int        `json:"height"`
	Education   string     `json:"education"`
	ChannelCode int        `json:"channelCode"`
	StoreName   string     `json:"sitename"`
	Followups   []Followup `json:"followups"`
}

// IntakeDate returns the UTC calendar date of the intake timestamp, or ""
// when the timestamp is absent (the lead is then excluded from date-keyed
// aggregations).
func (l *Lead) IntakeDate() string {
	if l.IntakeTime == nil {
		return ""
	}
	return l.IntakeTime.UTC().Format("2006-01-02")
}

// FollowupTexts returns the free-text notes in row order.
func (l *Lead) FollowupTexts() []string {
	texts := make([]string, 0, len(l.Followups))
	for _, f := range l.Followups {
		texts = append(texts, f.Text)
	}
	return texts
}

// FollowupsWithin returns the notes whose time falls in
// [intake, intake+days*24h]. Nil when the intake time is absent.
func (l *Lead) FollowupsWithin(days int) []string {
	if l.IntakeTime == nil {
		return nil
	}
	start := *l.IntakeTime
	end := start.Add(time.Duration(days) * 24 * time.Hour)
	var texts []string
	for _, f := range l.Followups {
		if !f.Time.Before(start) && !f.Time.After(end) {
			texts = append(texts, f.Text)
		}
	}
	return texts
}

// Tag is a per-lead classification outcome.
type Tag string

const (
	TagDeepCommunication Tag = "deep_communication"
	TagInvalidData       Tag = "invalid_data"
	TagConnected         Tag = "connected"
)

// TagSet holds the outcome tags computed once per lead.
type TagSet map[Tag]bool

func (s TagSet) Has(t Tag) bool { return s[t] }

// List returns the tags in a fixed order for stable JSON output.
func (s TagSet) List() []Tag {
	var out []Tag
	for _, t := range []Tag{TagDeepCommunication, TagInvalidData, TagConnected} {
		if s[t] {
			out = append(out, t)
		}
	}
	return out
}

// ClassifiedLead pairs an immutable Lead with its computed outcome tags and
// the display fields the drill-down table needs.
type ClassifiedLead struct {
	Lead
	Channel         string `json:"channel"`
	GenderLabel     string `json:"genderLabel"`
	Classifications []Tag  `json:"classifications"`
}
