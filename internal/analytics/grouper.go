package analytics

import (
	"github.com/oelv/crm-funnel-backend/internal/domain"
)

// Group folds the flat join rows into one Lead per unique member id.
//
// The first row seen for an id seeds the identity, intake and demographic
// fields; later rows only contribute follow-up entries (rows for the same
// member carry identical non-follow-up fields per the join contract). Rows
// without a complete follow-up pair still establish the member but add no
// entry. Output order is first-appearance order, so grouping is deterministic
// and idempotent for a given input order.
func Group(rows []domain.FollowRow) []*domain.Lead {
	byID := make(map[int64]*domain.Lead, len(rows))
	leads := make([]*domain.Lead, 0, len(rows))

	for i := range rows {
		row := &rows[i]
		lead, seen := byID[row.MemberID]
		if !seen {
			lead = &domain.Lead{
				MemberID:    row.MemberID,
				IntakeTime:  row.IntakeTime,
				Nickname:    row.Nickname,
				Mobile:      row.Mobile,
				Gender:      row.Gender,
				AgeYear:     row.AgeYear,
				Height:      row.Height,
				Education:   row.Education,
				ChannelCode: row.SourceFrom,
				StoreName:   row.SiteName,
			}
			byID[row.MemberID] = lead
			leads = append(leads, lead)
		}
		if row.HasFollowup() {
			lead.Followups = append(lead.Followups, domain.Followup{
				Time: *row.FollowTime,
				Text: *row.FollowText,
			})
		}
	}
	return leads
}
