package leads

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oelv/crm-funnel-backend/internal/domain"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

// FollowRowRepo materializes the denormalized member × follow-up × site
// join for a creation-date range.
// Rows for the same member are not guaranteed contiguous; the grouper does
// not rely on order.
type FollowRowRepo interface {
	FetchRows(ctx context.Context, from, to time.Time) ([]domain.FollowRow, error)
}

type followRowRepo struct {
	db      *gorm.DB
	log     *logger.Logger
	siteIDs []int
}

func NewFollowRowRepo(db *gorm.DB, log *logger.Logger, siteIDs []int) FollowRowRepo {
	return &followRowRepo{
		db:      db,
		log:     log.With("repo", "FollowRowRepo"),
		siteIDs: siteIDs,
	}
}

// The CRM stores epoch seconds; members outside the configured site scope
// are excluded at the source. Follow-ups logged before the member's intake
// are join artifacts and dropped, as the legacy extraction did.
const followRowsQuery = `
SELECT u.mid, u.createtime, u.nickname, u.mobile, u.gender, u.ageyear,
       u.height, u.education, u.truename, u.sourcefrom, m.sitename,
       f.addtime, f.logcont
FROM (
    SELECT mid, to_timestamp(addtime) AS createtime, nickname, mobile, gender,
           ageyear, height, education, truename, sourcefrom, siteid
    FROM oelv_pre_crm_member
    WHERE to_timestamp(addtime) >= ? AND to_timestamp(addtime) < ?
      AND siteid IN ?
) AS u
LEFT JOIN (
    SELECT mid AS fmid, to_timestamp(addtime) AS addtime, logcont
    FROM oelv_pre_crm_follow2
    WHERE to_timestamp(addtime) >= ? AND siteid IN ?
) AS f ON f.fmid = u.mid AND f.addtime >= u.createtime
LEFT JOIN (
    SELECT siteid AS msiteid, sitename FROM oelv_pre_crm_site
) AS m ON m.msiteid = u.siteid
ORDER BY u.createtime, u.mid, f.addtime`

func (r *followRowRepo) FetchRows(ctx context.Context, from, to time.Time) ([]domain.FollowRow, error) {
	if len(r.siteIDs) == 0 {
		return nil, fmt.Errorf("no site ids configured")
	}
	var rows []domain.FollowRow
	err := r.db.WithContext(ctx).
		Raw(followRowsQuery, from, to, r.siteIDs, from, r.siteIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch follow rows: %w", err)
	}
	r.log.Debug("fetched follow rows",
		"rows", len(rows),
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"),
	)
	return rows, nil
}
