package app

import (
	"gorm.io/gorm"

	"github.com/oelv/crm-funnel-backend/internal/data/repos/leads"
	"github.com/oelv/crm-funnel-backend/internal/data/repos/reports"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

type Repos struct {
	FollowRows leads.FollowRowRepo
	Snapshots  reports.SnapshotRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, cfg Config) Repos {
	log.Info("Wiring repos...")
	return Repos{
		FollowRows: leads.NewFollowRowRepo(db, log, cfg.SiteIDs),
		Snapshots:  reports.NewSnapshotRepo(db, log),
	}
}
