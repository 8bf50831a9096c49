package db

import (
	"fmt"
	stdlog "log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/oelv/crm-funnel-backend/internal/domain"
	"github.com/oelv/crm-funnel-backend/internal/platform/envutil"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

// Service owns the gorm connection to the CRM replica. DB_DRIVER=sqlite
// switches to a local file database for development, with the same schema
// for the tables this service owns.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DBService")

	gormLog := gormLogger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var (
		conn *gorm.DB
		err  error
	)
	switch driver := envutil.String("DB_DRIVER", "postgres"); driver {
	case "sqlite":
		path := envutil.String("SQLITE_PATH", "crm_funnel.db")
		conn, err = gorm.Open(sqlite.Open(path), cfg)
	case "postgres":
		conn, err = gorm.Open(postgres.Open(postgresDSN()), cfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &Service{db: conn, log: serviceLog}, nil
}

func postgresDSN() string {
	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "crm_funnel")
	sslmode := envutil.String("POSTGRES_SSLMODE", "disable")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, name, sslmode)
}

func (s *Service) DB() *gorm.DB { return s.db }

// AutoMigrateAll migrates only the tables this service owns. The CRM tables
// (members, follow-ups, sites) belong to the upstream system and are read
// through raw queries.
func (s *Service) AutoMigrateAll() error {
	return s.db.AutoMigrate(&domain.ReportSnapshot{})
}
