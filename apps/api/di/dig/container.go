package dig_container

import (
	"fmt"
	"log"
	"os"

	"github.com/go-redis/redis/v8"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/blogclass/apps/api/echo"
	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/attendance"
	"github.com/trezcool/blogclass/core/consult"
	"github.com/trezcool/blogclass/core/dashboard"
	"github.com/trezcool/blogclass/core/earning"
	"github.com/trezcool/blogclass/core/growth"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/qna"
	"github.com/trezcool/blogclass/core/student"
	"github.com/trezcool/blogclass/core/vod"
	"github.com/trezcool/blogclass/services/cache"
	emailsvc "github.com/trezcool/blogclass/services/email"
	logsvc "github.com/trezcool/blogclass/services/logger"
	"github.com/trezcool/blogclass/services/sheet"
	"github.com/trezcool/blogclass/storage/database"
	sqlxrepos "github.com/trezcool/blogclass/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type DashboardParam struct {
	dig.In

	Student    student.Service
	Attendance attendance.Service
	Growth     growth.Service
	Points     points.Service
	VOD        vod.Service
	QnA        qna.Service
	Consult    consult.Service
}

type ServicesParam struct {
	dig.In

	Student    student.Service
	Attendance attendance.Service
	Growth     growth.Service
	Points     points.Service
	VOD        vod.Service
	QnA        qna.Service
	Consult    consult.Service
	Earning    earning.Service
	Dashboard  dashboard.Service
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	loggerParam.Logger.Info(fmt.Sprintf("connected to %s", database.RedactedDSN(conf)))
	return db, db
}

// newLeaderboard returns a nil interface, not a nil *cache.Leaderboard, when redis is not configured.
func newLeaderboard(conf *core.Config, logger core.Logger) (*redis.Client, points.Leaderboard) {
	client := cache.NewClient(conf)
	if client == nil {
		logger.Warn("redis is not configured: the leaderboard is not cached")
		return nil, nil
	}
	return client, cache.NewLeaderboard(client, cache.DefaultLeaderboardTTL)
}

func newStandingsObserver(pointsSvc points.Service) student.StandingsObserver {
	return pointsSvc
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newDashboardService(
	svcs DashboardParam,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) dashboard.Service {
	return dashboard.NewService(
		dashboard.Services{
			Student:    svcs.Student,
			Attendance: svcs.Attendance,
			Growth:     svcs.Growth,
			Points:     svcs.Points,
			VOD:        svcs.VOD,
			QnA:        svcs.QnA,
			Consult:    svcs.Consult,
		},
		sheet.Excel{},
		validate,
		translator,
		logger,
	)
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	svcs ServicesParam,
) *echoapi.Server {
	return echoapi.NewServer(conf.Server.Address, nil /* shutdown */, &echoapi.Deps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		StudentSvc:    svcs.Student,
		AttendanceSvc: svcs.Attendance,
		GrowthSvc:     svcs.Growth,
		PointsSvc:     svcs.Points,
		VODSvc:        svcs.VOD,
		QnASvc:        svcs.QnA,
		ConsultSvc:    svcs.Consult,
		EarningSvc:    svcs.Earning,
		DashboardSvc:  svcs.Dashboard,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newLeaderboard))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(core.NewValidate))

	must(c.Provide(sqlxrepos.NewStudentRepository))
	must(c.Provide(sqlxrepos.NewAttendanceRepository))
	must(c.Provide(sqlxrepos.NewGrowthRepository))
	must(c.Provide(sqlxrepos.NewPointsRepository))
	must(c.Provide(sqlxrepos.NewVODRepository))
	must(c.Provide(sqlxrepos.NewQnARepository))
	must(c.Provide(sqlxrepos.NewConsultRepository))
	must(c.Provide(sqlxrepos.NewEarningRepository))

	must(c.Provide(student.NewService))
	must(c.Provide(points.NewService))
	must(c.Provide(newStandingsObserver))
	must(c.Provide(attendance.NewService))
	must(c.Provide(growth.NewService))
	must(c.Provide(vod.NewService))
	must(c.Provide(qna.NewService))
	must(c.Provide(consult.NewService))
	must(c.Provide(earning.NewService))
	must(c.Provide(newDashboardService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
