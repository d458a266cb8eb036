package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

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
	appfs "github.com/trezcool/blogclass/fs"
	"github.com/trezcool/blogclass/services/cache"
	emailsvc "github.com/trezcool/blogclass/services/email"
	logsvc "github.com/trezcool/blogclass/services/logger"
	"github.com/trezcool/blogclass/services/sheet"
	inmemdb "github.com/trezcool/blogclass/storage/database/inmem"
)

// Password satisfies the password policy.
const Password = "Blog#Master2024"

// App wires every service on an in-memory database, a miniredis leaderboard & a mocked mailer.
type App struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Mail       *emailsvc.ConsoleServiceMock
	DB         *inmemdb.DB
	Redis      *miniredis.Miniredis

	StudentRepo student.Repository

	StudentSvc    student.Service
	AttendanceSvc attendance.Service
	GrowthSvc     growth.Service
	PointsSvc     points.Service
	VODSvc        vod.Service
	QnASvc        qna.Service
	ConsultSvc    consult.Service
	EarningSvc    earning.Service
	DashboardSvc  dashboard.Service
}

func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
}

func NewApp(t *testing.T) *App {
	conf := core.NewTestConfig()
	translator := core.NewTranslator()
	validate := core.NewValidate(translator)
	student.InitValidators(validate, translator)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() failed: %v", err)
	}
	t.Cleanup(mr.Close)
	client := cache.NewClient(&core.Config{Redis: core.RedisConfig{Addr: mr.Addr()}})
	t.Cleanup(func() { _ = client.Close() })

	logger := NewLogger(conf)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, logger, true /* strict */)
	app := &App{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Mail:       emailsvc.NewConsoleServiceMock(conf, logger),
		DB:         inmemdb.Open(),
		Redis:      mr,
	}
	app.StudentRepo = inmemdb.NewStudentRepository(app.DB)

	app.PointsSvc = points.NewService(
		inmemdb.NewPointsRepository(app.DB),
		cache.NewLeaderboard(client, cache.DefaultLeaderboardTTL),
		app.Logger,
	)
	app.StudentSvc = student.NewService(conf, app.StudentRepo, app.Mail, app.PointsSvc)
	app.AttendanceSvc = attendance.NewService(inmemdb.NewAttendanceRepository(app.DB), app.PointsSvc)
	app.GrowthSvc = growth.NewService(inmemdb.NewGrowthRepository(app.DB), app.PointsSvc)
	app.VODSvc = vod.NewService(inmemdb.NewVODRepository(app.DB), app.PointsSvc)
	app.QnASvc = qna.NewService(inmemdb.NewQnARepository(app.DB), app.StudentSvc, app.Mail)
	app.ConsultSvc = consult.NewService(inmemdb.NewConsultRepository(app.DB), app.StudentSvc, app.Mail)
	app.EarningSvc = earning.NewService(inmemdb.NewEarningRepository(app.DB))
	app.DashboardSvc = dashboard.NewService(
		dashboard.Services{
			Student:    app.StudentSvc,
			Attendance: app.AttendanceSvc,
			Growth:     app.GrowthSvc,
			Points:     app.PointsSvc,
			VOD:        app.VODSvc,
			QnA:        app.QnASvc,
			Consult:    app.ConsultSvc,
		},
		sheet.Excel{},
		validate,
		translator,
		app.Logger,
	)
	return app
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) student.Student {
	tstamp := core.Now()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	st := student.Student{
		Name:      name,
		Username:  uname,
		Email:     email,
		Cohort:    1,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	st.SetActive(isActive)
	if pwd != "" {
		if err := st.SetPassword(pwd); err != nil {
			t.Fatalf("CreateStudent() failed: %v", err)
		}
	}
	st, err := repo.CreateStudent(context.Background(), st)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}

// FreezeTime sets core.NowFunc to return t until the test ends.
func FreezeTime(t *testing.T, now time.Time) {
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now.UTC() }
	t.Cleanup(func() { core.NowFunc = orig })
}
