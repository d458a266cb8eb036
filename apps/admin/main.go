package main

import (
	"log"
	"os"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/attendance"
	"github.com/trezcool/blogclass/core/consult"
	"github.com/trezcool/blogclass/core/dashboard"
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
	"github.com/trezcool/blogclass/storage/database"
	sqlxrepos "github.com/trezcool/blogclass/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(err.Error(), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
	defer db.Close()

	// set up services
	translator := core.NewTranslator()
	validate := core.NewValidate(translator)
	student.InitValidators(validate, translator)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, logger, false /* strict */)
	if f, err := appfs.FS.Open(appfs.CommonPasswords); err == nil {
		student.LoadCommonPasswords(f, logger)
		_ = f.Close()
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	var board points.Leaderboard
	if client := cache.NewClient(conf); client != nil {
		defer client.Close()
		board = cache.NewLeaderboard(client, cache.DefaultLeaderboardTTL)
	}

	studentRepo := sqlxrepos.NewStudentRepository(db)
	pointsSvc := points.NewService(sqlxrepos.NewPointsRepository(db), board, logger)
	studentSvc := student.NewService(conf, studentRepo, mailSvc, pointsSvc)
	dashboardSvc := dashboard.NewService(
		dashboard.Services{
			Student:    studentSvc,
			Attendance: attendance.NewService(sqlxrepos.NewAttendanceRepository(db), pointsSvc),
			Growth:     growth.NewService(sqlxrepos.NewGrowthRepository(db), pointsSvc),
			Points:     pointsSvc,
			VOD:        vod.NewService(sqlxrepos.NewVODRepository(db), pointsSvc),
			QnA:        qna.NewService(sqlxrepos.NewQnARepository(db), studentSvc, mailSvc),
			Consult:    consult.NewService(sqlxrepos.NewConsultRepository(db), studentSvc, mailSvc),
		},
		sheet.Excel{},
		validate,
		translator,
		logger,
	)

	// start CLI
	cli := commandLine{
		db:           db.DB,
		out:          os.Stdout,
		validate:     validate,
		studentRepo:  studentRepo,
		standings:    pointsSvc,
		dashboardSvc: dashboardSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin: "+err.Error(), err)
		}
		os.Exit(1)
	}
}
