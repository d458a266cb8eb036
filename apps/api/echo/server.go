package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
)

type (
	Deps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

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

	Server struct {
		addr     string
		deps     *Deps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

// NewServer returns the API Server. When shutdown is nil, the Server listens to SIGINT & SIGTERM.
func NewServer(addr string, shutdown chan os.Signal, deps *Deps) *Server {
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	}
	s := &Server{
		addr:     addr,
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: shutdown,
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if len(conf.Server.CORSOrigins) > 0 {
		s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: conf.Server.CORSOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)
	h := &handler{auth: s.auth, validate: s.deps.Validate, studentSvc: s.deps.StudentSvc}
	admin := v1.Group("/admin", jwt, h.loadStudent, adminMiddleware())

	registerStudentAPI(v1, admin, jwt, h)
	registerAttendanceAPI(v1, admin, jwt, h, s.deps.AttendanceSvc)
	registerGrowthAPI(v1, jwt, h, s.deps.GrowthSvc)
	registerPointsAPI(v1, admin, jwt, h, s.deps.PointsSvc)
	registerVODAPI(v1, admin, jwt, h, s.deps.VODSvc)
	registerQnAAPI(v1, admin, jwt, h, s.deps.QnASvc)
	registerConsultAPI(v1, admin, jwt, h, s.deps.ConsultSvc)
	registerEarningAPI(v1, admin, jwt, h, s.deps.EarningSvc)
	registerDashboardAPI(v1, admin, jwt, h, s.deps.DashboardSvc)
}

// Start listens for requests; errors are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the app to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, s.deps.Conf.AppName+" API")
}
