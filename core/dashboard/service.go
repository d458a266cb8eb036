package dashboard

import (
	"context"
	"io"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/attendance"
	"github.com/trezcool/blogclass/core/consult"
	"github.com/trezcool/blogclass/core/growth"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/qna"
	"github.com/trezcool/blogclass/core/student"
	"github.com/trezcool/blogclass/core/vod"
)

type (
	// Sheets reads & writes spreadsheets.
	Sheets interface {
		ReadStudents(r io.Reader) ([]ImportRow, error)
		WriteReport(w io.Writer, rep Report) error
	}

	Services struct {
		Student    student.Service
		Attendance attendance.Service
		Growth     growth.Service
		Points     points.Service
		VOD        vod.Service
		QnA        qna.Service
		Consult    consult.Service
	}

	Service interface {
		Home(ctx context.Context, st student.Student) (Home, error)
		Overview(ctx context.Context) (Overview, error)
		Export(ctx context.Context, month string, w io.Writer) error
		Import(ctx context.Context, r io.Reader, cohort int) (ImportResult, error)
	}

	service struct {
		svcs       Services
		sheets     Sheets
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	svcs Services,
	sheets Sheets,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) Service {
	return &service{svcs: svcs, sheets: sheets, validate: validate, translator: translator, logger: logger}
}

func (svc *service) Home(ctx context.Context, st student.Student) (Home, error) {
	var err error
	home := Home{Student: st, Tree: svc.svcs.Growth.Tree(st)}

	if home.Attendance, err = svc.svcs.Attendance.Status(ctx, st.ID); err != nil {
		return Home{}, errors.Wrap(err, "getting attendance status")
	}
	if st.IsStudent() {
		standing, err := svc.svcs.Points.Standing(ctx, st.ID)
		if err != nil && !core.IsNotFound(err) {
			return Home{}, errors.Wrap(err, "getting standing")
		}
		if err == nil {
			home.Standing = &standing
		}
	}
	if home.Lectures, err = svc.svcs.VOD.Completion(ctx, st.ID); err != nil {
		return Home{}, errors.Wrap(err, "getting lecture completion")
	}
	if home.UpcomingConsultation, err = svc.svcs.Consult.Upcoming(ctx, st.ID); err != nil {
		return Home{}, errors.Wrap(err, "getting upcoming consultation")
	}
	home.OpenQuestions, err = svc.svcs.QnA.Count(ctx, qna.QueryFilter{StudentID: st.ID, Answered: core.BoolPtr(false)})
	if err != nil {
		return Home{}, errors.Wrap(err, "counting open questions")
	}
	return home, nil
}

func (svc *service) activeStudents(ctx context.Context) ([]student.Student, error) {
	students, err := svc.svcs.Student.Query(
		ctx,
		&student.QueryFilter{Roles: []string{student.RoleStudent}, IsActive: core.BoolPtr(true)},
		[]core.DBOrdering{{Field: "cohort", Ascending: true}, {Field: "name", Ascending: true}},
	)
	return students, errors.Wrap(err, "querying students")
}

func (svc *service) Overview(ctx context.Context) (Overview, error) {
	ov := Overview{Day: core.Today()}

	students, err := svc.activeStudents(ctx)
	if err != nil {
		return Overview{}, err
	}
	ov.Students = len(students)

	report, err := svc.svcs.Attendance.DailyReport(ctx, ov.Day)
	if err != nil {
		return Overview{}, errors.Wrap(err, "getting daily report")
	}
	for _, entry := range report {
		if entry.CheckedIn {
			ov.CheckedInToday++
		}
	}

	if ov.UnansweredQuestions, err = svc.svcs.QnA.Count(ctx, qna.QueryFilter{Answered: core.BoolPtr(false)}); err != nil {
		return Overview{}, errors.Wrap(err, "counting unanswered questions")
	}

	bookings, err := svc.svcs.Consult.Query(ctx, consult.QueryFilter{Status: consult.StatusBooked, From: core.Now()})
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying upcoming bookings")
	}
	ov.UpcomingBookings = len(bookings)

	if ov.TotalPosts, err = svc.svcs.Growth.Count(ctx); err != nil {
		return Overview{}, errors.Wrap(err, "counting posts")
	}
	return ov, nil
}

// BuildReport joins the students with the attendance records of month.
func BuildReport(month string, students []student.Student, records []attendance.Record) (Report, error) {
	first, last, err := core.MonthRange(month)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Month: month}
	for day := first; day <= last; {
		rep.Days = append(rep.Days, day)
		if day, err = core.AddDays(day, 1); err != nil {
			return Report{}, err
		}
	}

	attended := make(map[string]map[string]bool, len(students))
	for _, rec := range records {
		if attended[rec.StudentID] == nil {
			attended[rec.StudentID] = make(map[string]bool)
		}
		attended[rec.StudentID][rec.Day] = true
	}

	// rank by points, the table keeps the students' order
	standings := make([]points.Standing, 0, len(students))
	for _, st := range students {
		standings = append(standings, points.Standing{StudentID: st.ID, Points: st.Points})
	}
	sort.SliceStable(standings, func(i, j int) bool { return standings[i].Points > standings[j].Points })
	ranks := make(map[string]int, len(standings))
	for _, s := range points.Rank(standings) {
		ranks[s.StudentID] = s.Rank
	}

	for _, st := range students {
		days := attended[st.ID]
		if days == nil {
			days = make(map[string]bool)
		}
		rep.Rows = append(rep.Rows, ReportRow{Student: st, Attended: days, Total: len(days), Rank: ranks[st.ID]})
	}
	return rep, nil
}

func (svc *service) Export(ctx context.Context, month string, w io.Writer) error {
	if month == "" {
		month = core.CurrentMonth()
	}
	records, err := svc.svcs.Attendance.Month(ctx, month)
	if err != nil {
		return err
	}
	students, err := svc.activeStudents(ctx)
	if err != nil {
		return err
	}
	rep, err := BuildReport(month, students, records)
	if err != nil {
		return errors.Wrap(err, "building report")
	}
	return errors.Wrap(svc.sheets.WriteReport(w, rep), "writing report")
}

// Import creates the students listed in a spreadsheet. Rows that fail validation are reported
// and skipped. Imported students get a random password and a password reset email.
func (svc *service) Import(ctx context.Context, r io.Reader, cohort int) (ImportResult, error) {
	rows, err := svc.sheets.ReadStudents(r)
	if err != nil {
		return ImportResult{}, core.NewValidationError(errors.Wrap(err, "reading spreadsheet"))
	}

	res := ImportResult{Created: []student.Student{}, Errors: []ImportError{}}
	for _, row := range rows {
		ns := row.Student
		if ns.Cohort == 0 {
			ns.Cohort = cohort
		}
		ns.Roles = []string{student.RoleStudent}
		ns.Password = randomPassword()
		ns.PasswordConfirm = ns.Password

		if err := ns.Validate(ctx, svc.validate, svc.svcs.Student); err != nil {
			fldErrs, ok := svc.fieldErrors(err)
			if !ok {
				return res, err
			}
			res.Errors = append(res.Errors, ImportError{Row: row.Row, Errors: fldErrs})
			continue
		}

		st, err := svc.svcs.Student.Create(ctx, ns)
		if err != nil {
			return res, errors.Wrapf(err, "creating student of row %d", row.Row)
		}
		res.Created = append(res.Created, st)

		if st.Email != "" {
			if err := svc.svcs.Student.RequestPasswordReset(ctx, st.Email); err != nil {
				svc.logger.Warn("dashboard.Import: requesting password reset", err, st)
			}
		}
	}
	return res, nil
}

// fieldErrors translates validation errors; it reports false for any other error.
func (svc *service) fieldErrors(err error) (map[string]string, bool) {
	switch vErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(vErr))
		for _, fe := range vErr {
			fldErrs[fe.Field()] = fe.Translate(svc.translator)
		}
		return fldErrs, true
	case *core.ValidationError:
		fldErrs := make(map[string]string, len(vErr.Fields))
		for _, fe := range vErr.Fields {
			fldErrs[fe.Field] = fe.Error
		}
		if len(fldErrs) == 0 {
			fldErrs["error"] = vErr.Error()
		}
		return fldErrs, true
	}
	return nil, false
}

func randomPassword() string {
	return "Bc7!" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
