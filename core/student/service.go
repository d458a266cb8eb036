package student

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("student not found")
	ErrEmailExists    = errors.New("a student with this email already exists")
	ErrUsernameExists = errors.New("a student with this username already exists")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUsernameExists or ErrEmailExists when another Student
		// (not in excluded) already uses the username or email.
		CheckUniqueness(ctx context.Context, username, email string, excluded []Student) error
		CreateStudent(ctx context.Context, st Student) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Name, Username or Email.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetStudent(ctx context.Context, filter GetFilter) (Student, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids []string) (int, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, uname, email string, exclStudents ...Student) error
		Create(ctx context.Context, ns NewStudent) (Student, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetByID(ctx context.Context, id string) (Student, error)
		GetByEmail(ctx context.Context, email string) (Student, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (Student, error)
		Update(ctx context.Context, st Student, us UpdateStudent) (Student, error)
		SetLastLogin(ctx context.Context, st Student) (Student, error)
		Delete(ctx context.Context, ids ...string) (int, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetPassword) error
	}

	// StandingsObserver is told when students join, leave or change in a way the leaderboard shows.
	StandingsObserver interface {
		StudentsChanged(ctx context.Context)
	}

	service struct {
		conf      *core.Config
		repo      Repository
		mailSvc   core.EmailService
		standings StandingsObserver
	}
)

var _ Service = (*service)(nil)

// NewService returns a student Service. standings may be nil.
func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, standings StandingsObserver) Service {
	return &service{conf: conf, repo: repo, mailSvc: mailSvc, standings: standings}
}

func (svc *service) studentsChanged(ctx context.Context) {
	if svc.standings != nil {
		svc.standings.StudentsChanged(ctx)
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string, exclStudents ...Student) error {
	if err := svc.repo.CheckUniqueness(ctx, uname, email, exclStudents); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return errors.Wrap(err, "checking student uniqueness")
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: errors.Cause(err).Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := core.Now()
	st := Student{
		Name:      ns.Name,
		Username:  ns.Username,
		Email:     ns.Email,
		Phone:     ns.Phone,
		Cohort:    ns.Cohort,
		BlogURL:   ns.BlogURL,
		Roles:     ns.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.SetActive(true)
	if err := st.SetPassword(ns.Password); err != nil {
		return Student{}, errors.Wrap(err, "setting password")
	}
	st, err := svc.repo.CreateStudent(ctx, st)
	if err != nil {
		return Student{}, err
	}
	svc.studentsChanged(ctx)
	return st, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (Student, error) {
	uname = core.CleanString(uname, true /* lower */)
	if uname == "" {
		return Student{}, ErrNotFound
	}
	return svc.repo.GetStudent(ctx, GetFilter{UsernameOrEmail: []string{uname}})
}

func (svc *service) Update(ctx context.Context, st Student, us UpdateStudent) (Student, error) {
	prev := st
	st.Name = us.Name
	st.Username = us.Username
	st.Email = us.Email
	st.Phone = us.Phone
	st.BlogURL = us.BlogURL
	st.UpdatedAt = core.Now()
	if us.Cohort != nil {
		st.Cohort = *us.Cohort
	}
	if us.IsActive != nil {
		st.SetActive(*us.IsActive)
	}
	if us.Roles != nil {
		st.Roles = us.Roles
	}
	if us.Password != "" {
		if err := st.SetPassword(us.Password); err != nil {
			return Student{}, errors.Wrap(err, "setting password")
		}
	}
	st, err := svc.repo.UpdateStudent(ctx, st)
	if err != nil {
		return Student{}, err
	}
	if st.sameStanding(prev) {
		return st, nil
	}
	svc.studentsChanged(ctx)
	return st, nil
}

func (svc *service) SetLastLogin(ctx context.Context, st Student) (Student, error) {
	st.LastLogin = core.Now()
	return svc.repo.UpdateStudent(ctx, st)
}

func (svc *service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := svc.repo.DeleteStudentsByID(ctx, ids)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		svc.studentsChanged(ctx)
	}
	return n, nil
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	st, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !st.Active() {
		return ErrNotFound
	}
	return svc.sendPasswordResetMail(st)
}

func (svc *service) sendPasswordResetMail(st Student) error {
	token, err := makeToken([]byte(svc.conf.SecretKey), st)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	uid := EncodeUID(st)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: st.Name, Address: st.Email}},
		Subject:      "비밀번호 재설정 안내",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name": st.Name,
			"URL":  fmt.Sprintf("%s/password-reset/%s/%s", svc.conf.FrontendBaseURL, uid, token),
		},
	})
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	st, err := svc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(errInvalidToken)
		}
		return errors.Wrap(err, "finding student by ID")
	}
	if err = verifyToken([]byte(svc.conf.SecretKey), svc.conf.PasswordResetTimeoutDelta, st, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = st.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	st.UpdatedAt = core.Now()
	_, err = svc.repo.UpdateStudent(ctx, st)
	return errors.Wrap(err, "updating student")
}
