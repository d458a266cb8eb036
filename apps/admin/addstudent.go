package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/student"
)

// addStudent updates or creates a student.Student
func (cli *commandLine) addStudent(name, uname, email, pwd string, cohort int, isAdmin bool) error {
	ctx := context.Background()
	ns := student.NewStudent{
		Name:            name,
		Username:        uname,
		Email:           email,
		Cohort:          cohort,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if isAdmin {
		ns.Roles = []string{student.RoleAdminOwner}
	}
	ns.Clean()
	if err := cli.validate.Struct(ns); err != nil {
		return err
	}

	var filter student.GetFilter
	for _, uname := range []string{ns.Username, ns.Email} {
		if uname != "" {
			filter.UsernameOrEmail = append(filter.UsernameOrEmail, uname)
		}
	}
	st, err := cli.studentRepo.GetStudent(ctx, filter)
	if err != nil && errors.Cause(err) != student.ErrNotFound {
		return err
	}
	now := core.Now()
	exists := err == nil
	if !exists {
		st = student.Student{CreatedAt: now}
	}

	st.Name = ns.Name
	if ns.Username != "" {
		st.Username = ns.Username
	}
	if ns.Email != "" {
		st.Email = ns.Email
	}
	st.Cohort = ns.Cohort
	st.Roles = ns.Roles
	st.UpdatedAt = now
	st.SetActive(true)
	if err = st.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		_, err = cli.studentRepo.UpdateStudent(ctx, st)
	} else {
		st, err = cli.studentRepo.CreateStudent(ctx, st)
	}
	if err != nil {
		return err
	}
	if cli.standings != nil {
		cli.standings.StudentsChanged(ctx)
	}
	fmt.Fprintf(cli.out, "student %s (%s) saved\n", st.Name, st.ID)
	return nil
}
