package main

import (
	"context"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/student"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	st, err := cli.studentRepo.GetStudent(ctx, student.GetFilter{UsernameOrEmail: []string{uname}})
	if err != nil {
		return err
	}
	if err := st.SetPassword(pwd); err != nil {
		return err
	}
	st.UpdatedAt = core.Now()
	if _, err := cli.studentRepo.UpdateStudent(ctx, st); err != nil {
		return err
	}
	return nil
}
