package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

func (cli *commandLine) importStudents(path string, cohort int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := cli.dashboardSvc.Import(context.Background(), f, cohort)
	if err != nil {
		return err
	}
	for _, st := range res.Created {
		fmt.Fprintf(cli.out, "created %s (%s)\n", st.Name, st.ID)
	}
	for _, rowErr := range res.Errors {
		fmt.Fprintf(cli.out, "row %d skipped: %v\n", rowErr.Row, rowErr.Errors)
	}
	fmt.Fprintf(cli.out, "%d created, %d skipped\n", len(res.Created), len(res.Errors))
	return nil
}

func (cli *commandLine) exportAttendance(month, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = cli.dashboardSvc.Export(context.Background(), month, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", path)
	}
	fmt.Fprintf(cli.out, "attendance report written to %s\n", path)
	return nil
}
