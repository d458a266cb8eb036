package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/blogclass/core/dashboard"
	"github.com/trezcool/blogclass/core/student"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db           *sql.DB
	out          io.Writer
	validate     *validator.Validate
	studentRepo  student.Repository
	standings    student.StandingsObserver
	dashboardSvc dashboard.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command on the database (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  addstudent -name NAME -username USERNAME -email EMAIL [-cohort N] [-admin] - create or update a student")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset a student's password")
	fmt.Fprintln(cli.out, "  importstudents -file FILE.xlsx [-cohort N] - create the students listed in a spreadsheet")
	fmt.Fprintln(cli.out, "  exportattendance [-month YYYY-MM] -out FILE.xlsx - write the monthly attendance report")
}

// promptPassword reads a password from the terminal; it returns "" when none was typed.
func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ContinueOnError)
	addStudentName := addStudentCmd.String("name", "", "The student's name.")
	addStudentUname := addStudentCmd.String("username", "", "The student's username.")
	addStudentEmail := addStudentCmd.String("email", "", "The student's email. The password will be prompted next.")
	addStudentCohort := addStudentCmd.Int("cohort", 1, "The student's cohort.")
	addStudentAdmin := addStudentCmd.Bool("admin", false, "Make the student an admin (owner).")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The student's username or email. The password will be prompted next.")

	importCmd := flag.NewFlagSet("importstudents", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "The xlsx file listing the students.")
	importCohort := importCmd.Int("cohort", 1, "The cohort of the students whose row has none.")

	exportCmd := flag.NewFlagSet("exportattendance", flag.ContinueOnError)
	exportMonth := exportCmd.String("month", "", "The month (YYYY-MM) of the report, the current one by default.")
	exportOut := exportCmd.String("out", "", "The xlsx file to write.")

	for _, cmd := range []*flag.FlagSet{addStudentCmd, resetPasswordCmd, importCmd, exportCmd} {
		cmd.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStudentName == "" || (*addStudentUname == "" && *addStudentEmail == "") {
			addStudentCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addStudentCmd.Usage()
			return errHelp
		}
		return cli.addStudent(*addStudentName, *addStudentUname, *addStudentEmail, pwd, *addStudentCohort, *addStudentAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "importstudents":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importStudents(*importFile, *importCohort)

	case "exportattendance":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportOut == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.exportAttendance(*exportMonth, *exportOut)

	default:
		cli.printUsage()
		return errHelp
	}
}
