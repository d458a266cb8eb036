// Package sheet reads and writes the xlsx spreadsheets of the admin console.
package sheet

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/blogclass/core/dashboard"
	"github.com/trezcool/blogclass/core/student"
)

const reportSheet = "출석부"

// student columns, recognized by their header (korean or english)
var importHeaders = map[string]string{
	"이름":       "name",
	"name":     "name",
	"아이디":      "username",
	"username": "username",
	"이메일":      "email",
	"email":    "email",
	"전화번호":     "phone",
	"phone":    "phone",
	"기수":       "cohort",
	"cohort":   "cohort",
	"블로그":      "blog_url",
	"blog_url": "blog_url",
}

var ErrNoNameColumn = errors.New("the first row must contain a name column (이름)")

type Excel struct{}

var _ dashboard.Sheets = Excel{}

// ReadStudents reads students from the first sheet of an xlsx file: the first row
// holds the headers, empty rows are skipped.
func (Excel) ReadStudents(r io.Reader) ([]dashboard.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening spreadsheet")
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("spreadsheet does not contain any sheet")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, errors.Wrapf(err, "reading rows of %s", sheetName)
	}
	if len(rows) == 0 {
		return []dashboard.ImportRow{}, nil
	}

	cols := make(map[int]string)
	for i, header := range rows[0] {
		if field, ok := importHeaders[strings.ToLower(strings.TrimSpace(header))]; ok {
			cols[i] = field
		}
	}
	var hasName bool
	for _, field := range cols {
		hasName = hasName || field == "name"
	}
	if !hasName {
		return nil, ErrNoNameColumn
	}

	students := make([]dashboard.ImportRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		var ns student.NewStudent
		for j, value := range row {
			value = strings.TrimSpace(value)
			switch cols[j] {
			case "name":
				ns.Name = value
			case "username":
				ns.Username = value
			case "email":
				ns.Email = value
			case "phone":
				ns.Phone = value
			case "blog_url":
				ns.BlogURL = value
			case "cohort":
				if value == "" {
					continue
				}
				cohort, err := strconv.Atoi(strings.TrimSuffix(value, "기"))
				if err != nil {
					cohort = -1 // rejected by validation
				}
				ns.Cohort = cohort
			}
		}
		students = append(students, dashboard.ImportRow{Row: i + 2, Student: ns})
	}
	return students, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteReport writes the monthly attendance report as an xlsx file:
// one row per student, one column per day of the month.
func (Excel) WriteReport(w io.Writer, rep dashboard.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), reportSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := []interface{}{"순위", "기수", "이름", "이메일"}
	for _, day := range rep.Days {
		header = append(header, day[len(day)-2:]) // DD
	}
	header = append(header, "출석일", "포인트", "포스팅")
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	for i, row := range rep.Rows {
		values := []interface{}{row.Rank, row.Student.Cohort, row.Student.Name, row.Student.Email}
		for _, day := range rep.Days {
			mark := ""
			if row.Attended[day] {
				mark = "O"
			}
			values = append(values, mark)
		}
		values = append(values, row.Total, row.Student.Points, row.Student.PostCount)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err = f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	if err := styleReport(f, len(header)); err != nil {
		return err
	}
	return errors.Wrap(f.Write(w), "writing spreadsheet")
}

func styleReport(f *excelize.File, nCols int) error {
	lastCol, err := excelize.ColumnNumberToName(nCols)
	if err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E2EFDA"}},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	if err = f.SetCellStyle(reportSheet, "A1", lastCol+"1", style); err != nil {
		return errors.Wrap(err, "styling header")
	}
	if err = f.SetColWidth(reportSheet, "C", "D", 18); err != nil {
		return err
	}
	if nCols > 7 {
		firstDay, _ := excelize.ColumnNumberToName(5)
		lastDay, _ := excelize.ColumnNumberToName(nCols - 3)
		if err = f.SetColWidth(reportSheet, firstDay, lastDay, 4); err != nil {
			return err
		}
	}
	return f.SetPanes(reportSheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      4,
		YSplit:      1,
		TopLeftCell: "E2",
		ActivePane:  "bottomRight",
	})
}
