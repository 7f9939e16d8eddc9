package timesheet

import (
	"encoding/csv"
	stderrors "errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/sheetload/internal/errors"
	"github.com/hpungsan/sheetload/internal/timeparse"
)

// CSV column names, in file order.
const (
	ColDate      = "Date"
	ColProject   = "Project"
	ColPayRate   = "Pay Rate"
	ColTask      = "Task ID"
	ColStartTime = "Start Time"
	ColEndTime   = "End Time"
	ColDuration  = "Duration"
)

// ColumnNames is the positional layout used when the file has no header row.
var ColumnNames = []string{ColDate, ColProject, ColPayRate, ColTask, ColStartTime, ColEndTime, ColDuration}

// Row is one raw CSV row keyed by column name.
type Row struct {
	// Line is the 1-based line number in the source file
	Line   int
	Fields map[string]string
}

// Record is a normalized row. Nil pointers mean "inherit from the previous row".
type Record struct {
	Line     int
	Date     *time.Time
	Project  *string
	PayRate  *float64
	Task     *string
	Start    timeparse.Clock
	End      timeparse.Clock
	Duration time.Duration
}

// ReadRows reads every row of a timesheet CSV. When hasHeader is false the
// columns are mapped positionally onto ColumnNames.
func ReadRows(r io.Reader, hasHeader bool) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header := ColumnNames
	if hasHeader {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, csvError(err)
		}
		header = make([]string, len(fields))
		for i, f := range fields {
			header[i] = strings.TrimSpace(strings.TrimPrefix(f, "\ufeff"))
		}
	}

	var rows []Row
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		// Physical line of the record's first field; quoted cells may span lines.
		line, _ := reader.FieldPos(0)

		row := Row{Line: line, Fields: make(map[string]string, len(header))}
		for i, name := range header {
			if i < len(fields) {
				row.Fields[name] = fields[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// csvError converts a csv reader error into a PARSE_ERROR carrying its line.
func csvError(err error) error {
	var pErr *csv.ParseError
	if stderrors.As(err, &pErr) {
		e := errors.NewParse(pErr.Err.Error()).WithDetail("row", pErr.Line)
		e.Err = err
		return e
	}
	return errors.NewInternal(err)
}

// NormalizeRow converts a raw row into a Record. Start Time, End Time and
// Duration are required; the other columns may be blank.
func NormalizeRow(row Row) (Record, error) {
	rec := Record{Line: row.Line}

	start, err := requiredField(row, ColStartTime)
	if err != nil {
		return rec, err
	}
	end, err := requiredField(row, ColEndTime)
	if err != nil {
		return rec, err
	}
	duration, err := requiredField(row, ColDuration)
	if err != nil {
		return rec, err
	}

	if rec.Start, err = timeparse.ParseClock(start); err != nil {
		return rec, err
	}
	if rec.End, err = timeparse.ParseClock(end); err != nil {
		return rec, err
	}
	if rec.Duration, err = timeparse.ParseDuration(duration); err != nil {
		return rec, err
	}

	if rec.Date, err = timeparse.ParseDate(row.Fields[ColDate]); err != nil {
		return rec, err
	}
	rec.Project = optionalField(row, ColProject)
	rec.Task = optionalField(row, ColTask)

	if rate := optionalField(row, ColPayRate); rate != nil {
		v, err := strconv.ParseFloat(strings.TrimPrefix(*rate, "$"), 64)
		if err != nil {
			return rec, errors.NewFormat("pay rate", *rate, "decimal number")
		}
		rec.PayRate = &v
	}

	return rec, nil
}

// NormalizeRows normalizes every row, stopping at the first error. Errors
// are annotated with file and row.
func NormalizeRows(rows []Row, file string) ([]Record, error) {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := NormalizeRow(row)
		if err != nil {
			return nil, annotate(err, file, row.Line)
		}
		records = append(records, rec)
	}
	return records, nil
}

func requiredField(row Row, name string) (string, error) {
	v, ok := row.Fields[name]
	if !ok {
		return "", errors.NewParse("missing column " + strconv.Quote(name))
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", errors.NewParse("missing value for " + strconv.Quote(name))
	}
	return v, nil
}

func optionalField(row Row, name string) *string {
	v := strings.TrimSpace(row.Fields[name])
	if v == "" {
		return nil
	}
	return &v
}

// annotate attaches file/row context to a LoadError.
func annotate(err error, file string, line int) error {
	if lErr, ok := errors.As(err); ok {
		return lErr.AtRow(file, line)
	}
	return err
}
