package timesheet

import (
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/sheetload/internal/errors"
	"github.com/hpungsan/sheetload/internal/timeparse"
)

const sampleCSV = `Date,Project,Pay Rate,Task ID,Start Time,End Time,Duration
8/10/2024,P,40,T1,9:00 AM,9:30 AM,00:30:00
,,,T1,9:30 AM,10:00 AM,00:30:00
`

func TestReadRows_WithHeader(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(sampleCSV), true)
	if err != nil {
		t.Fatalf("ReadRows error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Line != 2 || rows[1].Line != 3 {
		t.Errorf("lines = %d,%d, want 2,3", rows[0].Line, rows[1].Line)
	}
	if rows[0].Fields[ColProject] != "P" {
		t.Errorf("Project = %q, want P", rows[0].Fields[ColProject])
	}
	if rows[1].Fields[ColDate] != "" {
		t.Errorf("Date = %q, want blank", rows[1].Fields[ColDate])
	}
}

func TestReadRows_MultiLineCellKeepsPhysicalLines(t *testing.T) {
	body := "Date,Project,Pay Rate,Task ID,Start Time,End Time,Duration\n" +
		"8/10/2024,P,40,\"long\ntask\",9:00 AM,9:30 AM,00:30:00\n" +
		",,,T2,9:30 AM,10:00 AM,00:30:00\n"
	rows, err := ReadRows(strings.NewReader(body), true)
	if err != nil {
		t.Fatalf("ReadRows error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Line != 2 || rows[1].Line != 4 {
		t.Errorf("lines = %d,%d, want 2,4", rows[0].Line, rows[1].Line)
	}
	if rows[0].Fields[ColTask] != "long\ntask" {
		t.Errorf("Task = %q", rows[0].Fields[ColTask])
	}
}

func TestReadRows_NoHeader(t *testing.T) {
	body := "8/10/2024,P,40,T1,9:00 AM,9:30 AM,00:30:00\n"
	rows, err := ReadRows(strings.NewReader(body), false)
	if err != nil {
		t.Fatalf("ReadRows error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Line != 1 {
		t.Errorf("Line = %d, want 1", rows[0].Line)
	}
	if rows[0].Fields[ColDuration] != "00:30:00" {
		t.Errorf("Duration = %q", rows[0].Fields[ColDuration])
	}
}

func TestReadRows_BOMHeader(t *testing.T) {
	rows, err := ReadRows(strings.NewReader("\ufeff"+sampleCSV), true)
	if err != nil {
		t.Fatalf("ReadRows error = %v", err)
	}
	if rows[0].Fields[ColDate] != "8/10/2024" {
		t.Errorf("Date = %q, want 8/10/2024", rows[0].Fields[ColDate])
	}
}

func TestReadRows_Empty(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(""), true)
	if err != nil {
		t.Fatalf("ReadRows error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}

func TestReadRows_MalformedQuote(t *testing.T) {
	_, err := ReadRows(strings.NewReader("Date,Project\n\"8/10/2024,P\n"), true)
	if !errors.Is(err, errors.ErrParse) {
		t.Errorf("error = %v, want PARSE_ERROR", err)
	}
}

func row(line int, fields ...string) Row {
	r := Row{Line: line, Fields: map[string]string{}}
	for i, name := range ColumnNames {
		if i < len(fields) {
			r.Fields[name] = fields[i]
		}
	}
	return r
}

func TestNormalizeRow_Full(t *testing.T) {
	rec, err := NormalizeRow(row(2, "8/10/2024", "P", "40", "T1", "9:00 AM", "9:30 AM", "00:30:00"))
	if err != nil {
		t.Fatalf("NormalizeRow error = %v", err)
	}
	if rec.Date == nil || !rec.Date.Equal(time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", rec.Date)
	}
	if rec.Project == nil || *rec.Project != "P" {
		t.Errorf("Project = %v", rec.Project)
	}
	if rec.PayRate == nil || *rec.PayRate != 40 {
		t.Errorf("PayRate = %v", rec.PayRate)
	}
	if rec.Task == nil || *rec.Task != "T1" {
		t.Errorf("Task = %v", rec.Task)
	}
	if rec.Start != (timeparse.Clock{Hour: 9}) || rec.End != (timeparse.Clock{Hour: 9, Minute: 30}) {
		t.Errorf("Start/End = %v/%v", rec.Start, rec.End)
	}
	if rec.Duration != 30*time.Minute {
		t.Errorf("Duration = %v", rec.Duration)
	}
}

func TestNormalizeRow_CarryForwardBlanks(t *testing.T) {
	rec, err := NormalizeRow(row(3, "", " ", "", "", "9:30 AM", "10:00 AM", "00:30:00"))
	if err != nil {
		t.Fatalf("NormalizeRow error = %v", err)
	}
	if rec.Date != nil || rec.Project != nil || rec.PayRate != nil || rec.Task != nil {
		t.Errorf("blank cells should be nil, got %+v", rec)
	}
}

func TestNormalizeRow_DollarRate(t *testing.T) {
	rec, err := NormalizeRow(row(2, "8/10/2024", "P", "$42.50", "T1", "9:00 AM", "9:30 AM", "00:30:00"))
	if err != nil {
		t.Fatalf("NormalizeRow error = %v", err)
	}
	if *rec.PayRate != 42.5 {
		t.Errorf("PayRate = %v, want 42.5", *rec.PayRate)
	}
}

func TestNormalizeRow_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		code errors.ErrorCode
	}{
		{"missing start", row(2, "8/10/2024", "P", "40", "T1", "", "9:30 AM", "00:30:00"), errors.ErrParse},
		{"missing end column", row(2, "8/10/2024", "P", "40", "T1", "9:00 AM"), errors.ErrParse},
		{"missing duration", row(2, "8/10/2024", "P", "40", "T1", "9:00 AM", "9:30 AM", ""), errors.ErrParse},
		{"bad duration", row(2, "8/10/2024", "P", "40", "T1", "9:00 AM", "9:30 AM", "dog"), errors.ErrFormat},
		{"bad start", row(2, "8/10/2024", "P", "40", "T1", "9am", "9:30 AM", "00:30:00"), errors.ErrFormat},
		{"bad date", row(2, "2024/08/10", "P", "40", "T1", "9:00 AM", "9:30 AM", "00:30:00"), errors.ErrFormat},
		{"bad rate", row(2, "8/10/2024", "P", "forty", "T1", "9:00 AM", "9:30 AM", "00:30:00"), errors.ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeRow(tt.row)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestNormalizeRows_AnnotatesRow(t *testing.T) {
	rows := []Row{
		row(2, "8/10/2024", "P", "40", "T1", "9:00 AM", "9:30 AM", "00:30:00"),
		row(3, "", "", "", "", "9:30 AM", "10:00 AM", "dog"),
	}
	_, err := NormalizeRows(rows, "sheet.csv")
	lErr, ok := errors.As(err)
	if !ok {
		t.Fatalf("error = %v, want LoadError", err)
	}
	if lErr.Code != errors.ErrFormat {
		t.Errorf("Code = %s, want FORMAT_ERROR", lErr.Code)
	}
	if lErr.Details["row"] != 3 || lErr.Details["file"] != "sheet.csv" {
		t.Errorf("Details = %v", lErr.Details)
	}
	if !strings.HasPrefix(lErr.Message, "sheet.csv:3: ") {
		t.Errorf("Message = %q", lErr.Message)
	}
}
