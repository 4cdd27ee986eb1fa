package service

import (
	"fmt"

	"github.com/stemsi/quizguard-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	exportSheet      = "Resume Requests"
	exportTimeLayout = "2006-01-02 15:04:05"
)

var exportHeaders = []string{
	"Request ID", "Quiz", "Student", "Email", "Attempt ID",
	"Status", "Reason", "Rejection Reason", "Requested At", "Updated At",
}

// ExportResumeRequests renders the teacher's request list as an XLSX workbook.
func ExportResumeRequests(requests []model.ResumeRequestDetail) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet so the workbook opens on the data.
	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, 1, toCells(exportHeaders)); err != nil {
		return nil, err
	}

	for i, r := range requests {
		rejection := ""
		if r.RejectionReason != nil {
			rejection = *r.RejectionReason
		}
		row := []any{
			r.ID,
			r.QuizTitle,
			r.StudentName,
			r.StudentEmail,
			r.AttemptID,
			string(r.Status),
			r.Reason,
			rejection,
			r.CreatedAt.Format(exportTimeLayout),
			r.UpdatedAt.Format(exportTimeLayout),
		}
		if err := writeRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

func toCells(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
