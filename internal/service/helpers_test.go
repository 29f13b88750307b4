package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/wizard"
)

func TestParseDateTime(t *testing.T) {
	got, err := parseDateTime("2030-01-15", "", "23:59")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 15, 23, 59, 0, 0, time.Local), got)

	_, err = parseDateTime("15-01-2030", "10:00", "")
	assert.Error(t, err)
}

func TestClampPageAndPagination(t *testing.T) {
	page, perPage := clampPage(0, 500)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, perPage)

	page, perPage = clampPage(3, 0)
	assert.Equal(t, 3, page)
	assert.Equal(t, 10, perPage)

	p := buildPagination(2, 10, 21)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, buildPagination(1, 10, 0).TotalPages)
}

func TestSplitListAndExtensions(t *testing.T) {
	assert.Equal(t, []string{"2", "3"}, splitList(" 2, ,3 "))
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"pdf", "docx"}, normalizeExtensions([]string{".PDF", "pdf", " docx", ""}))
}

func TestAssignmentFromDraft(t *testing.T) {
	base := model.AssignmentDraft{
		Title:            "Sorting",
		Description:      "Implement merge sort",
		Year:             "2",
		DueDate:          "2030-01-15",
		MaxMarks:         100,
		PassingMarks:     40,
		AssignmentType:   model.AssignmentTypeFileUpload,
		AllowedFileTypes: []string{"pdf"},
	}

	tests := []struct {
		name  string
		edit  func(d *model.AssignmentDraft)
		field string
	}{
		{"start after due", func(d *model.AssignmentDraft) { d.StartDate = "2030-02-01" }, "start_date"},
		{"no max marks", func(d *model.AssignmentDraft) { d.MaxMarks = 0 }, "max_marks"},
		{"passing above max", func(d *model.AssignmentDraft) { d.PassingMarks = 101 }, "passing_marks"},
		{"no file types", func(d *model.AssignmentDraft) { d.AllowedFileTypes = nil }, "allowed_file_types"},
		{"coding without questions", func(d *model.AssignmentDraft) { d.AssignmentType = model.AssignmentTypeCoding }, "questions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			tt.edit(&d)
			_, err := assignmentFromDraft(3, d)
			var ve *wizard.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}

	a, err := assignmentFromDraft(3, base)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentStatusDraft, a.Status)
	assert.Equal(t, "department", a.Visibility)
	assert.Nil(t, a.StartAt)

	d := base
	d.Department = " CSE "
	a, err = assignmentFromDraft(3, d)
	require.NoError(t, err)
	assert.Equal(t, "cse", a.Department)
}

func TestInCohort(t *testing.T) {
	a := &model.Assignment{Department: "CSE", TargetYears: []string{"2", "3"}}

	assert.True(t, inCohort(a, &model.Profile{Department: "cse", Year: "2"}))
	assert.False(t, inCohort(a, &model.Profile{Department: "mech", Year: "2"}))
	assert.False(t, inCohort(a, &model.Profile{Department: "cse", Year: "1"}))

	a.Department = ""
	assert.True(t, inCohort(a, &model.Profile{Department: "mech", Year: "3"}))
}

func TestOpenForSubmission(t *testing.T) {
	tests := []struct {
		name       string
		status     model.AssignmentStatus
		visibility string
		want       error
	}{
		{"published", model.AssignmentStatusPublished, "department", nil},
		{"draft", model.AssignmentStatusDraft, "department", ErrAssignmentNotPublished},
		{"closed", model.AssignmentStatusClosed, "department", ErrAssignmentNotPublished},
		{"hidden", model.AssignmentStatusPublished, "hidden", ErrAssignmentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := openForSubmission(&model.Assignment{Status: tt.status, Visibility: tt.visibility})
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckSubmissionPayload(t *testing.T) {
	a := &model.Assignment{AssignmentType: model.AssignmentTypeFileUpload, AllowedFileTypes: []string{"pdf", "docx"}}

	err := checkSubmissionPayload(a, model.SubmitAssignmentRequest{})
	var ve *wizard.ValidationError
	assert.ErrorAs(t, err, &ve)

	err = checkSubmissionPayload(a, model.SubmitAssignmentRequest{
		Files: []model.SubmissionFileInput{{FileName: "report.PDF"}, {FileName: "code.zip"}},
	})
	assert.ErrorIs(t, err, ErrFileTypeNotAllowed)

	err = checkSubmissionPayload(a, model.SubmitAssignmentRequest{
		Files: []model.SubmissionFileInput{{FileName: "report.pdf"}},
	})
	assert.NoError(t, err)

	a.AssignmentType = model.AssignmentTypeTextBased
	assert.NoError(t, checkSubmissionPayload(a, model.SubmitAssignmentRequest{Content: "essay"}))
}
