package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/validate"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

type lectureRequest struct {
	SubjectID string `json:"subject_id" form:"subject_id"`
	Date      string `json:"date" form:"date"`
	Division  string `json:"division" form:"division"`
}

type lecturePatchRequest struct {
	SubjectID  *string                   `json:"subject_id"`
	Date       *string                   `json:"date"`
	Division   *string                   `json:"division"`
	Attendance *[]domain.AttendanceEntry `json:"attendance"`
}

var invalidDate = validate.FieldError{Field: "date", Message: fmt.Sprintf("%q must be a valid date", "date")}

// parseDate accepts RFC 3339 timestamps and plain calendar dates. An empty
// value is the zero time so the required rule reports it.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// input converts the request. An unparsable date is reported together with
// every other invalid field.
func (r lectureRequest) input() (domain.LectureInput, error) {
	in := domain.LectureInput{SubjectID: r.SubjectID, Division: r.Division}
	date, ok := parseDate(r.Date)
	if ok {
		in.Date = date
		return in, nil
	}
	validate.TrimStrings(&in)
	return in, validate.Struct(in).With(invalidDate).Err()
}

func (r lecturePatchRequest) patch() (domain.LecturePatch, error) {
	p := domain.LecturePatch{SubjectID: r.SubjectID, Division: r.Division, Attendance: r.Attendance}
	if r.Date == nil {
		return p, nil
	}
	date, ok := parseDate(*r.Date)
	if ok && !date.IsZero() {
		p.Date = &date
		return p, nil
	}
	validate.TrimStrings(&p)
	return p, validate.Struct(p).With(invalidDate).Err()
}

func (h *Handler) createLecture(c *gin.Context) {
	var req lectureRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(c, err)
		return
	}
	files, err := h.formFiles(c, lectureFilesField, genericFilesField)
	if err != nil {
		h.fail(c, err)
		return
	}
	lecture, err := h.lectures.Create(c.Request.Context(), in, files)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, lecture, "Lecture created")
}

func (h *Handler) listLectures(c *gin.Context) {
	lectures, err := h.lectures.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, lectures, "")
}

func (h *Handler) getLecture(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	lecture, err := h.lectures.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, lecture, "")
}

func (h *Handler) updateLecture(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	var req lecturePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.fail(c, err)
		return
	}
	lecture, err := h.lectures.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, lecture, "Lecture updated")
}

func (h *Handler) deleteLecture(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := h.lectures.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, nil, "Deleted successfully")
}

func (h *Handler) generateAttendance(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	lecture, err := h.lectures.GenerateAttendance(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, lecture, "Attendance generated")
}
