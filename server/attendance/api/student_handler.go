package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance_server/server/attendance/domain"
)

func (h *Handler) createStudent(c *gin.Context) {
	var in domain.StudentInput
	if err := c.ShouldBind(&in); err != nil {
		h.fail(c, bindError(err))
		return
	}
	files, err := h.formFiles(c, studentFilesField, genericFilesField)
	if err != nil {
		h.fail(c, err)
		return
	}
	student, err := h.students.Create(c.Request.Context(), in, files)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, student, "Student created successfully")
}

func (h *Handler) listStudents(c *gin.Context) {
	students, err := h.students.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, students, "Students retrieved successfully")
}

func (h *Handler) getStudent(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, student, "Student retrieved successfully")
}

func (h *Handler) updateStudent(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	var patch domain.StudentPatch
	if err := c.ShouldBind(&patch); err != nil {
		h.fail(c, bindError(err))
		return
	}
	student, err := h.students.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, student, "Student updated successfully")
}

func (h *Handler) deleteStudent(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := h.students.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, nil, "Student deleted successfully")
}
