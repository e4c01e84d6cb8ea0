package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance_server/server/attendance/domain"
)

func (h *Handler) createTeacher(c *gin.Context) {
	var in domain.TeacherInput
	if err := c.ShouldBind(&in); err != nil {
		h.fail(c, bindError(err))
		return
	}
	teacher, err := h.teachers.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, teacher, "Teacher created")
}

func (h *Handler) listTeachers(c *gin.Context) {
	teachers, err := h.teachers.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, teachers, "")
}

func (h *Handler) getTeacher(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	teacher, err := h.teachers.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, teacher, "")
}

func (h *Handler) updateTeacher(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	var in domain.TeacherInput
	if err := c.ShouldBind(&in); err != nil {
		h.fail(c, bindError(err))
		return
	}
	teacher, err := h.teachers.Update(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, teacher, "Teacher updated")
}

func (h *Handler) deleteTeacher(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := h.teachers.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, nil, "Teacher deleted")
}

func (h *Handler) deleteAllTeachers(c *gin.Context) {
	n, err := h.teachers.DeleteAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"deleted": n}, fmt.Sprintf("All teachers deleted (%d)", n))
}
