package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance_server/server/attendance/domain"
)

func (h *Handler) createSubject(c *gin.Context) {
	var in domain.SubjectInput
	if err := c.ShouldBind(&in); err != nil {
		h.fail(c, bindError(err))
		return
	}
	subject, err := h.subjects.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, subject, "Subject created")
}

func (h *Handler) listSubjects(c *gin.Context) {
	subjects, err := h.subjects.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, subjects, "")
}

func (h *Handler) getSubject(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	subject, err := h.subjects.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, subject, "")
}

func (h *Handler) updateSubject(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	var in domain.SubjectInput
	if err := c.ShouldBind(&in); err != nil {
		h.fail(c, bindError(err))
		return
	}
	subject, err := h.subjects.Update(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, subject, "Subject updated")
}

func (h *Handler) deleteSubject(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := h.subjects.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, nil, "Subject deleted")
}

func (h *Handler) deleteAllSubjects(c *gin.Context) {
	n, err := h.subjects.DeleteAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"deleted": n}, fmt.Sprintf("All subjects deleted (%d)", n))
}
