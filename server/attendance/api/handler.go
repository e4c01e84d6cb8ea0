package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"attendance_server/server/attendance/service"
	"attendance_server/server/common/apperr"
	"attendance_server/server/common/log"
	"attendance_server/server/common/transport/httpresp"
)

const (
	studentFilesField = "studentImages"
	lectureFilesField = "lectureFiles"
	genericFilesField = "files"

	// formOverhead is the room left for text fields and part headers on top
	// of the files themselves.
	formOverhead = 1 << 20
)

type Handler struct {
	teachers TeacherService
	subjects SubjectService
	students StudentService
	lectures LectureService

	// ExposeErrors attaches the error chain to 5xx responses.
	ExposeErrors bool
	// Uploads bounds multipart bodies and is checked against every file
	// header before any file is read.
	Uploads service.UploadPolicy
}

func NewHandler(teachers TeacherService, subjects SubjectService, students StudentService, lectures LectureService) *Handler {
	return &Handler{
		teachers: teachers,
		subjects: subjects,
		students: students,
		lectures: lectures,
		Uploads:  service.DefaultUploadPolicy(false),
	}
}

// Guards wrap the routes. Nil entries fall back to a no-op.
type Guards struct {
	// Auth runs on every entity route.
	Auth gin.HandlerFunc
	// Admin additionally protects the bulk deletes.
	Admin gin.HandlerFunc
}

func (g Guards) orPass() Guards {
	pass := func(c *gin.Context) { c.Next() }
	if g.Auth == nil {
		g.Auth = pass
	}
	if g.Admin == nil {
		g.Admin = pass
	}
	return g
}

func (h *Handler) RegisterRoutes(r *gin.Engine, guards Guards) {
	guards = guards.orPass()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpresp.NewSuccessResponse(nil, "Server is running"))
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httpresp.NewErrorResponse(httpresp.ErrRouteNotFound))
	})

	teacher := r.Group("/teacher", guards.Auth)
	{
		teacher.POST("", h.createTeacher)
		teacher.GET("", h.listTeachers)
		teacher.GET("/:id", h.getTeacher)
		teacher.PUT("/:id", h.updateTeacher)
		teacher.DELETE("/:id", h.deleteTeacher)
		teacher.DELETE("", guards.Admin, h.deleteAllTeachers)
	}

	subject := r.Group("/subject", guards.Auth)
	{
		subject.POST("", h.createSubject)
		subject.GET("", h.listSubjects)
		subject.GET("/:id", h.getSubject)
		subject.PUT("/:id", h.updateSubject)
		subject.DELETE("/:id", h.deleteSubject)
		subject.DELETE("", guards.Admin, h.deleteAllSubjects)
	}

	student := r.Group("/student", guards.Auth)
	{
		student.POST("", h.limitBody, h.createStudent)
		student.GET("", h.listStudents)
		student.GET("/:id", h.getStudent)
		student.PUT("/:id", h.updateStudent)
		student.DELETE("/:id", h.deleteStudent)
	}

	lecture := r.Group("/lecture", guards.Auth)
	{
		lecture.POST("", h.limitBody, h.createLecture)
		lecture.GET("", h.listLectures)
		lecture.GET("/:id", h.getLecture)
		lecture.PUT("/:id", h.updateLecture)
		lecture.DELETE("/:id", h.deleteLecture)
		lecture.POST("/:id/generate", h.generateAttendance)
	}
}

func (h *Handler) ok(c *gin.Context, status int, data any, message string) {
	c.JSON(status, httpresp.NewSuccessResponse(data, message))
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := httpresp.Status(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, httpresp.FromError(err, h.ExposeErrors))
}

// idParam returns the :id path value, answering 400 itself when it is not a
// UUID.
func (h *Handler) idParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(httpresp.ErrInvalidID))
		return "", false
	}
	return id, true
}

func bindError(err error) error {
	if errors.Is(err, io.EOF) {
		return apperr.Validation("Request body is required")
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Validation(fmt.Sprintf("Request body is too large. Maximum is %dMB.", tooLarge.Limit/(1024*1024)))
	}
	return apperr.Validation(fmt.Sprintf("Invalid request body: %v", err))
}

// limitBody caps the request body at what the upload policy can accept.
func (h *Handler) limitBody(c *gin.Context) {
	p := h.Uploads
	if p.MaxFileSize > 0 && p.MaxFiles > 0 {
		limit := p.MaxFileSize*int64(p.MaxFiles) + formOverhead
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	c.Next()
}

// formFiles reads the files posted under any of fields. A request that is
// not multipart has no files. File headers are checked against the upload
// policy before any content is read.
func (h *Handler) formFiles(c *gin.Context, fields ...string) ([]service.FileUpload, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, bindError(err)
	}

	var headers []*multipart.FileHeader
	for _, field := range fields {
		headers = append(headers, form.File[field]...)
	}
	out := make([]service.FileUpload, len(headers))
	for i, fh := range headers {
		out[i] = service.FileUpload{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
		}
	}
	policy := h.Uploads
	policy.Required = false
	if err := policy.Validate(out); err != nil {
		return nil, err
	}

	for i, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		out[i].Data = data
	}
	return out, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
