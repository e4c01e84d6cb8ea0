package domain

import "time"

// StoredFile describes one object held in object storage on behalf of a
// record. It is never modified after the upload that created it.
type StoredFile struct {
	FileName   string    `json:"fileName"`
	FileSize   int64     `json:"fileSize"`
	Key        string    `json:"key"`
	URL        string    `json:"url,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type Embedding struct {
	Image     string    `json:"image"`
	Embedding []float64 `json:"embedding"`
}

type AttendanceEntry struct {
	RollNumber string `json:"rollNumber" validate:"required"`
	Present    bool   `json:"present"`
}

type Teacher struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TeacherID string    `json:"teacher_id"`
	Teacher   *Teacher  `json:"teacher,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Student struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	RollNumber string       `json:"rollNumber"`
	Division   string       `json:"division"`
	Images     []StoredFile `json:"images"`
	Embeddings []Embedding  `json:"embeddings,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type Lecture struct {
	ID         string            `json:"id"`
	SubjectID  string            `json:"subject_id"`
	Subject    *Subject          `json:"subject,omitempty"`
	Date       time.Time         `json:"date"`
	Division   string            `json:"division"`
	Attendance []AttendanceEntry `json:"attendance"`
	Images     []StoredFile      `json:"images"`
	Present    bool              `json:"present"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Input types carry trimmed, validated client payloads.

type TeacherInput struct {
	Name string `json:"name" form:"name" validate:"required,min=2,max=100,alphaspace"`
}

type SubjectInput struct {
	Name      string `json:"name" form:"name" validate:"required,min=1,max=100"`
	TeacherID string `json:"teacher_id" form:"teacher_id" validate:"required,uuid"`
}

type StudentInput struct {
	Name       string `json:"name" form:"name" validate:"required,min=2,max=100,alphaspace"`
	RollNumber string `json:"rollNumber" form:"rollNumber" validate:"required,alphanum,min=1,max=20"`
	Division   string `json:"division" form:"division" validate:"required,min=1,max=10"`
}

// StudentPatch leaves nil fields untouched.
type StudentPatch struct {
	Name       *string `json:"name" form:"name" validate:"omitempty,min=2,max=100,alphaspace"`
	RollNumber *string `json:"rollNumber" form:"rollNumber" validate:"omitempty,alphanum,min=1,max=20"`
	Division   *string `json:"division" form:"division" validate:"omitempty,min=1,max=10"`
}

type LectureInput struct {
	SubjectID string    `json:"subject_id" validate:"required,uuid"`
	Date      time.Time `json:"date" validate:"required"`
	Division  string    `json:"division" validate:"required,min=1,max=10"`
}

type LecturePatch struct {
	SubjectID  *string            `json:"subject_id" validate:"omitempty,uuid"`
	Date       *time.Time         `json:"date"`
	Division   *string            `json:"division" validate:"omitempty,min=1,max=10"`
	Attendance *[]AttendanceEntry `json:"attendance" validate:"omitempty,dive"`
}
