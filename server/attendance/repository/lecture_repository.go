package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/apperr"
	"attendance_server/server/common/infra/db"
)

const lectureWithSubject = `
	SELECT l.id, l.subject_id, l.date, l.division, l.attendance, l.images, l.present, l.created_at, l.updated_at,
	       s.id, s.name, s.teacher_id, s.created_at, s.updated_at
	FROM lectures l
	JOIN subjects s ON s.id = l.subject_id`

type LectureRepository struct {
	pool *pgxpool.Pool
}

func NewLectureRepository(pool *pgxpool.Pool) *LectureRepository {
	return &LectureRepository{pool: pool}
}

func scanLecture(row rowScanner) (domain.Lecture, error) {
	var l domain.Lecture
	var s domain.Subject
	err := row.Scan(
		&l.ID, &l.SubjectID, &l.Date, &l.Division, &l.Attendance, &l.Images, &l.Present, &l.CreatedAt, &l.UpdatedAt,
		&s.ID, &s.Name, &s.TeacherID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return l, err
	}
	if l.Attendance == nil {
		l.Attendance = []domain.AttendanceEntry{}
	}
	if l.Images == nil {
		l.Images = []domain.StoredFile{}
	}
	l.Subject = &s
	return l, nil
}

func (r *LectureRepository) Create(ctx context.Context, l domain.Lecture) (domain.Lecture, error) {
	if l.Images == nil {
		l.Images = []domain.StoredFile{}
	}
	if l.Attendance == nil {
		l.Attendance = []domain.AttendanceEntry{}
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lectures(id, subject_id, date, division, attendance, images, present)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, l.ID, l.SubjectID, l.Date, l.Division, l.Attendance, l.Images, l.Present).Scan(&l.CreatedAt, &l.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return domain.Lecture{}, apperr.NotFound("Subject not found")
	}
	return l, err
}

func (r *LectureRepository) Get(ctx context.Context, id string) (domain.Lecture, error) {
	l, err := scanLecture(r.pool.QueryRow(ctx, lectureWithSubject+` WHERE l.id=$1`, id))
	if db.IsNoRows(err) {
		return domain.Lecture{}, apperr.NotFound("Lecture not found")
	}
	return l, err
}

func (r *LectureRepository) List(ctx context.Context) ([]domain.Lecture, error) {
	rows, err := r.pool.Query(ctx, lectureWithSubject+` ORDER BY l.date DESC, l.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Lecture, 0)
	for rows.Next() {
		l, err := scanLecture(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (r *LectureRepository) Update(ctx context.Context, id string, patch domain.LecturePatch) (domain.Lecture, error) {
	set := "updated_at=NOW()"
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		set += fmt.Sprintf(", %s=$%d", column, len(args))
	}
	if patch.SubjectID != nil {
		add("subject_id", *patch.SubjectID)
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.Division != nil {
		add("division", *patch.Division)
	}
	if patch.Attendance != nil {
		add("attendance", *patch.Attendance)
	}

	cmd, err := r.pool.Exec(ctx, `UPDATE lectures SET `+set+` WHERE id=$1`, args...)
	if db.IsForeignKeyViolation(err) {
		return domain.Lecture{}, apperr.NotFound("Subject not found")
	}
	if err != nil {
		return domain.Lecture{}, err
	}
	if cmd.RowsAffected() == 0 {
		return domain.Lecture{}, apperr.NotFound("Lecture not found")
	}
	return r.Get(ctx, id)
}

func (r *LectureRepository) SetAttendance(ctx context.Context, id string, present bool, attendance []domain.AttendanceEntry) (domain.Lecture, error) {
	if attendance == nil {
		attendance = []domain.AttendanceEntry{}
	}
	cmd, err := r.pool.Exec(ctx, `
		UPDATE lectures SET present=$2, attendance=$3, updated_at=NOW()
		WHERE id=$1
	`, id, present, attendance)
	if err != nil {
		return domain.Lecture{}, err
	}
	if cmd.RowsAffected() == 0 {
		return domain.Lecture{}, apperr.NotFound("Lecture not found")
	}
	return r.Get(ctx, id)
}

func (r *LectureRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM lectures WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("Lecture not found")
	}
	return nil
}
