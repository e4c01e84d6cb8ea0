package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/apperr"
	"attendance_server/server/common/infra/db"
)

const subjectWithTeacher = `
	SELECT s.id, s.name, s.teacher_id, s.created_at, s.updated_at,
	       t.id, t.name, t.created_at, t.updated_at
	FROM subjects s
	JOIN teachers t ON t.id = s.teacher_id`

type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

func scanSubject(row rowScanner) (domain.Subject, error) {
	var s domain.Subject
	var t domain.Teacher
	err := row.Scan(&s.ID, &s.Name, &s.TeacherID, &s.CreatedAt, &s.UpdatedAt, &t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return s, err
	}
	s.Teacher = &t
	return s, nil
}

func (r *SubjectRepository) Create(ctx context.Context, s domain.Subject) (domain.Subject, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO subjects(id, name, teacher_id)
		VALUES($1, $2, $3)
		RETURNING created_at, updated_at
	`, s.ID, s.Name, s.TeacherID).Scan(&s.CreatedAt, &s.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return domain.Subject{}, apperr.NotFound("Teacher not found")
	}
	return s, err
}

func (r *SubjectRepository) Get(ctx context.Context, id string) (domain.Subject, error) {
	s, err := scanSubject(r.pool.QueryRow(ctx, subjectWithTeacher+` WHERE s.id=$1`, id))
	if db.IsNoRows(err) {
		return domain.Subject{}, apperr.NotFound("Subject not found")
	}
	return s, err
}

func (r *SubjectRepository) List(ctx context.Context) ([]domain.Subject, error) {
	rows, err := r.pool.Query(ctx, subjectWithTeacher+` ORDER BY s.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Subject, 0)
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *SubjectRepository) Update(ctx context.Context, id string, in domain.SubjectInput) (domain.Subject, error) {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE subjects SET name=$2, teacher_id=$3, updated_at=NOW()
		WHERE id=$1
	`, id, in.Name, in.TeacherID)
	if db.IsForeignKeyViolation(err) {
		return domain.Subject{}, apperr.NotFound("Teacher not found")
	}
	if err != nil {
		return domain.Subject{}, err
	}
	if cmd.RowsAffected() == 0 {
		return domain.Subject{}, apperr.NotFound("Subject not found")
	}
	return r.Get(ctx, id)
}

func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM subjects WHERE id=$1`, id)
	if db.IsForeignKeyViolation(err) {
		return apperr.Conflict("Subject still has lectures", err)
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("Subject not found")
	}
	return nil
}

func (r *SubjectRepository) DeleteAll(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM subjects`)
	if db.IsForeignKeyViolation(err) {
		return 0, apperr.Conflict("Subject still has lectures", err)
	}
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
