package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/apperr"
	"attendance_server/server/common/infra/db"
)

const teacherColumns = `id, name, created_at, updated_at`

type TeacherRepository struct {
	pool *pgxpool.Pool
}

func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

func scanTeacher(row rowScanner) (domain.Teacher, error) {
	var t domain.Teacher
	err := row.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TeacherRepository) Create(ctx context.Context, t domain.Teacher) (domain.Teacher, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO teachers(id, name)
		VALUES($1, $2)
		RETURNING created_at, updated_at
	`, t.ID, t.Name).Scan(&t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TeacherRepository) Get(ctx context.Context, id string) (domain.Teacher, error) {
	t, err := scanTeacher(r.pool.QueryRow(ctx, `SELECT `+teacherColumns+` FROM teachers WHERE id=$1`, id))
	if db.IsNoRows(err) {
		return domain.Teacher{}, apperr.NotFound("Teacher not found")
	}
	return t, err
}

func (r *TeacherRepository) List(ctx context.Context) ([]domain.Teacher, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+teacherColumns+` FROM teachers ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Teacher, 0)
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *TeacherRepository) Update(ctx context.Context, id string, in domain.TeacherInput) (domain.Teacher, error) {
	t, err := scanTeacher(r.pool.QueryRow(ctx, `
		UPDATE teachers SET name=$2, updated_at=NOW()
		WHERE id=$1
		RETURNING `+teacherColumns, id, in.Name))
	if db.IsNoRows(err) {
		return domain.Teacher{}, apperr.NotFound("Teacher not found")
	}
	return t, err
}

func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM teachers WHERE id=$1`, id)
	if db.IsForeignKeyViolation(err) {
		return apperr.Conflict("Teacher still has subjects", err)
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("Teacher not found")
	}
	return nil
}

func (r *TeacherRepository) DeleteAll(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM teachers`)
	if db.IsForeignKeyViolation(err) {
		return 0, apperr.Conflict("Teacher still has subjects", err)
	}
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
