package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/apperr"
	"attendance_server/server/common/infra/db"
)

const studentColumns = `id, name, roll_number, division, images, embeddings, created_at, updated_at`

type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row rowScanner) (domain.Student, error) {
	var s domain.Student
	err := row.Scan(&s.ID, &s.Name, &s.RollNumber, &s.Division, &s.Images, &s.Embeddings, &s.CreatedAt, &s.UpdatedAt)
	if s.Images == nil {
		s.Images = []domain.StoredFile{}
	}
	return s, err
}

func (r *StudentRepository) Create(ctx context.Context, s domain.Student) (domain.Student, error) {
	if s.Images == nil {
		s.Images = []domain.StoredFile{}
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO students(id, name, roll_number, division, images)
		VALUES($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, s.ID, s.Name, s.RollNumber, s.Division, s.Images).Scan(&s.CreatedAt, &s.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return domain.Student{}, apperr.Conflict("Roll number already exists", err)
	}
	return s, err
}

func (r *StudentRepository) Get(ctx context.Context, id string) (domain.Student, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id=$1`, id))
	if db.IsNoRows(err) {
		return domain.Student{}, apperr.NotFound("Student not found")
	}
	return s, err
}

func (r *StudentRepository) List(ctx context.Context) ([]domain.Student, error) {
	return r.list(ctx, `SELECT `+studentColumns+` FROM students ORDER BY created_at`)
}

// ListEnrolled returns the students of a division that have embeddings.
func (r *StudentRepository) ListEnrolled(ctx context.Context, division string) ([]domain.Student, error) {
	return r.list(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE division=$1 AND embeddings IS NOT NULL AND jsonb_array_length(embeddings) > 0
		ORDER BY roll_number
	`, division)
}

func (r *StudentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Student, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *StudentRepository) Update(ctx context.Context, id string, patch domain.StudentPatch) (domain.Student, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx, `
		UPDATE students SET
			name = COALESCE($2, name),
			roll_number = COALESCE($3, roll_number),
			division = COALESCE($4, division),
			updated_at = NOW()
		WHERE id=$1
		RETURNING `+studentColumns, id, patch.Name, patch.RollNumber, patch.Division))
	switch {
	case db.IsNoRows(err):
		return domain.Student{}, apperr.NotFound("Student not found")
	case db.IsUniqueViolation(err):
		return domain.Student{}, apperr.Conflict("Roll number already exists", err)
	}
	return s, err
}

func (r *StudentRepository) SetEmbeddings(ctx context.Context, id string, embeddings []domain.Embedding) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE students SET embeddings=$2, updated_at=NOW() WHERE id=$1`, id, embeddings)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("Student not found")
	}
	return nil
}

func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("Student not found")
	}
	return nil
}
