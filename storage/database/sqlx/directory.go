package sqlxrepos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/crosales/comedor/core/assignment"
)

// The person directory and grade catalog are owned by other modules of the
// broader application; these read-only adapters resolve their data from the
// shared database. Invariants never depend on them.

type teacherRow struct {
	ID        uuid.UUID `db:"id_persona"`
	FirstName string    `db:"nombre"`
	LastName  string    `db:"apellido"`
	DNI       string    `db:"dni"`
	Email     string    `db:"email"`
}

func (r teacherRow) toDomain() assignment.Teacher {
	return assignment.Teacher{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		DNI:       r.DNI,
		Email:     r.Email,
	}
}

type teacherDirectory struct {
	db *sqlx.DB
}

var _ assignment.TeacherDirectory = (*teacherDirectory)(nil) // interface compliance check

func NewTeacherDirectory(db *sqlx.DB) *teacherDirectory {
	return &teacherDirectory{db: db}
}

func (dir teacherDirectory) QueryTeachers() ([]assignment.Teacher, error) {
	var rows []teacherRow
	err := dir.db.Select(&rows, `
		SELECT id_persona, nombre, apellido, dni, email
		FROM personas
		WHERE rol = 'docente'
		ORDER BY apellido, nombre`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]assignment.Teacher, 0, len(rows))
	for _, r := range rows {
		teachers = append(teachers, r.toDomain())
	}
	return teachers, nil
}

func (dir teacherDirectory) GetTeacher(id uuid.UUID) (assignment.Teacher, error) {
	var row teacherRow
	err := dir.db.Get(&row, `
		SELECT id_persona, nombre, apellido, dni, email
		FROM personas
		WHERE rol = 'docente' AND id_persona = $1`,
		id,
	)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return assignment.Teacher{}, assignment.ErrTeacherNotFound
		}
		return assignment.Teacher{}, errors.Wrap(err, "getting teacher")
	}
	return row.toDomain(), nil
}

type gradeRow struct {
	Name  string `db:"nombre_grado"`
	Shift string `db:"turno"`
}

type gradeCatalog struct {
	db *sqlx.DB
}

var _ assignment.GradeCatalog = (*gradeCatalog)(nil) // interface compliance check

func NewGradeCatalog(db *sqlx.DB) *gradeCatalog {
	return &gradeCatalog{db: db}
}

func (cat gradeCatalog) QueryGrades() ([]assignment.Grade, error) {
	var rows []gradeRow
	err := cat.db.Select(&rows, `SELECT nombre_grado, turno FROM grados ORDER BY nombre_grado`)
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	grades := make([]assignment.Grade, 0, len(rows))
	for _, r := range rows {
		grades = append(grades, assignment.Grade{Name: r.Name, Shift: r.Shift})
	}
	return grades, nil
}

func (cat gradeCatalog) GetGrade(name string) (assignment.Grade, error) {
	var row gradeRow
	err := cat.db.Get(&row, `SELECT nombre_grado, turno FROM grados WHERE nombre_grado = $1`, name)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return assignment.Grade{}, assignment.ErrGradeNotFound
		}
		return assignment.Grade{}, errors.Wrap(err, "getting grade")
	}
	return assignment.Grade{Name: row.Name, Shift: row.Shift}, nil
}
