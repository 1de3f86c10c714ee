package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/crosales/comedor/core/assignment"
)

const (
	gradeCicloConstraint   = "uq_docente_grado_grado_ciclo"
	teacherCicloConstraint = "uq_docente_grado_persona_ciclo"
)

type assignmentRow struct {
	ID           uuid.UUID `db:"id_docente_titular"`
	TeacherID    uuid.UUID `db:"id_persona"`
	GradeName    string    `db:"nombre_grado"`
	CicloLectivo int       `db:"ciclo_lectivo"`
	AssignedOn   time.Time `db:"fecha_asignado"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r assignmentRow) toDomain() assignment.Assignment {
	return assignment.Assignment{
		ID:           r.ID,
		TeacherID:    r.TeacherID,
		GradeName:    r.GradeName,
		CicloLectivo: r.CicloLectivo,
		AssignedOn:   r.AssignedOn,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type historyRow struct {
	ID           uuid.UUID `db:"id"`
	AssignmentID uuid.UUID `db:"id_docente_titular"`
	TeacherID    uuid.UUID `db:"id_persona"`
	GradeName    string    `db:"nombre_grado"`
	CicloLectivo int       `db:"ciclo_lectivo"`
	AssignedOn   time.Time `db:"fecha_asignado"`
	ReplacedAt   time.Time `db:"replaced_at"`
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

// trapConflictErr maps a psql unique-violation to the domain sentinel for the
// constraint that fired. This is what makes the invariant check-and-write
// atomic: two concurrent creates for the same grade/ciclo race on the
// constraint, not on an application-level read.
func trapConflictErr(err error, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
		switch pqErr.Constraint {
		case gradeCicloConstraint:
			return assignment.ErrGradeTaken
		case teacherCicloConstraint:
			return assignment.ErrTeacherAssigned
		}
	}
	return errors.Wrap(err, msg)
}

// trapNoRowsErr maps psql "no rows" err to assignment.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return assignment.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo assignmentRepository) CreateAssignment(asg assignment.Assignment) (assignment.Assignment, error) {
	var row assignmentRow
	err := repo.db.Get(&row, `
		INSERT INTO docente_grados (id_persona, nombre_grado, ciclo_lectivo, fecha_asignado, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING *`,
		asg.TeacherID, asg.GradeName, asg.CicloLectivo, asg.AssignedOn, asg.CreatedAt,
	)
	if err != nil {
		return assignment.Assignment{}, trapConflictErr(err, "creating assignment")
	}
	return row.toDomain(), nil
}

func (repo assignmentRepository) QueryAllAssignments() ([]assignment.Assignment, error) {
	var rows []assignmentRow
	err := repo.db.Select(&rows, `
		SELECT * FROM docente_grados
		ORDER BY ciclo_lectivo DESC, nombre_grado`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	return rowsToDomain(rows), nil
}

func (repo assignmentRepository) GetAssignmentByID(id uuid.UUID) (assignment.Assignment, error) {
	var row assignmentRow
	err := repo.db.Get(&row, `SELECT * FROM docente_grados WHERE id_docente_titular = $1`, id)
	if err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, "getting assignment")
	}
	return row.toDomain(), nil
}

func (repo assignmentRepository) FilterAssignments(filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	query := `SELECT * FROM docente_grados WHERE true`
	args := make([]interface{}, 0, 2)
	if filter.CicloLectivo != 0 {
		args = append(args, filter.CicloLectivo)
		query += ` AND ciclo_lectivo = $1`
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		if len(args) == 1 {
			query += ` AND nombre_grado ILIKE $1`
		} else {
			query += ` AND nombre_grado ILIKE $2`
		}
	}
	query += ` ORDER BY ciclo_lectivo DESC, nombre_grado`

	var rows []assignmentRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering assignments")
	}
	return rowsToDomain(rows), nil
}

func (repo assignmentRepository) UpdateAssignment(asg assignment.Assignment, prev assignment.HistoryEntry) (assignment.Assignment, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO docente_grado_historial (id_docente_titular, id_persona, nombre_grado, ciclo_lectivo, fecha_asignado, replaced_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		prev.AssignmentID, prev.TeacherID, prev.GradeName, prev.CicloLectivo, prev.AssignedOn, prev.ReplacedAt,
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "recording assignment history")
	}

	var row assignmentRow
	err = tx.Get(&row, `
		UPDATE docente_grados
		SET id_persona = $2, nombre_grado = $3, ciclo_lectivo = $4, fecha_asignado = $5, updated_at = $6
		WHERE id_docente_titular = $1
		RETURNING *`,
		asg.ID, asg.TeacherID, asg.GradeName, asg.CicloLectivo, asg.AssignedOn, asg.UpdatedAt,
	)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, trapConflictErr(err, "updating assignment")
	}

	if err = tx.Commit(); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "committing tx")
	}
	return row.toDomain(), nil
}

func (repo assignmentRepository) DeleteAssignmentByID(id uuid.UUID) (bool, error) {
	res, err := repo.db.Exec(`DELETE FROM docente_grados WHERE id_docente_titular = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "deleting assignment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "deleting assignment")
	}
	return n > 0, nil
}

func (repo assignmentRepository) AssignedTeacherIDs(cicloLectivo int) ([]uuid.UUID, error) {
	query := `SELECT id_persona FROM docente_grados`
	args := make([]interface{}, 0, 1)
	if cicloLectivo != 0 {
		query += ` WHERE ciclo_lectivo = $1`
		args = append(args, cicloLectivo)
	}
	var ids []uuid.UUID
	if err := repo.db.Select(&ids, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying assigned teachers")
	}
	return ids, nil
}

func (repo assignmentRepository) AssignedGradeNames(cicloLectivo int) ([]string, error) {
	query := `SELECT nombre_grado FROM docente_grados`
	args := make([]interface{}, 0, 1)
	if cicloLectivo != 0 {
		query += ` WHERE ciclo_lectivo = $1`
		args = append(args, cicloLectivo)
	}
	var names []string
	if err := repo.db.Select(&names, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying assigned grades")
	}
	return names, nil
}

func (repo assignmentRepository) QueryHistory(assignmentID uuid.UUID) ([]assignment.HistoryEntry, error) {
	var rows []historyRow
	err := repo.db.Select(&rows, `
		SELECT * FROM docente_grado_historial
		WHERE id_docente_titular = $1
		ORDER BY replaced_at DESC`,
		assignmentID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignment history")
	}
	entries := make([]assignment.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, assignment.HistoryEntry{
			ID:           r.ID,
			AssignmentID: r.AssignmentID,
			TeacherID:    r.TeacherID,
			GradeName:    r.GradeName,
			CicloLectivo: r.CicloLectivo,
			AssignedOn:   r.AssignedOn,
			ReplacedAt:   r.ReplacedAt,
		})
	}
	return entries, nil
}

func rowsToDomain(rows []assignmentRow) []assignment.Assignment {
	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		asgs = append(asgs, r.toDomain())
	}
	return asgs
}
