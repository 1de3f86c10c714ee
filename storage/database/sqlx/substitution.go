package sqlxrepos

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/crosales/comedor/core/substitution"
)

type substitutionRow struct {
	ID           uuid.UUID    `db:"id_reemplazo"`
	TeacherID    uuid.UUID    `db:"id_persona"`
	AssignmentID uuid.UUID    `db:"id_docente_titular"`
	GradeName    string       `db:"nombre_grado"`
	CicloLectivo int          `db:"ciclo_lectivo"`
	StartDate    time.Time    `db:"fecha_inicio"`
	EndDate      sql.NullTime `db:"fecha_fin"`
	Reason       string       `db:"motivo"`
	Status       string       `db:"estado"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r substitutionRow) toDomain() substitution.Substitution {
	return substitution.Substitution{
		ID:           r.ID,
		TeacherID:    r.TeacherID,
		AssignmentID: r.AssignmentID,
		GradeName:    r.GradeName,
		CicloLectivo: r.CicloLectivo,
		StartDate:    r.StartDate,
		EndDate:      null.NewTime(r.EndDate.Time, r.EndDate.Valid),
		Reason:       r.Reason,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func endDateArg(sub substitution.Substitution) sql.NullTime {
	return sql.NullTime{Time: sub.EndDate.Time, Valid: sub.EndDate.Valid}
}

type substitutionRepository struct {
	db *sqlx.DB
}

var _ substitution.Repository = (*substitutionRepository)(nil) // interface compliance check

func NewSubstitutionRepository(db *sqlx.DB) *substitutionRepository {
	return &substitutionRepository{db: db}
}

// trapSubNoRowsErr maps psql "no rows" err to substitution.ErrNotFound
func trapSubNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return substitution.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo substitutionRepository) CreateSubstitution(sub substitution.Substitution) (substitution.Substitution, error) {
	var row substitutionRow
	err := repo.db.Get(&row, `
		INSERT INTO reemplazo_docentes
			(id_persona, id_docente_titular, nombre_grado, ciclo_lectivo, fecha_inicio, fecha_fin, motivo, estado, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING *`,
		sub.TeacherID, sub.AssignmentID, sub.GradeName, sub.CicloLectivo,
		sub.StartDate, endDateArg(sub), sub.Reason, sub.Status, sub.CreatedAt,
	)
	if err != nil {
		return substitution.Substitution{}, errors.Wrap(err, "creating substitution")
	}
	return row.toDomain(), nil
}

func (repo substitutionRepository) QueryAllSubstitutions() ([]substitution.Substitution, error) {
	var rows []substitutionRow
	err := repo.db.Select(&rows, `
		SELECT * FROM reemplazo_docentes
		ORDER BY fecha_inicio DESC, created_at DESC`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying substitutions")
	}
	return subRowsToDomain(rows), nil
}

func (repo substitutionRepository) GetSubstitutionByID(id uuid.UUID) (substitution.Substitution, error) {
	var row substitutionRow
	err := repo.db.Get(&row, `SELECT * FROM reemplazo_docentes WHERE id_reemplazo = $1`, id)
	if err != nil {
		return substitution.Substitution{}, trapSubNoRowsErr(err, "getting substitution")
	}
	return row.toDomain(), nil
}

func (repo substitutionRepository) FilterSubstitutions(filter substitution.QueryFilter) ([]substitution.Substitution, error) {
	query := `SELECT * FROM reemplazo_docentes WHERE true`
	args := make([]interface{}, 0, 3)
	if filter.CicloLectivo != 0 {
		args = append(args, filter.CicloLectivo)
		query += ` AND ciclo_lectivo = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND estado = $` + strconv.Itoa(len(args))
	}
	if filter.GradeName != "" {
		args = append(args, filter.GradeName)
		query += ` AND nombre_grado = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY fecha_inicio DESC, created_at DESC`

	var rows []substitutionRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering substitutions")
	}
	return subRowsToDomain(rows), nil
}

func (repo substitutionRepository) UpdateSubstitution(sub substitution.Substitution) (substitution.Substitution, error) {
	var row substitutionRow
	err := repo.db.Get(&row, `
		UPDATE reemplazo_docentes
		SET id_persona = $2, fecha_inicio = $3, fecha_fin = $4, motivo = $5, estado = $6, updated_at = $7
		WHERE id_reemplazo = $1
		RETURNING *`,
		sub.ID, sub.TeacherID, sub.StartDate, endDateArg(sub), sub.Reason, sub.Status, sub.UpdatedAt,
	)
	if err != nil {
		return substitution.Substitution{}, trapSubNoRowsErr(err, "updating substitution")
	}
	return row.toDomain(), nil
}

func (repo substitutionRepository) DeleteSubstitutionByID(id uuid.UUID) (bool, error) {
	res, err := repo.db.Exec(`DELETE FROM reemplazo_docentes WHERE id_reemplazo = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "deleting substitution")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "deleting substitution")
	}
	return n > 0, nil
}

func (repo substitutionRepository) ActiveSubstituteIDs() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := repo.db.Select(&ids, `
		SELECT DISTINCT id_persona FROM reemplazo_docentes WHERE estado = $1`,
		substitution.StatusActive,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying active suplentes")
	}
	return ids, nil
}

func subRowsToDomain(rows []substitutionRow) []substitution.Substitution {
	subs := make([]substitution.Substitution, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.toDomain())
	}
	return subs
}
