package assignment

import (
	"time"

	"github.com/google/uuid"

	"github.com/crosales/comedor/core"
)

// Teacher is a read-only projection of a Person (rol = docente) from the
// external person directory.
type Teacher struct {
	ID        uuid.UUID `json:"id_persona"`
	FirstName string    `json:"nombre"`
	LastName  string    `json:"apellido"`
	DNI       string    `json:"dni"`
	Email     string    `json:"email,omitempty"`
}

func (t Teacher) FullName() string {
	return core.CleanString(t.FirstName + " " + t.LastName)
}

// Grade is a read-only projection of an entry in the external grade catalog.
type Grade struct {
	Name  string `json:"nombre_grado"` // e.g. "1° A"
	Shift string `json:"turno"`        // e.g. "Mañana"
}

// Assignment binds a titular teacher to a grade for an academic cycle.
//
// Invariants (enforced by the repository's uniqueness constraints):
//   - a grade has at most one titular per ciclo lectivo
//   - a teacher holds at most one assignment per ciclo lectivo
type Assignment struct {
	ID           uuid.UUID `json:"id_docente_titular"`
	TeacherID    uuid.UUID `json:"id_persona"`
	GradeName    string    `json:"nombre_grado"`
	CicloLectivo int       `json:"ciclo_lectivo"`
	AssignedOn   time.Time `json:"fecha_asignado"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// HistoryEntry snapshots an assignment's state right before a reassignment
// replaced its teacher and/or grade.
type HistoryEntry struct {
	ID           uuid.UUID `json:"id"`
	AssignmentID uuid.UUID `json:"id_docente_titular"`
	TeacherID    uuid.UUID `json:"id_persona"`
	GradeName    string    `json:"nombre_grado"`
	CicloLectivo int       `json:"ciclo_lectivo"`
	AssignedOn   time.Time `json:"fecha_asignado"`
	ReplacedAt   time.Time `json:"replaced_at"` // UTC
}

// NewAssignment contains information needed to assign a titular to a grade.
type NewAssignment struct {
	TeacherID    uuid.UUID `json:"id_persona" validate:"required"`
	GradeName    string    `json:"nombre_grado" validate:"required"`
	CicloLectivo int       `json:"ciclo_lectivo" validate:"required,ciclo"`
	AssignedOn   string    `json:"fecha_asignado" validate:"required,datetime=2006-01-02"`
}

func (na *NewAssignment) Validate() error {
	na.GradeName = core.CleanString(na.GradeName)
	na.AssignedOn = core.CleanString(na.AssignedOn)
	return core.Validate.Struct(na)
}

// Reassignment defines what may be changed on an existing assignment while it
// keeps its identifier. Empty/nil fields are left untouched.
type Reassignment struct {
	NewTeacherID *uuid.UUID `json:"new_id_persona"`
	NewGradeName string     `json:"new_nombre_grado"`
	CicloLectivo int        `json:"ciclo_lectivo" validate:"omitempty,ciclo"`
	AssignedOn   string     `json:"fecha_asignado" validate:"omitempty,datetime=2006-01-02"`
}

func (r *Reassignment) Validate() error {
	r.NewGradeName = core.CleanString(r.NewGradeName)
	r.AssignedOn = core.CleanString(r.AssignedOn)
	return core.Validate.Struct(r)
}

type QueryFilter struct {
	CicloLectivo int    `query:"ciclo_lectivo"`
	Search       string `query:"search"` // case-insensitive match on grade name
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.CicloLectivo == 0 && qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
