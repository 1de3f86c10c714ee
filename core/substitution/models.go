package substitution

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/crosales/comedor/core"
)

// Estados. The enumeration itself is externally configured and open; only
// these two values carry behavior in this core.
const (
	StatusActive    = "Active"
	StatusFinalized = "Finalized"
)

// Substitution records a suplente covering a titular's assignment over a
// bounded or open-ended date range.
//
// GradeName and CicloLectivo are derived: copied from the target assignment
// at creation time, never supplied by the caller. The target assignment
// reference is immutable after creation.
type Substitution struct {
	ID           uuid.UUID `json:"id_reemplazo"`
	TeacherID    uuid.UUID `json:"id_persona"` // the suplente
	AssignmentID uuid.UUID `json:"id_docente_titular"`
	GradeName    string    `json:"nombre_grado"`
	CicloLectivo int       `json:"ciclo_lectivo"`
	StartDate    time.Time `json:"fecha_inicio"`
	EndDate      null.Time `json:"fecha_fin"` // open-ended when null
	Reason       string    `json:"motivo"`
	Status       string    `json:"estado"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (s *Substitution) IsActive() bool    { return s.Status == StatusActive }
func (s *Substitution) IsFinalized() bool { return s.Status == StatusFinalized }

// NewSubstitution contains information needed to create a Substitution.
// GradeName and CicloLectivo are accepted for wire compatibility with the
// assignment picker form but are always overridden from the target
// assignment; Status is likewise ignored, a substitution starts Active.
type NewSubstitution struct {
	TeacherID    uuid.UUID `json:"id_persona" validate:"required"`
	AssignmentID uuid.UUID `json:"id_docente_titular" validate:"required"`
	GradeName    string    `json:"nombre_grado"`
	CicloLectivo int       `json:"ciclo_lectivo"`
	StartDate    string    `json:"fecha_inicio" validate:"required,datetime=2006-01-02"`
	EndDate      string    `json:"fecha_fin" validate:"omitempty,datetime=2006-01-02"`
	Reason       string    `json:"motivo" validate:"required"`
	Status       string    `json:"estado"`
}

func (ns *NewSubstitution) Validate() error {
	ns.StartDate = core.CleanString(ns.StartDate)
	ns.EndDate = core.CleanString(ns.EndDate)
	ns.Reason = core.CleanString(ns.Reason)
	return core.Validate.Struct(ns)
}

// UpdateSubstitution defines what may be changed on an existing Substitution.
// Zero-valued fields are left untouched; an explicit empty fecha_fin clears
// the end date (back to open-ended). The target assignment cannot change.
type UpdateSubstitution struct {
	TeacherID *uuid.UUID `json:"id_persona"`
	StartDate string     `json:"fecha_inicio" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string    `json:"fecha_fin" validate:"omitempty"`
	Reason    string     `json:"motivo"`
	Status    string     `json:"estado"`
}

func (us *UpdateSubstitution) Validate() error {
	us.StartDate = core.CleanString(us.StartDate)
	us.Reason = core.CleanString(us.Reason)
	us.Status = core.CleanString(us.Status)
	if us.EndDate != nil {
		end := core.CleanString(*us.EndDate)
		us.EndDate = &end
	}
	return core.Validate.Struct(us)
}

// FinalizeSubstitution carries the optional end date of a finalize call.
type FinalizeSubstitution struct {
	EndDate string `json:"fecha_fin" validate:"omitempty,datetime=2006-01-02"`
}

func (fs *FinalizeSubstitution) Validate() error {
	fs.EndDate = core.CleanString(fs.EndDate)
	return core.Validate.Struct(fs)
}

type QueryFilter struct {
	CicloLectivo int    `query:"ciclo_lectivo"`
	Status       string `query:"estado"`
	GradeName    string `query:"nombre_grado"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.CicloLectivo == 0 && qf.Status == "" && qf.GradeName == ""
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status)
	qf.GradeName = core.CleanString(qf.GradeName)
}
