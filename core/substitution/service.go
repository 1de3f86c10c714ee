package substitution

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/crosales/comedor/core"
	"github.com/crosales/comedor/core/assignment"
)

var (
	// errors
	ErrNotFound       = errors.New("substitution not found")
	ErrEndBeforeStart = errors.New("fecha_fin cannot precede fecha_inicio")
	ErrSameTeacher    = errors.New("the suplente cannot be the titular being covered")
	ErrUnknownReason  = errors.New("unknown motivo")
	ErrUnknownStatus  = errors.New("unknown estado")
	ErrFinalized      = errors.New("a finalized substitution cannot return to active")
)

type (
	Repository interface {
		CreateSubstitution(sub Substitution) (Substitution, error)
		QueryAllSubstitutions() ([]Substitution, error)
		GetSubstitutionByID(id uuid.UUID) (Substitution, error)
		// FilterSubstitutions applies AND operation on available QueryFilter fields.
		FilterSubstitutions(filter QueryFilter) ([]Substitution, error)
		UpdateSubstitution(sub Substitution) (Substitution, error)
		// DeleteSubstitutionByID reports whether a row was actually removed.
		DeleteSubstitutionByID(id uuid.UUID) (bool, error)
		// ActiveSubstituteIDs returns the IDs of teachers currently covering
		// an Active substitution.
		ActiveSubstituteIDs() ([]uuid.UUID, error)
	}

	// AssignmentReader is the read-only view of titular assignments this
	// service needs. It never writes through it.
	AssignmentReader interface {
		GetAssignmentByID(id uuid.UUID) (assignment.Assignment, error)
		FilterAssignments(filter assignment.QueryFilter) ([]assignment.Assignment, error)
		AssignedTeacherIDs(cicloLectivo int) ([]uuid.UUID, error)
	}

	// Options is the external configuration collaborator supplying the motivo
	// and estado enumerations. Both are treated as opaque strings here.
	Options interface {
		Reasons() []string
		Statuses() []string
	}

	Service struct {
		repo        Repository
		assignments AssignmentReader
		directory   assignment.TeacherDirectory
		opts        Options
		mailSvc     core.EmailService
	}
)

func NewService(
	repo Repository,
	assignments AssignmentReader,
	directory assignment.TeacherDirectory,
	opts Options,
	mailSvc core.EmailService,
) *Service {
	return &Service{
		repo:        repo,
		assignments: assignments,
		directory:   directory,
		opts:        opts,
		mailSvc:     mailSvc,
	}
}

func (svc *Service) checkReason(reason string) error {
	for _, r := range svc.opts.Reasons() {
		if r == reason {
			return nil
		}
	}
	return core.NewValidationError(ErrUnknownReason, core.FieldError{Field: "motivo", Error: ErrUnknownReason.Error()})
}

func (svc *Service) checkStatus(status string) error {
	for _, s := range svc.opts.Statuses() {
		if s == status {
			return nil
		}
	}
	return core.NewValidationError(ErrUnknownStatus, core.FieldError{Field: "estado", Error: ErrUnknownStatus.Error()})
}

// checkDates enforces: fecha_fin, when set, is on or after fecha_inicio.
func checkDates(start time.Time, end null.Time) error {
	if end.Valid && end.Time.Before(start) {
		return core.NewValidationError(ErrEndBeforeStart, core.FieldError{Field: "fecha_fin", Error: ErrEndBeforeStart.Error()})
	}
	return nil
}

func (svc *Service) resolveSubstitute(id uuid.UUID) (assignment.Teacher, error) {
	tchr, err := svc.directory.GetTeacher(id)
	if err != nil {
		if errors.Cause(err) == assignment.ErrTeacherNotFound {
			return assignment.Teacher{}, core.NewValidationError(err, core.FieldError{
				Field: "id_persona", Error: assignment.ErrTeacherNotFound.Error(),
			})
		}
		return assignment.Teacher{}, errors.Wrap(err, "resolving suplente")
	}
	return tchr, nil
}

func (svc *Service) QueryAll() ([]Substitution, error) {
	return svc.repo.QueryAllSubstitutions()
}

func (svc *Service) GetByID(id uuid.UUID) (Substitution, error) {
	return svc.repo.GetSubstitutionByID(id)
}

func (svc *Service) Filter(filter QueryFilter) ([]Substitution, error) {
	filter.Clean()
	if filter.IsEmpty() {
		return svc.repo.QueryAllSubstitutions()
	}
	return svc.repo.FilterSubstitutions(filter)
}

// ReasonOptions passes the configured motivo enumeration through.
func (svc *Service) ReasonOptions() []string { return svc.opts.Reasons() }

// StatusOptions passes the configured estado enumeration through.
func (svc *Service) StatusOptions() []string { return svc.opts.Statuses() }

// TitularAssignments lists the assignments a new substitution may target.
func (svc *Service) TitularAssignments(cicloLectivo int) ([]assignment.Assignment, error) {
	return svc.assignments.FilterAssignments(assignment.QueryFilter{CicloLectivo: cicloLectivo})
}

// AvailableSubstitutes returns directory teachers who are not currently a
// titular and are not already covering an Active substitution. Advisory only:
// creation does not re-enforce the second condition (overlap enforcement is
// an open product decision).
func (svc *Service) AvailableSubstitutes() ([]assignment.Teacher, error) {
	teachers, err := svc.directory.QueryTeachers()
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	titulars, err := svc.assignments.AssignedTeacherIDs(0)
	if err != nil {
		return nil, errors.Wrap(err, "querying titulars")
	}
	substituting, err := svc.repo.ActiveSubstituteIDs()
	if err != nil {
		return nil, errors.Wrap(err, "querying active suplentes")
	}
	busy := make(map[uuid.UUID]struct{}, len(titulars)+len(substituting))
	for _, id := range titulars {
		busy[id] = struct{}{}
	}
	for _, id := range substituting {
		busy[id] = struct{}{}
	}
	available := make([]assignment.Teacher, 0, len(teachers))
	for _, tchr := range teachers {
		if _, ok := busy[tchr.ID]; !ok {
			available = append(available, tchr)
		}
	}
	return available, nil
}

// Create opens an Active substitution against an existing titular assignment.
// GradeName and CicloLectivo are copied from the target assignment; whatever
// the caller supplied for them is discarded.
func (svc *Service) Create(ns NewSubstitution) (Substitution, error) {
	if err := ns.Validate(); err != nil {
		return Substitution{}, err
	}
	if err := svc.checkReason(ns.Reason); err != nil {
		return Substitution{}, err
	}

	target, err := svc.assignments.GetAssignmentByID(ns.AssignmentID)
	if err != nil {
		return Substitution{}, err // assignment.ErrNotFound maps to 404
	}
	suplente, err := svc.resolveSubstitute(ns.TeacherID)
	if err != nil {
		return Substitution{}, err
	}
	if ns.TeacherID == target.TeacherID {
		return Substitution{}, core.NewValidationError(ErrSameTeacher, core.FieldError{Field: "id_persona", Error: ErrSameTeacher.Error()})
	}

	startDate, err := core.ParseDate(ns.StartDate)
	if err != nil {
		return Substitution{}, core.NewValidationError(err, core.FieldError{Field: "fecha_inicio", Error: "invalid date"})
	}
	var endDate null.Time
	if ns.EndDate != "" {
		end, err := core.ParseDate(ns.EndDate)
		if err != nil {
			return Substitution{}, core.NewValidationError(err, core.FieldError{Field: "fecha_fin", Error: "invalid date"})
		}
		endDate = null.TimeFrom(end)
	}
	if err = checkDates(startDate, endDate); err != nil {
		return Substitution{}, err
	}

	now := time.Now().UTC()
	sub := Substitution{
		TeacherID:    ns.TeacherID,
		AssignmentID: target.ID,
		GradeName:    target.GradeName,
		CicloLectivo: target.CicloLectivo,
		StartDate:    startDate,
		EndDate:      endDate,
		Reason:       ns.Reason,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	sub, err = svc.repo.CreateSubstitution(sub)
	if err != nil {
		return Substitution{}, errors.Wrap(err, "creating substitution")
	}

	svc.notify(suplente, sub, "substitution-created")
	return sub, nil
}

// Update partially modifies the mutable fields of a substitution. The target
// assignment (and therefore the derived grade/ciclo) cannot change.
func (svc *Service) Update(id uuid.UUID, us UpdateSubstitution) (Substitution, error) {
	if err := us.Validate(); err != nil {
		return Substitution{}, err
	}

	sub, err := svc.repo.GetSubstitutionByID(id)
	if err != nil {
		return Substitution{}, err
	}

	if us.TeacherID != nil && *us.TeacherID != uuid.Nil && *us.TeacherID != sub.TeacherID {
		if _, err = svc.resolveSubstitute(*us.TeacherID); err != nil {
			return Substitution{}, err
		}
		// the target assignment may be gone already (soft reference); the
		// distinctness check only applies while it resolves
		if target, tErr := svc.assignments.GetAssignmentByID(sub.AssignmentID); tErr == nil {
			if *us.TeacherID == target.TeacherID {
				return Substitution{}, core.NewValidationError(ErrSameTeacher, core.FieldError{Field: "id_persona", Error: ErrSameTeacher.Error()})
			}
		}
		sub.TeacherID = *us.TeacherID
	}
	if us.StartDate != "" {
		startDate, err := core.ParseDate(us.StartDate)
		if err != nil {
			return Substitution{}, core.NewValidationError(err, core.FieldError{Field: "fecha_inicio", Error: "invalid date"})
		}
		sub.StartDate = startDate
	}
	if us.EndDate != nil {
		if *us.EndDate == "" {
			sub.EndDate = null.Time{} // back to open-ended
		} else {
			end, err := core.ParseDate(*us.EndDate)
			if err != nil {
				return Substitution{}, core.NewValidationError(err, core.FieldError{Field: "fecha_fin", Error: "invalid date"})
			}
			sub.EndDate = null.TimeFrom(end)
		}
	}
	if err = checkDates(sub.StartDate, sub.EndDate); err != nil {
		return Substitution{}, err
	}
	if us.Reason != "" {
		if err = svc.checkReason(us.Reason); err != nil {
			return Substitution{}, err
		}
		sub.Reason = us.Reason
	}
	if us.Status != "" && us.Status != sub.Status {
		if err = svc.checkStatus(us.Status); err != nil {
			return Substitution{}, err
		}
		if sub.IsFinalized() {
			return Substitution{}, core.NewConflictError(ErrFinalized, core.FieldError{Field: "estado", Error: ErrFinalized.Error()})
		}
		sub.Status = us.Status
	}
	sub.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateSubstitution(sub)
}

// Finalize transitions a substitution to Finalized, setting fecha_fin to the
// supplied date or to today when omitted. Finalizing an already-finalized
// substitution is an idempotent no-op returning the current state.
func (svc *Service) Finalize(id uuid.UUID, fs FinalizeSubstitution) (Substitution, error) {
	if err := fs.Validate(); err != nil {
		return Substitution{}, err
	}

	sub, err := svc.repo.GetSubstitutionByID(id)
	if err != nil {
		return Substitution{}, err
	}
	if sub.IsFinalized() {
		return sub, nil
	}

	endDate := core.Today()
	if fs.EndDate != "" {
		if endDate, err = core.ParseDate(fs.EndDate); err != nil {
			return Substitution{}, core.NewValidationError(err, core.FieldError{Field: "fecha_fin", Error: "invalid date"})
		}
	}
	end := null.TimeFrom(endDate)
	if err = checkDates(sub.StartDate, end); err != nil {
		return Substitution{}, err
	}

	sub.Status = StatusFinalized
	sub.EndDate = end
	sub.UpdatedAt = time.Now().UTC()

	sub, err = svc.repo.UpdateSubstitution(sub)
	if err != nil {
		return Substitution{}, err
	}

	if suplente, dErr := svc.directory.GetTeacher(sub.TeacherID); dErr == nil {
		svc.notify(suplente, sub, "substitution-finalized")
	}
	return sub, nil
}

// Delete removes a substitution regardless of its status and reports whether
// a row was actually removed. A miss is not an error.
func (svc *Service) Delete(id uuid.UUID) (bool, error) {
	return svc.repo.DeleteSubstitutionByID(id)
}

// ExpiredOutcome is the per-item result of FinalizeExpired.
type ExpiredOutcome struct {
	ID  uuid.UUID
	Err error
}

// FinalizeExpired finalizes every Active substitution whose fecha_fin has
// already passed as of the given date. Failures are reported per item, not
// all-or-nothing.
func (svc *Service) FinalizeExpired(asOf time.Time) ([]ExpiredOutcome, error) {
	active, err := svc.repo.FilterSubstitutions(QueryFilter{Status: StatusActive})
	if err != nil {
		return nil, errors.Wrap(err, "querying active substitutions")
	}

	var outcomes []ExpiredOutcome
	for _, sub := range active {
		if !sub.EndDate.Valid || !sub.EndDate.Time.Before(asOf) {
			continue
		}
		_, err := svc.Finalize(sub.ID, FinalizeSubstitution{EndDate: sub.EndDate.Time.Format(core.DateLayout)})
		outcomes = append(outcomes, ExpiredOutcome{ID: sub.ID, Err: err})
	}
	return outcomes, nil
}

// mailData is the template payload for suplente notifications.
type mailData struct {
	SuplenteName string
	GradeName    string
	CicloLectivo int
	StartDate    string
	EndDate      string
}

func (svc *Service) notify(suplente assignment.Teacher, sub Substitution, tmplName string) {
	if svc.mailSvc == nil || suplente.Email == "" {
		return
	}
	data := mailData{
		SuplenteName: suplente.FullName(),
		GradeName:    sub.GradeName,
		CicloLectivo: sub.CicloLectivo,
		StartDate:    sub.StartDate.Format(core.DateLayout),
	}
	if sub.EndDate.Valid {
		data.EndDate = sub.EndDate.Time.Format(core.DateLayout)
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: suplente.FullName(), Address: suplente.Email}},
		Subject:      fmt.Sprintf("Substitution %s for grade %s", sub.Status, sub.GradeName),
		TemplateName: tmplName,
		TemplateData: data,
	})
}
