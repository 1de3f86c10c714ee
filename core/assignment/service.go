package assignment

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/crosales/comedor/core"
)

var (
	// errors
	ErrNotFound        = errors.New("assignment not found")
	ErrGradeTaken      = errors.New("this grade already has a titular for this ciclo lectivo")
	ErrTeacherAssigned = errors.New("this teacher already holds an assignment for this ciclo lectivo")
	ErrTeacherNotFound = errors.New("teacher not found")
	ErrGradeNotFound   = errors.New("grade not found")
)

type (
	Repository interface {
		// CreateAssignment persists a new assignment. The check-and-write is
		// atomic: implementations return ErrGradeTaken or ErrTeacherAssigned
		// on a uniqueness-constraint violation, never a partial write.
		CreateAssignment(asg Assignment) (Assignment, error)
		QueryAllAssignments() ([]Assignment, error)
		GetAssignmentByID(id uuid.UUID) (Assignment, error)
		// FilterAssignments applies AND operation on available QueryFilter fields.
		FilterAssignments(filter QueryFilter) ([]Assignment, error)
		// UpdateAssignment rewrites an assignment in place and records prev in
		// the reassignment history, atomically. Same conflict mapping as
		// CreateAssignment, excluding the row being updated.
		UpdateAssignment(asg Assignment, prev HistoryEntry) (Assignment, error)
		// DeleteAssignmentByID reports whether a row was actually removed.
		DeleteAssignmentByID(id uuid.UUID) (bool, error)
		// AssignedTeacherIDs returns the IDs of teachers holding an assignment
		// in the given ciclo lectivo; cicloLectivo == 0 means any ciclo.
		AssignedTeacherIDs(cicloLectivo int) ([]uuid.UUID, error)
		AssignedGradeNames(cicloLectivo int) ([]string, error)
		QueryHistory(assignmentID uuid.UUID) ([]HistoryEntry, error)
	}

	// TeacherDirectory resolves teachers from the external person directory.
	// It is consulted for data only; invariants never depend on it.
	TeacherDirectory interface {
		QueryTeachers() ([]Teacher, error)
		GetTeacher(id uuid.UUID) (Teacher, error)
	}

	// GradeCatalog resolves valid grade names from the external grade catalog.
	GradeCatalog interface {
		QueryGrades() ([]Grade, error)
		GetGrade(name string) (Grade, error)
	}

	Service struct {
		repo      Repository
		directory TeacherDirectory
		catalog   GradeCatalog
	}
)

func NewService(repo Repository, directory TeacherDirectory, catalog GradeCatalog) *Service {
	return &Service{repo: repo, directory: directory, catalog: catalog}
}

// trapConflict maps repository uniqueness sentinels to a core.ConflictError
// carrying the offending field.
func (svc *Service) trapConflict(err error) error {
	switch errors.Cause(err) {
	case ErrGradeTaken:
		return core.NewConflictError(err, core.FieldError{Field: "nombre_grado", Error: ErrGradeTaken.Error()})
	case ErrTeacherAssigned:
		return core.NewConflictError(err, core.FieldError{Field: "id_persona", Error: ErrTeacherAssigned.Error()})
	default:
		return err
	}
}

func (svc *Service) resolveTeacher(id uuid.UUID) (Teacher, error) {
	tchr, err := svc.directory.GetTeacher(id)
	if err != nil {
		if errors.Cause(err) == ErrTeacherNotFound {
			return Teacher{}, core.NewValidationError(err, core.FieldError{Field: "id_persona", Error: ErrTeacherNotFound.Error()})
		}
		return Teacher{}, errors.Wrap(err, "resolving teacher")
	}
	return tchr, nil
}

func (svc *Service) resolveGrade(name string) (Grade, error) {
	grd, err := svc.catalog.GetGrade(name)
	if err != nil {
		if errors.Cause(err) == ErrGradeNotFound {
			return Grade{}, core.NewValidationError(err, core.FieldError{Field: "nombre_grado", Error: ErrGradeNotFound.Error()})
		}
		return Grade{}, errors.Wrap(err, "resolving grade")
	}
	return grd, nil
}

func (svc *Service) QueryAll() ([]Assignment, error) {
	return svc.repo.QueryAllAssignments()
}

func (svc *Service) GetByID(id uuid.UUID) (Assignment, error) {
	return svc.repo.GetAssignmentByID(id)
}

// GetByKey looks an assignment up by its composite route key; any mismatch
// between the stored row and the provided teacher/grade is a miss.
func (svc *Service) GetByKey(id, teacherID uuid.UUID, gradeName string) (Assignment, error) {
	asg, err := svc.repo.GetAssignmentByID(id)
	if err != nil {
		return Assignment{}, err
	}
	if asg.TeacherID != teacherID || asg.GradeName != core.CleanString(gradeName) {
		return Assignment{}, ErrNotFound
	}
	return asg, nil
}

func (svc *Service) Filter(filter QueryFilter) ([]Assignment, error) {
	filter.Clean()
	if filter.IsEmpty() {
		return svc.repo.QueryAllAssignments()
	}
	return svc.repo.FilterAssignments(filter)
}

func (svc *Service) History(id uuid.UUID) ([]HistoryEntry, error) {
	if _, err := svc.repo.GetAssignmentByID(id); err != nil {
		return nil, err
	}
	return svc.repo.QueryHistory(id)
}

// AvailableTeachers returns directory teachers holding no assignment in the
// given ciclo lectivo.
func (svc *Service) AvailableTeachers(cicloLectivo int) ([]Teacher, error) {
	teachers, err := svc.directory.QueryTeachers()
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	assigned, err := svc.repo.AssignedTeacherIDs(cicloLectivo)
	if err != nil {
		return nil, errors.Wrap(err, "querying assigned teachers")
	}
	taken := make(map[uuid.UUID]struct{}, len(assigned))
	for _, id := range assigned {
		taken[id] = struct{}{}
	}
	available := make([]Teacher, 0, len(teachers))
	for _, tchr := range teachers {
		if _, ok := taken[tchr.ID]; !ok {
			available = append(available, tchr)
		}
	}
	return available, nil
}

// AvailableGrades returns catalog grades with no titular in the given ciclo
// lectivo.
func (svc *Service) AvailableGrades(cicloLectivo int) ([]Grade, error) {
	grades, err := svc.catalog.QueryGrades()
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	assigned, err := svc.repo.AssignedGradeNames(cicloLectivo)
	if err != nil {
		return nil, errors.Wrap(err, "querying assigned grades")
	}
	taken := make(map[string]struct{}, len(assigned))
	for _, name := range assigned {
		taken[name] = struct{}{}
	}
	available := make([]Grade, 0, len(grades))
	for _, grd := range grades {
		if _, ok := taken[grd.Name]; !ok {
			available = append(available, grd)
		}
	}
	return available, nil
}

func (svc *Service) Create(na NewAssignment) (Assignment, error) {
	if err := na.Validate(); err != nil {
		return Assignment{}, err
	}
	if _, err := svc.resolveTeacher(na.TeacherID); err != nil {
		return Assignment{}, err
	}
	grd, err := svc.resolveGrade(na.GradeName)
	if err != nil {
		return Assignment{}, err
	}
	assignedOn, err := core.ParseDate(na.AssignedOn)
	if err != nil {
		return Assignment{}, core.NewValidationError(err, core.FieldError{Field: "fecha_asignado", Error: "invalid date"})
	}

	now := time.Now().UTC()
	asg := Assignment{
		TeacherID:    na.TeacherID,
		GradeName:    grd.Name,
		CicloLectivo: na.CicloLectivo,
		AssignedOn:   assignedOn,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	asg, err = svc.repo.CreateAssignment(asg)
	if err != nil {
		return Assignment{}, svc.trapConflict(err)
	}
	return asg, nil
}

// Reassign atomically changes the teacher and/or grade of an existing
// assignment while it keeps its identifier. The previous state is recorded in
// the reassignment history.
func (svc *Service) Reassign(id, curTeacherID uuid.UUID, curGradeName string, r Reassignment) (Assignment, error) {
	if err := r.Validate(); err != nil {
		return Assignment{}, err
	}

	orig, err := svc.GetByKey(id, curTeacherID, curGradeName)
	if err != nil {
		return Assignment{}, err
	}

	asg := orig
	if r.NewTeacherID != nil && *r.NewTeacherID != uuid.Nil {
		if _, err = svc.resolveTeacher(*r.NewTeacherID); err != nil {
			return Assignment{}, err
		}
		asg.TeacherID = *r.NewTeacherID
	}
	if r.NewGradeName != "" {
		grd, err := svc.resolveGrade(r.NewGradeName)
		if err != nil {
			return Assignment{}, err
		}
		asg.GradeName = grd.Name
	}
	if r.CicloLectivo != 0 {
		asg.CicloLectivo = r.CicloLectivo
	}
	if r.AssignedOn != "" {
		assignedOn, err := core.ParseDate(r.AssignedOn)
		if err != nil {
			return Assignment{}, core.NewValidationError(err, core.FieldError{Field: "fecha_asignado", Error: "invalid date"})
		}
		asg.AssignedOn = assignedOn
	}
	asg.UpdatedAt = time.Now().UTC()

	prev := HistoryEntry{
		AssignmentID: orig.ID,
		TeacherID:    orig.TeacherID,
		GradeName:    orig.GradeName,
		CicloLectivo: orig.CicloLectivo,
		AssignedOn:   orig.AssignedOn,
		ReplacedAt:   asg.UpdatedAt,
	}
	asg, err = svc.repo.UpdateAssignment(asg, prev)
	if err != nil {
		return Assignment{}, svc.trapConflict(err)
	}
	return asg, nil
}

// Delete removes an assignment addressed by its composite route key and
// reports whether a row was actually removed. A miss is not an error.
func (svc *Service) Delete(id, teacherID uuid.UUID, gradeName string) (bool, error) {
	if _, err := svc.GetByKey(id, teacherID, gradeName); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return svc.repo.DeleteAssignmentByID(id)
}
