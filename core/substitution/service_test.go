package substitution_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosales/comedor/core"
	"github.com/crosales/comedor/core/assignment"
	"github.com/crosales/comedor/core/substitution"
	emailsvc "github.com/crosales/comedor/services/email"
	optionsvc "github.com/crosales/comedor/services/options"
	dummydb "github.com/crosales/comedor/storage/database/dummy"
)

type testEnv struct {
	svc    *substitution.Service
	asgSvc *assignment.Service
	maria  assignment.Teacher // titular of 1A
	jorge  assignment.Teacher // titular of 1B
	lucia  assignment.Teacher // free
	diego  assignment.Teacher // free
	asg1A  assignment.Assignment
	asg1B  assignment.Assignment
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	directory := dummydb.NewTeacherDirectory(db)
	catalog := dummydb.NewGradeCatalog(db)
	asgRepo := dummydb.NewAssignmentRepository(db)
	env := &testEnv{
		asgSvc: assignment.NewService(asgRepo, directory, catalog),
		svc: substitution.NewService(
			dummydb.NewSubstitutionRepository(db),
			asgRepo,
			directory,
			optionsvc.NewService(core.Conf),
			emailsvc.NewConsoleServiceMock(),
		),
		maria: directory.AddTeacher(assignment.Teacher{FirstName: "María", LastName: "González", DNI: "27111222", Email: "maria@test.com"}),
		jorge: directory.AddTeacher(assignment.Teacher{FirstName: "Jorge", LastName: "Pereyra", DNI: "25333444"}),
		lucia: directory.AddTeacher(assignment.Teacher{FirstName: "Lucía", LastName: "Fernández", DNI: "30555666", Email: "lucia@test.com"}),
		diego: directory.AddTeacher(assignment.Teacher{FirstName: "Diego", LastName: "Sosa", DNI: "28777888"}),
	}
	catalog.AddGrade(assignment.Grade{Name: "1A", Shift: "Mañana"})
	catalog.AddGrade(assignment.Grade{Name: "1B", Shift: "Tarde"})

	env.asg1A, err = env.asgSvc.Create(assignment.NewAssignment{
		TeacherID: env.maria.ID, GradeName: "1A", CicloLectivo: 2026, AssignedOn: "2026-03-02",
	})
	require.NoError(t, err)
	env.asg1B, err = env.asgSvc.Create(assignment.NewAssignment{
		TeacherID: env.jorge.ID, GradeName: "1B", CicloLectivo: 2026, AssignedOn: "2026-03-02",
	})
	require.NoError(t, err)
	return env
}

func (env *testEnv) substitute(t *testing.T, suplente assignment.Teacher, target assignment.Assignment, start, end string) substitution.Substitution {
	t.Helper()

	sub, err := env.svc.Create(substitution.NewSubstitution{
		TeacherID:    suplente.ID,
		AssignmentID: target.ID,
		StartDate:    start,
		EndDate:      end,
		Reason:       "Licencia médica",
	})
	require.NoError(t, err)
	return sub
}

func validationField(t *testing.T, err error) string {
	t.Helper()

	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 1)
	return vErr.Fields[0].Field
}

func TestService_Create(t *testing.T) {
	env := setup(t)

	sub, err := env.svc.Create(substitution.NewSubstitution{
		TeacherID:    env.lucia.ID,
		AssignmentID: env.asg1A.ID,
		GradeName:    "9Z", // discarded
		CicloLectivo: 1550, // discarded
		StartDate:    "2026-05-04",
		Reason:       "Licencia médica",
		Status:       "Finalized", // discarded
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, sub.ID)
	assert.Equal(t, env.lucia.ID, sub.TeacherID)
	assert.Equal(t, env.asg1A.ID, sub.AssignmentID)

	// grade, ciclo and status are derived, never taken from the caller
	assert.Equal(t, "1A", sub.GradeName)
	assert.Equal(t, 2026, sub.CicloLectivo)
	assert.Equal(t, substitution.StatusActive, sub.Status)
	assert.False(t, sub.EndDate.Valid)

	// the suplente is notified with the rendered templated message
	require.NotEmpty(t, emailsvc.SentMessages)
	last := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	assert.Equal(t, "lucia@test.com", last.To[0].Address)
	assert.Equal(t, "substitution-created", last.TemplateName)
	assert.Contains(t, last.TextContent, "grade 1A (ciclo 2026)")
	assert.Contains(t, last.TextContent, "starting on 2026-05-04")
	assert.Contains(t, last.HTMLContent, "<strong>1A</strong>")
}

func TestService_Create_invalidInput(t *testing.T) {
	env := setup(t)

	// suplente cannot be the covered titular
	_, err := env.svc.Create(substitution.NewSubstitution{
		TeacherID:    env.maria.ID,
		AssignmentID: env.asg1A.ID,
		StartDate:    "2026-05-04",
		Reason:       "Licencia médica",
	})
	assert.Equal(t, "id_persona", validationField(t, err))

	// but covering another titular's grade is allowed
	_, err = env.svc.Create(substitution.NewSubstitution{
		TeacherID:    env.maria.ID,
		AssignmentID: env.asg1B.ID,
		StartDate:    "2026-05-04",
		Reason:       "Licencia médica",
	})
	assert.NoError(t, err)

	// unknown motivo
	_, err = env.svc.Create(substitution.NewSubstitution{
		TeacherID:    env.lucia.ID,
		AssignmentID: env.asg1A.ID,
		StartDate:    "2026-05-04",
		Reason:       "Vacaciones en Marte",
	})
	assert.Equal(t, "motivo", validationField(t, err))

	// end before start
	_, err = env.svc.Create(substitution.NewSubstitution{
		TeacherID:    env.lucia.ID,
		AssignmentID: env.asg1A.ID,
		StartDate:    "2026-05-04",
		EndDate:      "2026-05-01",
		Reason:       "Licencia médica",
	})
	assert.Equal(t, "fecha_fin", validationField(t, err))
	assert.ErrorIs(t, err.(*core.ValidationError).Err, substitution.ErrEndBeforeStart)

	// single-day cover is fine
	_, err = env.svc.Create(substitution.NewSubstitution{
		TeacherID:    env.lucia.ID,
		AssignmentID: env.asg1A.ID,
		StartDate:    "2026-05-04",
		EndDate:      "2026-05-04",
		Reason:       "Licencia médica",
	})
	assert.NoError(t, err)

	// unknown target assignment
	_, err = env.svc.Create(substitution.NewSubstitution{
		TeacherID:    env.lucia.ID,
		AssignmentID: uuid.New(),
		StartDate:    "2026-05-04",
		Reason:       "Licencia médica",
	})
	assert.ErrorIs(t, err, assignment.ErrNotFound)
}

func TestService_Update(t *testing.T) {
	env := setup(t)
	sub := env.substitute(t, env.lucia, env.asg1A, "2026-05-04", "")

	// partial update: only the dates move
	end := "2026-05-15"
	got, err := env.svc.Update(sub.ID, substitution.UpdateSubstitution{EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, env.lucia.ID, got.TeacherID)
	assert.Equal(t, "2026-05-15", got.EndDate.Time.Format(core.DateLayout))

	// clearing fecha_fin goes back to open-ended
	empty := ""
	got, err = env.svc.Update(sub.ID, substitution.UpdateSubstitution{EndDate: &empty})
	require.NoError(t, err)
	assert.False(t, got.EndDate.Valid)

	// swapping the suplente for the titular being covered is rejected
	_, err = env.svc.Update(sub.ID, substitution.UpdateSubstitution{TeacherID: &env.maria.ID})
	assert.Equal(t, "id_persona", validationField(t, err))

	// swapping for another free teacher is fine
	got, err = env.svc.Update(sub.ID, substitution.UpdateSubstitution{TeacherID: &env.diego.ID})
	require.NoError(t, err)
	assert.Equal(t, env.diego.ID, got.TeacherID)

	// the derived snapshot never moves
	assert.Equal(t, "1A", got.GradeName)
	assert.Equal(t, 2026, got.CicloLectivo)
}

func TestService_Update_dateRevalidation(t *testing.T) {
	env := setup(t)
	sub := env.substitute(t, env.lucia, env.asg1A, "2026-05-04", "2026-05-15")

	// moving fecha_inicio past the stored fecha_fin is rejected
	_, err := env.svc.Update(sub.ID, substitution.UpdateSubstitution{StartDate: "2026-05-20"})
	assert.Equal(t, "fecha_fin", validationField(t, err))

	// moving both together works
	end := "2026-05-25"
	got, err := env.svc.Update(sub.ID, substitution.UpdateSubstitution{StartDate: "2026-05-20", EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, "2026-05-20", got.StartDate.Format(core.DateLayout))
}

func TestService_Finalize(t *testing.T) {
	env := setup(t)
	sub := env.substitute(t, env.lucia, env.asg1A, "2026-05-04", "")

	got, err := env.svc.Finalize(sub.ID, substitution.FinalizeSubstitution{EndDate: "2026-05-29"})
	require.NoError(t, err)
	assert.Equal(t, substitution.StatusFinalized, got.Status)
	assert.Equal(t, "2026-05-29", got.EndDate.Time.Format(core.DateLayout))

	// the suplente is told which day was the last one covered
	require.NotEmpty(t, emailsvc.SentMessages)
	last := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	assert.Equal(t, "substitution-finalized", last.TemplateName)
	assert.Contains(t, last.TextContent, "last day covered: 2026-05-29")

	// finalizing again is an idempotent no-op; the stored end date stays
	again, err := env.svc.Finalize(sub.ID, substitution.FinalizeSubstitution{EndDate: "2026-06-30"})
	require.NoError(t, err)
	assert.Equal(t, got.EndDate, again.EndDate)

	// a finalized substitution cannot go back to Active
	_, err = env.svc.Update(sub.ID, substitution.UpdateSubstitution{Status: substitution.StatusActive})
	var cErr *core.ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.ErrorIs(t, cErr.Err, substitution.ErrFinalized)
}

func TestService_Finalize_defaultsToToday(t *testing.T) {
	env := setup(t)
	start := core.Today().AddDate(0, 0, -7).Format(core.DateLayout)
	sub := env.substitute(t, env.lucia, env.asg1A, start, "")

	got, err := env.svc.Finalize(sub.ID, substitution.FinalizeSubstitution{})
	require.NoError(t, err)
	assert.Equal(t, core.Today(), got.EndDate.Time)
}

func TestService_Finalize_endBeforeStart(t *testing.T) {
	env := setup(t)
	sub := env.substitute(t, env.lucia, env.asg1A, "2026-05-04", "")

	_, err := env.svc.Finalize(sub.ID, substitution.FinalizeSubstitution{EndDate: "2026-05-01"})
	assert.Equal(t, "fecha_fin", validationField(t, err))

	// still Active after the failed attempt
	got, err := env.svc.GetByID(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, substitution.StatusActive, got.Status)
}

func TestService_AvailableSubstitutes(t *testing.T) {
	env := setup(t)

	// titulars are excluded up front
	teachers, err := env.svc.AvailableSubstitutes()
	require.NoError(t, err)
	assert.Equal(t, []assignment.Teacher{env.lucia, env.diego}, teachers)

	// an active suplente drops out, and returns once finalized
	sub := env.substitute(t, env.lucia, env.asg1A, "2026-05-04", "")
	teachers, err = env.svc.AvailableSubstitutes()
	require.NoError(t, err)
	assert.Equal(t, []assignment.Teacher{env.diego}, teachers)

	_, err = env.svc.Finalize(sub.ID, substitution.FinalizeSubstitution{EndDate: "2026-05-29"})
	require.NoError(t, err)
	teachers, err = env.svc.AvailableSubstitutes()
	require.NoError(t, err)
	assert.Equal(t, []assignment.Teacher{env.lucia, env.diego}, teachers)
}

func TestService_Filter(t *testing.T) {
	env := setup(t)
	sub1 := env.substitute(t, env.lucia, env.asg1A, "2026-05-04", "")
	sub2 := env.substitute(t, env.diego, env.asg1B, "2026-06-01", "")
	_, err := env.svc.Finalize(sub2.ID, substitution.FinalizeSubstitution{EndDate: "2026-06-30"})
	require.NoError(t, err)

	got, err := env.svc.Filter(substitution.QueryFilter{Status: substitution.StatusActive})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sub1.ID, got[0].ID)

	got, err = env.svc.Filter(substitution.QueryFilter{GradeName: "1B"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sub2.ID, got[0].ID)

	got, err = env.svc.Filter(substitution.QueryFilter{CicloLectivo: 2027})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_Delete(t *testing.T) {
	env := setup(t)
	sub := env.substitute(t, env.lucia, env.asg1A, "2026-05-04", "")

	deleted, err := env.svc.Delete(sub.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = env.svc.Delete(sub.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = env.svc.GetByID(sub.ID)
	assert.ErrorIs(t, err, substitution.ErrNotFound)
}

func TestService_FinalizeExpired(t *testing.T) {
	env := setup(t)
	expired := env.substitute(t, env.lucia, env.asg1A, "2026-05-04", "2026-05-15")
	openEnded := env.substitute(t, env.diego, env.asg1B, "2026-05-04", "")

	outcomes, err := env.svc.FinalizeExpired(mustDate(t, "2026-06-01"))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, expired.ID, outcomes[0].ID)
	assert.NoError(t, outcomes[0].Err)

	got, err := env.svc.GetByID(expired.ID)
	require.NoError(t, err)
	assert.Equal(t, substitution.StatusFinalized, got.Status)

	// open-ended covers are left alone
	got, err = env.svc.GetByID(openEnded.ID)
	require.NoError(t, err)
	assert.Equal(t, substitution.StatusActive, got.Status)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()

	d, err := core.ParseDate(s)
	require.NoError(t, err)
	return d
}
