package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/crosales/comedor/core/assignment"
)

func Test_assignmentApi_query(t *testing.T) {
	app := newTestApp(t)
	maria := app.addTeacher("María", "González", "27111222")
	jorge := app.addTeacher("Jorge", "Pereyra", "25333444")
	g1A := app.addGrade("1A", "Mañana")
	g2A := app.addGrade("2A", "Mañana")
	asg26 := app.assign(t, maria, g1A, 2026)
	asg27 := app.assign(t, jorge, g2A, 2027)

	empty := marchallList(t)

	tests := []httpTest{
		{name: "Get all", path: "/docente-grados", wantCode: http.StatusOK, wantData: marchallList(t, asg27, asg26)},
		{name: "ciclo_lectivo=2026", path: "/docente-grados?ciclo_lectivo=2026", wantCode: http.StatusOK, wantData: marchallList(t, asg26)},
		{name: "ciclo_lectivo (empty)", path: "/docente-grados?ciclo_lectivo=2030", wantCode: http.StatusOK, wantData: empty},
		{name: "search=2a", path: "/docente-grados?search=2a", wantCode: http.StatusOK, wantData: marchallList(t, asg27)},
		{name: "search (unknown)", path: "/docente-grados?search=9z", wantCode: http.StatusOK, wantData: empty},
		{name: "Get by id", path: "/docente-grados/" + asg26.ID.String(), wantCode: http.StatusOK, wantData: marchallObj(t, asg26)},
		{name: "Get by id (not found)", path: "/docente-grados/" + uuid.New().String(), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "Get by id (bad uuid)", path: "/docente-grados/lol", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func Test_assignmentApi_availability(t *testing.T) {
	app := newTestApp(t)
	maria := app.addTeacher("María", "González", "27111222")
	jorge := app.addTeacher("Jorge", "Pereyra", "25333444")
	g1A := app.addGrade("1A", "Mañana")
	g1B := app.addGrade("1B", "Tarde")
	app.assign(t, maria, g1A, 2026)

	tests := []httpTest{
		{
			name: "available teachers", path: "/docente-grados/docentes-disponibles?ciclo_lectivo=2026",
			wantCode: http.StatusOK, wantData: marchallList(t, jorge),
		},
		{
			name: "available teachers, other ciclo", path: "/docente-grados/docentes-disponibles?ciclo_lectivo=2027",
			wantCode: http.StatusOK, wantData: marchallList(t, maria, jorge),
		},
		{
			name: "available grades", path: "/docente-grados/grados-disponibles?ciclo_lectivo=2026",
			wantCode: http.StatusOK, wantData: marchallList(t, g1B),
		},
		{name: "missing ciclo_lectivo", path: "/docente-grados/docentes-disponibles", wantCode: http.StatusBadRequest},
		{name: "bad ciclo_lectivo", path: "/docente-grados/grados-disponibles?ciclo_lectivo=lol", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func Test_assignmentApi_create(t *testing.T) {
	app := newTestApp(t)
	maria := app.addTeacher("María", "González", "27111222")
	jorge := app.addTeacher("Jorge", "Pereyra", "25333444")
	app.addGrade("1A", "Mañana")
	app.addGrade("1B", "Tarde")

	body := func(teacherID uuid.UUID, grade string, ciclo int) []byte {
		return []byte(fmt.Sprintf(
			`{"id_persona":%q,"nombre_grado":%q,"ciclo_lectivo":%d,"fecha_asignado":"2026-03-02"}`,
			teacherID, grade, ciclo,
		))
	}

	tests := []httpTest{
		{
			name: "create ok", method: http.MethodPost, path: "/docente-grados",
			body: body(maria.ID, "1A", 2026), wantCode: http.StatusCreated,
		},
		{
			name: "grade taken", method: http.MethodPost, path: "/docente-grados",
			body: body(jorge.ID, "1A", 2026), wantCode: http.StatusConflict,
			wantData: marchallObj(t, map[string]string{"nombre_grado": assignment.ErrGradeTaken.Error()}),
		},
		{
			name: "teacher already assigned", method: http.MethodPost, path: "/docente-grados",
			body: body(maria.ID, "1B", 2026), wantCode: http.StatusConflict,
			wantData: marchallObj(t, map[string]string{"id_persona": assignment.ErrTeacherAssigned.Error()}),
		},
		{
			name: "unknown teacher", method: http.MethodPost, path: "/docente-grados",
			body: body(uuid.New(), "1B", 2026), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"id_persona": assignment.ErrTeacherNotFound.Error()}),
		},
		{
			name: "unknown grade", method: http.MethodPost, path: "/docente-grados",
			body: body(jorge.ID, "9Z", 2026), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"nombre_grado": assignment.ErrGradeNotFound.Error()}),
		},
		{
			name: "missing fields", method: http.MethodPost, path: "/docente-grados",
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "same teacher+grade, next ciclo ok", method: http.MethodPost, path: "/docente-grados",
			body: body(maria.ID, "1A", 2027), wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func Test_assignmentApi_reassign(t *testing.T) {
	app := newTestApp(t)
	maria := app.addTeacher("María", "González", "27111222")
	jorge := app.addTeacher("Jorge", "Pereyra", "25333444")
	g1A := app.addGrade("1A", "Mañana")
	app.addGrade("1B", "Tarde")
	asg := app.assign(t, maria, g1A, 2026)

	key := func(id uuid.UUID, teacherID uuid.UUID, grade string) string {
		return fmt.Sprintf("/docente-grados/%s/%s/%s", id, teacherID, grade)
	}

	tests := []httpTest{
		{
			name: "stale key", method: http.MethodPut, path: key(asg.ID, jorge.ID, "1A"),
			body: []byte(`{"new_nombre_grado":"1B"}`), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
		{
			name: "reassign grade", method: http.MethodPut, path: key(asg.ID, maria.ID, "1A"),
			body: []byte(`{"new_nombre_grado":"1B"}`), wantCode: http.StatusOK,
		},
		{
			name: "reassign teacher", method: http.MethodPut, path: key(asg.ID, maria.ID, "1B"),
			body: []byte(fmt.Sprintf(`{"new_id_persona":%q}`, jorge.ID)), wantCode: http.StatusOK,
		},
		{name: "history recorded", path: "/docente-grados/" + asg.ID.String() + "/historial", wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the assignment kept its id through both reassignments
	got, err := app.asgSvc.GetByID(asg.ID)
	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	if got.TeacherID != jorge.ID || got.GradeName != "1B" {
		t.Errorf("reassignments not applied: %+v", got)
	}

	entries, err := app.asgSvc.History(asg.ID)
	if err != nil {
		t.Fatalf("History(): %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("len(history) = %d; want 2", len(entries))
	}
}

func Test_assignmentApi_delete(t *testing.T) {
	app := newTestApp(t)
	maria := app.addTeacher("María", "González", "27111222")
	g1A := app.addGrade("1A", "Mañana")
	asg := app.assign(t, maria, g1A, 2026)

	key := fmt.Sprintf("/docente-grados/%s/%s/%s", asg.ID, maria.ID, "1A")

	tests := []httpTest{
		{
			name: "stale key is a miss", method: http.MethodDelete,
			path:     fmt.Sprintf("/docente-grados/%s/%s/%s", asg.ID, maria.ID, "1B"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{name: "delete ok", method: http.MethodDelete, path: key, wantCode: http.StatusNoContent},
		{name: "already gone", method: http.MethodDelete, path: key, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}
