package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	. "github.com/crosales/comedor/apps/api/echo"
	"github.com/crosales/comedor/core"
	"github.com/crosales/comedor/core/assignment"
	"github.com/crosales/comedor/core/substitution"
	emailsvc "github.com/crosales/comedor/services/email"
	optionsvc "github.com/crosales/comedor/services/options"
	dummydb "github.com/crosales/comedor/storage/database/dummy"
)

var errNotFound = httpErr{Error: "not found"}

type testApp struct {
	server    Server
	asgSvc    *assignment.Service
	subSvc    *substitution.Service
	directory interface {
		AddTeacher(assignment.Teacher) assignment.Teacher
	}
	catalog interface {
		AddGrade(assignment.Grade) assignment.Grade
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}

	directory := dummydb.NewTeacherDirectory(db)
	catalog := dummydb.NewGradeCatalog(db)
	asgRepo := dummydb.NewAssignmentRepository(db)
	asgSvc := assignment.NewService(asgRepo, directory, catalog)
	subSvc := substitution.NewService(
		dummydb.NewSubstitutionRepository(db),
		asgRepo,
		directory,
		optionsvc.NewService(core.Conf),
		emailsvc.NewConsoleServiceMock(),
	)

	return &testApp{
		server: NewServer(&Options{
			DisableReqLogs:  true,
			AssignmentSvc:   asgSvc,
			SubstitutionSvc: subSvc,
		}),
		asgSvc:    asgSvc,
		subSvc:    subSvc,
		directory: directory,
		catalog:   catalog,
	}
}

func (app *testApp) addTeacher(firstName, lastName, dni string) assignment.Teacher {
	return app.directory.AddTeacher(assignment.Teacher{FirstName: firstName, LastName: lastName, DNI: dni})
}

func (app *testApp) addGrade(name, shift string) assignment.Grade {
	return app.catalog.AddGrade(assignment.Grade{Name: name, Shift: shift})
}

func (app *testApp) assign(t *testing.T, tchr assignment.Teacher, grd assignment.Grade, ciclo int) assignment.Assignment {
	t.Helper()

	asg, err := app.asgSvc.Create(assignment.NewAssignment{
		TeacherID:    tchr.ID,
		GradeName:    grd.Name,
		CicloLectivo: ciclo,
		AssignedOn:   "2026-03-02",
	})
	if err != nil {
		t.Fatalf("assign(): %v", err)
	}
	return asg
}

func (app *testApp) substitute(t *testing.T, suplente assignment.Teacher, target assignment.Assignment, start string) substitution.Substitution {
	t.Helper()

	sub, err := app.subSvc.Create(substitution.NewSubstitution{
		TeacherID:    suplente.ID,
		AssignmentID: target.ID,
		StartDate:    start,
		Reason:       "Licencia médica",
	})
	if err != nil {
		t.Fatalf("substitute(): %v", err)
	}
	return sub
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func (app *testApp) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, tt.path, bytes.NewReader(tt.body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
