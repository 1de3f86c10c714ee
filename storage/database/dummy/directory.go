package dummydb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/crosales/comedor/core/assignment"
)

type teacherDirectory struct {
	db *directoryTable
}

var (
	_ assignment.TeacherDirectory = (*teacherDirectory)(nil) // interface compliance check
	_ assignment.GradeCatalog     = (*gradeCatalog)(nil)
)

func NewTeacherDirectory(db *DB) *teacherDirectory {
	return &teacherDirectory{db: db.directory}
}

// AddTeacher registers a teacher in the directory; test seeding helper.
func (dir *teacherDirectory) AddTeacher(tchr assignment.Teacher) assignment.Teacher {
	dir.db.Lock()
	defer dir.db.Unlock()

	if tchr.ID == uuid.Nil {
		tchr.ID = uuid.New()
	}
	dir.db.teachers[tchr.ID] = &tchr
	return tchr
}

func (dir *teacherDirectory) QueryTeachers() ([]assignment.Teacher, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	teachers := make([]assignment.Teacher, 0, len(dir.db.teachers))
	for _, tchr := range dir.db.teachers {
		teachers = append(teachers, *tchr)
	}
	sort.Slice(teachers, func(i, j int) bool {
		if teachers[i].LastName != teachers[j].LastName {
			return teachers[i].LastName < teachers[j].LastName
		}
		return teachers[i].FirstName < teachers[j].FirstName
	})
	return teachers, nil
}

func (dir *teacherDirectory) GetTeacher(id uuid.UUID) (assignment.Teacher, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	if tchr, ok := dir.db.teachers[id]; ok {
		return *tchr, nil
	}
	return assignment.Teacher{}, assignment.ErrTeacherNotFound
}

type gradeCatalog struct {
	db *directoryTable
}

func NewGradeCatalog(db *DB) *gradeCatalog {
	return &gradeCatalog{db: db.directory}
}

// AddGrade registers a grade in the catalog; test seeding helper.
func (cat *gradeCatalog) AddGrade(grd assignment.Grade) assignment.Grade {
	cat.db.Lock()
	defer cat.db.Unlock()

	cat.db.grades[grd.Name] = &grd
	return grd
}

func (cat *gradeCatalog) QueryGrades() ([]assignment.Grade, error) {
	cat.db.RLock()
	defer cat.db.RUnlock()

	grades := make([]assignment.Grade, 0, len(cat.db.grades))
	for _, grd := range cat.db.grades {
		grades = append(grades, *grd)
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].Name < grades[j].Name })
	return grades, nil
}

func (cat *gradeCatalog) GetGrade(name string) (assignment.Grade, error) {
	cat.db.RLock()
	defer cat.db.RUnlock()

	if grd, ok := cat.db.grades[name]; ok {
		return *grd, nil
	}
	return assignment.Grade{}, assignment.ErrGradeNotFound
}
