// Package dummydb provides in-memory repositories; it backs the test suites
// and local prototyping. Behavior matches the psql repos, including the
// atomicity of uniqueness checks (done under the table lock).
package dummydb

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/crosales/comedor/core/assignment"
	"github.com/crosales/comedor/core/substitution"
)

type (
	DB struct {
		assignment   *assignmentTable
		substitution *substitutionTable
		directory    *directoryTable
	}

	assignmentTable struct {
		sync.RWMutex
		table   map[uuid.UUID]*assignment.Assignment
		history map[uuid.UUID][]assignment.HistoryEntry
	}

	substitutionTable struct {
		sync.RWMutex
		table map[uuid.UUID]*substitution.Substitution
	}

	directoryTable struct {
		sync.RWMutex
		teachers map[uuid.UUID]*assignment.Teacher
		grades   map[string]*assignment.Grade
	}
)

func Open() (*DB, error) {
	db := &DB{
		assignment: &assignmentTable{
			table:   make(map[uuid.UUID]*assignment.Assignment),
			history: make(map[uuid.UUID][]assignment.HistoryEntry),
		},
		substitution: &substitutionTable{table: make(map[uuid.UUID]*substitution.Substitution)},
		directory: &directoryTable{
			teachers: make(map[uuid.UUID]*assignment.Teacher),
			grades:   make(map[string]*assignment.Grade),
		},
	}
	return db, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
