package dummydb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/crosales/comedor/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) query() []assignment.Assignment {
	asgs := make([]assignment.Assignment, 0, len(repo.db.table))
	for _, asg := range repo.db.table {
		asgs = append(asgs, *asg)
	}
	sort.Slice(asgs, func(i, j int) bool {
		if asgs[i].CicloLectivo != asgs[j].CicloLectivo {
			return asgs[i].CicloLectivo > asgs[j].CicloLectivo
		}
		return asgs[i].GradeName < asgs[j].GradeName
	})
	return asgs
}

// checkUniqueness enforces the one-titular-per-grade and one-assignment-per-
// teacher rules; must be called with the table lock held so the
// check-and-write stays atomic.
func (repo *assignmentRepository) checkUniqueness(asg assignment.Assignment) error {
	for _, other := range repo.db.table {
		if other.ID == asg.ID {
			continue
		}
		if other.CicloLectivo != asg.CicloLectivo {
			continue
		}
		if other.GradeName == asg.GradeName {
			return assignment.ErrGradeTaken
		}
		if other.TeacherID == asg.TeacherID {
			return assignment.ErrTeacherAssigned
		}
	}
	return nil
}

func (repo *assignmentRepository) CreateAssignment(asg assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkUniqueness(asg); err != nil {
		return assignment.Assignment{}, err
	}
	asg.ID = uuid.New()
	repo.db.table[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) QueryAllAssignments() ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *assignmentRepository) GetAssignmentByID(id uuid.UUID) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if asg, ok := repo.db.table[id]; ok {
		return *asg, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) FilterAssignments(filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	asgs := make([]assignment.Assignment, 0)
	for _, asg := range repo.query() {
		if filter.CicloLectivo != 0 && asg.CicloLectivo != filter.CicloLectivo {
			continue
		}
		if filter.Search != "" && !containsFold(asg.GradeName, filter.Search) {
			continue
		}
		asgs = append(asgs, asg)
	}
	return asgs, nil
}

func (repo *assignmentRepository) UpdateAssignment(asg assignment.Assignment, prev assignment.HistoryEntry) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[asg.ID]; !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	if err := repo.checkUniqueness(asg); err != nil {
		return assignment.Assignment{}, err
	}
	prev.ID = uuid.New()
	repo.db.history[asg.ID] = append([]assignment.HistoryEntry{prev}, repo.db.history[asg.ID]...)
	repo.db.table[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) DeleteAssignmentByID(id uuid.UUID) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return false, nil
	}
	delete(repo.db.table, id)
	return true, nil
}

func (repo *assignmentRepository) AssignedTeacherIDs(cicloLectivo int) ([]uuid.UUID, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]uuid.UUID, 0, len(repo.db.table))
	for _, asg := range repo.db.table {
		if cicloLectivo != 0 && asg.CicloLectivo != cicloLectivo {
			continue
		}
		ids = append(ids, asg.TeacherID)
	}
	return ids, nil
}

func (repo *assignmentRepository) AssignedGradeNames(cicloLectivo int) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	names := make([]string, 0, len(repo.db.table))
	for _, asg := range repo.db.table {
		if cicloLectivo != 0 && asg.CicloLectivo != cicloLectivo {
			continue
		}
		names = append(names, asg.GradeName)
	}
	return names, nil
}

func (repo *assignmentRepository) QueryHistory(assignmentID uuid.UUID) ([]assignment.HistoryEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := repo.db.history[assignmentID]
	out := make([]assignment.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}
