package dummydb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/crosales/comedor/core/substitution"
)

type substitutionRepository struct {
	db *substitutionTable
}

var _ substitution.Repository = (*substitutionRepository)(nil) // interface compliance check

func NewSubstitutionRepository(db *DB) *substitutionRepository {
	return &substitutionRepository{db: db.substitution}
}

func (repo *substitutionRepository) query() []substitution.Substitution {
	subs := make([]substitution.Substitution, 0, len(repo.db.table))
	for _, sub := range repo.db.table {
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].StartDate.Equal(subs[j].StartDate) {
			return subs[i].StartDate.After(subs[j].StartDate)
		}
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
	return subs
}

func (repo *substitutionRepository) CreateSubstitution(sub substitution.Substitution) (substitution.Substitution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub.ID = uuid.New()
	repo.db.table[sub.ID] = &sub
	return sub, nil
}

func (repo *substitutionRepository) QueryAllSubstitutions() ([]substitution.Substitution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *substitutionRepository) GetSubstitutionByID(id uuid.UUID) (substitution.Substitution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.table[id]; ok {
		return *sub, nil
	}
	return substitution.Substitution{}, substitution.ErrNotFound
}

func (repo *substitutionRepository) FilterSubstitutions(filter substitution.QueryFilter) ([]substitution.Substitution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]substitution.Substitution, 0)
	for _, sub := range repo.query() {
		if filter.CicloLectivo != 0 && sub.CicloLectivo != filter.CicloLectivo {
			continue
		}
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		if filter.GradeName != "" && sub.GradeName != filter.GradeName {
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (repo *substitutionRepository) UpdateSubstitution(sub substitution.Substitution) (substitution.Substitution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[sub.ID]; !ok {
		return substitution.Substitution{}, substitution.ErrNotFound
	}
	repo.db.table[sub.ID] = &sub
	return sub, nil
}

func (repo *substitutionRepository) DeleteSubstitutionByID(id uuid.UUID) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return false, nil
	}
	delete(repo.db.table, id)
	return true, nil
}

func (repo *substitutionRepository) ActiveSubstituteIDs() ([]uuid.UUID, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, sub := range repo.db.table {
		if !sub.IsActive() {
			continue
		}
		if _, ok := seen[sub.TeacherID]; ok {
			continue
		}
		seen[sub.TeacherID] = struct{}{}
		ids = append(ids, sub.TeacherID)
	}
	return ids, nil
}
