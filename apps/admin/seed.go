package main

import (
	"fmt"

	"github.com/pkg/errors"
)

var seedTeachers = []struct {
	firstName, lastName, dni, email string
}{
	{"María", "González", "27111222", "maria.gonzalez@comedor.test"},
	{"Jorge", "Pereyra", "25333444", "jorge.pereyra@comedor.test"},
	{"Lucía", "Fernández", "30555666", "lucia.fernandez@comedor.test"},
	{"Diego", "Sosa", "28777888", "diego.sosa@comedor.test"},
	{"Carla", "Benítez", "31999000", "carla.benitez@comedor.test"},
}

var seedGrades = []struct {
	name, shift string
}{
	{"1A", "Mañana"},
	{"1B", "Tarde"},
	{"2A", "Mañana"},
	{"2B", "Tarde"},
	{"3A", "Mañana"},
}

// seed loads demo teachers and grades. Existing rows are left alone so
// the command can be rerun safely.
func (cli *commandLine) seed() error {
	for _, t := range seedTeachers {
		_, err := cli.db.Exec(
			`INSERT INTO personas (nombre, apellido, dni, email, rol)
			 VALUES ($1, $2, $3, $4, 'docente')
			 ON CONFLICT ON CONSTRAINT uq_personas_dni DO NOTHING`,
			t.firstName, t.lastName, t.dni, t.email,
		)
		if err != nil {
			return errors.Wrapf(err, "seeding teacher %s %s", t.firstName, t.lastName)
		}
	}
	for _, g := range seedGrades {
		_, err := cli.db.Exec(
			`INSERT INTO grados (nombre_grado, turno)
			 VALUES ($1, $2)
			 ON CONFLICT (nombre_grado) DO NOTHING`,
			g.name, g.shift,
		)
		if err != nil {
			return errors.Wrapf(err, "seeding grade %s", g.name)
		}
	}
	fmt.Printf("seeded %d teachers and %d grades\n", len(seedTeachers), len(seedGrades))
	return nil
}
