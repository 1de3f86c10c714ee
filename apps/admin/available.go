package main

import (
	"fmt"
)

func (cli *commandLine) listAvailable(cicloLectivo int) error {
	teachers, err := cli.asgSvc.AvailableTeachers(cicloLectivo)
	if err != nil {
		return err
	}
	grades, err := cli.asgSvc.AvailableGrades(cicloLectivo)
	if err != nil {
		return err
	}

	fmt.Printf("Unassigned teachers for %d:\n", cicloLectivo)
	for _, t := range teachers {
		fmt.Printf("  %s (DNI %s)\n", t.FullName(), t.DNI)
	}
	fmt.Printf("Unassigned grades for %d:\n", cicloLectivo)
	for _, g := range grades {
		fmt.Printf("  %s (%s)\n", g.Name, g.Shift)
	}
	return nil
}
