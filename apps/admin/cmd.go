package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/crosales/comedor/core/assignment"
	"github.com/crosales/comedor/core/substitution"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sqlx.DB
	asgSvc *assignment.Service
	subSvc *substitution.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  seed - load demo teachers and grades")
	fmt.Println("  disponibles -ciclo YEAR - list unassigned teachers and grades for a school year")
	fmt.Println("  finalizevencidas [-fecha YYYY-MM-DD] - finalize active substitutions whose end date has passed")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	finalizeCmd := flag.NewFlagSet("finalizevencidas", flag.ExitOnError)
	finalizeDate := finalizeCmd.String("fecha", "", "The cutoff date. Defaults to today.")

	availableCmd := flag.NewFlagSet("disponibles", flag.ExitOnError)
	availableCiclo := availableCmd.Int("ciclo", 0, "The school year to check availability for.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seed":
		return cli.seed()
	case "disponibles":
		if err := availableCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *availableCiclo == 0 {
			availableCmd.Usage()
			return errHelp
		}
		return cli.listAvailable(*availableCiclo)
	case "finalizevencidas":
		if err := finalizeCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.finalizeExpired(*finalizeDate)
	default:
		cli.printUsage()
		return errHelp
	}
}
