package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/crosales/comedor/core"
	"github.com/crosales/comedor/core/assignment"
	"github.com/crosales/comedor/core/substitution"
	emailsvc "github.com/crosales/comedor/services/email"
	optionsvc "github.com/crosales/comedor/services/options"
	"github.com/crosales/comedor/storage/database"
	sqlxrepos "github.com/crosales/comedor/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	rawDB, err := database.Open(core.Conf)
	errAndDie(err)
	defer rawDB.Close()
	errAndDie(rawDB.Ping())
	db := sqlx.NewDb(rawDB, "postgres")

	asgRepo := sqlxrepos.NewAssignmentRepository(db)
	directory := sqlxrepos.NewTeacherDirectory(db)
	subSvc := substitution.NewService(
		sqlxrepos.NewSubstitutionRepository(db),
		asgRepo,
		directory,
		optionsvc.NewService(core.Conf),
		emailsvc.NewConsoleService(),
	)
	asgSvc := assignment.NewService(asgRepo, directory, sqlxrepos.NewGradeCatalog(db))

	// start CLI
	cli := commandLine{
		db:     db,
		asgSvc: asgSvc,
		subSvc: subSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
