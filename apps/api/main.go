package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/crosales/comedor/apps/api/echo"
	"github.com/crosales/comedor/core"
	"github.com/crosales/comedor/core/assignment"
	"github.com/crosales/comedor/core/substitution"
	emailsvc "github.com/crosales/comedor/services/email"
	logsvc "github.com/crosales/comedor/services/logger"
	optionsvc "github.com/crosales/comedor/services/options"
	"github.com/crosales/comedor/storage/database"
	sqlxrepos "github.com/crosales/comedor/storage/database/sqlx"
)

func main() {
	std := stdlog.New(os.Stderr, "API : ", stdlog.LstdFlags|stdlog.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		std.Fatal(err)
	}
	rawDB, err := database.Open(core.Conf)
	if err != nil {
		std.Fatal(err)
	}
	defer rawDB.Close()
	if err = database.Migrate(rawDB); err != nil {
		std.Fatal(err)
	}
	db := sqlx.NewDb(rawDB, "postgres")

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService()
	}

	asgRepo := sqlxrepos.NewAssignmentRepository(db)
	directory := sqlxrepos.NewTeacherDirectory(db)
	catalog := sqlxrepos.NewGradeCatalog(db)
	asgSvc := assignment.NewService(asgRepo, directory, catalog)
	subSvc := substitution.NewService(
		sqlxrepos.NewSubstitutionRepository(db),
		asgRepo,
		directory,
		optionsvc.NewService(core.Conf),
		mailSvc,
	)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:         core.Conf.Server.Address(),
			Logger:          logger,
			AssignmentSvc:   asgSvc,
			SubstitutionSvc: subSvc,
		},
	)
	go app.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.ShutdownTimeout)
	defer cancel()
	if err = app.Stop(ctx); err != nil {
		std.Fatal(err)
	}
}
