package echoapi

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/crosales/comedor/core"
	"github.com/crosales/comedor/core/assignment"
)

type assignmentApi struct {
	svc *assignment.Service
}

func registerAssignmentAPI(g *echo.Group, svc *assignment.Service) {
	api := assignmentApi{svc: svc}

	ag := g.Group("/docente-grados")

	ag.GET("", api.query)
	ag.GET("/docentes-disponibles", api.queryAvailableTeachers)
	ag.GET("/grados-disponibles", api.queryAvailableGrades)
	ag.POST("", api.create)

	// detail endpoints
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/historial", api.queryHistory)

	// the composite natural key (id + teacher + grade) addresses mutations
	ag.PUT("/:id/:teacherID/:gradeName", api.reassign)
	ag.DELETE("/:id/:teacherID/:gradeName", api.destroy)
}

// Handlers

func (api *assignmentApi) query(ctx echo.Context) error {
	var filter assignment.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	asgs, err := api.svc.Filter(filter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) queryAvailableTeachers(ctx echo.Context) error {
	ciclo, err := cicloLectivoParam(ctx)
	if err != nil {
		return err
	}
	teachers, err := api.svc.AvailableTeachers(ciclo)
	if err != nil {
		return errors.Wrap(err, "querying available teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *assignmentApi) queryAvailableGrades(ctx echo.Context) error {
	ciclo, err := cicloLectivoParam(ctx)
	if err != nil {
		return err
	}
	grades, err := api.svc.AvailableGrades(ciclo)
	if err != nil {
		return errors.Wrap(err, "querying available grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	asg, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	asg, err := api.svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting assignment")
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) queryHistory(ctx echo.Context) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	entries, err := api.svc.History(id)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "querying assignment history")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *assignmentApi) reassign(ctx echo.Context) error {
	id, teacherID, gradeName, err := compositeKeyParams(ctx)
	if err != nil {
		return err
	}
	var data assignment.Reassignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Reassignment")
	}
	asg, err := api.svc.Reassign(id, teacherID, gradeName, data)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	id, teacherID, gradeName, err := compositeKeyParams(ctx)
	if err != nil {
		return err
	}
	deleted, err := api.svc.Delete(id, teacherID, gradeName)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if !deleted {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Helpers

func uuidParam(ctx echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		return uuid.Nil, core.NewValidationError(err, core.FieldError{Field: name, Error: "invalid id"})
	}
	return id, nil
}

func compositeKeyParams(ctx echo.Context) (id, teacherID uuid.UUID, gradeName string, err error) {
	if id, err = uuidParam(ctx, "id"); err != nil {
		return
	}
	if teacherID, err = uuidParam(ctx, "teacherID"); err != nil {
		return
	}
	gradeName = ctx.Param("gradeName")
	return
}

func cicloLectivoParam(ctx echo.Context) (int, error) {
	raw := core.CleanString(ctx.QueryParam("ciclo_lectivo"))
	if raw == "" {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "ciclo_lectivo", Error: "this parameter is required"})
	}
	ciclo, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewValidationError(err, core.FieldError{Field: "ciclo_lectivo", Error: "must be an integer year"})
	}
	return ciclo, nil
}
