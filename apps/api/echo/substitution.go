package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/crosales/comedor/core/assignment"
	"github.com/crosales/comedor/core/substitution"
)

type substitutionApi struct {
	svc *substitution.Service
}

func registerSubstitutionAPI(g *echo.Group, svc *substitution.Service) {
	api := substitutionApi{svc: svc}

	sg := g.Group("/reemplazo-docentes")

	sg.GET("", api.query)
	sg.GET("/suplentes-disponibles", api.queryAvailableSubstitutes)
	sg.GET("/docentes-titulares", api.queryTitulars)
	sg.GET("/options", api.options)
	sg.POST("", api.create)

	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.PATCH("/:id/finalizar", api.finalize)
	sg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *substitutionApi) query(ctx echo.Context) error {
	var filter substitution.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	subs, err := api.svc.Filter(filter)
	if err != nil {
		return errors.Wrap(err, "querying substitutions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *substitutionApi) queryAvailableSubstitutes(ctx echo.Context) error {
	teachers, err := api.svc.AvailableSubstitutes()
	if err != nil {
		return errors.Wrap(err, "querying available substitutes")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *substitutionApi) queryTitulars(ctx echo.Context) error {
	ciclo, err := cicloLectivoParam(ctx)
	if err != nil {
		return err
	}
	asgs, err := api.svc.TitularAssignments(ciclo)
	if err != nil {
		return errors.Wrap(err, "querying titular assignments")
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *substitutionApi) options(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"motivos": api.svc.ReasonOptions(),
		"estados": api.svc.StatusOptions(),
	})
}

func (api *substitutionApi) create(ctx echo.Context) error {
	var data substitution.NewSubstitution
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubstitution")
	}
	sub, err := api.svc.Create(data)
	if err != nil {
		// the target assignment may be the missing record
		if cause := errors.Cause(err); cause == substitution.ErrNotFound || cause == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *substitutionApi) retrieve(ctx echo.Context) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	sub, err := api.svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == substitution.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting substitution")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *substitutionApi) update(ctx echo.Context) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	var data substitution.UpdateSubstitution
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubstitution")
	}
	sub, err := api.svc.Update(id, data)
	if err != nil {
		if errors.Cause(err) == substitution.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *substitutionApi) finalize(ctx echo.Context) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	var data substitution.FinalizeSubstitution
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FinalizeSubstitution")
	}
	sub, err := api.svc.Finalize(id, data)
	if err != nil {
		if errors.Cause(err) == substitution.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *substitutionApi) destroy(ctx echo.Context) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	deleted, err := api.svc.Delete(id)
	if err != nil {
		return errors.Wrap(err, "deleting substitution")
	}
	if !deleted {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}
