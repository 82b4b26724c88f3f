package echoapi

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kairosacademy/enrollment/core"
	"github.com/kairosacademy/enrollment/core/enrollment"
)

const adminPasswordHeader = "X-Admin-Password"

type adminApi struct {
	svc    *enrollment.Service
	logger core.Logger
}

func registerAdminAPI(g *echo.Group, deps ServerDeps) {
	api := adminApi{
		svc:    deps.AppSvc,
		logger: deps.Logger,
	}

	ag := g.Group("/admin", adminPasswordMiddleware(deps.Conf.AdminPassword))
	ag.GET("/applications", api.query)
	ag.GET("/applications/export", api.export)
}

// adminPasswordMiddleware guards the admin surface with the shared password
// from configuration. An empty configured password locks the surface down
// entirely.
func adminPasswordMiddleware(password string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if password == "" {
				return errHttpForbidden
			}
			provided := ctx.Request().Header.Get(adminPasswordHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(password)) != 1 {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// Handlers

func (api *adminApi) query(ctx echo.Context) error {
	records, err := api.svc.FetchAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "fetching applications")
	}
	if records == nil {
		records = []enrollment.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *adminApi) export(ctx echo.Context) error {
	filename, content, err := api.svc.ExportCSV(ctx.Request().Context())
	if err != nil {
		if errors.Cause(err) == enrollment.ErrNoRecords {
			return err
		}
		return errors.Wrap(err, "exporting applications")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	return ctx.Blob(http.StatusOK, "text/csv", []byte(content))
}
