package echoapi

import (
	"io"
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kairosacademy/enrollment/core"
	"github.com/kairosacademy/enrollment/core/enrollment"
)

const (
	draftCookieName   = "kairos_draft"
	draftCookieMaxAge = 30 * 24 * time.Hour
)

type applicationApi struct {
	svc        *enrollment.Service
	drafts     enrollment.DraftStore
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

func registerApplicationAPI(g *echo.Group, deps ServerDeps) {
	api := applicationApi{
		svc:        deps.AppSvc,
		drafts:     deps.Drafts,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ag := g.Group("/applications")
	ag.POST("", api.start)

	dg := ag.Group("/draft")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.reset)
	dg.PATCH("/sections/:section", api.updateSection)
	dg.POST("/medications", api.addMedication)
	dg.DELETE("/medications/:index", api.removeMedication)
	dg.POST("/advance", api.advance)
	dg.POST("/retreat", api.retreat)
	dg.PUT("/step", api.goTo)
	dg.POST("/payment", api.startPayment)
	dg.POST("/submit", api.submit)
}

// form resolves the caller's draft from the draft cookie, minting a new
// draft ID when none is present yet.
func (api *applicationApi) form(ctx echo.Context) *enrollment.Form {
	var id string
	if c, err := ctx.Cookie(draftCookieName); err == nil && c.Value != "" {
		id = c.Value
	} else {
		id = uuid.NewString()
		ctx.SetCookie(&http.Cookie{
			Name:     draftCookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(draftCookieMaxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return enrollment.LoadForm(ctx.Request().Context(), id, api.drafts, api.logger)
}

// Handlers

func (api *applicationApi) start(ctx echo.Context) error {
	form := api.form(ctx)
	return ctx.JSON(http.StatusCreated, newDraftResponse(form))
}

func (api *applicationApi) retrieve(ctx echo.Context) error {
	form := api.form(ctx)
	return ctx.JSON(http.StatusOK, newDraftResponse(form))
}

func (api *applicationApi) updateSection(ctx echo.Context) error {
	form := api.form(ctx)

	partial, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading section body")
	}
	if err := form.UpdateSection(ctx.Request().Context(), ctx.Param("section"), partial); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newDraftResponse(form))
}

func (api *applicationApi) addMedication(ctx echo.Context) error {
	var data MedicationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MedicationRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	form := api.form(ctx)
	form.AddMedication(ctx.Request().Context(), enrollment.Medication{
		Name:      data.Name,
		Dosage:    data.Dosage,
		Frequency: data.Frequency,
	})
	return ctx.JSON(http.StatusOK, newDraftResponse(form))
}

func (api *applicationApi) removeMedication(ctx echo.Context) error {
	var params struct {
		Index int `param:"index"`
	}
	if err := ctx.Bind(&params); err != nil {
		return core.NewValidationError(errors.New("invalid medication index"))
	}

	form := api.form(ctx)
	form.RemoveMedication(ctx.Request().Context(), params.Index)
	return ctx.JSON(http.StatusOK, newDraftResponse(form))
}

func (api *applicationApi) advance(ctx echo.Context) error {
	form := api.form(ctx)
	if err := form.Gate(); err != nil {
		return err
	}
	form.Advance(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, newDraftResponse(form))
}

func (api *applicationApi) retreat(ctx echo.Context) error {
	form := api.form(ctx)
	form.Retreat(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, newDraftResponse(form))
}

func (api *applicationApi) goTo(ctx echo.Context) error {
	var data StepRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StepRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	form := api.form(ctx)
	form.GoTo(ctx.Request().Context(), enrollment.Step(*data.Step))
	return ctx.JSON(http.StatusOK, newDraftResponse(form))
}

func (api *applicationApi) reset(ctx echo.Context) error {
	form := api.form(ctx)
	form.Reset(ctx.Request().Context())
	return ctx.NoContent(http.StatusNoContent)
}

func (api *applicationApi) startPayment(ctx echo.Context) error {
	var data PaymentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	form := api.form(ctx)
	payment, err := api.svc.StartPayment(ctx.Request().Context(), form, enrollment.PaymentMethod(data.Method))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, PaymentResponse{
		Ref:         payment.Ref,
		RedirectURL: payment.RedirectURL,
		Completed:   payment.Completed,
		State:       string(form.App().Submission.State),
	})
}

func (api *applicationApi) submit(ctx echo.Context) error {
	form := api.form(ctx)
	if err := api.svc.ConfirmPayment(ctx.Request().Context(), form); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newDraftResponse(form))
}

// Request / Response serializers

type (
	DraftResponse struct {
		ID          string                 `json:"id"`
		Step        int                    `json:"step"`
		StepName    string                 `json:"stepName"`
		TotalSteps  int                    `json:"totalSteps"`
		Application enrollment.Application `json:"application"`
	}

	MedicationRequest struct {
		Name      string `json:"name" validate:"required"`
		Dosage    string `json:"dosage"`
		Frequency string `json:"frequency"`
	}

	StepRequest struct {
		Step *int `json:"step" validate:"required"`
	}

	PaymentRequest struct {
		Method string `json:"method" validate:"required"`
	}

	PaymentResponse struct {
		Ref         string `json:"ref"`
		RedirectURL string `json:"redirectUrl,omitempty"`
		Completed   bool   `json:"completed"`
		State       string `json:"state"`
	}
)

func newDraftResponse(form *enrollment.Form) DraftResponse {
	app := form.App()
	return DraftResponse{
		ID:          form.ID(),
		Step:        int(app.CurrentStep),
		StepName:    app.CurrentStep.Name(),
		TotalSteps:  enrollment.StepCount(),
		Application: app,
	}
}

func (mr *MedicationRequest) Validate(validate *validator.Validate) error {
	mr.Name = core.CleanString(mr.Name)
	mr.Dosage = core.CleanString(mr.Dosage)
	mr.Frequency = core.CleanString(mr.Frequency)
	return validate.Struct(mr)
}

func (sr *StepRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(sr)
}

func (pr *PaymentRequest) Validate(validate *validator.Validate) error {
	pr.Method = core.CleanString(pr.Method)
	return validate.Struct(pr)
}
