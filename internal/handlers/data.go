package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hg_store/internal/config"
	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/service/newsletter"
	"github.com/Skotchmaster/hg_store/internal/service/transfer"
)

const maxImportBytes = 10 << 20

type DataHandler struct {
	Transfer   *transfer.Service
	Newsletter *newsletter.List
}

// Export downloads every stored key, or only ?keys=a,b when given.
func (h *DataHandler) Export(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "data.export")

	var (
		body []byte
		err  error
	)
	if keys := config.CSV(c.QueryParam("keys")); len(keys) > 0 {
		body, err = h.Transfer.ExportSpecific(ctx, keys)
	} else {
		body, err = h.Transfer.Export(ctx)
	}
	if err != nil {
		return fail(c, l, "export_error", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="hg-store-export.json"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
}

func (h *DataHandler) Import(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "data.import")

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportBytes))
	if err != nil {
		return badRequest(c, l, "import_error", "could not read body")
	}

	res, err := h.Transfer.Import(ctx, body)
	if err != nil {
		return fail(c, l, "import_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *DataHandler) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "data.summary")

	sum, err := h.Transfer.Summary(ctx)
	if err != nil {
		return fail(c, l, "summary_error", err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *DataHandler) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "data.clear")

	if err := h.Transfer.ClearAll(ctx); err != nil {
		return fail(c, l, "clear_data_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *DataHandler) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "newsletter.subscribe")

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "subscribe_error", "invalid body")
	}
	if err := h.Newsletter.Subscribe(ctx, req.Email); err != nil {
		return fail(c, l, "subscribe_error", err)
	}
	return c.JSON(http.StatusCreated, Response{Status: "ok", Message: "Thank you for subscribing!"})
}
