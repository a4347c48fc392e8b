package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gonum.org/v1/plot/vg"

	"github.com/spektr-org/painel/dashboard"
	"github.com/spektr-org/painel/export"
	"github.com/spektr-org/painel/render"
	"github.com/spektr-org/painel/report"
	"github.com/spektr-org/painel/schema"
)

var errPageNotFound = NewCodedError(http.StatusNotFound, "página não encontrada", nil)

// SelectionQuery binds the filter controls from the query string.
type SelectionQuery struct {
	Unidade         string `query:"unidade" validate:"max=200"`
	Categoria       string `query:"categoria" validate:"max=200"`
	Subarea         string `query:"subarea" validate:"max=200"`
	TipoAtendimento string `query:"tipo_atendimento" validate:"max=200"`
	TipoServico     string `query:"tipo_servico" validate:"max=200"`
}

func (q SelectionQuery) selection() dashboard.Selection {
	return dashboard.Selection{
		schema.Unit:           q.Unidade,
		schema.Category:       q.Categoria,
		schema.Subarea:        q.Subarea,
		schema.AttendanceType: q.TipoAtendimento,
		schema.ServiceType:    q.TipoServico,
	}
}

// ChartQuery adds the image size in pixels.
type ChartQuery struct {
	SelectionQuery
	Width  int `query:"w" validate:"omitempty,min=200,max=4000"`
	Height int `query:"h" validate:"omitempty,min=150,max=4000"`
}

func bindSelection(ctx echo.Context, q interface{}) error {
	if err := ctx.Bind(q); err != nil {
		return NewCodedError(http.StatusBadRequest, "parâmetros inválidos", err)
	}
	return ctx.Validate(q)
}

func (svc *APIService) page(ctx echo.Context) (dashboard.Page, error) {
	p, ok := dashboard.FindPage(svc.cfg.Pages, ctx.Param("slug"))
	if !ok {
		return dashboard.Page{}, errPageNotFound
	}
	return p, nil
}

func attachment(ctx echo.Context, name string) {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
}

// ============================================================================
// HANDLERS
// ============================================================================

func (svc *APIService) Health(ctx echo.Context) error {
	body := map[string]interface{}{"status": "ok"}
	ds, err := svc.current()
	if err != nil {
		body["dataset"] = err.Error()
	} else {
		body["records"] = ds.Len()
		body["loadedAt"] = ds.LoadedAt
	}
	return ctx.JSON(http.StatusOK, body)
}

func (svc *APIService) ListPages(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, svc.cfg.Pages)
}

func (svc *APIService) GetSchema(ctx echo.Context) error {
	ds, err := svc.current()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"schema":  schema.ServiceVisits(),
		"source":  ds.Source,
		"sheet":   ds.Sheet,
		"records": ds.Len(),
		"profile": ds.Profile,
	})
}

func (svc *APIService) ListSubareas(ctx echo.Context) error {
	ds, err := svc.current()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dashboard.SubareaCards(ds.View(), svc.cfg.Pages, svc.cfg.DashboardOptions()...))
}

func (svc *APIService) ReloadDataset(ctx echo.Context) error {
	if err := svc.LoadDataset(ctx.Request().Context()); err != nil {
		return err
	}
	return svc.Health(ctx)
}

func (svc *APIService) GetOptions(ctx echo.Context) error {
	var q SelectionQuery
	if err := bindSelection(ctx, &q); err != nil {
		return err
	}
	p, err := svc.page(ctx)
	if err != nil {
		return err
	}
	ds, err := svc.current()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dashboard.FilterOptions(p, p.Base(ds.View()), q.selection(), svc.cfg.DashboardOptions()...))
}

func (svc *APIService) GetDashboard(ctx echo.Context) error {
	var q SelectionQuery
	if err := bindSelection(ctx, &q); err != nil {
		return err
	}
	p, err := svc.page(ctx)
	if err != nil {
		return err
	}
	ds, err := svc.current()
	if err != nil {
		return err
	}
	res, err := dashboard.Execute(ctx.Request().Context(), p, ds.View(), q.selection(), svc.cfg.DashboardOptions()...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (svc *APIService) GetPreview(ctx echo.Context) error {
	if _, err := svc.page(ctx); err != nil {
		return err
	}
	ds, err := svc.current()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dashboard.Preview(ds.View(), svc.cfg.DashboardOptions()...))
}

func (svc *APIService) ExportCSV(ctx echo.Context) error {
	return svc.export(ctx, "csv", export.CSVContentType)
}

func (svc *APIService) ExportXLSX(ctx echo.Context) error {
	return svc.export(ctx, "xlsx", export.XLSXContentType)
}

func (svc *APIService) export(ctx echo.Context, ext, contentType string) error {
	var q SelectionQuery
	if err := bindSelection(ctx, &q); err != nil {
		return err
	}
	p, err := svc.page(ctx)
	if err != nil {
		return err
	}
	ds, err := svc.current()
	if err != nil {
		return err
	}

	records := ds.Select(dashboard.Filtered(p, ds.View(), q.selection(), svc.cfg.DashboardOptions()...))
	var buf bytes.Buffer
	if ext == "csv" {
		err = export.CSV(&buf, records, schema.ServiceVisits())
	} else {
		err = export.XLSX(&buf, records, schema.ServiceVisits())
	}
	if err != nil {
		return err
	}

	attachment(ctx, export.FileName(p.ExportName, ext))
	return ctx.Blob(http.StatusOK, contentType, buf.Bytes())
}

func (svc *APIService) GetChartPNG(ctx echo.Context) error {
	var q ChartQuery
	if err := bindSelection(ctx, &q); err != nil {
		return err
	}
	p, err := svc.page(ctx)
	if err != nil {
		return err
	}
	ds, err := svc.current()
	if err != nil {
		return err
	}

	key := strings.TrimSuffix(ctx.Param("chart"), ".png")
	if _, ok := p.Chart(key, svc.cfg.Dashboard.TopN); !ok {
		return NewCodedError(http.StatusNotFound, fmt.Sprintf("gráfico %q não existe nesta página", key), nil)
	}
	res, err := dashboard.Visual(ctx.Request().Context(), p, key, ds.View(), q.selection(), svc.cfg.DashboardOptions()...)
	if err != nil {
		return err
	}
	if res.ChartConfig == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	opts := svc.cfg.RenderOptions()
	if q.Width > 0 && q.Height > 0 {
		opts = append(opts, render.WithSize(pixels(q.Width), pixels(q.Height)))
	}
	var buf bytes.Buffer
	if err := render.PNG(&buf, res.ChartConfig, opts...); err != nil {
		return err
	}
	return ctx.Blob(http.StatusOK, render.ContentType, buf.Bytes())
}

func (svc *APIService) GetReport(ctx echo.Context) error {
	var q SelectionQuery
	if err := bindSelection(ctx, &q); err != nil {
		return err
	}
	p, err := svc.page(ctx)
	if err != nil {
		return err
	}
	ds, err := svc.current()
	if err != nil {
		return err
	}
	res, err := dashboard.Execute(ctx.Request().Context(), p, ds.View(), q.selection(), svc.cfg.DashboardOptions()...)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.PDF(&buf, res, svc.cfg.ReportOptions()...); err != nil {
		return err
	}
	attachment(ctx, report.FileName(p))
	return ctx.Blob(http.StatusOK, report.ContentType, buf.Bytes())
}

// pixels converts a pixel count at the PNG default of 96 dpi to a length.
func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / 96
}
