package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/pkg/media"
	"github.com/labstack/echo/v4"
)

const (
	defaultLimit = 20
	maxLimit     = 50
)

// toHTTPError maps service and storage errors onto HTTP statuses
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errs.KindForbidden, errs.KindBanned:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errs.KindConflict:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errs.KindInvalidInput:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, media.ErrUnsupportedType), errors.Is(err, media.ErrInvalidName):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, media.ErrTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, media.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// currentPrincipal returns the caller resolved by the auth middleware
func currentPrincipal(c echo.Context) (models.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.ID == 0 {
		return models.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return p, nil
}

func idParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// pageQuery reads page and limit query params, clamping them like every list endpoint does
func pageQuery(c echo.Context) (services.Page, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return services.Page{Limit: limit, Offset: (page - 1) * limit}, page
}

// bind decodes the request body; validation happens in the services
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return nil
}

// pageMeta describes the returned page. Totals are not counted, so hasNextPage is true whenever the page is full.
func pageMeta(p services.Page, page, n int) echo.Map {
	return echo.Map{
		"currentPage":     page,
		"itemsPerPage":    p.Limit,
		"hasNextPage":     n == p.Limit,
		"hasPreviousPage": page > 1,
	}
}
