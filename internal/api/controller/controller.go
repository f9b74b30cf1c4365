package controller

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/service/auth"
	"github.com/ougirez/restorank/internal/service/contacts"
	"github.com/ougirez/restorank/internal/service/curation"
	"github.com/ougirez/restorank/internal/service/providers"
	"github.com/ougirez/restorank/internal/service/ranking"
	"github.com/ougirez/restorank/internal/service/region"
	"github.com/ougirez/restorank/internal/service/reviews"
)

type Controller struct {
	authService      *auth.Service
	regionService    *region.Service
	rankingService   *ranking.Service
	reviewsService   *reviews.Service
	curationService  *curation.Service
	providersService *providers.Service
	contactsService  *contacts.Service
}

func NewController(
	authService *auth.Service,
	regionService *region.Service,
	rankingService *ranking.Service,
	reviewsService *reviews.Service,
	curationService *curation.Service,
	providersService *providers.Service,
	contactsService *contacts.Service,
) *Controller {
	return &Controller{
		authService:      authService,
		regionService:    regionService,
		rankingService:   rankingService,
		reviewsService:   reviewsService,
		curationService:  curationService,
		providersService: providersService,
		contactsService:  contactsService,
	}
}

func paramID(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, constants.ErrBadRequest
	}
	return id, nil
}

func queryInt(ctx echo.Context, name string, def int) int {
	v, err := strconv.Atoi(ctx.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}
