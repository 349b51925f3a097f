package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/core/usecases"
)

// spaceResponse adds the rendered distance to a space.
type spaceResponse struct {
	domain.Space
	DistanceText string `json:"distance_text,omitempty"`
}

func toSpaceResponses(spaces []domain.Space) []spaceResponse {
	out := make([]spaceResponse, len(spaces))
	for i, s := range spaces {
		out[i] = spaceResponse{Space: s, DistanceText: s.DistanceText()}
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ---- Sessions ----

// CreateSessionHandler starts a new session seeded with the default spaces.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := deps.Sessions.Create(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/sessions/" + v.ID)
		return c.Status(fiber.StatusCreated).JSON(v)
	}
}

// GetSessionHandler returns a snapshot of a session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := deps.Sessions.Get(c.UserContext(), c.Params("sid"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(v)
	}
}

// DeleteSessionHandler ends a session.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Delete(c.UserContext(), c.Params("sid")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ---- Spaces ----

// ListSpacesHandler returns the visible spaces nearest first. The optional
// filters query replaces the session filters for this request only.
func ListSpacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var override domain.FilterSet
		if raw, ok := c.Queries()["filters"]; ok {
			fs, err := domain.ParseFilterSet(splitList(raw))
			if err != nil {
				return errFromDomain(c, err)
			}
			override = fs
		}

		spaces, err := deps.Sessions.ListSpaces(c.UserContext(), c.Params("sid"), override)
		if err != nil {
			return errFromDomain(c, err)
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(spaces)
		if offset >= total {
			spaces = nil
		} else {
			end := min(offset+limit, total)
			spaces = spaces[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		c.Set("Cache-Control", "no-store")
		return c.JSON(PaginatedResponse{Data: toSpaceResponses(spaces), Pagination: pg})
	}
}

// GetSpaceHandler returns one space.
func GetSpaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sp, err := deps.Sessions.GetSpace(c.UserContext(), c.Params("sid"), c.Params("spaceId"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(spaceResponse{Space: *sp, DistanceText: sp.DistanceText()})
	}
}

type addSpaceRequest struct {
	Name         string   `json:"name"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	LocationText string   `json:"location_text"`
	Fencing      string   `json:"fencing"`
	Bins         bool     `json:"bins"`
	Toilets      bool     `json:"toilets"`
	Coffee       bool     `json:"coffee"`
	Parking      bool     `json:"parking"`
}

// AddSpaceHandler adds a user-entered space located by coordinates or text.
func AddSpaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req addSpaceRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		sp, err := deps.Sessions.AddSpace(c.UserContext(), c.Params("sid"), usecases.AddSpaceInput{
			Name:         req.Name,
			Lat:          req.Lat,
			Lng:          req.Lng,
			LocationText: req.LocationText,
			Fencing:      req.Fencing,
			Bins:         req.Bins,
			Toilets:      req.Toilets,
			Coffee:       req.Coffee,
			Parking:      req.Parking,
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(spaceResponse{Space: *sp})
	}
}

type updateSpaceRequest struct {
	Name    *string  `json:"name"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Fencing *string  `json:"fencing"`
	Bins    *bool    `json:"bins"`
	Toilets *bool    `json:"toilets"`
	Coffee  *bool    `json:"coffee"`
	Parking *bool    `json:"parking"`
}

func (r updateSpaceRequest) patch() (domain.SpacePatch, error) {
	p := domain.SpacePatch{Name: r.Name, Bins: r.Bins, Toilets: r.Toilets, Coffee: r.Coffee, Parking: r.Parking}
	if (r.Lat == nil) != (r.Lng == nil) {
		return p, domain.NewUserError(domain.ErrValidation, domain.MsgInvalidCoordinates)
	}
	if r.Lat != nil {
		loc, err := domain.NewGeoPoint(*r.Lat, *r.Lng)
		if err != nil {
			return p, err
		}
		p.Location = &loc
	}
	if r.Fencing != nil {
		f, err := domain.ParseFencing(*r.Fencing)
		if err != nil {
			return p, err
		}
		p.Fencing = &f
	}
	return p, nil
}

// UpdateSpaceHandler edits a space. Absent fields are left unchanged.
func UpdateSpaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req updateSpaceRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		patch, err := req.patch()
		if err != nil {
			return errFromDomain(c, err)
		}
		sp, err := deps.Sessions.UpdateSpace(c.UserContext(), c.Params("sid"), c.Params("spaceId"), patch)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(spaceResponse{Space: *sp})
	}
}

// DeleteSpaceHandler removes one space.
func DeleteSpaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.RemoveSpace(c.UserContext(), c.Params("sid"), c.Params("spaceId")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RemoveSpacesHandler bulk-deletes the listed ids, or the checked spaces
// when no ids are given.
func RemoveSpacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := deps.Sessions.RemoveSpaces(c.UserContext(), c.Params("sid"), splitList(c.Query("ids")))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"removed": n})
	}
}

// ---- Filters ----

type filtersRequest struct {
	Filters []string `json:"filters"`
}

// SetFiltersHandler replaces the session's active filters.
func SetFiltersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req filtersRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		fs, err := domain.ParseFilterSet(req.Filters)
		if err != nil {
			return errFromDomain(c, err)
		}
		active, err := deps.Sessions.SetFilters(c.UserContext(), c.Params("sid"), fs)
		if err != nil {
			return errFromDomain(c, err)
		}
		if active == nil {
			active = []domain.Facility{}
		}
		return c.JSON(fiber.Map{"filters": active})
	}
}

// ---- Location ----

type locationRequest struct {
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Text   string   `json:"text"`
	Source string   `json:"source"`
}

// SetLocationHandler records the user's position from a device fix,
// manual coordinates or free text.
func SetLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		ctx, sid := c.UserContext(), c.Params("sid")

		if req.Lat == nil && req.Lng == nil {
			if strings.TrimSpace(req.Text) == "" {
				return errFromDomain(c, domain.NewUserError(domain.ErrValidation, domain.MsgInvalidCoordinates))
			}
			res, err := deps.Sessions.SetLocationFromText(ctx, sid, req.Text)
			if err != nil {
				return errFromDomain(c, err)
			}
			return c.JSON(res)
		}

		if req.Lat == nil || req.Lng == nil {
			return errFromDomain(c, domain.NewUserError(domain.ErrValidation, domain.MsgInvalidCoordinates))
		}
		p, err := domain.NewGeoPoint(*req.Lat, *req.Lng)
		if err != nil {
			return errFromDomain(c, err)
		}
		source := domain.SourceManual
		if req.Source == string(domain.SourceDevice) {
			source = domain.SourceDevice
		}
		if err := deps.Sessions.SetLocation(ctx, sid, p, source); err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(domain.Resolution{Point: p, Source: source})
	}
}

// ClearLocationHandler forgets the user's position.
func ClearLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.ClearLocation(c.UserContext(), c.Params("sid")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// LocationErrorHandler records a failed device geolocation attempt and
// answers with the notice the user should see.
func LocationErrorHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Kind string `json:"kind"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		kind := usecases.LocationErrorKind(req.Kind)
		switch kind {
		case usecases.LocationPermissionDenied, usecases.LocationUnavailable, usecases.LocationTimeout:
		default:
			return errBadRequest(c, "kind must be permission_denied, unavailable or timeout")
		}
		return errFromDomain(c, deps.Sessions.ReportLocationError(c.UserContext(), c.Params("sid"), kind))
	}
}

// ---- Selection ----

// CheckSpaceHandler adds a space to the checked set.
func CheckSpaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sel, err := deps.Sessions.Check(c.UserContext(), c.Params("sid"), c.Params("spaceId"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(sel)
	}
}

// UncheckSpaceHandler removes a space from the checked set.
func UncheckSpaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sel, err := deps.Sessions.Uncheck(c.UserContext(), c.Params("sid"), c.Params("spaceId"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(sel)
	}
}

// FocusHandler focuses a space. With toggle set a second focus clears it,
// matching a row click.
func FocusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			SpaceID string `json:"space_id"`
			Toggle  bool   `json:"toggle"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.SpaceID == "" {
			return errBadRequest(c, "space_id is required")
		}
		sel, err := deps.Sessions.Focus(c.UserContext(), c.Params("sid"), req.SpaceID, req.Toggle)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(sel)
	}
}

// UnfocusHandler clears the focus.
func UnfocusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sel, err := deps.Sessions.Unfocus(c.UserContext(), c.Params("sid"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(sel)
	}
}

// ---- Directions ----

type routeResponse struct {
	*domain.RouteData
	Summary string `json:"summary"`
}

// DirectionsHandler computes a route from the user to a space.
func DirectionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			SpaceID string `json:"space_id"`
			Mode    string `json:"mode"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.SpaceID == "" {
			return errBadRequest(c, "space_id is required")
		}
		mode, err := domain.ParseTravelMode(req.Mode)
		if err != nil {
			return errFromDomain(c, err)
		}
		route, err := deps.Sessions.RequestDirections(c.UserContext(), c.Params("sid"), req.SpaceID, mode)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(routeResponse{RouteData: route, Summary: route.Summary()})
	}
}

// ClearRouteHandler removes the route overlay.
func ClearRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.ClearRoute(c.UserContext(), c.Params("sid")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ---- Map ----

// MapViewHandler returns the desired map view and the surface state.
func MapViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, state, err := deps.Sessions.MapView(c.UserContext(), c.Params("sid"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(fiber.Map{"state": state, "view": view})
	}
}

// MountMapHandler creates the map surface.
func MountMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := deps.Sessions.MountMap(c.UserContext(), c.Params("sid"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"state": domain.SurfaceLoading, "view": view})
	}
}

// MapLoadedHandler marks the surface ready and returns the initial diff.
func MapLoadedHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		diff, err := deps.Sessions.MapLoaded(c.UserContext(), c.Params("sid"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(diff)
	}
}

// RecentreHandler points the camera back at the user.
func RecentreHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, sid := c.UserContext(), c.Params("sid")
		if err := deps.Sessions.Recentre(ctx, sid); err != nil {
			return errFromDomain(c, err)
		}
		view, _, err := deps.Sessions.MapView(ctx, sid)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(view.Camera)
	}
}

// UnmountMapHandler tears the surface down.
func UnmountMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := deps.Sessions.UnmountMap(c.UserContext(), c.Params("sid"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"released": n})
	}
}

// ---- Navigation ----

// StartNavigationHandler opens a position watch.
func StartNavigationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Navigation.Start(c.UserContext(), c.Params("sid")); err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"navigating": true})
	}
}

// ReportPositionHandler feeds a device fix into the watch.
func ReportPositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lng == nil {
			return errFromDomain(c, domain.NewUserError(domain.ErrValidation, domain.MsgInvalidCoordinates))
		}
		p, err := domain.NewGeoPoint(*req.Lat, *req.Lng)
		if err != nil {
			return errFromDomain(c, err)
		}
		if err := deps.Navigation.ReportPosition(c.UserContext(), c.Params("sid"), p); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// StopNavigationHandler closes the position watch.
func StopNavigationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Navigation.Stop(c.UserContext(), c.Params("sid")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ---- Stateless ----

// ResolveHandler turns a map link, postcode or place name into coordinates.
func ResolveHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		text := c.Query("text")
		if strings.TrimSpace(text) == "" {
			return errBadRequest(c, "text query parameter is required")
		}
		if len(text) > 500 {
			return errBadRequest(c, "text too long (max 500 characters)")
		}
		var (
			res domain.Resolution
			ok  bool
		)
		if deps.Resolver != nil {
			res, ok = deps.Resolver.Resolve(c.UserContext(), text)
		} else {
			res, ok = usecases.ParseCoordinateLink(text)
		}
		if !ok {
			return errFromDomain(c, domain.NewUserError(domain.ErrLocationNotFound, domain.MsgLocationNotFound))
		}
		return c.JSON(res)
	}
}

const legendCookie = "legendExpanded"

type legendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

var legendEntries = []legendEntry{
	{"Space", domain.ColorSpace},
	{"Selected", domain.ColorSpaceChecked},
	{"Focused", domain.ColorSpaceFocused},
	{"You", domain.ColorUser},
}

// GetLegendHandler returns the legend and whether the user left it expanded.
func GetLegendHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "private, no-cache")
		return c.JSON(fiber.Map{
			"expanded": c.Cookies(legendCookie) == "true",
			"entries":  legendEntries,
		})
	}
}

// SetLegendHandler stores the legend preference in a long-lived cookie.
func SetLegendHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Expanded *bool `json:"expanded"`
		}
		if err := c.BodyParser(&req); err != nil || req.Expanded == nil {
			return errBadRequest(c, "expanded is required")
		}
		value := "false"
		if *req.Expanded {
			value = "true"
		}
		c.Cookie(&fiber.Cookie{
			Name:     legendCookie,
			Value:    value,
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(fiber.Map{"expanded": *req.Expanded})
	}
}
