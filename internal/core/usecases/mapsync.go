package usecases

import (
	"math"

	"github.com/samirrijal/walkies/internal/core/domain"
)

const routeLineWidth = 5

// MapOptions configures camera placement.
type MapOptions struct {
	Fallback     domain.GeoPoint
	FocusZoom    float64
	OverviewZoom float64
	RecentreZoom float64
}

// DefaultMapOptions centres on London.
func DefaultMapOptions() MapOptions {
	return MapOptions{
		Fallback:     domain.GeoPoint{Lat: 51.5072, Lng: -0.1276},
		FocusZoom:    16,
		OverviewZoom: 12,
		RecentreZoom: 15,
	}
}

// MapInput is everything the map view is derived from.
type MapInput struct {
	Spaces       []domain.Space // visible spaces, already filtered
	Focused      *domain.Space
	Checked      []string
	UserLocation *domain.GeoPoint
	Route        *domain.RouteData
	Recentred    bool
}

// MapSynchronizer derives the desired map view from session state.
type MapSynchronizer struct {
	opts MapOptions
}

// NewMapSynchronizer creates a MapSynchronizer.
func NewMapSynchronizer(opts MapOptions) *MapSynchronizer {
	return &MapSynchronizer{opts: opts}
}

// Options returns the camera settings.
func (m *MapSynchronizer) Options() MapOptions { return m.opts }

// InputFor collects the map input from a session.
func (m *MapSynchronizer) InputFor(s *domain.Session, recentred bool) MapInput {
	in := MapInput{
		Spaces:       s.VisibleSpaces(),
		Checked:      s.Selection.CheckedIDs,
		UserLocation: s.Location,
		Route:        s.Route,
		Recentred:    recentred,
	}
	if s.Selection.FocusedID != nil {
		if sp, ok := s.Catalog.Get(*s.Selection.FocusedID); ok {
			in.Focused = &sp
		}
	}
	return in
}

// Compute returns the map view for in.
func (m *MapSynchronizer) Compute(in MapInput) domain.MapView {
	view := domain.MapView{
		Camera:  m.camera(in),
		Markers: make([]domain.Marker, 0, len(in.Spaces)+1),
	}

	checked := make(map[string]bool, len(in.Checked))
	for _, id := range in.Checked {
		checked[id] = true
	}
	focusedID := ""
	if in.Focused != nil {
		focusedID = in.Focused.ID
	}

	for _, s := range in.Spaces {
		mk := domain.Marker{
			ID:       s.ID,
			Kind:     domain.MarkerSpace,
			Position: s.Location,
			Style:    domain.StyleDefault,
			Color:    domain.ColorSpace,
			Label:    s.Name,
			Popup:    popupText(s),
		}
		switch {
		case s.ID == focusedID:
			mk.Style = domain.StyleFocused
			mk.Color = domain.ColorSpaceFocused
			mk.PopupOpen = true
		case checked[s.ID]:
			mk.Style = domain.StyleChecked
			mk.Color = domain.ColorSpaceChecked
		}
		view.Markers = append(view.Markers, mk)
	}

	if in.UserLocation != nil {
		view.Markers = append(view.Markers, domain.Marker{
			ID:       domain.UserMarkerID,
			Kind:     domain.MarkerUser,
			Position: *in.UserLocation,
			Style:    domain.StyleUser,
			Color:    domain.ColorUser,
			Label:    "You are here",
		})
	}

	if in.Route != nil && len(in.Route.Geometry.Coordinates) > 0 {
		view.Route = &domain.RouteOverlay{
			Mode:     in.Route.Mode,
			Color:    domain.RouteColors[in.Route.Mode],
			Width:    routeLineWidth,
			Geometry: in.Route.Geometry,
			Summary:  in.Route.Summary(),
		}
	}
	return view
}

func (m *MapSynchronizer) camera(in MapInput) domain.Camera {
	if in.Route != nil && len(in.Route.Geometry.Coordinates) > 0 {
		b := in.Route.Geometry.Bounds()
		pad := domain.RoutePadding
		return domain.Camera{
			Center:  b.Center(),
			Zoom:    fitZoom(b, m.opts.FocusZoom),
			Fit:     &b,
			Padding: &pad,
		}
	}
	switch {
	case in.Focused != nil:
		return domain.Camera{Center: in.Focused.Location, Zoom: m.opts.FocusZoom}
	case in.UserLocation != nil && in.Recentred:
		return domain.Camera{Center: *in.UserLocation, Zoom: m.opts.RecentreZoom}
	case in.UserLocation != nil:
		return domain.Camera{Center: *in.UserLocation, Zoom: m.opts.FocusZoom}
	default:
		return domain.Camera{Center: m.opts.Fallback, Zoom: m.opts.OverviewZoom}
	}
}

// fitZoom estimates the zoom that shows b, capped at max.
func fitZoom(b domain.Bounds, max float64) float64 {
	span := math.Max(b.MaxLat-b.MinLat, b.MaxLng-b.MinLng)
	if span <= 0 {
		return max
	}
	z := math.Floor(math.Log2(360 / span))
	return math.Max(1, math.Min(z, max))
}

func popupText(s domain.Space) string {
	if d := s.DistanceText(); d != "" {
		return s.Name + " · " + d
	}
	return s.Name
}
