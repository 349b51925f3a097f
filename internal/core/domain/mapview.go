package domain

import "sort"

// Marker colours and route colours by mode.
const (
	ColorSpace        = "#2B5B2F"
	ColorSpaceChecked = "#22C55E"
	ColorSpaceFocused = "#DD6616"
	ColorUser         = "#31A6FF"
	ColorUserStroke   = "#2F80EA"
)

// RouteColors maps a travel mode to its line colour.
var RouteColors = map[TravelMode]string{
	ModeWalking: "#006947",
	ModeDriving: "#2F80EA",
	ModeTransit: "#7B3FE4",
}

// MarkerKind distinguishes space markers from the user marker.
type MarkerKind string

const (
	MarkerSpace MarkerKind = "space"
	MarkerUser  MarkerKind = "user"
)

// MarkerStyle is the visual state of a space marker.
type MarkerStyle string

const (
	StyleDefault MarkerStyle = "default"
	StyleChecked MarkerStyle = "checked"
	StyleFocused MarkerStyle = "focused"
	StyleUser    MarkerStyle = "user"
)

// UserMarkerID is the stable key of the user-location marker.
const UserMarkerID = "user"

// Marker is one point on the map keyed by a stable ID.
type Marker struct {
	ID        string      `json:"id"`
	Kind      MarkerKind  `json:"kind"`
	Position  GeoPoint    `json:"position"`
	Style     MarkerStyle `json:"style"`
	Color     string      `json:"color"`
	Label     string      `json:"label"`
	Popup     string      `json:"popup,omitempty"`
	PopupOpen bool        `json:"popup_open"`
}

// Padding is screen padding in pixels used when fitting bounds.
type Padding struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// RoutePadding is applied when the camera fits a route.
var RoutePadding = Padding{Top: 100, Bottom: 100, Left: 50, Right: 50}

// Camera is where the map looks. When Fit is set the client fits those
// bounds with Padding and Center/Zoom are advisory.
type Camera struct {
	Center  GeoPoint `json:"center"`
	Zoom    float64  `json:"zoom"`
	Fit     *Bounds  `json:"fit,omitempty"`
	Padding *Padding `json:"padding,omitempty"`
}

func (c Camera) equal(o Camera) bool {
	if c.Center != o.Center || c.Zoom != o.Zoom {
		return false
	}
	if (c.Fit == nil) != (o.Fit == nil) || (c.Fit != nil && *c.Fit != *o.Fit) {
		return false
	}
	if (c.Padding == nil) != (o.Padding == nil) || (c.Padding != nil && *c.Padding != *o.Padding) {
		return false
	}
	return true
}

// RouteOverlay is the drawn route line.
type RouteOverlay struct {
	Mode     TravelMode    `json:"mode"`
	Color    string        `json:"color"`
	Width    int           `json:"width"`
	Geometry GeoLineString `json:"geometry"`
	Summary  string        `json:"summary"`
}

// MapView is the full desired state of the map.
type MapView struct {
	Camera  Camera        `json:"camera"`
	Markers []Marker      `json:"markers"`
	Route   *RouteOverlay `json:"route,omitempty"`
}

// SurfaceState is the lifecycle of the rendering surface.
type SurfaceState string

const (
	SurfaceUnmounted SurfaceState = "unmounted"
	SurfaceLoading   SurfaceState = "loading"
	SurfaceReady     SurfaceState = "ready"
)

// SurfaceDiff is the incremental change needed to bring a ready surface
// to a new view.
type SurfaceDiff struct {
	Added        []Marker      `json:"added,omitempty"`
	Updated      []Marker      `json:"updated,omitempty"`
	Removed      []string      `json:"removed,omitempty"`
	Camera       *Camera       `json:"camera,omitempty"`
	Route        *RouteOverlay `json:"route,omitempty"`
	RouteRemoved bool          `json:"route_removed,omitempty"`
}

// Empty reports whether the diff changes nothing.
func (d SurfaceDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0 &&
		d.Camera == nil && d.Route == nil && !d.RouteRemoved
}

// Surface mirrors what the client has drawn. Markers are only attached
// once the surface is ready.
type Surface struct {
	state   SurfaceState
	markers map[string]Marker
	camera  *Camera
	route   *RouteOverlay
	pending *MapView
}

// NewSurface returns an unmounted surface.
func NewSurface() *Surface {
	return &Surface{state: SurfaceUnmounted, markers: map[string]Marker{}}
}

// State returns the lifecycle state.
func (s *Surface) State() SurfaceState { return s.state }

// Mount moves unmounted to loading.
func (s *Surface) Mount() error {
	if s.state != SurfaceUnmounted {
		return ErrInvalidTransition
	}
	s.state = SurfaceLoading
	return nil
}

// Loaded moves loading to ready and returns the diff for any view applied
// while loading.
func (s *Surface) Loaded() (SurfaceDiff, error) {
	if s.state != SurfaceLoading {
		return SurfaceDiff{}, ErrInvalidTransition
	}
	s.state = SurfaceReady
	if s.pending == nil {
		return SurfaceDiff{}, nil
	}
	v := *s.pending
	s.pending = nil
	return s.diff(v), nil
}

// Unmount releases every attached marker and returns how many there were.
func (s *Surface) Unmount() int {
	n := len(s.markers)
	s.state = SurfaceUnmounted
	s.markers = map[string]Marker{}
	s.camera = nil
	s.route = nil
	s.pending = nil
	return n
}

// Apply brings the surface to v. Unmounted surfaces ignore the view and
// loading surfaces keep it until Loaded.
func (s *Surface) Apply(v MapView) SurfaceDiff {
	switch s.state {
	case SurfaceLoading:
		s.pending = &v
		return SurfaceDiff{}
	case SurfaceReady:
		return s.diff(v)
	default:
		return SurfaceDiff{}
	}
}

// Markers returns attached markers sorted by ID.
func (s *Surface) Markers() []Marker {
	out := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Surface) diff(v MapView) SurfaceDiff {
	var d SurfaceDiff
	seen := make(map[string]struct{}, len(v.Markers))
	for _, m := range v.Markers {
		seen[m.ID] = struct{}{}
		old, ok := s.markers[m.ID]
		switch {
		case !ok:
			d.Added = append(d.Added, m)
		case old != m:
			d.Updated = append(d.Updated, m)
		default:
			continue
		}
		s.markers[m.ID] = m
	}
	for id := range s.markers {
		if _, ok := seen[id]; !ok {
			d.Removed = append(d.Removed, id)
			delete(s.markers, id)
		}
	}
	sort.Strings(d.Removed)

	if s.camera == nil || !s.camera.equal(v.Camera) {
		cam := v.Camera
		s.camera = &cam
		d.Camera = &cam
	}

	switch {
	case v.Route == nil && s.route != nil:
		s.route = nil
		d.RouteRemoved = true
	case v.Route != nil && (s.route == nil || !routeEqual(*s.route, *v.Route)):
		r := *v.Route
		s.route = &r
		d.Route = &r
	}
	return d
}

func routeEqual(a, b RouteOverlay) bool {
	if a.Mode != b.Mode || a.Color != b.Color || a.Width != b.Width || a.Summary != b.Summary {
		return false
	}
	if len(a.Geometry.Coordinates) != len(b.Geometry.Coordinates) {
		return false
	}
	for i := range a.Geometry.Coordinates {
		if a.Geometry.Coordinates[i] != b.Geometry.Coordinates[i] {
			return false
		}
	}
	return true
}
