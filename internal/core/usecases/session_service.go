package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mrz1836/go-sanitize"

	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/core/ports"
	"github.com/samirrijal/walkies/internal/pkg/metrics"
)

// Session event types.
const (
	EventSpaces    = "spaces"
	EventFilters   = "filters"
	EventLocation  = "location"
	EventSelection = "selection"
	EventRoute     = "route"
	EventMap       = "map"
	EventNotice    = "notice"
)

// LocationErrorKind is what the device reported when geolocation failed.
type LocationErrorKind string

const (
	LocationPermissionDenied LocationErrorKind = "permission_denied"
	LocationUnavailable      LocationErrorKind = "unavailable"
	LocationTimeout          LocationErrorKind = "timeout"
)

// SessionView is a point-in-time copy of a session for callers outside the lock.
type SessionView struct {
	ID             string                `json:"id"`
	CreatedAt      time.Time             `json:"created_at"`
	Filters        []domain.Facility     `json:"filters"`
	Location       *domain.GeoPoint      `json:"location,omitempty"`
	LocationSource domain.LocationSource `json:"location_source,omitempty"`
	Selection      domain.Selection      `json:"selection"`
	Route          *domain.RouteData     `json:"route,omitempty"`
	Notice         *domain.Notice        `json:"notice,omitempty"`
	Navigating     bool                  `json:"navigating"`
	MapState       domain.SurfaceState   `json:"map_state"`
	SpaceCount     int                   `json:"space_count"`
}

// AddSpaceInput is a new space as entered by the user. Either Lat/Lng or
// LocationText locates it.
type AddSpaceInput struct {
	Name         string
	Lat          *float64
	Lng          *float64
	LocationText string
	Fencing      string
	Bins         bool
	Toilets      bool
	Coffee       bool
	Parking      bool
}

// SessionService owns per-session view state: the catalog, filters, user
// location, selection, route and map surface.
type SessionService struct {
	store      ports.SessionStore
	defaults   *DefaultSpaces
	resolver   *LocationResolver
	directions ports.DirectionsProvider
	mapsync    *MapSynchronizer
	publisher  ports.EventPublisher
	maxChecked int
	onRelease  []func(id string)
	now        func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	store ports.SessionStore,
	defaults *DefaultSpaces,
	resolver *LocationResolver,
	directions ports.DirectionsProvider,
	mapsync *MapSynchronizer,
	publisher ports.EventPublisher,
	maxChecked int,
) *SessionService {
	if defaults == nil {
		defaults = NewDefaultSpaces(nil)
	}
	return &SessionService{
		store:      store,
		defaults:   defaults,
		resolver:   resolver,
		directions: directions,
		mapsync:    mapsync,
		publisher:  publisher,
		maxChecked: maxChecked,
		now:        time.Now,
	}
}

// OnRelease registers fn to run when a session is deleted or its map unmounts.
func (s *SessionService) OnRelease(fn func(id string)) {
	s.onRelease = append(s.onRelease, fn)
}

// Create starts a new session seeded with the reference spaces.
func (s *SessionService) Create(ctx context.Context) (*SessionView, error) {
	sess := domain.NewSession(uuid.New().String(), s.defaults.All(), s.maxChecked, s.now())
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	metrics.ActiveSessions.Set(float64(s.store.Len()))
	slog.DebugContext(ctx, "session created", "session_id", sess.ID, "spaces", sess.Catalog.Len())
	v := snapshot(sess)
	return &v, nil
}

// Get returns a snapshot of the session.
func (s *SessionService) Get(ctx context.Context, id string) (*SessionView, error) {
	var v SessionView
	err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		v = snapshot(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Delete ends the session and releases its resources.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.release(id)
	metrics.ActiveSessions.Set(float64(s.store.Len()))
	return nil
}

// Release runs the registered release hooks for id. The session store
// calls it on eviction.
func (s *SessionService) Release(id string) {
	s.release(id)
	metrics.ActiveSessions.Set(float64(s.store.Len()))
}

func (s *SessionService) release(id string) {
	for _, fn := range s.onRelease {
		fn(id)
	}
}

// ListSpaces returns visible spaces nearest first. A non-nil override
// replaces the session's filters for this call only.
func (s *SessionService) ListSpaces(ctx context.Context, id string, override domain.FilterSet) ([]domain.Space, error) {
	var out []domain.Space
	err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		fs := sess.Filters
		if override != nil {
			fs = override
		}
		out = sess.Catalog.Filter(fs)
		domain.Annotate(out, sess.Location)
		domain.SortByDistance(out)
		return nil
	})
	return out, err
}

// GetSpace returns one space annotated with its distance.
func (s *SessionService) GetSpace(ctx context.Context, id, spaceID string) (*domain.Space, error) {
	var out domain.Space
	err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		sp, ok := sess.Catalog.Get(spaceID)
		if !ok {
			return domain.NewUserError(domain.ErrNotFound, domain.MsgSpaceNotFound)
		}
		one := []domain.Space{sp}
		domain.Annotate(one, sess.Location)
		out = one[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddSpace validates and adds a user-entered space.
func (s *SessionService) AddSpace(ctx context.Context, id string, in AddSpaceInput) (*domain.Space, error) {
	name := CleanName(in.Name)
	if name == "" {
		return nil, domain.NewUserError(domain.ErrValidation, domain.MsgNameRequired)
	}
	fencing, err := domain.ParseFencing(in.Fencing)
	if err != nil {
		return nil, err
	}

	var loc domain.GeoPoint
	switch {
	case in.Lat != nil && in.Lng != nil:
		if loc, err = domain.NewGeoPoint(*in.Lat, *in.Lng); err != nil {
			return nil, err
		}
	case strings.TrimSpace(in.LocationText) != "":
		res, ok := s.resolve(ctx, in.LocationText)
		if !ok {
			return nil, domain.NewUserError(domain.ErrLocationNotFound, domain.MsgLocationNotFound)
		}
		loc = res.Point
	default:
		return nil, domain.NewUserError(domain.ErrValidation, domain.MsgInvalidCoordinates)
	}

	var added domain.Space
	err = s.mutate(ctx, id, EventSpaces, func(sess *domain.Session) error {
		sp, err := sess.Catalog.Add(domain.Space{
			Name:     name,
			Location: loc,
			Fencing:  fencing,
			Bins:     in.Bins,
			Toilets:  in.Toilets,
			Coffee:   in.Coffee,
			Parking:  in.Parking,
		})
		if err != nil {
			return err
		}
		added = sp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// UpdateSpace edits an existing space.
func (s *SessionService) UpdateSpace(ctx context.Context, id, spaceID string, patch domain.SpacePatch) (*domain.Space, error) {
	if patch.Name != nil {
		name := CleanName(*patch.Name)
		patch.Name = &name
	}
	var updated domain.Space
	err := s.mutate(ctx, id, EventSpaces, func(sess *domain.Session) error {
		sp, err := sess.Catalog.Update(spaceID, patch)
		if err != nil {
			return err
		}
		updated = sp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RemoveSpace deletes one space.
func (s *SessionService) RemoveSpace(ctx context.Context, id, spaceID string) error {
	return s.mutate(ctx, id, EventSpaces, func(sess *domain.Session) error {
		if err := sess.Catalog.Remove(spaceID); err != nil {
			return err
		}
		s.reseed(sess)
		return nil
	})
}

// RemoveSpaces deletes every listed space, or the checked set when ids is
// empty. It returns how many were removed.
func (s *SessionService) RemoveSpaces(ctx context.Context, id string, ids []string) (int, error) {
	removed := 0
	err := s.mutate(ctx, id, EventSpaces, func(sess *domain.Session) error {
		target := ids
		if len(target) == 0 {
			target = append([]string{}, sess.Selection.CheckedIDs...)
		}
		removed = sess.Catalog.RemoveMany(target)
		s.reseed(sess)
		return nil
	})
	return removed, err
}

// reseed refills an emptied catalog with the reference space nearest the
// user. Without a location the catalog stays empty.
func (s *SessionService) reseed(sess *domain.Session) {
	if sess.Catalog.Len() > 0 || sess.Location == nil {
		return
	}
	if sp, ok := s.defaults.Nearest(*sess.Location); ok {
		if _, err := sess.Catalog.Add(sp); err != nil {
			slog.Warn("reseed failed", "session_id", sess.ID, "error", err)
		}
	}
}

// SetFilters replaces the active filters.
func (s *SessionService) SetFilters(ctx context.Context, id string, fs domain.FilterSet) ([]domain.Facility, error) {
	var active []domain.Facility
	err := s.mutate(ctx, id, EventFilters, func(sess *domain.Session) error {
		sess.Filters = fs.Clone()
		active = sess.Filters.Active()
		return nil
	})
	return active, err
}

// SetLocation records the user's position.
func (s *SessionService) SetLocation(ctx context.Context, id string, p domain.GeoPoint, source domain.LocationSource) error {
	if !p.Valid() {
		return domain.NewUserError(domain.ErrValidation, domain.MsgInvalidCoordinates)
	}
	return s.mutate(ctx, id, EventLocation, func(sess *domain.Session) error {
		sess.NextToken()
		sess.Location = &p
		sess.LocationSource = source
		sess.Recentred = false
		return nil
	})
}

// SetLocationFromText resolves text and records it as the user's position.
// If another resolution started meanwhile the result is discarded.
func (s *SessionService) SetLocationFromText(ctx context.Context, id, text string) (*domain.Resolution, error) {
	var token uint64
	if err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		token = sess.NextToken()
		return nil
	}); err != nil {
		return nil, err
	}

	res, ok := s.resolve(ctx, text)

	err := s.mutate(ctx, id, EventLocation, func(sess *domain.Session) error {
		if !sess.IsCurrent(token) {
			return domain.ErrStaleResult
		}
		if !ok {
			sess.Notice = &domain.Notice{Kind: "location_not_found", Message: domain.MsgLocationNotFound}
			return domain.NewUserError(domain.ErrLocationNotFound, domain.MsgLocationNotFound)
		}
		p := res.Point
		sess.Location = &p
		sess.LocationSource = res.Source
		sess.Recentred = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ReportLocationError records a failed device geolocation attempt.
func (s *SessionService) ReportLocationError(ctx context.Context, id string, kind LocationErrorKind) error {
	var uerr *domain.UserError
	notice := &domain.Notice{Kind: string(kind)}
	if kind == LocationPermissionDenied {
		notice.Message = domain.MsgPermissionBlocked
		notice.Hint = domain.MsgEnterManually
		uerr = domain.NewUserError(domain.ErrPermissionDenied, domain.MsgPermissionBlocked)
	} else {
		notice.Message = domain.MsgLocationFailed
		uerr = domain.NewUserError(domain.ErrLocationUnavailable, domain.MsgLocationFailed)
	}
	if err := s.notify(ctx, id, notice); err != nil {
		return err
	}
	return uerr
}

// ClearLocation forgets the user's position.
func (s *SessionService) ClearLocation(ctx context.Context, id string) error {
	return s.mutate(ctx, id, EventLocation, func(sess *domain.Session) error {
		sess.Location = nil
		sess.LocationSource = ""
		sess.Recentred = false
		return nil
	})
}

// Check adds a space to the checked set.
func (s *SessionService) Check(ctx context.Context, id, spaceID string) (*domain.Selection, error) {
	return s.changeSelection(ctx, id, func(sess *domain.Session) error {
		if !sess.Catalog.Has(spaceID) {
			return domain.NewUserError(domain.ErrNotFound, domain.MsgSpaceNotFound)
		}
		if err := sess.Selection.Check(spaceID); err != nil {
			sess.Notice = &domain.Notice{Kind: "selection_full", Message: err.Error()}
			return err
		}
		return nil
	})
}

// Uncheck removes a space from the checked set.
func (s *SessionService) Uncheck(ctx context.Context, id, spaceID string) (*domain.Selection, error) {
	return s.changeSelection(ctx, id, func(sess *domain.Session) error {
		sess.Selection.Uncheck(spaceID)
		return nil
	})
}

// Focus makes a space the focused one. With toggle set, focusing the
// already-focused space clears the focus.
func (s *SessionService) Focus(ctx context.Context, id, spaceID string, toggle bool) (*domain.Selection, error) {
	return s.changeSelection(ctx, id, func(sess *domain.Session) error {
		if !sess.Catalog.Has(spaceID) {
			return domain.NewUserError(domain.ErrNotFound, domain.MsgSpaceNotFound)
		}
		if toggle {
			sess.Selection.ToggleFocus(spaceID)
		} else {
			sess.Selection.Focus(spaceID)
		}
		sess.Recentred = false
		return nil
	})
}

// Unfocus clears the focus.
func (s *SessionService) Unfocus(ctx context.Context, id string) (*domain.Selection, error) {
	return s.changeSelection(ctx, id, func(sess *domain.Session) error {
		sess.Selection.Unfocus()
		return nil
	})
}

func (s *SessionService) changeSelection(ctx context.Context, id string, fn func(sess *domain.Session) error) (*domain.Selection, error) {
	var sel domain.Selection
	err := s.mutate(ctx, id, EventSelection, func(sess *domain.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		sel = sess.Selection.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sel, nil
}

// RequestDirections computes a route from the user's location to a space.
// On failure the previous route is kept.
func (s *SessionService) RequestDirections(ctx context.Context, id, spaceID string, mode domain.TravelMode) (*domain.RouteData, error) {
	var (
		token uint64
		from  domain.GeoPoint
		dest  domain.Space
	)
	err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		sp, ok := sess.Catalog.Get(spaceID)
		if !ok {
			return domain.NewUserError(domain.ErrNotFound, domain.MsgSpaceNotFound)
		}
		if sess.Location == nil {
			sess.Notice = &domain.Notice{Kind: "location_required", Message: domain.MsgLocationRequired}
			return domain.NewUserError(domain.ErrLocationRequired, domain.MsgLocationRequired)
		}
		token = sess.NextRouteToken()
		from, dest = *sess.Location, sp
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrLocationRequired) {
			s.publishNotice(ctx, id)
		}
		return nil, err
	}
	if s.directions == nil {
		return nil, s.routeFailed(ctx, id, token, mode, domain.NewUserError(domain.ErrUpstream, domain.MsgDirectionsFailed))
	}

	route, err := s.directions.Route(ctx, mode, from, dest.Location)
	if err != nil {
		slog.WarnContext(ctx, "directions failed", "session_id", id, "mode", mode, "error", err)
		if errors.Is(err, domain.ErrNoRoute) {
			return nil, s.routeFailed(ctx, id, token, mode, domain.NewUserError(domain.ErrNoRoute, domain.MsgNoRoute))
		}
		return nil, s.routeFailed(ctx, id, token, mode, domain.NewUserError(domain.ErrUpstream, domain.MsgDirectionsFailed))
	}

	route.Mode = mode
	route.Origin = from
	route.Destination = dest.Location
	route.DestinationID = dest.ID
	route.DestinationName = dest.Name

	err = s.mutate(ctx, id, EventRoute, func(sess *domain.Session) error {
		if !sess.IsCurrentRoute(token) {
			return domain.ErrStaleResult
		}
		if !sess.Catalog.Has(dest.ID) {
			return domain.NewUserError(domain.ErrNotFound, domain.MsgSpaceNotFound)
		}
		r := *route
		sess.Route = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RoutesComputed.WithLabelValues(string(mode), "ok").Inc()
	return route, nil
}

func (s *SessionService) routeFailed(ctx context.Context, id string, token uint64, mode domain.TravelMode, uerr *domain.UserError) error {
	metrics.RoutesComputed.WithLabelValues(string(mode), "failed").Inc()
	var stale bool
	err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		if !sess.IsCurrentRoute(token) {
			stale = true
			return nil
		}
		sess.Notice = &domain.Notice{Kind: "directions_failed", Message: uerr.Message}
		return nil
	})
	if err != nil {
		return err
	}
	if stale {
		return domain.ErrStaleResult
	}
	s.publishNotice(ctx, id)
	return uerr
}

// ClearRoute removes the route overlay.
func (s *SessionService) ClearRoute(ctx context.Context, id string) error {
	return s.mutate(ctx, id, EventRoute, func(sess *domain.Session) error {
		sess.NextRouteToken()
		sess.Route = nil
		return nil
	})
}

// MountMap creates the map surface; it stays loading until MapLoaded.
func (s *SessionService) MountMap(ctx context.Context, id string) (*domain.MapView, error) {
	var view domain.MapView
	err := s.mutate(ctx, id, EventMap, func(sess *domain.Session) error {
		if err := sess.Surface.Mount(); err != nil {
			return fmt.Errorf("mount map: %w", err)
		}
		view = s.mapsync.Compute(s.mapsync.InputFor(sess, sess.Recentred))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// MapLoaded marks the surface ready and returns the markers to attach.
func (s *SessionService) MapLoaded(ctx context.Context, id string) (*domain.SurfaceDiff, error) {
	var diff domain.SurfaceDiff
	err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		d, err := sess.Surface.Loaded()
		if err != nil {
			return fmt.Errorf("map loaded: %w", err)
		}
		diff = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, &ports.SessionEvent{SessionID: id, Type: EventMap, Diff: &diff})
	return &diff, nil
}

// UnmountMap tears the surface down, releasing markers and any position watch.
func (s *SessionService) UnmountMap(ctx context.Context, id string) (int, error) {
	released := 0
	err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		released = sess.Surface.Unmount()
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.release(id)
	return released, nil
}

// MapView returns the current desired map view and surface state.
func (s *SessionService) MapView(ctx context.Context, id string) (*domain.MapView, domain.SurfaceState, error) {
	var (
		view  domain.MapView
		state domain.SurfaceState
	)
	err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		view = s.mapsync.Compute(s.mapsync.InputFor(sess, sess.Recentred))
		state = sess.Surface.State()
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return &view, state, nil
}

// Recentre points the camera back at the user's location.
func (s *SessionService) Recentre(ctx context.Context, id string) error {
	return s.mutate(ctx, id, EventMap, func(sess *domain.Session) error {
		if sess.Location == nil {
			sess.Notice = &domain.Notice{Kind: "location_required", Message: domain.MsgLocationFailed}
			return domain.NewUserError(domain.ErrLocationRequired, domain.MsgLocationFailed)
		}
		sess.Selection.Unfocus()
		sess.Recentred = true
		return nil
	})
}

// setNavigating flips the navigation flag.
func (s *SessionService) setNavigating(ctx context.Context, id string, on bool) error {
	return s.store.Update(ctx, id, func(sess *domain.Session) error {
		sess.Navigating = on
		return nil
	})
}

func (s *SessionService) resolve(ctx context.Context, text string) (domain.Resolution, bool) {
	if s.resolver == nil {
		return ParseCoordinateLink(text)
	}
	return s.resolver.Resolve(ctx, text)
}

// mutate applies fn under the session lock, re-syncs the map surface and
// publishes the resulting diff.
func (s *SessionService) mutate(ctx context.Context, id, eventType string, fn func(sess *domain.Session) error) error {
	var event *ports.SessionEvent
	err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		prev := sess.Notice
		sess.Notice = nil
		if err := fn(sess); err != nil {
			if sess.Notice == nil {
				if sess.Notice = domain.NoticeFor(err); sess.Notice == nil {
					sess.Notice = prev
				}
			}
			return err
		}
		sess.PruneSelection()
		diff := sess.Surface.Apply(s.mapsync.Compute(s.mapsync.InputFor(sess, sess.Recentred)))
		event = &ports.SessionEvent{SessionID: id, Type: eventType}
		if !diff.Empty() {
			event.Diff = &diff
		}
		return nil
	})
	if err != nil {
		if _, ok := domain.UserMessage(err); ok {
			s.publishNotice(ctx, id)
		}
		return err
	}
	s.publish(ctx, event)
	return nil
}

func (s *SessionService) notify(ctx context.Context, id string, notice *domain.Notice) error {
	if err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		sess.Notice = notice
		return nil
	}); err != nil {
		return err
	}
	s.publish(ctx, &ports.SessionEvent{SessionID: id, Type: EventNotice, Notice: notice})
	return nil
}

func (s *SessionService) publishNotice(ctx context.Context, id string) {
	var notice *domain.Notice
	_ = s.store.Update(ctx, id, func(sess *domain.Session) error {
		notice = sess.Notice
		return nil
	})
	if notice != nil {
		s.publish(ctx, &ports.SessionEvent{SessionID: id, Type: EventNotice, Notice: notice})
	}
}

func (s *SessionService) publish(ctx context.Context, event *ports.SessionEvent) {
	if s.publisher == nil || event == nil {
		return
	}
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		metrics.SessionEvents.WithLabelValues(event.Type, "error").Inc()
		slog.WarnContext(ctx, "publish session event failed", "session_id", event.SessionID, "type", event.Type, "error", err)
		return
	}
	metrics.SessionEvents.WithLabelValues(event.Type, "ok").Inc()
}

// CleanName strips markup and line breaks from a user-entered name.
func CleanName(raw string) string {
	return strings.TrimSpace(sanitize.SingleLine(sanitize.HTML(raw)))
}

func snapshot(sess *domain.Session) SessionView {
	v := SessionView{
		ID:             sess.ID,
		CreatedAt:      sess.CreatedAt,
		Filters:        sess.Filters.Active(),
		LocationSource: sess.LocationSource,
		Selection:      sess.Selection.Snapshot(),
		Navigating:     sess.Navigating,
		MapState:       sess.Surface.State(),
		SpaceCount:     sess.Catalog.Len(),
	}
	if v.Filters == nil {
		v.Filters = []domain.Facility{}
	}
	if sess.Location != nil {
		p := *sess.Location
		v.Location = &p
	}
	if sess.Route != nil {
		r := *sess.Route
		v.Route = &r
	}
	if sess.Notice != nil {
		n := *sess.Notice
		v.Notice = &n
	}
	return v
}
