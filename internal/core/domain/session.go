package domain

import "time"

// Notice is a transient message for the user.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Session is the view state of one browser session. Nothing in it outlives
// the session.
type Session struct {
	ID             string         `json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	LastSeen       time.Time      `json:"last_seen"`
	Catalog        *Catalog       `json:"-"`
	Filters        FilterSet      `json:"filters"`
	Location       *GeoPoint      `json:"location,omitempty"`
	LocationSource LocationSource `json:"location_source,omitempty"`
	Selection      *Selection     `json:"selection"`
	Route          *RouteData     `json:"route,omitempty"`
	Surface        *Surface       `json:"-"`
	Notice         *Notice        `json:"notice,omitempty"`
	Navigating     bool           `json:"navigating"`
	Recentred      bool           `json:"recentred"`

	resolveSeq uint64
	routeSeq   uint64
}

// NewSession returns a session seeded with the given spaces.
func NewSession(id string, seed []Space, maxChecked int, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		LastSeen:  now,
		Catalog:   NewCatalog(seed...),
		Filters:   FilterSet{},
		Selection: NewSelection(maxChecked),
		Surface:   NewSurface(),
	}
}

// NextToken starts a new asynchronous resolution and returns its token.
// Results carrying an older token are stale.
func (s *Session) NextToken() uint64 {
	s.resolveSeq++
	return s.resolveSeq
}

// IsCurrent reports whether token is the latest issued.
func (s *Session) IsCurrent(token uint64) bool {
	return token == s.resolveSeq
}

// NextRouteToken starts a new directions request and returns its token.
func (s *Session) NextRouteToken() uint64 {
	s.routeSeq++
	return s.routeSeq
}

// IsCurrentRoute reports whether token is the latest directions request.
func (s *Session) IsCurrentRoute(token uint64) bool {
	return token == s.routeSeq
}

// PruneSelection drops selection entries that are no longer in the catalog.
func (s *Session) PruneSelection() {
	s.Selection.Prune(s.Catalog.Has)
	if s.Route != nil && !s.Catalog.Has(s.Route.DestinationID) {
		s.Route = nil
	}
}

// VisibleSpaces returns filtered spaces annotated with distance and sorted
// nearest first.
func (s *Session) VisibleSpaces() []Space {
	spaces := s.Catalog.Filter(s.Filters)
	Annotate(spaces, s.Location)
	SortByDistance(spaces)
	return spaces
}
