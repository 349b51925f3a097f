package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/walkies/internal/core/domain"
)

// spaceToMap flattens a space for GraphQL so enum-like string types and the
// computed fields resolve without custom resolvers.
func spaceToMap(s domain.Space) map[string]interface{} {
	m := map[string]interface{}{
		"id":       s.ID,
		"name":     s.Name,
		"location": map[string]interface{}{"lat": s.Location.Lat, "lng": s.Location.Lng},
		"fencing":  string(s.Fencing),
		"bins":     s.Bins,
		"toilets":  s.Toilets,
		"coffee":   s.Coffee,
		"parking":  s.Parking,
	}
	if s.DistanceKm != nil {
		m["distance_km"] = *s.DistanceKm
		m["distance_text"] = s.DistanceText()
	}
	return m
}

func stringArgs(v interface{}) []string {
	list, _ := v.([]interface{})
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	spaceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Space",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"name":          &graphql.Field{Type: graphql.String},
			"location":      &graphql.Field{Type: geoPointType},
			"fencing":       &graphql.Field{Type: graphql.String},
			"bins":          &graphql.Field{Type: graphql.Boolean},
			"toilets":       &graphql.Field{Type: graphql.Boolean},
			"coffee":        &graphql.Field{Type: graphql.Boolean},
			"parking":       &graphql.Field{Type: graphql.Boolean},
			"distance_km":   &graphql.Field{Type: graphql.Float},
			"distance_text": &graphql.Field{Type: graphql.String},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"kind":       &graphql.Field{Type: graphql.String},
			"position":   &graphql.Field{Type: geoPointType},
			"style":      &graphql.Field{Type: graphql.String},
			"color":      &graphql.Field{Type: graphql.String},
			"label":      &graphql.Field{Type: graphql.String},
			"popup_open": &graphql.Field{Type: graphql.Boolean},
		},
	})

	cameraType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Camera",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: geoPointType},
			"zoom":   &graphql.Field{Type: graphql.Float},
		},
	})

	mapViewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapView",
		Fields: graphql.Fields{
			"state":         &graphql.Field{Type: graphql.String},
			"camera":        &graphql.Field{Type: cameraType},
			"markers":       &graphql.Field{Type: graphql.NewList(markerType)},
			"route_summary": &graphql.Field{Type: graphql.String},
		},
	})

	resolutionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Resolution",
		Fields: graphql.Fields{
			"point":        &graphql.Field{Type: geoPointType},
			"source":       &graphql.Field{Type: graphql.String},
			"display_name": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"spaces": &graphql.Field{
				Type:        graphql.NewList(spaceType),
				Description: "Visible spaces in a session, nearest first",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"filters": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var override domain.FilterSet
					if raw, ok := p.Args["filters"]; ok {
						fs, err := domain.ParseFilterSet(stringArgs(raw))
						if err != nil {
							return nil, err
						}
						override = fs
					}
					spaces, err := deps.Sessions.ListSpaces(p.Context, p.Args["session"].(string), override)
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(spaces))
					for _, s := range spaces {
						result = append(result, spaceToMap(s))
					}
					return result, nil
				},
			},
			"space": &graphql.Field{
				Type:        spaceType,
				Description: "Get a space by ID",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"id":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sp, err := deps.Sessions.GetSpace(p.Context, p.Args["session"].(string), p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return spaceToMap(*sp), nil
				},
			},
			"mapView": &graphql.Field{
				Type:        mapViewType,
				Description: "Desired map view of a session",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					view, state, err := deps.Sessions.MapView(p.Context, p.Args["session"].(string))
					if err != nil {
						return nil, err
					}
					markers := make([]map[string]interface{}, 0, len(view.Markers))
					for _, m := range view.Markers {
						markers = append(markers, map[string]interface{}{
							"id":         m.ID,
							"kind":       string(m.Kind),
							"position":   map[string]interface{}{"lat": m.Position.Lat, "lng": m.Position.Lng},
							"style":      string(m.Style),
							"color":      m.Color,
							"label":      m.Label,
							"popup_open": m.PopupOpen,
						})
					}
					out := map[string]interface{}{
						"state": string(state),
						"camera": map[string]interface{}{
							"center": map[string]interface{}{"lat": view.Camera.Center.Lat, "lng": view.Camera.Center.Lng},
							"zoom":   view.Camera.Zoom,
						},
						"markers": markers,
					}
					if view.Route != nil {
						out["route_summary"] = view.Route.Summary
					}
					return out, nil
				},
			},
			"resolve": &graphql.Field{
				Type:        resolutionType,
				Description: "Resolve a map link, postcode or place name",
				Args: graphql.FieldConfigArgument{
					"text": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					text := p.Args["text"].(string)
					if deps.Resolver == nil {
						return nil, domain.NewUserError(domain.ErrLocationNotFound, domain.MsgLocationNotFound)
					}
					res, ok := deps.Resolver.Resolve(p.Context, text)
					if !ok {
						return nil, domain.NewUserError(domain.ErrLocationNotFound, domain.MsgLocationNotFound)
					}
					return map[string]interface{}{
						"point":        map[string]interface{}{"lat": res.Point.Lat, "lng": res.Point.Lng},
						"source":       string(res.Source),
						"display_name": res.DisplayName,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
