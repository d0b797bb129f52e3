package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/alandyousif/safar/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the plan coordinator.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"south_west": &graphql.Field{Type: geoPointType},
			"north_east": &graphql.Field{Type: geoPointType},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"bounds":   &graphql.Field{Type: boundsType},
			"center":   &graphql.Field{Type: geoPointType},
			"zoom":     &graphql.Field{Type: graphql.Int},
			"fallback": &graphql.Field{Type: graphql.Boolean},
		},
	})

	rowType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ItineraryRow",
		Fields: graphql.Fields{
			"activity":  &graphql.Field{Type: graphql.String},
			"location":  &graphql.Field{Type: graphql.String},
			"time":      &graphql.Field{Type: graphql.String},
			"notes":     &graphql.Field{Type: graphql.String},
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	dayType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ItineraryDay",
		Fields: graphql.Fields{
			"day":  &graphql.Field{Type: graphql.String},
			"rows": &graphql.Field{Type: graphql.NewList(rowType)},
		},
	})

	itineraryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Itinerary",
		Fields: graphql.Fields{
			"code": &graphql.Field{Type: graphql.String},
			"days": &graphql.Field{Type: graphql.NewList(dayType)},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"latitude":   &graphql.Field{Type: graphql.Float},
			"longitude":  &graphql.Field{Type: graphql.Float},
			"activity":   &graphql.Field{Type: graphql.String},
			"time":       &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: graphql.String},
			"notes":      &graphql.Field{Type: graphql.String},
			"day":        &graphql.Field{Type: graphql.String},
			"day_index":  &graphql.Field{Type: graphql.Int},
			"plan_index": &graphql.Field{Type: graphql.Int},
			"directions_url": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if m, ok := p.Source.(domain.Marker); ok {
						return m.DirectionsURL(), nil
					}
					return nil, nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"jobState": &graphql.Field{
				Type:        graphql.String,
				Description: "Current plan request state",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(deps.Coordinator.Snapshot().State), nil
				},
			},
			"plans": &graphql.Field{
				Type:        graphql.NewList(itineraryType),
				Description: "Current normalized itineraries, display-capped",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Coordinator.Snapshot().Itineraries, nil
				},
			},
			"markers": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "Flat marker list for map rendering",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Coordinator.Markers(), nil
				},
			},
			"viewport": &graphql.Field{
				Type:        viewportType,
				Description: "Map region enclosing the current markers",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Coordinator.Viewport(), nil
				},
			},
			"directionsUrl": &graphql.Field{
				Type:        graphql.String,
				Description: "Driving directions link for a coordinate pair",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					m := domain.Marker{
						Latitude:  p.Args["lat"].(float64),
						Longitude: p.Args["lon"].(float64),
					}
					return m.DirectionsURL(), nil
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
		// This would be a programming error in the schema definition
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
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
