package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	stopType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Stop",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"address":  &graphql.Field{Type: graphql.String},
			"distance": &graphql.Field{Type: graphql.Float},
		},
	})

	lineType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Line",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.String},
			"number": &graphql.Field{Type: graphql.String},
			"name":   &graphql.Field{Type: graphql.String},
			"stops":  &graphql.Field{Type: graphql.NewList(graphql.String)},
			"active": &graphql.Field{Type: graphql.Boolean},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "StopMarker",
		Fields: graphql.Fields{
			"stop_id":     &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"highlighted": &graphql.Field{Type: graphql.Boolean},
		},
	})

	segmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteSegment",
		Fields: graphql.Fields{
			"line_id":     &graphql.Field{Type: graphql.String},
			"line_number": &graphql.Field{Type: graphql.String},
			"line_name":   &graphql.Field{Type: graphql.String},
			"stops":       &graphql.Field{Type: graphql.NewList(markerType)},
		},
	})

	searchResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SearchResult",
		Fields: graphql.Fields{
			"origin":      &graphql.Field{Type: stopType},
			"destination": &graphql.Field{Type: stopType},
			"segments":    &graphql.Field{Type: graphql.NewList(segmentType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"stops": &graphql.Field{
				Type:        graphql.NewList(stopType),
				Description: "List all stops",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Stops.ListAll(p.Context)
				},
			},
			"stop": &graphql.Field{
				Type:        stopType,
				Description: "Get a stop by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Stops.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"searchStops": &graphql.Field{
				Type:        graphql.NewList(stopType),
				Description: "Search stops by name",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Stops.Search(p.Context, p.Args["query"].(string), p.Args["limit"].(int))
				},
			},
			"stopsNearby": &graphql.Field{
				Type:        graphql.NewList(stopType),
				Description: "Find stops near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Stops.FindNearby(p.Context, lat, lon, radius, limit)
				},
			},
			"lines": &graphql.Field{
				Type:        graphql.NewList(lineType),
				Description: "List active lines",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Lines.ListActive(p.Context)
				},
			},
			"line": &graphql.Field{
				Type:        lineType,
				Description: "Get a line by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Lines.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"routes": &graphql.Field{
				Type:        graphql.NewList(segmentType),
				Description: "Lines travelling from one stop ID to another",
				Args: graphql.FieldConfigArgument{
					"from": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"to":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Search.SearchByIDs(p.Context, p.Args["from"].(string), p.Args["to"].(string))
				},
			},
			"routesByName": &graphql.Field{
				Type:        searchResultType,
				Description: "Lines travelling between two stops given by name",
				Args: graphql.FieldConfigArgument{
					"from": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"to":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					// Anonymous: GraphQL searches are not recorded in history.
					return deps.Search.SearchByName(p.Context, "", p.Args["from"].(string), p.Args["to"].(string))
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
