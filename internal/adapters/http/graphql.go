package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services. Field
// names follow the JSON tags of the domain types, which the default
// resolver reads.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	areaType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Area",
		Fields: graphql.Fields{
			"x1": &graphql.Field{Type: graphql.Float},
			"y1": &graphql.Field{Type: graphql.Float},
			"x2": &graphql.Field{Type: graphql.Float},
			"y2": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	gameType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Game",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"name":           &graphql.Field{Type: graphql.String},
			"area":           &graphql.Field{Type: areaType},
			"bounds":         &graphql.Field{Type: boundsType},
			"waypoint_count": &graphql.Field{Type: graphql.Int},
			"max_score":      &graphql.Field{Type: graphql.Int},
		},
	})

	waypointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Waypoint",
		Fields: graphql.Fields{
			"location": &graphql.Field{Type: geoPointType},
			"question": &graphql.Field{Type: graphql.String},
			"points":   &graphql.Field{Type: graphql.Int},
		},
	})

	stateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProgressionState",
		Fields: graphql.Fields{
			"current_index":   &graphql.Field{Type: graphql.Int},
			"total_score":     &graphql.Field{Type: graphql.Int},
			"awaiting_answer": &graphql.Field{Type: graphql.Boolean},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"game_id":        &graphql.Field{Type: graphql.String},
			"game_name":      &graphql.Field{Type: graphql.String},
			"state":          &graphql.Field{Type: stateType},
			"finished":       &graphql.Field{Type: graphql.Boolean},
			"active":         &graphql.Field{Type: waypointType},
			"last_position":  &graphql.Field{Type: geoPointType},
			"halted":         &graphql.Field{Type: graphql.Boolean},
			"halt_reason":    &graphql.Field{Type: graphql.String},
			"waypoint_count": &graphql.Field{Type: graphql.Int},
			"max_score":      &graphql.Field{Type: graphql.Int},
			"started_at":     &graphql.Field{Type: graphql.DateTime},
			"updated_at":     &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"games": &graphql.Field{
				Type:        graphql.NewList(gameType),
				Description: "List all games",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					games, err := deps.Games.List(p.Context)
					if err != nil {
						return nil, err
					}
					out := make([]interface{}, 0, len(games))
					for i := range games {
						out = append(out, games[i].Public())
					}
					return out, nil
				},
			},
			"game": &graphql.Field{
				Type:        gameType,
				Description: "Get a game by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					game, err := deps.Games.Get(p.Context, id)
					if err != nil {
						return nil, err
					}
					return game.Public(), nil
				},
			},
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Get a play session by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					return deps.Sessions.Get(p.Context, id)
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
		if req.Query == "" {
			return errBadRequest(c, "query is required")
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
