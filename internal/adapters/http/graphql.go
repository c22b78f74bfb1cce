package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/safezone/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	zoneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RiskZone",
		Fields: graphql.Fields{
			"name":          &graphql.Field{Type: graphql.String},
			"lat":           &graphql.Field{Type: graphql.Float},
			"lon":           &graphql.Field{Type: graphql.Float},
			"radius_meters": &graphql.Field{Type: graphql.Float},
			"risk":          &graphql.Field{Type: graphql.String},
		},
	})

	verdictType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Verdict",
		Fields: graphql.Fields{
			"status":     &graphql.Field{Type: graphql.String},
			"zone_name":  &graphql.Field{Type: graphql.String},
			"risk_level": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"zones": &graphql.Field{
				Type:        graphql.NewList(zoneType),
				Description: "List the currently valid risk zones",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					zones, err := deps.Zones.List(p.Context)
					if err != nil {
						return nil, gqlError(err)
					}
					result := make([]map[string]interface{}, 0, len(zones))
					for _, z := range zones {
						result = append(result, map[string]interface{}{
							"name":          z.Name,
							"lat":           z.Center.Lat,
							"lon":           z.Center.Lon,
							"radius_meters": z.RadiusMeters,
							"risk":          z.Level.String(),
						})
					}
					return result, nil
				},
			},
			"checkLocation": &graphql.Field{
				Type:        verdictType,
				Description: "Classify a coordinate against the risk zones",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					v, err := deps.Checks.CheckLocation(p.Context, domain.Coordinate{Lat: lat, Lon: lon})
					if err != nil {
						return nil, gqlError(err)
					}
					m := map[string]interface{}{
						"status":     v.Status,
						"risk_level": v.RiskLevel.String(),
					}
					if v.ZoneName != "" {
						m["zone_name"] = v.ZoneName
					}
					return m, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// gqlError hides store details from GraphQL clients.
func gqlError(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return domain.ErrStoreUnavailable
	}
	return err
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
