// Package graph builds the GraphQL schema and binds every field to the
// service layer.
//
// SCHEMA OVERVIEW:
//
//	type Query    { feed(filter, skip, take, orderBy): Feed!, link(id): Link }
//	type Mutation { signup, login, createPost, updateLink, deleteLink, vote }
//
// User and Link refer to each other (User.links, Link.postedBy), so their
// field maps are built lazily with graphql.FieldsThunk.
package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/graphql-go/graphql"

	"github.com/sakif/hackernews/internal/model"
	"github.com/sakif/hackernews/internal/service"
)

// Schema is the executable API.
type Schema struct {
	schema graphql.Schema
}

// resolver holds the dependencies every field resolver needs.
type resolver struct {
	auth   *service.AuthService
	links  *service.LinkService
	users  *service.UserService
	logger *slog.Logger
}

// New builds the schema. It only fails if the type definitions themselves
// are inconsistent.
func New(auth *service.AuthService, links *service.LinkService, users *service.UserService, logger *slog.Logger) (*Schema, error) {
	r := &resolver{auth: auth, links: links, users: users, logger: logger}

	sortEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "Sort",
		Values: graphql.EnumValueConfigMap{
			"asc":  &graphql.EnumValueConfig{Value: model.SortAsc},
			"desc": &graphql.EnumValueConfig{Value: model.SortDesc},
		},
	})

	orderByInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "LinkOrderByInput",
		Fields: graphql.InputObjectConfigFieldMap{
			string(model.OrderByDescription): &graphql.InputObjectFieldConfig{Type: sortEnum},
			string(model.OrderByURL):         &graphql.InputObjectFieldConfig{Type: sortEnum},
			string(model.OrderByCreatedAt):   &graphql.InputObjectFieldConfig{Type: sortEnum},
		},
	})

	var userType, linkType *graphql.Object

	userType = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"name":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"email": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"links": &graphql.Field{
					Type:    nonNullList(linkType),
					Resolve: r.wrap(r.userLinks),
				},
				"votes": &graphql.Field{
					Type:    nonNullList(linkType),
					Resolve: r.wrap(r.userVotes),
				},
			}
		}),
	})

	linkType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Link",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"description": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"url":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"createdAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
				"postedBy": &graphql.Field{
					Type:    userType,
					Resolve: r.wrap(r.linkPostedBy),
				},
				"voters": &graphql.Field{
					Type:    nonNullList(userType),
					Resolve: r.wrap(r.linkVoters),
				},
			}
		}),
	})

	feedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Feed",
		Fields: graphql.Fields{
			"links": &graphql.Field{Type: nonNullList(linkType)},
			"count": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	authPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"user":  &graphql.Field{Type: graphql.NewNonNull(userType)},
		},
	})

	voteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Vote",
		Fields: graphql.Fields{
			"link": &graphql.Field{Type: graphql.NewNonNull(linkType)},
			"user": &graphql.Field{Type: graphql.NewNonNull(userType)},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"feed": &graphql.Field{
				Type: graphql.NewNonNull(feedType),
				Args: graphql.FieldConfigArgument{
					"filter":  &graphql.ArgumentConfig{Type: graphql.String},
					"skip":    &graphql.ArgumentConfig{Type: graphql.Int},
					"take":    &graphql.ArgumentConfig{Type: graphql.Int},
					"orderBy": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.NewNonNull(orderByInput))},
				},
				Resolve: r.wrap(r.feed),
			},
			"link": &graphql.Field{
				Type: linkType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.wrap(r.link),
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"signup": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"email":    requiredString(),
					"password": requiredString(),
					"name":     requiredString(),
				},
				Resolve: r.wrap(r.signup),
			},
			"login": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"email":    requiredString(),
					"password": requiredString(),
				},
				Resolve: r.wrap(r.login),
			},
			"createPost": &graphql.Field{
				Type: graphql.NewNonNull(linkType),
				Args: graphql.FieldConfigArgument{
					"description": requiredString(),
					"url":         requiredString(),
				},
				Resolve: r.wrap(r.createPost),
			},
			"updateLink": &graphql.Field{
				Type: graphql.NewNonNull(linkType),
				Args: graphql.FieldConfigArgument{
					"id":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"url":         &graphql.ArgumentConfig{Type: graphql.String},
					"description": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.wrap(r.updateLink),
			},
			"deleteLink": &graphql.Field{
				Type: linkType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.wrap(r.deleteLink),
			},
			"vote": &graphql.Field{
				Type: graphql.NewNonNull(voteType),
				Args: graphql.FieldConfigArgument{
					"linkId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.wrap(r.vote),
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
	if err != nil {
		return nil, fmt.Errorf("graph: building schema: %w", err)
	}

	return &Schema{schema: schema}, nil
}

// Execute runs one GraphQL operation. ctx carries the caller's identity
// (see auth.Identify) down to the services.
func (s *Schema) Execute(ctx context.Context, query, operationName string, variables map[string]any) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  query,
		OperationName:  operationName,
		VariableValues: variables,
		Context:        ctx,
	})
}

func nonNullList(of graphql.Type) graphql.Type {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(of)))
}

func requiredString() *graphql.ArgumentConfig {
	return &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}
}
