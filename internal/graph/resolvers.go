package graph

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/graphql-go/graphql"

	"github.com/sakif/hackernews/internal/apperror"
	"github.com/sakif/hackernews/internal/model"
	"github.com/sakif/hackernews/internal/service"
)

// internalMessage replaces the message of any error that isn't an AppError.
const internalMessage = "An internal error occurred"

// wrap normalizes whatever a resolver returns into an *apperror.AppError.
//
// graphql-go copies "extensions" into the response only when the error it
// receives implements Extensions() itself, so the AppError has to come out
// of the fmt.Errorf chain the services build. Anything else is logged and
// replaced by a generic message so store details never reach clients.
func (r *resolver) wrap(fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		v, err := fn(p)
		if err == nil {
			return v, nil
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code() == apperror.CodeInternal {
				r.logError(p, err)
			}
			return nil, appErr
		}

		r.logError(p, err)
		return nil, &apperror.AppError{Err: err, Message: internalMessage}
	}
}

func (r *resolver) logError(p graphql.ResolveParams, err error) {
	r.logger.Error("resolver failed",
		slog.String("field", p.Info.FieldName),
		slog.String("request_id", middleware.GetReqID(p.Context)),
		slog.Any("error", err),
	)
}

// =========================================================================
// QUERY RESOLVERS
// =========================================================================

func (r *resolver) feed(p graphql.ResolveParams) (any, error) {
	params := service.FeedParams{
		Filter: optString(p.Args, "filter"),
		Skip:   optInt(p.Args, "skip"),
		Take:   optInt(p.Args, "take"),
	}

	orderBy, err := orderRules(p.Args["orderBy"])
	if err != nil {
		return nil, apperror.ValidationFailed("orderBy", err.Error())
	}
	params.OrderBy = orderBy

	return r.links.Feed(p.Context, params)
}

func (r *resolver) link(p graphql.ResolveParams) (any, error) {
	l, err := r.links.GetByID(p.Context, p.Args["id"].(int))
	if err != nil || l == nil {
		return nil, err
	}
	return l, nil
}

// =========================================================================
// MUTATION RESOLVERS
// =========================================================================

func (r *resolver) signup(p graphql.ResolveParams) (any, error) {
	return r.auth.Signup(p.Context,
		p.Args["email"].(string),
		p.Args["password"].(string),
		p.Args["name"].(string),
	)
}

func (r *resolver) login(p graphql.ResolveParams) (any, error) {
	return r.auth.Login(p.Context,
		p.Args["email"].(string),
		p.Args["password"].(string),
	)
}

func (r *resolver) createPost(p graphql.ResolveParams) (any, error) {
	return r.links.Create(p.Context,
		p.Args["description"].(string),
		p.Args["url"].(string),
	)
}

func (r *resolver) updateLink(p graphql.ResolveParams) (any, error) {
	return r.links.Update(p.Context,
		p.Args["id"].(int),
		optString(p.Args, "description"),
		optString(p.Args, "url"),
	)
}

func (r *resolver) deleteLink(p graphql.ResolveParams) (any, error) {
	return r.links.Delete(p.Context, p.Args["id"].(int))
}

func (r *resolver) vote(p graphql.ResolveParams) (any, error) {
	return r.links.Vote(p.Context, p.Args["linkId"].(int))
}

// =========================================================================
// RELATION RESOLVERS
// =========================================================================

func (r *resolver) linkPostedBy(p graphql.ResolveParams) (any, error) {
	l, ok := p.Source.(*model.Link)
	if !ok {
		return nil, fmt.Errorf("graph: postedBy on %T", p.Source)
	}
	u, err := r.links.PostedBy(p.Context, l)
	if err != nil || u == nil {
		return nil, err
	}
	return u, nil
}

func (r *resolver) linkVoters(p graphql.ResolveParams) (any, error) {
	l, ok := p.Source.(*model.Link)
	if !ok {
		return nil, fmt.Errorf("graph: voters on %T", p.Source)
	}
	return r.links.Voters(p.Context, l)
}

func (r *resolver) userLinks(p graphql.ResolveParams) (any, error) {
	u, ok := p.Source.(*model.User)
	if !ok {
		return nil, fmt.Errorf("graph: links on %T", p.Source)
	}
	return r.users.Links(p.Context, u)
}

func (r *resolver) userVotes(p graphql.ResolveParams) (any, error) {
	u, ok := p.Source.(*model.User)
	if !ok {
		return nil, fmt.Errorf("graph: votes on %T", p.Source)
	}
	return r.users.Votes(p.Context, u)
}

// =========================================================================
// ARGUMENT HELPERS
// =========================================================================

// optString returns nil when the argument was omitted or sent as null.
func optString(args map[string]any, name string) *string {
	if v, ok := args[name].(string); ok {
		return &v
	}
	return nil
}

func optInt(args map[string]any, name string) *int {
	if v, ok := args[name].(int); ok {
		return &v
	}
	return nil
}

// orderRules flattens the orderBy argument into rules. Each input object may
// set more than one field; those are read in LinkOrderFields order, and the
// objects themselves keep list order.
func orderRules(arg any) ([]model.LinkOrderBy, error) {
	list, ok := arg.([]any)
	if !ok {
		return nil, nil
	}

	var rules []model.LinkOrderBy
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, field := range model.LinkOrderFields {
			dir, ok := obj[string(field)]
			if !ok || dir == nil {
				continue
			}
			rule := model.LinkOrderBy{Field: field, Direction: toSort(dir)}
			if err := rule.Validate(); err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func toSort(v any) model.Sort {
	switch s := v.(type) {
	case model.Sort:
		return s
	case string:
		return model.Sort(s)
	}
	return model.Sort(fmt.Sprint(v))
}
