package model

import "fmt"

// Sort is the direction of one ordering rule.
type Sort string

const (
	SortAsc  Sort = "asc"
	SortDesc Sort = "desc"
)

// LinkOrderField names a Link field the feed can be ordered by.
type LinkOrderField string

const (
	OrderByDescription LinkOrderField = "description"
	OrderByURL         LinkOrderField = "url"
	OrderByCreatedAt   LinkOrderField = "createdAt"
)

// LinkOrderFields lists the orderable fields in the order they are read from
// a single LinkOrderByInput object.
var LinkOrderFields = []LinkOrderField{OrderByDescription, OrderByURL, OrderByCreatedAt}

// LinkOrderBy is one (field, direction) tie-break rule. A feed request carries
// a slice of these, applied in slice order.
type LinkOrderBy struct {
	Field     LinkOrderField
	Direction Sort
}

// Validate rejects fields and directions outside the closed sets above.
// Repositories rely on this before turning a rule into SQL.
func (o LinkOrderBy) Validate() error {
	switch o.Field {
	case OrderByDescription, OrderByURL, OrderByCreatedAt:
	default:
		return fmt.Errorf("unknown order field %q", o.Field)
	}
	switch o.Direction {
	case SortAsc, SortDesc:
	default:
		return fmt.Errorf("unknown sort direction %q", o.Direction)
	}
	return nil
}
