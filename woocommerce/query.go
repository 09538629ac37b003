package woocommerce

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// TimeLayout is the timestamp format the analytics endpoints accept for
// after/before.
const TimeLayout = "2006-01-02T15:04:05"

// DefaultPerPage applies when a query does not set per_page.
const DefaultPerPage = 100

// Query describes one endpoint extraction. Zero-valued fields are omitted from
// the request. Overrides are applied last and win over the named fields.
type Query struct {
	Endpoint string

	Context   string
	Page      int // first page; 0 leaves the query unpaginated
	PerPage   int
	Order     string
	OrderBy   string
	Status    string
	Role      string
	Category  string
	Namespace string
	After     time.Time
	Before    time.Time

	Overrides map[string]string
}

// Values renders the query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("context", q.Context)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	set("order", q.Order)
	set("orderby", q.OrderBy)
	set("status", q.Status)
	set("role", q.Role)
	set("category", q.Category)
	set("namespace", q.Namespace)
	if !q.After.IsZero() {
		v.Set("after", q.After.Format(TimeLayout))
	}
	if !q.Before.IsZero() {
		v.Set("before", q.Before.Format(TimeLayout))
	}
	for key, value := range q.Overrides {
		v.Set(key, value)
	}
	return v
}

// pagination reads the paging state out of rendered parameters. A query is
// paginated only when it carries a page parameter.
func pagination(v url.Values) (paginated bool, page, perPage int, err error) {
	perPage = DefaultPerPage
	if raw := v.Get("per_page"); raw != "" {
		perPage, err = strconv.Atoi(raw)
		if err != nil || perPage <= 0 {
			return false, 0, 0, fmt.Errorf("invalid per_page %q", raw)
		}
	}
	if !v.Has("page") {
		return false, 0, perPage, nil
	}
	page, err = strconv.Atoi(v.Get("page"))
	if err != nil || page <= 0 {
		return false, 0, 0, fmt.Errorf("invalid page %q", v.Get("page"))
	}
	return true, page, perPage, nil
}
