package client

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/justsurfingit/hireboard/internal/dtos"
	"github.com/justsurfingit/hireboard/internal/models"
	"github.com/justsurfingit/hireboard/internal/pagination"
)

type (
	JobPage      = dtos.Page[models.Job]
	TemplatePage = dtos.Page[models.EmailTemplate]
	EventPage    = dtos.Page[models.JobEvent]
)

// keySep separates the job view from the session ID in a collection key.
const keySep = "#"

// CollectionKey builds a controller key from a job view and a session ID so
// that either changing resets the list.
func CollectionKey(view, sessionID string) string {
	if sessionID == "" {
		return view
	}
	return view + keySep + sessionID
}

// ViewFromKey returns the job view part of a collection key.
func ViewFromKey(key string) string {
	view, _, _ := strings.Cut(key, keySep)
	return view
}

// ListJobs fetches one page of jobs. The job view (all, active, closed) is
// taken from p.Key.
func (c *Client) ListJobs(ctx context.Context, p pagination.Params) (*JobPage, error) {
	q := listQuery(p)
	if view := ViewFromKey(p.Key); view != "" {
		q.Set("view", view)
	}
	var page JobPage
	if err := c.get(ctx, "/api/v1/jobs", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) ListTemplates(ctx context.Context, p pagination.Params) (*TemplatePage, error) {
	var page TemplatePage
	if err := c.get(ctx, "/api/v1/email-templates", listQuery(p), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) ListJobEvents(ctx context.Context, jobID uint, p pagination.Params) (*EventPage, error) {
	var page EventPage
	path := "/api/v1/jobs/" + strconv.FormatUint(uint64(jobID), 10) + "/events"
	if err := c.get(ctx, path, listQuery(p), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// listQuery encodes page, limit, search and every non-empty custom filter.
func listQuery(p pagination.Params) url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if s := strings.TrimSpace(p.SearchQuery); s != "" {
		q.Set("search", s)
	}
	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := filterValue(p.Filters[k]); v != "" {
			q.Set(k, v)
		}
	}
	return q
}

func filterValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Normalize reshapes a raw {items, total, page, limit} page into the
// controller's envelope.
func Normalize[T any](raw *dtos.Page[T]) (pagination.Envelope[T], error) {
	if raw == nil {
		return pagination.Envelope[T]{}, fmt.Errorf("normalize: empty page")
	}
	total := int(raw.Total)
	results := raw.Items
	if results == nil {
		results = []T{}
	}
	return pagination.Envelope[T]{
		Results:      results,
		Limit:        raw.Limit,
		Page:         raw.Page,
		TotalResults: total,
		TotalPages:   pagination.PageCount(total, raw.Limit),
	}, nil
}

func NormalizeJobs(raw *JobPage) (pagination.Envelope[models.Job], error) {
	return Normalize(raw)
}

func NormalizeTemplates(raw *TemplatePage) (pagination.Envelope[models.EmailTemplate], error) {
	return Normalize(raw)
}

func NormalizeEvents(raw *EventPage) (pagination.Envelope[models.JobEvent], error) {
	return Normalize(raw)
}
