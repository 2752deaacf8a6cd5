// Package listing filters, orders and paginates use case records.
package listing

import (
	"sort"
	"strings"

	"github.com/openfroyo/ucm/pkg/usecase"
)

// DefaultPageSize is the number of records per page.
const DefaultPageSize = 10

// Query selects one page of records.
type Query struct {
	// Search is matched case-insensitively against the id and name.
	Search string

	// Page is 1-based. Values below 1 select the first page.
	Page int

	// PageSize defaults to DefaultPageSize.
	PageSize int
}

// Page is one slice of the ordered, filtered records.
type Page struct {
	Records []*usecase.Record

	// Total is the number of records matching the query across all pages.
	Total int

	// NextPage is the number of the following page, or 0 when this is the last.
	NextPage int
}

// Filter keeps records whose id or name contains search, ignoring case.
// An empty search keeps everything.
func Filter(records []*usecase.Record, search string) []*usecase.Record {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return records
	}
	out := make([]*usecase.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.UseCaseID), search) ||
			strings.Contains(strings.ToLower(r.Name), search) {
			out = append(out, r)
		}
	}
	return out
}

// SortNewestFirst orders records by creation time, newest first. Records
// created at the same instant keep their relative order.
func SortNewestFirst(records []*usecase.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

// Paginate returns the requested page of the already ordered records.
func Paginate(records []*usecase.Record, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(records)
	// Compare page counts rather than offsets so huge page numbers cannot overflow.
	if total == 0 || page-1 > (total-1)/pageSize {
		return Page{Records: records[total:], Total: total}
	}
	start := (page - 1) * pageSize
	end := start + min(pageSize, total-start)

	p := Page{Records: records[start:end], Total: total}
	if end < total {
		p.NextPage = page + 1
	}
	return p
}

// Apply filters, orders and paginates records without modifying the input slice.
func Apply(records []*usecase.Record, q Query) Page {
	filtered := Filter(records, q.Search)
	ordered := make([]*usecase.Record, len(filtered))
	copy(ordered, filtered)
	SortNewestFirst(ordered)
	return Paginate(ordered, q.Page, q.PageSize)
}
