// Package listview computes the visible page of the customer table from the
// full customer list. Everything here is a pure function of its inputs.
package listview

import (
	"slices"
	"strings"

	. "portal/internal/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const PAGE_SIZE = 10

type SortKey string

const (
	SortFirstName   SortKey = "firstName"
	SortLastName    SortKey = "lastName"
	SortDateOfBirth SortKey = "dateOfBirth"
	SortEmail       SortKey = "email"
)

var SortKeys = []SortKey{SortFirstName, SortLastName, SortDateOfBirth, SortEmail}

func (k SortKey) Valid() bool {
	return slices.Contains(SortKeys, k)
}

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

type Query struct {
	Search  string
	SortKey SortKey
	SortDir SortDirection
	Page    int
}

func DefaultQuery() Query {
	return Query{SortKey: SortFirstName, SortDir: Ascending, Page: 1}
}

// ToggleSort flips the direction when key is already active, otherwise it
// switches to key in ascending order.
func (q Query) ToggleSort(key SortKey) Query {
	if q.SortKey == key {
		if q.SortDir == Descending {
			q.SortDir = Ascending
		} else {
			q.SortDir = Descending
		}
		return q
	}
	q.SortKey = key
	q.SortDir = Ascending
	return q
}

// WithSearch always returns to the first page, even for an unchanged term.
func (q Query) WithSearch(term string) Query {
	q.Search = term
	q.Page = 1
	return q
}

func (q Query) WithPage(page int) Query {
	q.Page = page
	return q
}

type Page struct {
	Items      []CustomerRecord
	Total      int
	TotalPages int
	Page       int
}

// First and Last are the 1-based positions shown as "First-Last von Total".
func (p Page) First() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Page-1)*PAGE_SIZE + 1
}

func (p Page) Last() int {
	return min(p.Page*PAGE_SIZE, p.Total)
}

func Build(records []CustomerRecord, q Query) Page {
	matching := Filter(records, q.Search)
	Sort(matching, q.SortKey, q.SortDir)

	totalPages := max(1, (len(matching)+PAGE_SIZE-1)/PAGE_SIZE)
	page := min(max(q.Page, 1), totalPages)

	start := min((page-1)*PAGE_SIZE, len(matching))
	end := min(start+PAGE_SIZE, len(matching))

	return Page{
		Items:      matching[start:end],
		Total:      len(matching),
		TotalPages: totalPages,
		Page:       page,
	}
}

// Filter returns a new slice with the records whose "first last" name or
// email contains term, case-insensitively.
func Filter(records []CustomerRecord, term string) []CustomerRecord {
	term = strings.ToLower(term)
	out := make([]CustomerRecord, 0, len(records))
	for _, r := range records {
		personal := r.FormData.PersonalData
		name := strings.ToLower(personal.FirstName + " " + personal.LastName)
		if term == "" || strings.Contains(name, term) || strings.Contains(strings.ToLower(personal.Email), term) {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders records in place using German collation. Unknown keys leave
// the order untouched.
func Sort(records []CustomerRecord, key SortKey, dir SortDirection) {
	if !key.Valid() {
		return
	}

	collator := collate.New(language.German)
	compare := func(a, b CustomerRecord) int {
		if key == SortDateOfBirth {
			// Storage dates are YYYY-MM-DD and order lexically.
			return strings.Compare(a.FormData.DriverInfo.DOB, b.FormData.DriverInfo.DOB)
		}
		return collator.CompareString(sortValue(a, key), sortValue(b, key))
	}

	slices.SortStableFunc(records, func(a, b CustomerRecord) int {
		if dir == Descending {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

func sortValue(r CustomerRecord, key SortKey) string {
	switch key {
	case SortFirstName:
		return r.FormData.PersonalData.FirstName
	case SortLastName:
		return r.FormData.PersonalData.LastName
	case SortEmail:
		return r.FormData.PersonalData.Email
	case SortDateOfBirth:
		return r.FormData.DriverInfo.DOB
	}
	return ""
}
