package query

// Change names a mutation of the engine's query inputs. Page, size, sort
// and endpoint are equally significant fetch triggers; filter and keyword
// changes additionally rewind to the first page.
type Change int

const (
	ChangeNone Change = iota
	ChangePage
	ChangeSize
	ChangeSort
	ChangeEndpoint
	ChangeFilters
	ChangeKeyword
)

func (c Change) String() string {
	switch c {
	case ChangePage:
		return "page"
	case ChangeSize:
		return "size"
	case ChangeSort:
		return "sort"
	case ChangeEndpoint:
		return "endpoint"
	case ChangeFilters:
		return "filters"
	case ChangeKeyword:
		return "keyword"
	default:
		return "none"
	}
}

// ShouldFetch decides whether a change must converge to a fetch. Pure so
// the triggering rules are testable without a network.
func ShouldFetch(c Change) bool {
	return c != ChangeNone
}

// ResetsPage reports whether a change rewinds pagination to page 1
// before fetching.
func ResetsPage(c Change) bool {
	switch c {
	case ChangeEndpoint, ChangeFilters, ChangeKeyword:
		return true
	default:
		return false
	}
}
