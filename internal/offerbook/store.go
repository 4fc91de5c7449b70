package offerbook

import (
	"slices"

	"basicswap-orderbook-go/internal/models"
)

// State is the viewer-controlled part of the table: filter, sort and page.
type State struct {
	Filter Constraint `json:"filter"`
	Sort   SortState  `json:"sort"`
	Page   PageState  `json:"page"`
}

// DefaultState has no filter, sorts by soonest expiry and shows page 1.
func DefaultState() State {
	return State{Sort: DefaultSort(), Page: FirstPage()}
}

// Store holds the full offer collection and the filtered, sorted view of it.
// all is replaced wholesale by Load and never modified; filtered is derived.
type Store struct {
	all      []models.Offer
	filtered []models.Offer
	options  Options
	state    State
}

// NewStore returns an empty store in the default state.
func NewStore() *Store {
	return &Store{state: DefaultState()}
}

// Load replaces the full collection. The options are re-derived and the
// current filter and sort are re-applied; the page goes back to 1.
// A selected asset missing from the new options is kept and simply matches nothing.
func (s *Store) Load(all []models.Offer) {
	s.all = all
	s.options = DeriveOptions(all)
	s.rebuild()
}

// SetFilter applies a new constraint and resets the page.
func (s *Store) SetFilter(c Constraint) {
	s.state.Filter = c
	s.rebuild()
}

// ClearFilters removes both asset constraints.
func (s *Store) ClearFilters() {
	s.SetFilter(Constraint{})
}

// SortBy toggles the sort on field and re-sorts the filtered offers.
func (s *Store) SortBy(field Field) {
	s.state.Sort = s.state.Sort.Toggle(field)
	Sort(s.filtered, s.state.Sort)
}

// PrevPage moves one page back if possible.
func (s *Store) PrevPage() {
	s.state.Page = s.state.Page.Prev()
}

// NextPage moves one page forward if possible.
func (s *Store) NextPage() {
	s.state.Page = s.state.Page.Next(s.PageCount())
}

func (s *Store) rebuild() {
	s.filtered = Apply(s.all, s.state.Filter)
	Sort(s.filtered, s.state.Sort)
	s.state.Page = FirstPage()
}

// Visible returns the offers on the current page.
func (s *Store) Visible() []models.Offer {
	return Slice(s.filtered, s.state.Page.Page, s.state.Page.Size)
}

// PageCount returns the number of pages of the filtered collection.
func (s *Store) PageCount() int {
	return PageCount(len(s.filtered), s.state.Page.Size)
}

// Options returns the selectable assets of the current collection.
func (s *Store) Options() Options { return s.options }
func (s *Store) State() State { return s.state }
func (s *Store) All() []models.Offer { return s.all }
func (s *Store) Filtered() []models.Offer { return s.filtered }

// Clone returns an independent copy sharing the immutable full collection.
func (s *Store) Clone() *Store {
	return &Store{
		all:      s.all,
		filtered: slices.Clone(s.filtered),
		options:  s.options,
		state:    s.state,
	}
}
