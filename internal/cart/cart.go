// Package cart holds the shopping cart state and the rules that change it.
//
// The reducer is pure: every mutation takes a State and returns a new one. The
// subscription promotion (one free machine while a subscription with at least
// one consumable is selected) is re-applied after every mutation, so the free
// machine line is injected, split off, restored or removed automatically.
//
// Manager is the shopper-side half: it keeps a local copy and mirrors it to the
// server cart exposed at /cart and /cart/sync.
package cart

import (
	"errors"
	"fmt"

	"go-roastery-api/internal/model"
)

var (
	ErrUnknownProduct  = errors.New("unknown product")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
)

type Item struct {
	ProductSlug          string            `json:"product_slug"`
	ProductType          model.ProductType `json:"product_type"`
	Quantity             int               `json:"quantity"`
	Price                int64             `json:"price"`
	FreeWithSubscription bool              `json:"free_with_subscription"`
	UserAdded            bool              `json:"user_added"`
}

type State struct {
	Items          []Item `json:"items"`
	IsSubscription bool   `json:"is_subscription"`
}

// Total is the sum of quantity x price over lines that are not free
func (s State) Total() int64 {
	var total int64
	for _, it := range s.Items {
		if it.FreeWithSubscription {
			continue
		}
		total += int64(it.Quantity) * it.Price
	}
	return total
}

func (s State) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

func (s State) findPaid(slug string) int {
	for i, it := range s.Items {
		if it.ProductSlug == slug && !it.FreeWithSubscription {
			return i
		}
	}
	return -1
}

func (s State) findFree(slug string) int {
	for i, it := range s.Items {
		if it.ProductSlug == slug && it.FreeWithSubscription {
			return i
		}
	}
	return -1
}

func (s State) removeAt(i int) State {
	items := make([]Item, 0, len(s.Items)-1)
	items = append(items, s.Items[:i]...)
	items = append(items, s.Items[i+1:]...)
	return State{Items: items, IsSubscription: s.IsSubscription}
}

func (s State) hasConsumable() bool {
	for _, it := range s.Items {
		if it.ProductType == model.ProductConsumable {
			return true
		}
	}
	return false
}

func (s State) clone() State {
	items := make([]Item, len(s.Items))
	copy(items, s.Items)
	return State{Items: items, IsSubscription: s.IsSubscription}
}

// Product is the catalog data the reducer needs for one slug
type Product struct {
	Slug  string
	Type  model.ProductType
	Price int64
}

// Catalog resolves slugs to catalog data and names the promotional machine
type Catalog interface {
	Lookup(slug string) (Product, bool)
	MachineSlug() string
}

// StaticCatalog is an in-memory Catalog snapshot
type StaticCatalog struct {
	machine  string
	products map[string]Product
}

func NewStaticCatalog(machineSlug string, products ...Product) *StaticCatalog {
	c := &StaticCatalog{machine: machineSlug, products: make(map[string]Product, len(products))}
	for _, p := range products {
		c.products[p.Slug] = p
	}
	return c
}

func (c *StaticCatalog) Lookup(slug string) (Product, bool) {
	p, ok := c.products[slug]
	return p, ok
}

func (c *StaticCatalog) MachineSlug() string {
	return c.machine
}

// Mutation is one cart action
type Mutation interface {
	apply(s State, cat Catalog) (State, error)
}

type AddItem struct {
	Slug     string
	Quantity int
}

type UpdateQuantity struct {
	Slug     string
	Quantity int
}

type RemoveItem struct {
	Slug string
}

type SetSubscription struct {
	On bool
}

type Clear struct{}

// Replace swaps the whole state, e.g. with the server copy
type Replace struct {
	State State
}

func (m AddItem) apply(s State, cat Catalog) (State, error) {
	if m.Quantity <= 0 {
		return s, ErrInvalidQuantity
	}
	p, ok := cat.Lookup(m.Slug)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownProduct, m.Slug)
	}

	next := s.clone()
	if i := next.findPaid(m.Slug); i >= 0 {
		next.Items[i].Quantity += m.Quantity
		next.Items[i].UserAdded = true
		return next, nil
	}
	next.Items = append(next.Items, Item{
		ProductSlug: p.Slug,
		ProductType: p.Type,
		Quantity:    m.Quantity,
		Price:       p.Price,
		UserAdded:   true,
	})
	return next, nil
}

// apply sets the number of units of a slug. When a free line exists for the
// slug it keeps its single unit and the paid line carries the rest.
func (m UpdateQuantity) apply(s State, cat Catalog) (State, error) {
	if m.Quantity <= 0 {
		return RemoveItem{Slug: m.Slug}.apply(s, cat)
	}
	next := s.clone()
	paid, free := next.findPaid(m.Slug), next.findFree(m.Slug)
	if paid < 0 && free < 0 {
		return s, fmt.Errorf("%w: %s", ErrUnknownProduct, m.Slug)
	}

	want := m.Quantity
	if free >= 0 {
		want--
	}
	switch {
	case paid >= 0 && want == 0:
		return next.removeAt(paid), nil
	case paid >= 0:
		next.Items[paid].Quantity = want
		return next, nil
	case want > 0:
		return AddItem{Slug: m.Slug, Quantity: want}.apply(next, cat)
	}
	return next, nil
}

func (m RemoveItem) apply(s State, _ Catalog) (State, error) {
	next := State{IsSubscription: s.IsSubscription, Items: make([]Item, 0, len(s.Items))}
	for _, it := range s.Items {
		if it.ProductSlug != m.Slug {
			next.Items = append(next.Items, it)
		}
	}
	return next, nil
}

func (m SetSubscription) apply(s State, _ Catalog) (State, error) {
	next := s.clone()
	next.IsSubscription = m.On
	return next, nil
}

func (Clear) apply(s State, _ Catalog) (State, error) {
	return State{Items: []Item{}}, nil
}

func (m Replace) apply(_ State, _ Catalog) (State, error) {
	return m.State.clone(), nil
}

// Reducer applies mutations against a catalog
type Reducer struct {
	catalog Catalog
}

func NewReducer(cat Catalog) *Reducer {
	return &Reducer{catalog: cat}
}

// Apply runs the mutation and then re-applies the subscription promotion.
// On error the input state is returned unchanged.
func (r *Reducer) Apply(s State, m Mutation) (State, error) {
	next, err := m.apply(s, r.catalog)
	if err != nil {
		return s, err
	}
	return r.applyPromotion(next)
}

// Rebuild re-derives a state from the catalog: prices are re-read, lines the
// promotion injected are dropped and the promotion is applied again. Unknown
// slugs fail the whole rebuild.
func (r *Reducer) Rebuild(s State) (State, error) {
	out := State{Items: []Item{}}
	for _, it := range s.Items {
		if !it.UserAdded && it.FreeWithSubscription {
			continue
		}
		var err error
		if out, err = (AddItem{Slug: it.ProductSlug, Quantity: it.Quantity}).apply(out, r.catalog); err != nil {
			return s, err
		}
	}
	out.IsSubscription = s.IsSubscription
	return r.applyPromotion(out)
}

// applyPromotion keeps at most one free line: one unit of the catalog machine.
// A machine the shopper added independently gives up one unit to the free line
// and gets it back when the promotion ends.
func (r *Reducer) applyPromotion(s State) (State, error) {
	machine := r.catalog.MachineSlug()
	if machine == "" {
		return s, nil
	}
	s = dropStrayFree(s, machine)

	free, paid := s.findFree(machine), s.findPaid(machine)
	if s.IsSubscription && s.hasConsumable() {
		switch {
		case free >= 0:
			s.Items[free].Quantity = 1
			s.Items[free].Price = 0
		case paid >= 0 && s.Items[paid].Quantity == 1:
			s.Items[paid].Price = 0
			s.Items[paid].FreeWithSubscription = true
		case paid >= 0:
			s.Items[paid].Quantity--
			s.Items = append(s.Items, Item{
				ProductSlug:          machine,
				ProductType:          model.ProductMachine,
				Quantity:             1,
				FreeWithSubscription: true,
				UserAdded:            true,
			})
		default:
			s.Items = append(s.Items, Item{
				ProductSlug:          machine,
				ProductType:          model.ProductMachine,
				Quantity:             1,
				FreeWithSubscription: true,
			})
		}
		return s, nil
	}

	if free < 0 {
		return s, nil
	}
	if !s.Items[free].UserAdded {
		return s.removeAt(free), nil
	}
	if paid >= 0 {
		s.Items[paid].Quantity++
		return s.removeAt(free), nil
	}
	p, ok := r.catalog.Lookup(machine)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownProduct, machine)
	}
	s.Items[free].Quantity = 1
	s.Items[free].Price = p.Price
	s.Items[free].FreeWithSubscription = false
	return s, nil
}

// dropStrayFree removes free lines that are not the first free machine line
func dropStrayFree(s State, machine string) State {
	first := s.findFree(machine)
	out := State{IsSubscription: s.IsSubscription, Items: make([]Item, 0, len(s.Items))}
	for i, it := range s.Items {
		if it.FreeWithSubscription && i != first {
			continue
		}
		out.Items = append(out.Items, it)
	}
	return out
}

// Reconcile decides which copy wins when an identity attaches to a cart:
// a non-empty server cart overwrites the local one, otherwise the local cart
// should be pushed to the server.
func Reconcile(local, remote State) (winner State, pushLocal bool) {
	if !remote.IsEmpty() {
		return remote, false
	}
	return local, true
}
