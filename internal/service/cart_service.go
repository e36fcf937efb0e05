package service

import (
	"context"
	"errors"
	"fmt"

	"go-roastery-api/internal/cart"
	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartResponse, error)
	ReplaceCart(ctx context.Context, userID uuid.UUID, state cart.State) (*CartResponse, error)
	// SyncCart keeps a non-empty server cart, otherwise stores local
	SyncCart(ctx context.Context, userID uuid.UUID, local cart.State) (*CartResponse, error)
}

type CartResponse struct {
	cart.State
	Total     int64 `json:"total"`
	ItemCount int   `json:"item_count"`
}

func newCartResponse(s cart.State) *CartResponse {
	if s.Items == nil {
		s.Items = []cart.Item{}
	}
	return &CartResponse{State: s, Total: s.Total(), ItemCount: s.ItemCount()}
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	machineSlug string
	logger      *zap.Logger
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, machineSlug string, logger *zap.Logger) CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		machineSlug: machineSlug,
		logger:      logger.Named("cart"),
	}
}

// reducer snapshots the catalog so prices come from the server, never the client
func (s *cartService) reducer(ctx context.Context) (*cart.Reducer, error) {
	return CatalogReducer(ctx, s.productRepo, s.machineSlug)
}

// CatalogReducer builds a cart reducer over the current product catalog
func CatalogReducer(ctx context.Context, products repository.ProductRepository, machineSlug string) (*cart.Reducer, error) {
	all, err := products.FindAll(ctx)
	if err != nil {
		return nil, storageErr(err, "products")
	}
	catalog := make([]cart.Product, len(all))
	for i, p := range all {
		catalog[i] = cart.Product{Slug: p.Slug, Type: p.Type, Price: p.Price}
	}
	return cart.NewReducer(cart.NewStaticCatalog(machineSlug, catalog...)), nil
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	if userID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	stored, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, storageErr(err, "cart")
	}
	return newCartResponse(stateFromModel(stored)), nil
}

func (s *cartService) ReplaceCart(ctx context.Context, userID uuid.UUID, state cart.State) (*CartResponse, error) {
	if userID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	for _, it := range state.Items {
		if it.Quantity <= 0 {
			return nil, validationf("quantity for %s must be greater than zero", it.ProductSlug)
		}
	}

	r, err := s.reducer(ctx)
	if err != nil {
		return nil, err
	}
	normalized, err := r.Rebuild(state)
	if err != nil {
		if errors.Is(err, cart.ErrUnknownProduct) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, validationf("%v", err)
	}

	stored, err := s.cartRepo.Replace(ctx, userID, normalized.IsSubscription, itemsFromState(normalized))
	if err != nil {
		return nil, storageErr(err, "cart")
	}
	return newCartResponse(stateFromModel(stored)), nil
}

func (s *cartService) SyncCart(ctx context.Context, userID uuid.UUID, local cart.State) (*CartResponse, error) {
	current, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	winner, pushLocal := cart.Reconcile(local, current.State)
	if !pushLocal {
		return current, nil
	}
	if winner.IsEmpty() {
		return newCartResponse(winner), nil
	}
	s.logger.Debug("Storing local cart on first sync", zap.String("user_id", userID.String()), zap.Int("items", len(winner.Items)))
	return s.ReplaceCart(ctx, userID, winner)
}

func stateFromModel(c *model.Cart) cart.State {
	st := cart.State{IsSubscription: c.IsSubscription, Items: make([]cart.Item, len(c.Items))}
	for i, it := range c.Items {
		st.Items[i] = cart.Item{
			ProductSlug:          it.ProductSlug,
			ProductType:          it.ProductType,
			Quantity:             it.Quantity,
			Price:                it.Price,
			FreeWithSubscription: it.FreeWithSubscription,
			UserAdded:            it.UserAdded,
		}
	}
	return st
}

func itemsFromState(s cart.State) []model.CartItem {
	items := make([]model.CartItem, len(s.Items))
	for i, it := range s.Items {
		items[i] = model.CartItem{
			Position:             i,
			ProductSlug:          it.ProductSlug,
			ProductType:          it.ProductType,
			Quantity:             it.Quantity,
			Price:                it.Price,
			FreeWithSubscription: it.FreeWithSubscription,
			UserAdded:            it.UserAdded,
		}
	}
	return items
}

// CartRemote lets a cart.Manager use the server cart as its remote store
type CartRemote struct {
	Service CartService
}

var _ cart.RemoteStore = CartRemote{}

func (r CartRemote) Fetch(ctx context.Context, userID string) (cart.State, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return cart.State{}, validationf("invalid user id")
	}
	resp, err := r.Service.GetCart(ctx, id)
	if err != nil {
		return cart.State{}, err
	}
	return resp.State, nil
}

func (r CartRemote) Push(ctx context.Context, userID string, s cart.State) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return validationf("invalid user id")
	}
	_, err = r.Service.ReplaceCart(ctx, id, s)
	return err
}
