package service

import (
	"context"
	"fmt"

	"go-roastery-api/internal/cache"
	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"
	"go-roastery-api/internal/ws"
	"go-roastery-api/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderService interface {
	CreateOrder(ctx context.Context, actor Actor, req *CreateOrderRequest) (*model.Order, error)
	ListMyOrders(ctx context.Context, actor Actor) ([]model.Order, error)
	GetMyOrder(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error)
	CancelMyOrder(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error)

	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor Actor) (*model.Order, error)
	SetTotalOverride(ctx context.Context, id uuid.UUID, total *int64, actor Actor) (*model.Order, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string, actor Actor) (*model.Order, error)
	ExportOrders(ctx context.Context, filter repository.OrderFilter) ([]byte, error)
}

type CreateOrderRequest struct {
	Items           []OrderItemInput      `json:"items" validate:"required,min=1,dive"`
	IsSubscription  bool                  `json:"is_subscription"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	Notes           string                `json:"notes" validate:"max=2000"`
	Locale          string                `json:"locale" validate:"max=10"`
}

// OrderItemInput mirrors a cart line. Price is informational only; the
// catalog price at checkout is what gets stored.
type OrderItemInput struct {
	ProductSlug string `json:"product_slug" validate:"required"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	IsFree      bool   `json:"is_free"`
}

type orderService struct {
	ledger
	orderRepo    repository.OrderRepository
	cartRepo     repository.CartRepository
	db           *gorm.DB
	catalogCache cache.CatalogCache
	machineSlug  string
	wsHub        *ws.Hub
	logger       *zap.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	cartRepo repository.CartRepository,
	db *gorm.DB,
	catalogCache cache.CatalogCache,
	machineSlug string,
	hub *ws.Hub,
	logger *zap.Logger,
) OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &orderService{
		ledger:       ledger{productRepo: productRepo, movementRepo: movementRepo},
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		db:           db,
		catalogCache: catalogCache,
		machineSlug:  machineSlug,
		wsHub:        hub,
		logger:       logger.Named("orders"),
	}
}

func (s *orderService) validateCreate(req *CreateOrderRequest) error {
	if msg := validator.FirstError(req); msg != "" {
		return validationf("%s", msg)
	}
	// a slug may appear twice only as its paid line plus the free line
	type line struct {
		slug string
		free bool
	}
	seen := make(map[line]bool, len(req.Items))
	free := 0
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return validationf("quantity for %s must be greater than zero", it.ProductSlug)
		}
		key := line{it.ProductSlug, it.IsFree}
		if seen[key] {
			return validationf("product %s appears more than once", it.ProductSlug)
		}
		seen[key] = true

		if !it.IsFree {
			continue
		}
		free++
		switch {
		case s.machineSlug == "" || it.ProductSlug != s.machineSlug:
			return validationf("product %s cannot be free in this order", it.ProductSlug)
		case it.Quantity != 1:
			return validationf("only one %s can be free", it.ProductSlug)
		case free > 1:
			return validationf("an order can have only one free item")
		}
	}
	return nil
}

// CreateOrder writes the header, its items and the matching sale movements in
// one transaction. Any failure leaves no trace of the order.
func (s *orderService) CreateOrder(ctx context.Context, actor Actor, req *CreateOrderRequest) (*model.Order, error) {
	if actor.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	slugs := make([]string, len(req.Items))
	for i, it := range req.Items {
		slugs[i] = it.ProductSlug
	}

	order := &model.Order{
		UserID:          actor.ID,
		Status:          model.OrderPending,
		IsSubscription:  req.IsSubscription,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		Locale:          req.Locale,
	}
	order.ID = uuid.New()
	order.Audit(actor.AuditID())

	var movements []*posted
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products, err := s.productRepo.FindBySlugsForUpdate(tx, slugs)
		if err != nil {
			return storageErr(err, "products")
		}
		bySlug := make(map[string]model.Product, len(products))
		hasConsumable := false
		for _, p := range products {
			bySlug[p.Slug] = p
		}
		for _, it := range req.Items {
			p, ok := bySlug[it.ProductSlug]
			if !ok {
				return notFoundf("product %s", it.ProductSlug)
			}
			if p.Type == model.ProductConsumable && !it.IsFree {
				hasConsumable = true
			}
		}

		order.Items = make([]model.OrderItem, 0, len(req.Items))
		for _, it := range req.Items {
			p := bySlug[it.ProductSlug]
			if p.SoldOut {
				return validationf("product %s is sold out", p.Slug)
			}
			price := p.Price
			if it.IsFree {
				if !(p.Type == model.ProductMachine && req.IsSubscription && hasConsumable) {
					return validationf("product %s cannot be free in this order", p.Slug)
				}
				price = 0
			}
			order.Items = append(order.Items, model.OrderItem{
				OrderID:         order.ID,
				ProductID:       p.ID,
				ProductSlug:     p.Slug,
				Quantity:        it.Quantity,
				PriceAtPurchase: price,
				IsFree:          it.IsFree,
			})
		}

		if err := s.orderRepo.Create(tx, order); err != nil {
			return storageErr(err, "order")
		}

		ref := "order:" + order.ID.String()
		for _, item := range order.Items {
			m, err := s.post(tx, item.ProductID, model.MovementSale, item.Quantity, ref, "", actor)
			if err != nil {
				return err
			}
			movements = append(movements, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", actor.ID.String()),
		zap.Int("items", len(order.Items)),
		zap.Int64("total", order.Total()))

	if err := s.cartRepo.Clear(s.db.WithContext(ctx), actor.ID); err != nil {
		s.logger.Warn("Failed to clear cart after checkout", zap.String("user_id", actor.ID.String()), zap.Error(err))
	}

	notifyStock(ctx, s.catalogCache, s.wsHub, actor, movements...)
	s.wsHub.Publish(ws.Event{
		Type:    "order",
		Action:  "order_created",
		Data:    order.ToResponse(),
		User:    actor.wsActor(),
		Message: fmt.Sprintf("New order from %s", actor.displayName()),
	})
	return order, nil
}

func (s *orderService) ListMyOrders(ctx context.Context, actor Actor) ([]model.Order, error) {
	if actor.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	orders, err := s.orderRepo.FindAll(ctx, repository.OrderFilter{UserID: &actor.ID})
	return orders, storageErr(err, "orders")
}

// GetMyOrder hides other users' orders behind not found
func (s *orderService) GetMyOrder(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error) {
	if actor.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "order")
	}
	if order.UserID != actor.ID {
		return nil, notFoundf("order")
	}
	return order, nil
}

// CancelMyOrder only works while the order is still pending
func (s *orderService) CancelMyOrder(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error) {
	if actor.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	return s.transition(ctx, id, model.OrderCancelled, actor, func(o *model.Order) error {
		if o.UserID != actor.ID {
			return notFoundf("order")
		}
		if o.Status != model.OrderPending {
			return validationf("only pending orders can be cancelled, this one is %s", o.Status)
		}
		return nil
	})
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, validationf("unknown order status %q", *filter.Status)
	}
	orders, err := s.orderRepo.FindAll(ctx, filter)
	return orders, storageErr(err, "orders")
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "order")
	}
	return order, nil
}

// UpdateStatus moves an order one step forward or cancels it
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor Actor) (*model.Order, error) {
	if !status.Valid() {
		return nil, validationf("unknown order status %q", status)
	}
	return s.transition(ctx, id, status, actor, func(o *model.Order) error {
		if !o.Status.CanTransitionTo(status) {
			return validationf("cannot move order from %s to %s", o.Status, status)
		}
		return nil
	})
}

// transition locks the order, runs check, writes the new status and, on
// cancellation, returns every line to stock.
func (s *orderService) transition(ctx context.Context, id uuid.UUID, next model.OrderStatus, actor Actor, check func(*model.Order) error) (*model.Order, error) {
	var (
		previous  model.OrderStatus
		movements []*posted
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.LockByID(tx, id)
		if err != nil {
			return storageErr(err, "order")
		}
		if err := check(order); err != nil {
			return err
		}
		previous = order.Status

		if err := s.orderRepo.UpdateStatus(tx, id, next, actor.AuditID()); err != nil {
			return storageErr(err, "order status")
		}
		if next != model.OrderCancelled {
			return nil
		}

		ref := "order:" + id.String() + ":cancel"
		for _, item := range order.Items {
			m, err := s.post(tx, item.ProductID, model.MovementReturn, item.Quantity, ref, "order cancelled", actor)
			if err != nil {
				return err
			}
			movements = append(movements, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "order")
	}

	s.logger.Info("Order status changed",
		zap.String("order_id", id.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))

	if len(movements) > 0 {
		notifyStock(ctx, s.catalogCache, s.wsHub, actor, movements...)
	}
	s.wsHub.Publish(ws.Event{
		Type:   "order",
		Action: "order_status_changed",
		Data: map[string]interface{}{
			"order_id": id,
			"from":     previous,
			"to":       next,
		},
		User:    actor.wsActor(),
		Message: fmt.Sprintf("%s moved order %s to %s", actor.displayName(), shortID(id), next),
	})
	return order, nil
}

// SetTotalOverride pins the total; nil clears the override
func (s *orderService) SetTotalOverride(ctx context.Context, id uuid.UUID, total *int64, actor Actor) (*model.Order, error) {
	if total != nil && *total < 0 {
		return nil, validationf("total override must not be negative")
	}
	if err := s.orderRepo.SetTotalOverride(ctx, id, total, actor.AuditID()); err != nil {
		return nil, storageErr(err, "order")
	}
	return s.GetOrder(ctx, id)
}

func (s *orderService) UpdateNotes(ctx context.Context, id uuid.UUID, notes string, actor Actor) (*model.Order, error) {
	if len(notes) > 2000 {
		return nil, validationf("notes must be at most 2000 characters")
	}
	if err := s.orderRepo.UpdateNotes(ctx, id, notes, actor.AuditID()); err != nil {
		return nil, storageErr(err, "order")
	}
	return s.GetOrder(ctx, id)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
