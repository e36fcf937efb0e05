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

type StockService interface {
	RecordMovement(ctx context.Context, req *RecordMovementRequest, actor Actor) (*model.StockMovement, error)
	ListMovements(ctx context.Context, productID *uuid.UUID) ([]model.StockMovement, error)
	GetMovement(ctx context.Context, id uuid.UUID) (*model.StockMovement, error)
	CheckConsistency(ctx context.Context) ([]StockDrift, error)
}

// StockDrift is a product whose stock column disagrees with its ledger
type StockDrift struct {
	ProductID uuid.UUID `json:"product_id"`
	Slug      string    `json:"slug"`
	Stock     int       `json:"stock"`
	Ledger    int       `json:"ledger"`
}

type RecordMovementRequest struct {
	ProductID uuid.UUID          `json:"product_id" validate:"uuid_required"`
	Type      model.MovementType `json:"type" validate:"required,oneof=purchase sale adjustment return"`
	Quantity  int                `json:"quantity"`
	Reference string             `json:"reference" validate:"max=120"`
	Notes     string             `json:"notes"`
}

// ledger posts movements inside a caller's transaction. It is shared by the
// stock and order services so both go through the same rules.
type ledger struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
}

// posted is what a committed movement needs for notifications
type posted struct {
	movement *model.StockMovement
	product  model.Product
	before   int
}

func (p posted) crossedLowStock() bool {
	return p.before > p.product.LowStockThreshold && p.product.StockQuantity <= p.product.LowStockThreshold
}

// signedQuantity turns the caller's quantity into the ledger's signed delta
func signedQuantity(t model.MovementType, qty int) (int, error) {
	if !t.Valid() {
		return 0, validationf("unknown movement type %q", t)
	}
	if qty == 0 {
		return 0, validationf("quantity must not be zero")
	}
	switch t {
	case model.MovementPurchase, model.MovementReturn:
		if qty < 0 {
			return 0, validationf("%s quantity must be positive", t)
		}
		return qty, nil
	case model.MovementSale:
		if qty < 0 {
			return 0, validationf("sale quantity must be positive")
		}
		return -qty, nil
	}
	return qty, nil
}

// post locks the product row, checks the sale rule, inserts the movement and
// moves the cached stock column. Must run inside tx.
func (l *ledger) post(tx *gorm.DB, productID uuid.UUID, t model.MovementType, qty int, reference, notes string, actor Actor) (*posted, error) {
	delta, err := signedQuantity(t, qty)
	if err != nil {
		return nil, err
	}

	product, err := l.productRepo.LockByID(tx, productID)
	if err != nil {
		return nil, storageErr(err, "product")
	}

	before := product.StockQuantity
	after := before + delta
	if t == model.MovementSale && after < 0 {
		return nil, validationf("insufficient stock for %s: %d available, %d requested", product.Slug, before, qty)
	}

	movement := &model.StockMovement{
		ProductID:  product.ID,
		Type:       t,
		Quantity:   delta,
		StockAfter: after,
		Reference:  reference,
		Notes:      notes,
	}
	movement.Audit(actor.AuditID())
	if err := l.movementRepo.Create(tx, movement); err != nil {
		return nil, storageErr(err, "stock movement")
	}
	if err := l.productRepo.UpdateStock(tx, product.ID, after, actor.AuditID()); err != nil {
		return nil, storageErr(err, "product stock")
	}

	product.StockQuantity = after
	return &posted{movement: movement, product: *product, before: before}, nil
}

type stockService struct {
	ledger
	db           *gorm.DB
	catalogCache cache.CatalogCache
	wsHub        *ws.Hub
	logger       *zap.Logger
}

func NewStockService(
	pRepo repository.ProductRepository,
	mRepo repository.StockMovementRepository,
	db *gorm.DB,
	catalogCache cache.CatalogCache,
	hub *ws.Hub,
	logger *zap.Logger,
) StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &stockService{
		ledger:       ledger{productRepo: pRepo, movementRepo: mRepo},
		db:           db,
		catalogCache: catalogCache,
		wsHub:        hub,
		logger:       logger.Named("stock"),
	}
}

func (s *stockService) RecordMovement(ctx context.Context, req *RecordMovementRequest, actor Actor) (*model.StockMovement, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, validationf("%s", msg)
	}

	var result *posted
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.post(tx, req.ProductID, req.Type, req.Quantity, req.Reference, req.Notes, actor)
		if err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock movement recorded",
		zap.String("product", result.product.Slug),
		zap.String("type", string(req.Type)),
		zap.Int("quantity", result.movement.Quantity),
		zap.Int("stock_after", result.movement.StockAfter))

	notifyStock(ctx, s.catalogCache, s.wsHub, actor, result)
	result.movement.Product = &result.product
	return result.movement, nil
}

// notifyStock invalidates the storefront cache and fans out notifications for committed movements
func notifyStock(ctx context.Context, catalogCache cache.CatalogCache, hub *ws.Hub, actor Actor, results ...*posted) {
	if catalogCache != nil {
		catalogCache.Invalidate(ctx)
	}
	for _, r := range results {
		m := r.movement
		hub.Publish(ws.Event{
			Type:   "stock_update",
			Action: "movement_recorded",
			Data: map[string]interface{}{
				"movement_id": m.ID,
				"product_id":  r.product.ID,
				"slug":        r.product.Slug,
				"type":        m.Type,
				"quantity":    m.Quantity,
				"old_stock":   r.before,
				"new_stock":   m.StockAfter,
			},
			User:    actor.wsActor(),
			Message: fmt.Sprintf("%s recorded %s of %d for '%s'", actor.displayName(), m.Type, m.Quantity, r.product.Slug),
		})
		if r.crossedLowStock() {
			hub.Publish(ws.Event{
				Type: "low_stock",
				Data: map[string]interface{}{
					"product_id": r.product.ID,
					"slug":       r.product.Slug,
					"stock":      r.product.StockQuantity,
					"threshold":  r.product.LowStockThreshold,
				},
				Message: fmt.Sprintf("'%s' is low on stock (%d left)", r.product.Slug, r.product.StockQuantity),
			})
		}
	}
}

func (s *stockService) ListMovements(ctx context.Context, productID *uuid.UUID) ([]model.StockMovement, error) {
	movements, err := s.movementRepo.FindAll(ctx, productID)
	return movements, storageErr(err, "stock movements")
}

func (s *stockService) GetMovement(ctx context.Context, id uuid.UUID) (*model.StockMovement, error) {
	movement, err := s.movementRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "stock movement")
	}
	return movement, nil
}

// CheckConsistency re-sums every product's ledger and reports the ones whose
// stock column has drifted. An empty result means the ledger and stock agree.
func (s *stockService) CheckConsistency(ctx context.Context) ([]StockDrift, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, storageErr(err, "products")
	}

	drifts := []StockDrift{}
	for _, p := range products {
		sum, err := s.movementRepo.SumByProduct(ctx, p.ID)
		if err != nil {
			return nil, storageErr(err, "stock movements")
		}
		if sum == p.StockQuantity {
			continue
		}
		s.logger.Warn("Stock drifted from ledger",
			zap.String("product", p.Slug),
			zap.Int("stock", p.StockQuantity),
			zap.Int("ledger", sum))
		drifts = append(drifts, StockDrift{ProductID: p.ID, Slug: p.Slug, Stock: p.StockQuantity, Ledger: sum})
	}
	return drifts, nil
}
