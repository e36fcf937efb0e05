package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-roastery-api/internal/cache"
	"go-roastery-api/internal/model"
	"go-roastery-api/internal/pricing"
	"go-roastery-api/internal/repository"
	"go-roastery-api/internal/storage"
	"go-roastery-api/internal/ws"
	"go-roastery-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductService interface {
	ListStorefront(ctx context.Context) ([]model.StorefrontProduct, error)
	GetStorefrontBySlug(ctx context.Context, slug string) (*model.StorefrontProduct, error)

	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	CreateProduct(ctx context.Context, req *ProductRequest, actor Actor) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error)
	SetSoldOut(ctx context.Context, id uuid.UUID, soldOut bool, actor Actor) (*model.Product, error)

	RequestImageUpload(ctx context.Context, id uuid.UUID, contentType string) (*ImageUpload, error)
	AttachImage(ctx context.Context, id uuid.UUID, key string, actor Actor) (*model.Product, error)
	ReorderImages(ctx context.Context, id uuid.UUID, keys []string, actor Actor) (*model.Product, error)
	RemoveImage(ctx context.Context, id uuid.UUID, key string, actor Actor) (*model.Product, error)

	Projection(ctx context.Context, id uuid.UUID, req *ProjectionRequest) (*ProjectionResponse, error)
}

// ProductRequest holds the admin-editable catalog fields. Stock is not here:
// it only moves through the ledger.
type ProductRequest struct {
	Slug              string            `json:"slug" validate:"required,max=120,slug"`
	NameKey           string            `json:"name_key" validate:"required,max=255"`
	DescriptionKey    string            `json:"description_key" validate:"max=255"`
	Price             int64             `json:"price" validate:"gte=0"`
	CostPrice         int64             `json:"cost_price" validate:"gte=0"`
	LowStockThreshold int               `json:"low_stock_threshold" validate:"gte=0"`
	SoldOut           bool              `json:"sold_out"`
	Type              model.ProductType `json:"type" validate:"required,oneof=consumable machine"`
}

type ImageUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ProjectionRequest struct {
	MonthlyUnits int64  `json:"monthly_units" query:"monthly_units"`
	Months       int    `json:"months" query:"months"`
	Scenario     string `json:"scenario" query:"scenario"`
}

type ProjectionResponse struct {
	ProductID   uuid.UUID                      `json:"product_id"`
	Slug        string                         `json:"slug"`
	Margin      decimal.Decimal                `json:"margin"`
	Projections map[string]*pricing.Projection `json:"projections"`
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/avif": ".avif",
}

type productService struct {
	productRepo  repository.ProductRepository
	catalogCache cache.CatalogCache
	images       storage.ImageStorage
	wsHub        *ws.Hub
	logger       *zap.Logger
}

// NewProductService accepts a nil images when object storage is not configured
func NewProductService(
	pRepo repository.ProductRepository,
	catalogCache cache.CatalogCache,
	images storage.ImageStorage,
	hub *ws.Hub,
	logger *zap.Logger,
) ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &productService{
		productRepo:  pRepo,
		catalogCache: catalogCache,
		images:       images,
		wsHub:        hub,
		logger:       logger.Named("catalog"),
	}
}

func (s *productService) toStorefront(p *model.Product) model.StorefrontProduct {
	sp := p.ToStorefront()
	if s.images != nil {
		urls := make([]string, len(sp.Images))
		for i, key := range sp.Images {
			urls[i] = s.images.PublicURL(key)
		}
		sp.Images = urls
	}
	return sp
}

// ListStorefront serves the public listing from cache when it can
func (s *productService) ListStorefront(ctx context.Context) ([]model.StorefrontProduct, error) {
	if s.catalogCache != nil {
		if cached, ok := s.catalogCache.Get(ctx); ok {
			return cached, nil
		}
	}

	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, storageErr(err, "products")
	}
	out := make([]model.StorefrontProduct, len(products))
	for i := range products {
		out[i] = s.toStorefront(&products[i])
	}

	if s.catalogCache != nil {
		s.catalogCache.Set(ctx, out)
	}
	return out, nil
}

func (s *productService) GetStorefrontBySlug(ctx context.Context, slug string) (*model.StorefrontProduct, error) {
	product, err := s.productRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, storageErr(err, "product "+slug)
	}
	sp := s.toStorefront(product)
	return &sp, nil
}

func (s *productService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	return products, storageErr(err, "products")
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "product")
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, req *ProductRequest, actor Actor) (*model.Product, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, validationf("%s", msg)
	}

	if existing, _ := s.productRepo.FindBySlug(ctx, req.Slug); existing != nil {
		return nil, fmt.Errorf("%w: slug %s already exists", ErrConflict, req.Slug)
	}

	product := &model.Product{
		Slug:              req.Slug,
		NameKey:           req.NameKey,
		DescriptionKey:    req.DescriptionKey,
		Price:             req.Price,
		CostPrice:         req.CostPrice,
		LowStockThreshold: req.LowStockThreshold,
		SoldOut:           req.SoldOut,
		Type:              req.Type,
		Images:            []string{},
	}
	product.Audit(actor.AuditID())

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, storageErr(err, "product")
	}

	s.changed(ctx, actor, "product_created", product)
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, validationf("%s", msg)
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "product")
	}
	if req.Slug != product.Slug {
		if existing, _ := s.productRepo.FindBySlug(ctx, req.Slug); existing != nil {
			return nil, fmt.Errorf("%w: slug %s already exists", ErrConflict, req.Slug)
		}
	}

	product.Slug = req.Slug
	product.NameKey = req.NameKey
	product.DescriptionKey = req.DescriptionKey
	product.Price = req.Price
	product.CostPrice = req.CostPrice
	product.LowStockThreshold = req.LowStockThreshold
	product.SoldOut = req.SoldOut
	product.Type = req.Type
	product.UpdatedBy = actor.AuditID()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, storageErr(err, "product")
	}

	s.changed(ctx, actor, "product_updated", product)
	return product, nil
}

func (s *productService) SetSoldOut(ctx context.Context, id uuid.UUID, soldOut bool, actor Actor) (*model.Product, error) {
	if err := s.productRepo.SetSoldOut(ctx, id, soldOut, actor.AuditID()); err != nil {
		return nil, storageErr(err, "product")
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "product")
	}
	s.changed(ctx, actor, "product_updated", product)
	return product, nil
}

func (s *productService) RequestImageUpload(ctx context.Context, id uuid.UUID, contentType string) (*ImageUpload, error) {
	if s.images == nil {
		return nil, ErrStorageDisabled
	}
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return nil, validationf("unsupported image type %q", contentType)
	}
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return nil, storageErr(err, "product")
	}

	key := fmt.Sprintf("%s%s%s", imagePrefix(id), uuid.NewString(), ext)
	uploadURL, expiresAt, err := s.images.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	return &ImageUpload{
		Key:       key,
		UploadURL: uploadURL,
		PublicURL: s.images.PublicURL(key),
		ExpiresAt: expiresAt,
	}, nil
}

func imagePrefix(id uuid.UUID) string {
	return "products/" + id.String() + "/"
}

// AttachImage appends an uploaded key to the product's ordered image list
func (s *productService) AttachImage(ctx context.Context, id uuid.UUID, key string, actor Actor) (*model.Product, error) {
	if s.images == nil {
		return nil, ErrStorageDisabled
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "product")
	}
	if !strings.HasPrefix(key, imagePrefix(id)) {
		return nil, validationf("image key does not belong to this product")
	}
	for _, k := range product.Images {
		if k == key {
			return product, nil
		}
	}

	images := append(append([]string{}, product.Images...), key)
	return s.saveImages(ctx, product, images, actor)
}

// ReorderImages requires keys to be a permutation of the current list
func (s *productService) ReorderImages(ctx context.Context, id uuid.UUID, keys []string, actor Actor) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "product")
	}
	if len(keys) != len(product.Images) {
		return nil, validationf("expected %d image keys, got %d", len(product.Images), len(keys))
	}
	current := make(map[string]bool, len(product.Images))
	for _, k := range product.Images {
		current[k] = true
	}
	for _, k := range keys {
		if !current[k] {
			return nil, validationf("unknown or duplicate image key %q", k)
		}
		delete(current, k)
	}
	return s.saveImages(ctx, product, keys, actor)
}

// RemoveImage drops the key from the product; deleting the object is best-effort
func (s *productService) RemoveImage(ctx context.Context, id uuid.UUID, key string, actor Actor) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "product")
	}

	images := make([]string, 0, len(product.Images))
	found := false
	for _, k := range product.Images {
		if k == key {
			found = true
			continue
		}
		images = append(images, k)
	}
	if !found {
		return nil, notFoundf("image %s", key)
	}

	product, err = s.saveImages(ctx, product, images, actor)
	if err != nil {
		return nil, err
	}
	if s.images != nil {
		if err := s.images.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to delete image object", zap.String("key", key), zap.Error(err))
		}
	}
	return product, nil
}

func (s *productService) saveImages(ctx context.Context, product *model.Product, images []string, actor Actor) (*model.Product, error) {
	if err := s.productRepo.UpdateImages(ctx, product.ID, images, actor.AuditID()); err != nil {
		return nil, storageErr(err, "product images")
	}
	product.Images = images
	s.changed(ctx, actor, "product_updated", product)
	return product, nil
}

// Projection runs the pricing calculator with the product's own price and cost.
// An empty scenario runs every preset.
func (s *productService) Projection(ctx context.Context, id uuid.UUID, req *ProjectionRequest) (*ProjectionResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "product")
	}

	months := req.Months
	if months == 0 {
		months = 12
	}
	in := pricing.Input{
		MonthlyUnits: req.MonthlyUnits,
		Price:        product.Price,
		CostPrice:    product.CostPrice,
		Months:       months,
	}

	resp := &ProjectionResponse{
		ProductID: product.ID,
		Slug:      product.Slug,
		Margin:    pricing.ProfitMargin(product.Price, product.CostPrice),
	}

	if req.Scenario == "" {
		all, err := pricing.ProjectScenarios(in)
		if err != nil {
			return nil, validationf("%v", err)
		}
		resp.Projections = all
		return resp, nil
	}

	scenario, err := pricing.ScenarioByName(req.Scenario)
	if err != nil {
		return nil, validationf("%v: %s", err, req.Scenario)
	}
	in.GrowthRate = scenario.GrowthRate
	p, err := pricing.Project(in)
	if err != nil {
		return nil, validationf("%v", err)
	}
	resp.Projections = map[string]*pricing.Projection{scenario.Name: p}
	return resp, nil
}

func (s *productService) changed(ctx context.Context, actor Actor, action string, product *model.Product) {
	if s.catalogCache != nil {
		s.catalogCache.Invalidate(ctx)
	}
	s.wsHub.Publish(ws.Event{
		Type:   "stock_update",
		Action: action,
		Data: map[string]interface{}{
			"id":       product.ID,
			"slug":     product.Slug,
			"price":    product.Price,
			"stock":    product.StockQuantity,
			"sold_out": product.SoldOut,
		},
		User:    actor.wsActor(),
		Message: fmt.Sprintf("%s updated product '%s'", actor.displayName(), product.Slug),
	})
}
