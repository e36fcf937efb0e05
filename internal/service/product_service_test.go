package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go-roastery-api/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeImages) PresignUpload(_ context.Context, key, _ string) (string, time.Time, error) {
	return "https://upload.test/" + key + "?sig=1", time.Now().Add(15 * time.Minute), nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeImages) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func validProductRequest(slug string) *ProductRequest {
	return &ProductRequest{
		Slug:              slug,
		NameKey:           "products." + slug + ".name",
		Price:             2500,
		CostPrice:         1000,
		LowStockThreshold: 5,
		Type:              model.ProductConsumable,
	}
}

func TestProductService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.product.CreateProduct(ctx, validProductRequest("house-blend"), testActor)
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity, "stock only moves through the ledger")

	_, err = f.product.CreateProduct(ctx, validProductRequest("house-blend"), testActor)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.product.CreateProduct(ctx, validProductRequest("Not A Slug"), testActor)
	assert.ErrorIs(t, err, ErrValidation)

	bad := validProductRequest("decaf")
	bad.Type = "tea"
	_, err = f.product.CreateProduct(ctx, bad, testActor)
	assert.ErrorIs(t, err, ErrValidation)

	other, err := f.product.CreateProduct(ctx, validProductRequest("decaf"), testActor)
	require.NoError(t, err)

	_, err = f.product.UpdateProduct(ctx, other.ID, validProductRequest("house-blend"), testActor)
	assert.ErrorIs(t, err, ErrConflict)

	req := validProductRequest("decaf")
	req.Price = 2700
	updated, err := f.product.UpdateProduct(ctx, other.ID, req, testActor)
	require.NoError(t, err)
	assert.Equal(t, int64(2700), updated.Price)

	_, err = f.product.UpdateProduct(ctx, uuid.New(), req, testActor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductService_Storefront(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	blend := f.seedProduct(t, "house-blend", model.ProductConsumable, 2500, 10)
	f.seedProduct(t, "decaf", model.ProductConsumable, 2300, 0)

	list, err := f.product.ListStorefront(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	got, err := f.product.GetStorefrontBySlug(ctx, "house-blend")
	require.NoError(t, err)
	assert.True(t, got.InStock)

	decaf, err := f.product.GetStorefrontBySlug(ctx, "decaf")
	require.NoError(t, err)
	assert.False(t, decaf.InStock)

	_, err = f.product.SetSoldOut(ctx, blend.ID, true, testActor)
	require.NoError(t, err)
	got, err = f.product.GetStorefrontBySlug(ctx, "house-blend")
	require.NoError(t, err)
	assert.False(t, got.InStock, "sold out overrides stock")

	_, err = f.product.GetStorefrontBySlug(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductService_ImagesWithoutStorage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.seedProduct(t, "house-blend", model.ProductConsumable, 2500, 0)

	_, err := f.product.RequestImageUpload(ctx, p.ID, "image/png")
	assert.ErrorIs(t, err, ErrStorageDisabled)

	_, err = f.product.AttachImage(ctx, p.ID, imagePrefix(p.ID)+"a.png", testActor)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestProductService_Images(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	images := &fakeImages{}
	svc := NewProductService(f.products, f.catalogCache, images, nil, nil)
	p := f.seedProduct(t, "house-blend", model.ProductConsumable, 2500, 0)

	upload, err := svc.RequestImageUpload(ctx, p.ID, "image/webp")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.Key, imagePrefix(p.ID)))
	assert.True(t, strings.HasSuffix(upload.Key, ".webp"))
	assert.Equal(t, "https://cdn.test/"+upload.Key, upload.PublicURL)

	_, err = svc.RequestImageUpload(ctx, p.ID, "image/gif")
	assert.ErrorIs(t, err, ErrValidation)

	a, b := imagePrefix(p.ID)+"a.png", imagePrefix(p.ID)+"b.png"
	_, err = svc.AttachImage(ctx, p.ID, a, testActor)
	require.NoError(t, err)
	got, err := svc.AttachImage(ctx, p.ID, b, testActor)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, got.Images)

	got, err = svc.AttachImage(ctx, p.ID, a, testActor)
	require.NoError(t, err)
	assert.Len(t, got.Images, 2, "attaching twice is a no-op")

	_, err = svc.AttachImage(ctx, p.ID, "products/"+uuid.NewString()+"/x.png", testActor)
	assert.ErrorIs(t, err, ErrValidation)

	got, err = svc.ReorderImages(ctx, p.ID, []string{b, a}, testActor)
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, got.Images)

	_, err = svc.ReorderImages(ctx, p.ID, []string{b, b}, testActor)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.ReorderImages(ctx, p.ID, []string{b}, testActor)
	assert.ErrorIs(t, err, ErrValidation)

	got, err = svc.RemoveImage(ctx, p.ID, b, testActor)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, got.Images)
	assert.Equal(t, []string{b}, images.deleted)

	_, err = svc.RemoveImage(ctx, p.ID, b, testActor)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := f.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, stored.Images)
}

func TestProductService_Projection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.seedProduct(t, "house-blend", model.ProductConsumable, 2000, 0)

	all, err := f.product.Projection(ctx, p.ID, &ProjectionRequest{MonthlyUnits: 100})
	require.NoError(t, err)
	assert.Equal(t, "50", all.Margin.String())
	assert.Len(t, all.Projections, 3)

	one, err := f.product.Projection(ctx, p.ID, &ProjectionRequest{MonthlyUnits: 100, Months: 6, Scenario: "moderate"})
	require.NoError(t, err)
	require.Contains(t, one.Projections, "moderate")
	assert.Len(t, one.Projections, 1)

	_, err = f.product.Projection(ctx, p.ID, &ProjectionRequest{MonthlyUnits: 100, Scenario: "wild"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.product.Projection(ctx, p.ID, &ProjectionRequest{MonthlyUnits: -1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.product.Projection(ctx, uuid.New(), &ProjectionRequest{MonthlyUnits: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}
