package service

import (
	"context"
	"testing"
	"time"

	"go-roastery-api/internal/cache"
	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"
	"go-roastery-api/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// fixture wires every service against one in-memory database
type fixture struct {
	db           *gorm.DB
	products     repository.ProductRepository
	movements    repository.StockMovementRepository
	orders       repository.OrderRepository
	carts        repository.CartRepository
	businesses   repository.BusinessRepository
	bookings     repository.SampleBookingRepository
	users        repository.UserRepository
	catalogCache cache.CatalogCache

	stock   StockService
	order   OrderService
	cart    CartService
	crm     CRMService
	booking SampleBookingService
	product ProductService
}

const machineSlug = "espresso-machine"

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	f := &fixture{
		db:           db,
		products:     repository.NewProductRepo(db),
		movements:    repository.NewStockMovementRepo(db),
		orders:       repository.NewOrderRepo(db),
		carts:        repository.NewCartRepo(db),
		businesses:   repository.NewBusinessRepo(db),
		bookings:     repository.NewSampleBookingRepo(db),
		users:        repository.NewUserRepo(db),
		catalogCache: cache.NewMemoryCatalogCache(time.Minute),
	}
	agents := repository.NewAgentRepo(db)

	f.stock = NewStockService(f.products, f.movements, db, f.catalogCache, nil, nil)
	f.order = NewOrderService(f.orders, f.products, f.movements, f.carts, db, f.catalogCache, machineSlug, nil, nil)
	f.cart = NewCartService(f.carts, f.products, machineSlug, nil)
	f.crm = NewCRMService(f.businesses, agents, db, nil, nil)
	f.booking = NewSampleBookingService(f.bookings, f.businesses, db, cache.NewLocalLocker(), nil, nil)
	f.product = NewProductService(f.products, f.catalogCache, nil, nil, nil)
	return f
}

// seedProduct creates a product and books its opening stock through the ledger
func (f *fixture) seedProduct(t *testing.T, slug string, typ model.ProductType, price int64, stock int) *model.Product {
	t.Helper()
	ctx := context.Background()

	p := &model.Product{
		Slug:              slug,
		NameKey:           "products." + slug + ".name",
		Price:             price,
		CostPrice:         price / 2,
		LowStockThreshold: 2,
		Type:              typ,
		Images:            []string{},
	}
	require.NoError(t, f.products.Create(ctx, p))

	if stock > 0 {
		_, err := f.stock.RecordMovement(ctx, &RecordMovementRequest{
			ProductID: p.ID,
			Type:      model.MovementPurchase,
			Quantity:  stock,
		}, testActor)
		require.NoError(t, err)
	}

	got, err := f.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	return got
}

func (f *fixture) seedUser(t *testing.T, email string) Actor {
	t.Helper()
	u := &model.User{Email: email, FullName: "Test Shopper", IsActive: true}
	require.NoError(t, u.SetPassword("password123"))
	require.NoError(t, f.users.Create(context.Background(), u))
	return Actor{ID: u.ID, Name: u.FullName, Email: u.Email}
}

var testActor = Actor{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000aa"), Name: "Staff", Email: "staff@example.com"}

func testAddress() model.ShippingAddress {
	return model.ShippingAddress{
		FullName:   "Ana Barista",
		Line1:      "1 Roast Street",
		City:       "Lisbon",
		PostalCode: "1000-001",
		Country:    "PT",
	}
}
