package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "product:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivUserView            = "user:view"
	PrivUserCreate          = "user:create"
	PrivUserUpdate          = "user:update"
	PrivUserDelete          = "user:delete"
	PrivUserUpdatePrivilege = "user:update_privilege"
	PrivProductView         = "product:view"
	PrivProductCreate       = "product:create"
	PrivProductUpdate       = "product:update"
	PrivStockView           = "stock:view"
	PrivStockCreate         = "stock:create"
	PrivOrderView           = "order:view"
	PrivOrderUpdate         = "order:update"
	PrivOrderOverride       = "order:override_total"
	PrivOrderExport         = "order:export"
	PrivBusinessView        = "business:view"
	PrivBusinessManage      = "business:manage"
	PrivAgentManage         = "agent:manage"
	PrivBookingView         = "booking:view"
	PrivBookingManage       = "booking:manage"
	PrivDashboardView       = "dashboard:view"
)

// UserManagementPrivileges are withheld from the ADMIN role
var UserManagementPrivileges = map[string]bool{
	PrivUserCreate:          true,
	PrivUserUpdate:          true,
	PrivUserDelete:          true,
	PrivUserUpdatePrivilege: true,
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Delete User"},
	{Code: PrivUserUpdatePrivilege, Name: "Update User Privileges"},
	// Catalog
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	// Stock ledger
	{Code: PrivStockView, Name: "View Stock Movements"},
	{Code: PrivStockCreate, Name: "Record Stock Movement"},
	// Orders
	{Code: PrivOrderView, Name: "View Orders"},
	{Code: PrivOrderUpdate, Name: "Update Orders"},
	{Code: PrivOrderOverride, Name: "Override Order Total"},
	{Code: PrivOrderExport, Name: "Export Orders"},
	// CRM
	{Code: PrivBusinessView, Name: "View Businesses"},
	{Code: PrivBusinessManage, Name: "Manage Businesses"},
	{Code: PrivAgentManage, Name: "Manage Agents"},
	{Code: PrivBookingView, Name: "View Sample Bookings"},
	{Code: PrivBookingManage, Name: "Manage Sample Bookings"},
	// Dashboard
	{Code: PrivDashboardView, Name: "View Dashboard"},
}
