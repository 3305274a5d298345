package model

// RequestStatus represents repair request status
type RequestStatus string

const (
	RequestStatusPendingReview    RequestStatus = "pending_review"
	RequestStatusInProgress       RequestStatus = "in_progress"
	RequestStatusAwaitingCustomer RequestStatus = "awaiting_customer"
	RequestStatusCompleted        RequestStatus = "completed"
	RequestStatusCancelled        RequestStatus = "cancelled"
	RequestStatusOnHold           RequestStatus = "on_hold"
	RequestStatusConverted        RequestStatus = "converted"
)

// ValidRequestStatus reports whether s is a known request status.
func ValidRequestStatus(s string) bool {
	switch RequestStatus(s) {
	case RequestStatusPendingReview, RequestStatusInProgress,
		RequestStatusAwaitingCustomer, RequestStatusCompleted,
		RequestStatusCancelled, RequestStatusOnHold, RequestStatusConverted:
		return true
	}
	return false
}

// Priority represents request or task priority
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	switch Priority(p) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TaskStatus represents task status
type TaskStatus string

const (
	TaskStatusPending     TaskStatus = "pending"
	TaskStatusAssigned    TaskStatus = "assigned"
	TaskStatusInProgress  TaskStatus = "in_progress"
	TaskStatusCompleted   TaskStatus = "completed"
	TaskStatusOnHold      TaskStatus = "on_hold"
	TaskStatusCancelled   TaskStatus = "cancelled"
	TaskStatusNeedsReview TaskStatus = "needs_review"
)

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s string) bool {
	switch TaskStatus(s) {
	case TaskStatusPending, TaskStatusAssigned, TaskStatusInProgress,
		TaskStatusCompleted, TaskStatusOnHold, TaskStatusCancelled,
		TaskStatusNeedsReview:
		return true
	}
	return false
}

// ApprovalType identifies one of the four independent task approval flags.
type ApprovalType string

const (
	ApprovalStorage  ApprovalType = "storage"
	ApprovalOperator ApprovalType = "operator"
	ApprovalOwner    ApprovalType = "owner"
	ApprovalQuality  ApprovalType = "quality"
)

// ValidApprovalType reports whether t is a known approval type.
func ValidApprovalType(t string) bool {
	switch ApprovalType(t) {
	case ApprovalStorage, ApprovalOperator, ApprovalOwner, ApprovalQuality:
		return true
	}
	return false
}

// OrderStatus represents internal order status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatusLabel returns the human-readable label for an order status.
func OrderStatusLabel(s OrderStatus) string {
	switch s {
	case OrderStatusPending:
		return "Pending payment"
	case OrderStatusProcessing:
		return "Processing"
	case OrderStatusCompleted:
		return "Completed"
	case OrderStatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// Role represents a user role
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleTechnician Role = "technician"
	RoleOperator   Role = "operator"
	RoleAdmin      Role = "admin"
)

// CanManageRequests reports whether the role may annotate requests, derive
// tasks and convert requests to orders.
func (r Role) CanManageRequests() bool {
	return r == RoleOperator || r == RoleAdmin
}

// CanToggleApprovals reports whether the role may toggle task approvals.
func (r Role) CanToggleApprovals() bool {
	return r == RoleAdmin
}

// ProductKind represents catalog product kind
type ProductKind string

const (
	ProductKindSimple   ProductKind = "simple"
	ProductKindVariable ProductKind = "variable"
)

// SelectedProduct is one entry of a request's selected-products map.
type SelectedProduct struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note,omitempty"`
}

// RepairRequest represents a customer-submitted repair request
type RepairRequest struct {
	ID                     string                     `json:"id"`
	CreatedBy              *string                    `json:"createdBy,omitempty"`
	Title                  string                     `json:"title"`
	IssueDescription       string                     `json:"issueDescription"`
	DeviceType             string                     `json:"deviceType"`
	DeviceModel            string                     `json:"deviceModel"`
	SerialNumber           string                     `json:"serialNumber,omitempty"`
	PreferredContactMethod string                     `json:"preferredContactMethod"`
	ContactName            string                     `json:"contactName,omitempty"`
	ContactEmail           string                     `json:"contactEmail,omitempty"`
	ContactPhone           string                     `json:"contactPhone,omitempty"`
	Status                 RequestStatus              `json:"status"`
	Priority               Priority                   `json:"priority"`
	OperatorNotes          string                     `json:"operatorNotes,omitempty"`
	SelectedProducts       map[string]SelectedProduct `json:"selectedProducts,omitempty"`
	Converted              bool                       `json:"converted"`
	LinkedOrderID          *string                    `json:"linkedOrderId,omitempty"`
	OrderStatusSnapshot    *string                    `json:"orderStatusSnapshot,omitempty"`
	OrderTotalSnapshot     *float64                   `json:"orderTotalSnapshot,omitempty"`
	CreatedAt              string                     `json:"createdAt,omitempty"`
	UpdatedAt              string                     `json:"updatedAt,omitempty"`
}

// Task represents a unit of repair work derived from operator notes
type Task struct {
	ID               string     `json:"id"`
	RequestID        *string    `json:"requestId,omitempty"`
	Description      string     `json:"description"`
	Cost             float64    `json:"cost"`
	AssigneeID       *string    `json:"assigneeId,omitempty"`
	Status           TaskStatus `json:"status"`
	Priority         Priority   `json:"priority"`
	DueDate          *string    `json:"dueDate,omitempty"`
	StorageApproved  bool       `json:"storageApproved"`
	OperatorApproved bool       `json:"operatorApproved"`
	OwnerApproved    bool       `json:"ownerApproved"`
	QualityApproved  bool       `json:"qualityApproved"`
	CreatedAt        string     `json:"createdAt,omitempty"`
	UpdatedAt        string     `json:"updatedAt,omitempty"`
}

// Product represents a catalog product
type Product struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	SKU   string      `json:"sku,omitempty"`
	Kind  ProductKind `json:"kind"`
	Price float64     `json:"price"`
}

// FormattedName returns "name (sku)", matching the search result label.
func (p Product) FormattedName() string {
	if p.SKU == "" {
		return p.Name
	}
	return p.Name + " (" + p.SKU + ")"
}

// Order represents an internal commerce order created by conversion
type Order struct {
	ID           string      `json:"id"`
	CustomerID   *string     `json:"customerId,omitempty"`
	BillingName  string      `json:"billingName,omitempty"`
	BillingEmail string      `json:"billingEmail,omitempty"`
	Status       OrderStatus `json:"status"`
	Total        float64     `json:"total"`
	RequestID    *string     `json:"requestId,omitempty"`
	Note         string      `json:"note,omitempty"`
	Items        []OrderItem `json:"items,omitempty"`
	CreatedAt    string      `json:"createdAt,omitempty"`
}

// OrderItem represents one order line item
type OrderItem struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"orderId"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
	Note      string  `json:"note,omitempty"`
}

// Attachment represents a file attached to a repair request
type Attachment struct {
	ID          string `json:"id"`
	RequestID   string `json:"requestId"`
	FileName    string `json:"fileName"`
	ObjectName  string `json:"objectName"`
	ContentType string `json:"contentType,omitempty"`
	SizeBytes   int64  `json:"sizeBytes,omitempty"`
	SHA256      string `json:"sha256,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// User represents an account that can author requests or be assigned tasks
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}
