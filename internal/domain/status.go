package domain

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleWaiter   Role = "waiter"
	RoleCashier  Role = "cashier"
	RoleChef     Role = "chef"
	RoleCustomer Role = "customer"
)

// DashboardRoles are the staff roles that mount a live dashboard.
var DashboardRoles = []Role{RoleWaiter, RoleCashier, RoleChef, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleWaiter, RoleCashier, RoleChef, RoleCustomer:
		return true
	}
	return false
}

func (r Role) HasDashboard() bool {
	for _, d := range DashboardRoles {
		if d == r {
			return true
		}
	}
	return false
}

type SessionStatus string

const (
	SessionOrdering       SessionStatus = "ordering"
	SessionPaymentPending SessionStatus = "payment_pending"
	SessionClosed         SessionStatus = "closed"
)

type OrderItemStatus string

const (
	ItemDraft     OrderItemStatus = "draft"
	ItemPending   OrderItemStatus = "pending"
	ItemConfirmed OrderItemStatus = "confirmed"
	ItemServed    OrderItemStatus = "served"
	ItemClosed    OrderItemStatus = "closed"
	ItemCancelled OrderItemStatus = "cancelled"
)

type RequestType string

const (
	RequestCallWaiter RequestType = "call_waiter"
	RequestBill       RequestType = "bill"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestResolved RequestStatus = "resolved"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentOnline
}

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentDeclined  PaymentStatus = "declined"
)
