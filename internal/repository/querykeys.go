package repository

import (
	"fmt"

	"scrappickup/internal/domain/entities"
)

// Query key prefixes. Keys are colon separated so a prefix invalidates a
// whole family, e.g. PrefixOrders drops every order list for every user.
const (
	PrefixOrders          = "orders:"
	PrefixOrdersActive    = "orders:active:"
	PrefixOrdersCompleted = "orders:completed:"
	PrefixBulkScrap       = "bulkScrap:"
	PrefixDashboardStats  = "dashboard:stats:"
)

func ActivePickupsKey(userID int64, userType entities.UserType) string {
	return fmt.Sprintf("%s%d:%s", PrefixOrdersActive, userID, userType)
}

func CompletedPickupsKey(userID int64, userType entities.UserType) string {
	return fmt.Sprintf("%s%d:%s", PrefixOrdersCompleted, userID, userType)
}

func BulkRequestsKey(buyerID int64) string {
	return fmt.Sprintf("%srequests:%d", PrefixBulkScrap, buyerID)
}

func DashboardStatsKey(userID int64) string {
	return fmt.Sprintf("%s%d", PrefixDashboardStats, userID)
}

// ActionLockKey names the in-flight guard for one action on one entity.
func ActionLockKey(action string, entity string, id int64) string {
	return fmt.Sprintf("action:%s:%s:%d", action, entity, id)
}
