package redisstore

import (
	"fmt"
	"time"

	"scrappickup/internal/domain/entities"
)

const (
	// Latest position of whoever is carrying out an order: location:order:{order_id}
	KeyOrderLocation = "location:order:%d"

	// Latest position of a user regardless of order: location:user:{user_id}:type:{user_type}
	KeyUserLocation = "location:user:%d:type:%s"
)

var TTLLiveLocation = 2 * time.Hour

func OrderLocationKey(orderID int64) string {
	return fmt.Sprintf(KeyOrderLocation, orderID)
}

func UserLocationKey(userID int64, userType entities.UserType) string {
	return fmt.Sprintf(KeyUserLocation, userID, userType)
}
