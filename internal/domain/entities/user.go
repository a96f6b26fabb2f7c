package entities

import "errors"

var ErrInvalidUserType = errors.New("invalid user type")

// UserType identifies the kind of account acting on a pickup.
type UserType string

const (
	UserTypeRecycler    UserType = "R"
	UserTypeShop        UserType = "S"
	UserTypeShopRecycle UserType = "SR"
	UserTypeDelivery    UserType = "D"
)

func ParseUserType(s string) (UserType, error) {
	t := UserType(s)
	if !t.Valid() {
		return "", ErrInvalidUserType
	}
	return t, nil
}

func (t UserType) Valid() bool {
	switch t {
	case UserTypeRecycler, UserTypeShop, UserTypeShopRecycle, UserTypeDelivery:
		return true
	}
	return false
}

// CanStartBulkPickup reports whether this account type may act as the buyer
// of a bulk request. Delivery partners cannot.
func (t UserType) CanStartBulkPickup() bool {
	return t == UserTypeRecycler || t == UserTypeShop || t == UserTypeShopRecycle
}
