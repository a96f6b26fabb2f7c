package client

import (
	"context"
	"fmt"
	"net/http"
)

type Shop struct {
	ID       int64      `json:"id,omitempty"`
	ShopName string     `json:"shopname"`
	Address  string     `json:"address"`
	Contact  FlexString `json:"contact"`
	LatLog   string     `json:"lat_log"`
}

type Profile struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	MobNum  FlexString `json:"mob_num"`
	Shop    *Shop      `json:"shop"`
	B2CShop *Shop      `json:"b2cShop"`
	B2BShop *Shop      `json:"b2bShop"`
}

// PrimaryShop picks the shop record to locate a vendor by: the plain shop,
// then the B2C shop, then the B2B shop.
func (p *Profile) PrimaryShop() *Shop {
	switch {
	case p.Shop != nil:
		return p.Shop
	case p.B2CShop != nil:
		return p.B2CShop
	default:
		return p.B2BShop
	}
}

func (c *Client) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v2/profile/%d", userID), nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
