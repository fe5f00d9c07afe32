package types

import (
	"fmt"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
)

// AssetCategory is the token standard of an asset.
type AssetCategory uint8

const (
	// AssetFungible is a divisible token; ID must be zero.
	AssetFungible AssetCategory = iota
	// AssetNonFungible is a unique token; Amount must be zero.
	AssetNonFungible
	// AssetSemiFungible is an ID addressed token with a balance.
	AssetSemiFungible
)

func (c AssetCategory) String() string {
	switch c {
	case AssetFungible:
		return "fungible"
	case AssetNonFungible:
		return "non-fungible"
	case AssetSemiFungible:
		return "semi-fungible"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// Valid reports whether c is a known category.
func (c AssetCategory) Valid() bool {
	return c <= AssetSemiFungible
}

// Asset identifies an amount of a token held by a token contract.
type Asset struct {
	Category     AssetCategory   `json:"category"`
	AssetAddress address.Address `json:"assetAddress"`
	ID           big.Int         `json:"id"`
	Amount       big.Int         `json:"amount"`
}
