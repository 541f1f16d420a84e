package entity

import (
	"math/big"

	"solana_tokens/internal/pkg/utils"
)

// Token holds the metadata of a single fungible asset as served by the token list API.
// Fields are passed through as received; nothing here is validated.
type Token struct {
	Address    string            `json:"address" yaml:"address"`
	ChainID    int               `json:"chainId" yaml:"chainId"`
	Decimals   int               `json:"decimals" yaml:"decimals"`
	Name       string            `json:"name" yaml:"name"`
	Symbol     string            `json:"symbol" yaml:"symbol"`
	LogoURI    string            `json:"logoURI" yaml:"logoURI"`
	Tags       []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Extensions map[string]string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// HasTag reports whether the token carries the given category label.
func (t Token) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// FormatAmount renders a raw on-chain amount scaled by the token's decimals.
func (t Token) FormatAmount(raw *big.Int) string {
	decimals := t.Decimals
	if decimals < 0 {
		decimals = 0
	}
	return utils.FormatUnits(raw, decimals)
}
