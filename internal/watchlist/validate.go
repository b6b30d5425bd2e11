package watchlist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/saucesteals/photontools/internal/model"
)

var (
	// ErrInvalidWallet indicates a wallet entry is missing required fields
	// or carries malformed values.
	ErrInvalidWallet = errors.New("invalid wallet")

	// ErrDuplicateWallet indicates the wallet's address is already tracked.
	ErrDuplicateWallet = errors.New("wallet address already tracked")
)

// validate checks Wallet struct tags (required fields, hex color, url).
var validate = validator.New()

// ValidateWallet checks a user-entered wallet against the struct rules and
// the existing watch-list. Validation failures are boundary errors: they
// are surfaced to the user and never reach the controller or the overlay.
//
// Duplicate detection is case-insensitive, matching the comparison used
// against trade makers.
func ValidateWallet(wallet model.Wallet, existing []model.Wallet) error {
	if err := validate.Struct(wallet); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWallet, err)
	}

	for _, other := range existing {
		if other.Matches(wallet.Address) {
			return fmt.Errorf("%w: %s", ErrDuplicateWallet, wallet.Address)
		}
	}

	return nil
}

// ValidateWallets checks a full replacement list, enforcing per-wallet
// rules and address uniqueness within the list.
func ValidateWallets(wallets []model.Wallet) error {
	seen := make(map[string]struct{}, len(wallets))

	for i, wallet := range wallets {
		if err := validate.Struct(wallet); err != nil {
			return fmt.Errorf("%w at index %d: %v", ErrInvalidWallet, i, err)
		}

		key := strings.ToLower(wallet.Address)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateWallet, wallet.Address)
		}
		seen[key] = struct{}{}
	}

	return nil
}
