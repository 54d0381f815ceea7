// Package providervault holds the payment-provider credentials that
// merchants register with the platform.
package providervault

import (
	"fmt"
	"time"
)

type Credentials struct {
	ProviderName string
	MerchantUID  string
	APIKey       string
	CreatedAt    time.Time
}

// Key is the vault key under which a merchant's credentials for one
// provider are stored.
func Key(providerName string, merchantUID string) string {
	return fmt.Sprintf("%s/%s", providerName, merchantUID)
}
