// Package cache holds the ownership summary cache backends.
package cache

import (
	"encoding/json"

	"github.com/totegamma/kycgraph/internal/domain"
)

const keyPrefix = "kyc:ownership-summary:"

func key(organizationID string) string {
	return keyPrefix + organizationID
}

func encode(s domain.OwnershipSummary) ([]byte, error) {
	return json.Marshal(s)
}

func decode(raw []byte) (domain.OwnershipSummary, bool) {
	var s domain.OwnershipSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.OwnershipSummary{}, false
	}
	return s, true
}
