package voucher

import (
	"strings"

	"cpstock/internal/domain/key"
)

// excludedMarkPrefix marks lines that must not appear in unmatch or ledger
// reporting. The prefix is matched against the normalized mark name.
const excludedMarkPrefix = "EXIT"

// excludedMarkCodes is the fixed block list of shipping mark codes removed
// from unmatch and ledger reporting.
var excludedMarkCodes = map[string]struct{}{
	"9900": {},
	"9910": {},
	"9920": {},
	"9980": {},
	"9990": {},
}

// Excluded reports whether lines under the key are excluded from unmatch and
// ledger reporting. Exclusion never removes a line from snapshot quantity
// aggregation.
func Excluded(k key.Key) bool {
	if strings.HasPrefix(k.ShippingMarkName(), excludedMarkPrefix) {
		return true
	}
	_, blocked := excludedMarkCodes[k.ShippingMarkCode()]
	return blocked
}
