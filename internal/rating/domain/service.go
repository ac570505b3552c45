package domain

import (
	"context"

	accountdomain "github.com/smallbiznis/quotaledger/internal/account/domain"
	tariffdomain "github.com/smallbiznis/quotaledger/internal/tariff/domain"
	usagedomain "github.com/smallbiznis/quotaledger/internal/usage/domain"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
)

// Service rates one account's pending usage against a tariff snapshot and
// returns the rated entries it persisted, in record order, for the ledger
// reconciler to fold.
type Service interface {
	RateAccount(
		ctx context.Context,
		account accountdomain.Account,
		records []usagedomain.UsageRecord,
		tariffs map[usagetype.UsageType]tariffdomain.Group,
	) ([]QuotaUsage, error)
}
