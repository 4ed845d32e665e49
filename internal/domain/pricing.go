package domain

import "strings"

const (
	BucketUpTo30   = "<=30"
	BucketUpTo50   = "<=50"
	BucketUpTo100  = "<=100"
	Bucket100To200 = "100-200"
	BucketOver200  = "200+"
	BucketOver500  = "500+"
)

// PriceBucketFor maps a price in cents to its catalog bucket.
func PriceBucketFor(cents int64) string {
	switch {
	case cents <= 3000:
		return BucketUpTo30
	case cents <= 5000:
		return BucketUpTo50
	case cents <= 10000:
		return BucketUpTo100
	case cents <= 20000:
		return Bucket100To200
	case cents > 50000:
		return BucketOver500
	default:
		return BucketOver200
	}
}

var budgetBuckets = map[string][]string{
	"low":    {BucketUpTo30, BucketUpTo50},
	"medium": {BucketUpTo50, BucketUpTo100, Bucket100To200},
	"high":   {Bucket100To200, BucketOver200, BucketOver500},
}

// BucketsForBudget translates a wizard budget answer into price buckets.
// A nil result means the budget does not constrain the catalog.
func BucketsForBudget(budget string) []string {
	key := strings.ToLower(strings.TrimSpace(budget))
	if buckets, ok := budgetBuckets[key]; ok {
		return buckets
	}
	switch budget {
	case BucketUpTo30, BucketUpTo50, BucketUpTo100, Bucket100To200, BucketOver200, BucketOver500:
		return []string{budget}
	}
	return nil
}
