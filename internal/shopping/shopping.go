// Package shopping holds the pure list calculations shared by the API
// handlers and the client: category grouping, progress and the per-category
// expense totals used when a list is completed.
package shopping

import (
	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/model"
)

// CategoryGroup is a list category with its items in list order.
type CategoryGroup struct {
	Category string
	Items    []model.ShoppingItem
}

// Progress is the purchased percentage within the group.
func (g CategoryGroup) Progress() float64 {
	return Progress(g.Items)
}

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// GroupByCategory partitions items by category. Categories appear in the
// order they are first seen and items keep their relative order within
// each group.
func GroupByCategory(items []model.ShoppingItem) []CategoryGroup {
	groups := make([]CategoryGroup, 0)
	index := make(map[string]int)

	for _, item := range items {
		i, ok := index[item.Category]
		if !ok {
			i = len(groups)
			index[item.Category] = i
			groups = append(groups, CategoryGroup{Category: item.Category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	return groups
}

// Progress returns the percentage of items purchased, 0 for an empty list.
func Progress(items []model.ShoppingItem) float64 {
	if len(items) == 0 {
		return 0
	}

	purchased := 0
	for _, item := range items {
		if item.IsPurchased {
			purchased++
		}
	}

	return float64(purchased) / float64(len(items)) * 100
}

// TotalEstimated sums the estimated price of every item on the list.
func TotalEstimated(items []model.ShoppingItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.EstimatedPrice)
	}
	return total
}

// TotalSpent sums what purchased items cost, falling back to the estimate
// for items purchased without a recorded actual price.
func TotalSpent(items []model.ShoppingItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.IsPurchased {
			total = total.Add(item.SpentPrice())
		}
	}
	return total
}

// AggregateByCategory sums purchased items per category, in the order
// categories first appear. Unpurchased items contribute nothing. This is
// the shape a completed list materializes into expense transactions.
func AggregateByCategory(items []model.ShoppingItem) []CategoryTotal {
	totals := make([]CategoryTotal, 0)
	index := make(map[string]int)

	for _, item := range items {
		if !item.IsPurchased {
			continue
		}

		i, ok := index[item.Category]
		if !ok {
			i = len(totals)
			index[item.Category] = i
			totals = append(totals, CategoryTotal{Category: item.Category, Total: decimal.Zero})
		}
		totals[i].Total = totals[i].Total.Add(item.SpentPrice())
	}

	return totals
}
