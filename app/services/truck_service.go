package services

import (
	"context"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/pkg/collection"
	"github.com/poppys-produce/backend/pkg/middleware"
)

// UnassignedTruck buckets pending orders whose sub-account has no truck.
const UnassignedTruck = "Unassigned"

// TruckService computes the delivery view: pending orders of the caller's
// sub-accounts grouped by truck. It is a pure read; nothing is persisted and
// every call recomputes from the current orders.
type TruckService struct {
	orders OrderStore
	subs   SubAccountStore
}

func NewTruckService(orders OrderStore, subs SubAccountStore) *TruckService {
	return &TruckService{orders: orders, subs: subs}
}

// TruckLoad is one truck's worth of pending orders.
type TruckLoad struct {
	TruckNumber string         `json:"truckNumber"`
	Orders      []models.Order `json:"orders"`
	TotalItems  int            `json:"totalItems"`
}

// PickListEntry is one customer's combined items on a truck.
type PickListEntry struct {
	Customer   string             `json:"customer"`
	Items      []models.OrderItem `json:"items"`
	TotalItems int                `json:"totalItems"`
}

// Aggregate groups the caller's pending sub-account orders by truck,
// sorted lexicographically by truck number. Orders whose sub-account has no
// truck land in the Unassigned bucket.
func (s *TruckService) Aggregate(ctx context.Context, caller middleware.Identity) ([]TruckLoad, error) {
	subs, err := s.subs.FindByParent(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return []TruckLoad{}, nil
	}

	names := collection.Map(subs, func(sa models.SubAccount) string { return sa.Name })
	pending, err := s.orders.FindPendingBySubAccountNames(ctx, names)
	if err != nil {
		return nil, err
	}

	byName := collection.KeyBy(subs, func(sa models.SubAccount) string { return sa.Name })
	byTruck := collection.GroupBy(pending, func(o models.Order) string {
		if sa, ok := byName[o.SubAccountName]; ok && sa.TruckNumber != "" {
			return sa.TruckNumber
		}
		return UnassignedTruck
	})

	loads := make([]TruckLoad, 0, len(byTruck))
	for truck, orders := range byTruck {
		total := collection.Reduce(orders, 0, func(sum int, o models.Order) int {
			return sum + o.TotalItems()
		})
		loads = append(loads, TruckLoad{TruckNumber: truck, Orders: orders, TotalItems: total})
	}
	collection.SortBy(loads, func(a, b TruckLoad) bool { return a.TruckNumber < b.TruckNumber })
	return loads, nil
}

// PickList flattens one truck's orders into per-customer item lists so the
// packers can work customer by customer.
func (s *TruckService) PickList(ctx context.Context, caller middleware.Identity, truck string) ([]PickListEntry, error) {
	loads, err := s.Aggregate(ctx, caller)
	if err != nil {
		return nil, err
	}

	load, ok := collection.First(loads, func(l TruckLoad) bool { return l.TruckNumber == truck })
	if !ok {
		return []PickListEntry{}, nil
	}

	byCustomer := collection.GroupBy(load.Orders, func(o models.Order) string {
		if o.SubAccountName != "" {
			return o.SubAccountName
		}
		return o.UserEmail
	})

	entries := make([]PickListEntry, 0, len(byCustomer))
	for customer, orders := range byCustomer {
		var items []models.OrderItem
		for _, o := range orders {
			items = append(items, o.Items...)
		}
		total := collection.Reduce(items, 0, func(sum int, it models.OrderItem) int {
			return sum + it.Quantity
		})
		entries = append(entries, PickListEntry{Customer: customer, Items: items, TotalItems: total})
	}
	collection.SortBy(entries, func(a, b PickListEntry) bool { return a.Customer < b.Customer })
	return entries, nil
}
