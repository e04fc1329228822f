package domain

import (
	"sort"

	"github.com/google/uuid"
)

// StockAdjustment is the ledger's unit of work: a signed change in reserved
// quantity for a single product. A positive delta means more stock is now
// reserved (available stock goes down); a negative delta releases stock.
// Adjustments are transient values built per save or delete, never persisted.
type StockAdjustment struct {
	ProductID uuid.UUID
	Delta     float64
}

// ComputeStockDeltas computes the net per-product reservation change when a
// document moves from one persisted state to another.
//
// The old state must always be the last persisted state of the document,
// never an in-memory running total; that is what makes repeated saves,
// status bounces and quantity edits reconcile exactly with no accumulation
// error. Only line items with a product reference participate; manual lines
// are ignored. The result is sorted by product ID so concurrent batches
// lock product rows in a consistent order.
func ComputeStockDeltas(oldStatus, newStatus string, oldItems, newItems []LineItem, reserving map[string]bool) []StockAdjustment {
	wasReserving := reserving[oldStatus]
	isReserving := reserving[newStatus]

	// Neither state reserves stock: line item edits are irrelevant.
	if !wasReserving && !isReserving {
		return nil
	}

	oldQty := sumQuantitiesByProduct(oldItems)
	newQty := sumQuantitiesByProduct(newItems)

	ids := make([]uuid.UUID, 0, len(oldQty)+len(newQty))
	seen := make(map[uuid.UUID]bool, len(oldQty)+len(newQty))
	for id := range oldQty {
		ids = append(ids, id)
		seen[id] = true
	}
	for id := range newQty {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var adjustments []StockAdjustment
	for _, id := range ids {
		var reservedOld, reservedNew float64
		if wasReserving {
			reservedOld = oldQty[id]
		}
		if isReserving {
			reservedNew = newQty[id]
		}
		if delta := reservedNew - reservedOld; delta != 0 {
			adjustments = append(adjustments, StockAdjustment{ProductID: id, Delta: delta})
		}
	}
	return adjustments
}

// ComputeReleaseDeltas computes the adjustments for deleting a document:
// the diff against an empty, non-reserving successor state, releasing
// everything the document currently reserves.
func ComputeReleaseDeltas(dt DocumentType, status string, items []LineItem) []StockAdjustment {
	return ComputeStockDeltas(status, "", items, nil, ReservingStatuses(dt))
}

// sumQuantitiesByProduct aggregates quantities per referenced product.
// A product can appear on several lines of the same document; stock math
// is keyed off the aggregate, so line identity churn never affects it.
func sumQuantitiesByProduct(items []LineItem) map[uuid.UUID]float64 {
	qty := make(map[uuid.UUID]float64)
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		qty[*item.ProductID] += item.Quantity
	}
	return qty
}
