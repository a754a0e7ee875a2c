// Package models defines the core domain models for split settlement.
//
// # Models
//
//   - Split: a bill with a total, an allocation method and ordered participants
//   - Participant: one obligated person with owed/paid amounts in cents
//   - ReceiptItem / TaxTipAllocation: inputs of receipt-based splits
//   - PaymentEvent / Payment: completion events from the payment provider and their audit records
//   - ParsedReceipt: OCR output after it has been mapped to integer cents
//
// # Design Principles
//
// 1. **Integer cents only**: every monetary field is an int64 number of minor units
// 2. **Ordered participants**: slice order is the tie-break order for remainder cents
// 3. **Avoid circular references**: Use ID strings instead of pointers for relationships
// 4. **Monotonic lifecycle**: statuses only move forward, amounts paid only grow
package models
