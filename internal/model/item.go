package model

import "time"

// ItemStatus is the lifecycle state of a listed item.  An item may only be
// purchased while it is AVAILABLE.  It becomes RESERVED the moment a pending
// order is created for it and SOLD when that order is finalized.  Cancelled
// or expired orders return the item to AVAILABLE.
type ItemStatus string

const (
    ItemAvailable ItemStatus = "available"
    ItemReserved  ItemStatus = "reserved"
    ItemSold      ItemStatus = "sold"
)

// ItemCondition describes the physical condition a seller declares for an
// item.  The values mirror the `item_condition` column enum.
type ItemCondition string

const (
    ConditionNew     ItemCondition = "new"
    ConditionLikeNew ItemCondition = "like-new"
    ConditionGood    ItemCondition = "good"
    ConditionFair    ItemCondition = "fair"
    ConditionPoor    ItemCondition = "poor"
)

// Item represents a row in the `items` table.  Prices are stored in cents to
// avoid floating point drift.  Timestamps are stored in UTC.
//
// Fields:
//  ID         – opaque UUID primary key.
//  SellerID   – user who listed the item.
//  Title      – listing title.
//  PriceCents – asking price in USD cents (> 0).
//  Condition  – declared condition (see ItemCondition).
//  Status     – lifecycle state (see ItemStatus).
//  ImageURLs  – object-store references for listing images.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Item struct {
    ID         string        `json:"id"`          // items.id
    SellerID   string        `json:"seller_id"`   // items.seller_id
    Title      string        `json:"title"`       // items.title
    PriceCents uint32        `json:"price_cents"` // items.price_cents
    Condition  ItemCondition `json:"condition"`   // items.item_condition
    Status     ItemStatus    `json:"status"`      // items.status
    ImageURLs  []string      `json:"image_urls"`  // items.image_urls (JSON)
    CreatedAt  time.Time     `json:"created_at"`  // items.created_at
    UpdatedAt  time.Time     `json:"updated_at"`  // items.updated_at
}
