// Package model defines the data structures used throughout the application.
package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Food is a listed food item.
//
// The bson/json tags carry the wire names the frontend already speaks
// (foodName, foodPrice, ...), so documents written by earlier deployments
// keep reading back unchanged. PurchaseCount is stored under "purchase":
// it starts at zero and is only ever moved by the store's atomic $inc,
// in lockstep with Quantity.
type Food struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name          string             `bson:"foodName" json:"foodName"`
	Category      string             `bson:"foodCategory" json:"foodCategory"`
	Price         float64            `bson:"foodPrice" json:"foodPrice"`
	Quantity      int                `bson:"foodQuantity" json:"foodQuantity"`
	About         string             `bson:"about" json:"about"`
	ImageURL      string             `bson:"url" json:"url"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	OwnerEmail    string             `bson:"email" json:"email"`
	OwnerName     string             `bson:"userName,omitempty" json:"userName,omitempty"`
	PurchaseCount int                `bson:"purchase" json:"purchase"`
}

// FoodUpdate carries the whitelisted fields a PUT /update may replace.
// Anything outside this set is dropped before the upsert, even if the
// request body contains it.
type FoodUpdate struct {
	Name        string  `bson:"foodName" json:"foodName"`
	Category    string  `bson:"foodCategory" json:"foodCategory"`
	Price       float64 `bson:"foodPrice" json:"foodPrice"`
	Quantity    int     `bson:"foodQuantity" json:"foodQuantity"`
	About       string  `bson:"about" json:"about"`
	ImageURL    string  `bson:"url" json:"url"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
}
