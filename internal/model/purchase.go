package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Purchase records one checkout of a food item. Purchases are immutable
// once written; order history is queried by buyer email.
type Purchase struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	FoodID     string             `bson:"foodId" json:"foodId"`
	FoodName   string             `bson:"foodName,omitempty" json:"foodName,omitempty"`
	FoodImage  string             `bson:"foodImage,omitempty" json:"foodImage,omitempty"`
	Price      float64            `bson:"price,omitempty" json:"price,omitempty"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	BuyerEmail string             `bson:"email" json:"email"`
	BuyerName  string             `bson:"buyerName,omitempty" json:"buyerName,omitempty"`
	Date       string             `bson:"date,omitempty" json:"date,omitempty"`
}
