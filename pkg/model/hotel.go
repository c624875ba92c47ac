package model

type Hotel struct {
	ID      string `json:"id" bson:"_id"`
	OwnerID string `json:"owner_id" bson:"owner_id"`
	Name    string `json:"name" bson:"name"`
	City    string `json:"city" bson:"city"`
	Active  bool   `json:"active" bson:"active"`
}

type Room struct {
	ID         string  `json:"id" bson:"_id"`
	HotelID    string  `json:"hotel_id" bson:"hotel_id"`
	Type       string  `json:"type" bson:"type"`
	BasePrice  float64 `json:"base_price" bson:"base_price"`
	TotalCount int     `json:"total_count" bson:"total_count"`
}
