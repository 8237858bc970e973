// internal/models/restaurant.go
package models

// Restaurant is the canonical record the recommendation provider hands back,
// whatever heterogeneous upstream produced it. The lobby layer never depends
// on this shape; hosts push restaurant payloads through the lobby opaquely,
// so only the provider boundary promises these fields.
type Restaurant struct {
	Name        string  `json:"name"`
	Cuisine     string  `json:"cuisine,omitempty"`
	Address     string  `json:"address,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Price       string  `json:"price,omitempty"`
	Description string  `json:"description,omitempty"`
	Link        string  `json:"link,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}
