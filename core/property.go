package core

// Property is a real-estate listing whose fields can be merged into a template.
type Property struct {
	ID         int     `json:"id" yaml:"id"`
	Address    string  `json:"address" yaml:"address"`
	Bedrooms   int     `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms  float64 `json:"bathrooms" yaml:"bathrooms"`
	SquareFeet int     `json:"squareFeet" yaml:"squareFeet"`
	Price      float64 `json:"price" yaml:"price"`
	Type       string  `json:"type" yaml:"type"`
	Image      string  `json:"image,omitempty" yaml:"image,omitempty"`
}
