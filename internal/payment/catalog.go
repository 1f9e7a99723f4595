package payment

// Feature is a premium entitlement that can be bought. Prices are in USDC.
type Feature struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// Catalog is fixed; its order is the display order.
var Catalog = []Feature{
	{
		Key:         "stateSpecific",
		Name:        "State-Specific Scripts",
		Price:       0.99,
		Description: "Advanced scripts tailored to your state's specific laws",
	},
	{
		Key:         "enhancedRecording",
		Name:        "Enhanced Recording",
		Price:       1.99,
		Description: "Cloud storage, automatic backup, and extended recording time",
	},
	{
		Key:         "unlimitedBilingual",
		Name:        "Unlimited Bilingual Access",
		Price:       4.99,
		Description: "Full access to all content in English and Spanish",
	},
}

func Lookup(key string) (Feature, bool) {
	for _, f := range Catalog {
		if f.Key == key {
			return f, true
		}
	}
	return Feature{}, false
}
