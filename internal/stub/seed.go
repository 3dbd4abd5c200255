package stub

import "example.com/storefront/internal/domain/catalog"

// DefaultCatalog is the product seed for a fresh stub backend.
func DefaultCatalog() []catalog.Product {
	return []catalog.Product{
		{ID: "v4sLtEcMpzabRyfx", Name: "iPhone XR", Category: "Phones", Cost: 100, Rating: 4, Image: "https://i.imgur.com/lulqWzW.jpg"},
		{ID: "upLK9JbQ4rMhTwt4", Name: "Basketball", Category: "Sports", Cost: 100, Rating: 5, Image: "https://i.imgur.com/lulqWzW.jpg"},
		{ID: "KCRwjF7lN97HnEaY", Name: "Fossil Watch", Category: "Accessories", Cost: 50, Rating: 4, Image: "https://i.imgur.com/lulqWzW.jpg"},
		{ID: "BW0jAAeDJmlZCF8i", Name: "UNIFACTOR Mens Running Shoes", Category: "Fashion", Cost: 50, Rating: 5, Image: "https://i.imgur.com/lulqWzW.jpg"},
		{ID: "PmInA797xJhMIPti", Name: "The Elder Scrolls V: Skyrim", Category: "Games", Cost: 58, Rating: 4, Image: "https://i.imgur.com/lulqWzW.jpg"},
		{ID: "TwMM4OAhmK0VQ93S", Name: "YONEX Smash Badminton Racquet", Category: "Sports", Cost: 100, Rating: 5, Image: "https://i.imgur.com/lulqWzW.jpg"},
	}
}
