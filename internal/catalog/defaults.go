package catalog

// DefaultData is the PharmaCare storefront the bot ships with.
func DefaultData() Data {
	return Data{
		Items: []Item{
			{ID: "1", Name: "Dolo 650", Price: Rupees(25.00), Category: "Pain Relief", Stock: InStock},
			{ID: "2", Name: "Benadryl DR Syrup", Price: Rupees(140.00), Category: "Pain Relief", Stock: InStock},
			{ID: "3", Name: "Lubistar Eye Drops", Price: Rupees(89.00), Category: "Eye Care", Stock: OutOfStock},
			{ID: "4", Name: "Vitamin D3", Price: Rupees(120.75), Category: "Supplements", Stock: InStock},
			{ID: "5", Name: "B-Complex Tablets", Price: Rupees(45.00), Category: "Supplements", Stock: InStock},
			{ID: "6", Name: "Paracetamol 500mg", Price: Rupees(15.00), Category: "Pain Relief", Stock: InStock},
			{ID: "7", Name: "Cetrizine 10mg", Price: Rupees(18.00), Category: "Allergy", Stock: InStock},
			{ID: "8", Name: "Amoxicillin 250mg", Price: Rupees(85.00), Category: "Antibiotic", Stock: OutOfStock},
			{ID: "9", Name: "Calcium Tablets", Price: Rupees(75.50), Category: "Supplements", Stock: InStock},
			{ID: "10", Name: "Iron Folic Acid", Price: Rupees(32.00), Category: "Supplements", Stock: InStock},
			{ID: "11", Name: "Cough Syrup", Price: Rupees(68.00), Category: "Cold & Flu", Stock: InStock},
			{ID: "12", Name: "Digene Gel", Price: Rupees(42.00), Category: "Digestive", Stock: InStock},
			{ID: "13", Name: "ENO Powder", Price: Rupees(35.00), Category: "Digestive", Stock: InStock},
			{ID: "14", Name: "Vicks VapoRub", Price: Rupees(95.00), Category: "Cold & Flu", Stock: InStock},
		},
		Recommendations: map[string][]string{
			"1":  {"6", "12"},
			"2":  {"11", "14"},
			"3":  {"4", "5"},
			"7":  {"11", "14"},
			"11": {"14", "7"},
			"12": {"13"},
			"14": {"11", "2"},
		},
		Substitutions: map[string][]string{
			"3": {"1", "6"},
			"8": {"7", "11"},
		},
		Customer: Customer{
			Phone:     "919672618163",
			Name:      "Karan",
			LastOrder: []string{"1", "3", "5"},
		},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultData())
	if err != nil {
		panic(err)
	}
	return c
}
