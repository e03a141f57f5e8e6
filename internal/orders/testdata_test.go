package orders

import (
	"time"

	"github.com/wolfman30/pharmacare-bot/internal/catalog"
)

func sampleOrder() Order {
	return Order{
		Key:           "6f1c2b8e-0d4a-4f7e-9a51-3c2d1e0b9a77",
		ID:            "ORD654321",
		CustomerPhone: "919672618163",
		CustomerName:  "Karan",
		Lines: []Line{
			{ItemID: "1", Name: "Dolo 650mg", Price: catalog.Rupees(25)},
			{ItemID: "1", Name: "Dolo 650mg", Price: catalog.Rupees(25)},
			{ItemID: "6", Name: "Paracetamol 500mg", Price: catalog.Rupees(15)},
		},
		Total:         catalog.Rupees(65),
		PaymentMethod: PaymentCashOnDelivery,
		Status:        StatusPlaced,
		PlacedAt:      time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC),
	}
}
