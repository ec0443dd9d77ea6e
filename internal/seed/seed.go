// Package seed provides the first-run contents of each collection. Every
// call builds fresh values; nothing here is shared state.
package seed

import "atelier/internal/domain"

func Users() []domain.User {
	return []domain.User{
		{ID: "u1", Name: "Younes", Email: "younes@menuiserie.ma", Role: domain.RoleAdmin, Password: "123"},
		{ID: "u2", Name: "Youssef (Commercial)", Email: "youssef@menuiserie.ma", Role: domain.RoleCommercial, Password: "123"},
		{ID: "u3", Name: "Hamid (Atelier)", Email: "hamid@menuiserie.ma", Role: domain.RoleAtelier, Password: "123"},
		{ID: "u4", Name: "Karim (Livraison)", Email: "karim@menuiserie.ma", Role: domain.RoleLivraison, Password: "123"},
	}
}

func depth(v float64) *float64 { return &v }

func Projects() []domain.Project {
	return []domain.Project{
		{
			ID:                "p1",
			ClientName:        "Amina El Fassi",
			OrderNumber:       "BC-2025-0142",
			Phone:             "+212 6 12 34 56 78",
			Address:           "Lotissement Al Andalous, Meknès",
			GPS:               &domain.GPS{Lat: 33.8932, Lng: -5.5473},
			Type:              "Habillage murale",
			ResponsibleID:     "u2",
			Status:            domain.StatusInProduction,
			CreatedAt:         "2025-11-28",
			EstimatedDeadline: "2025-12-16",
			Notes:             "Vérifier teinte LED avant fixation",
			Measurements: []domain.Measurement{
				{ID: "m1", Room: "Salon", Width: 420, Height: 280, Depth: depth(35), Unit: domain.UnitCM},
				{ID: "m2", Room: "Niche TV", Width: 180, Height: 120, Depth: depth(40), Unit: domain.UnitCM},
			},
			Attachments: []domain.Attachment{
				{ID: "a1", Kind: domain.AttachmentDesignPDF, Filename: "amina_salon_plan_v2.pdf", ContentType: "application/pdf", Locator: "#", UploadedBy: "u2", Date: "2025-11-29"},
			},
			Tasks: []domain.Task{
				{ID: "t1", Title: "Découpe panneaux", Status: domain.TaskInProgress, Progress: 60, Assignee: "u3"},
				{ID: "t2", Title: "Placage et ponçage", Status: domain.TaskTodo, Progress: 0},
				{ID: "t3", Title: "Assemblage éléments", Status: domain.TaskBlocked, Progress: 0},
			},
			History: []domain.WorkflowEvent{
				{ID: "h1", From: domain.StatusDraft, To: domain.StatusPendingReview, Date: "2025-11-28 10:15", User: "Youssef"},
				{ID: "h2", From: domain.StatusPendingReview, To: domain.StatusValidatedBC, Date: "2025-11-28 16:40", User: "Younes", Comment: "BC signé par client"},
				{ID: "h3", From: domain.StatusValidatedBC, To: domain.StatusEstimated, Date: "2025-11-29 09:00", User: "Younes"},
				{ID: "h4", From: domain.StatusEstimated, To: domain.StatusSentToWorkshop, Date: "2025-11-30 11:00", User: "Younes"},
				{ID: "h5", From: domain.StatusSentToWorkshop, To: domain.StatusInProduction, Date: "2025-12-01 08:30", User: "Hamid"},
			},
			Delivery: &domain.Delivery{ProposedDate: "2025-12-20"},
		},
		{
			ID:                "p2",
			ClientName:        "Rachid Benali",
			OrderNumber:       "BC-2025-0179",
			Phone:             "+212 6 98 76 54 32",
			Address:           "Route Sidi Kacem, Meknès",
			GPS:               &domain.GPS{Lat: 34.0171, Lng: -5.0347},
			Type:              "Dressing",
			ResponsibleID:     "u2",
			Status:            domain.StatusDeliveryPlanned,
			CreatedAt:         "2025-12-02",
			EstimatedDeadline: "2025-12-15",
			Notes:             "Prévoir protection sols lors installation",
			Measurements: []domain.Measurement{
				{ID: "m3", Room: "Chambre parentale", Width: 260, Height: 250, Depth: depth(60), Unit: domain.UnitCM},
			},
			Attachments: []domain.Attachment{
				{ID: "a2", Kind: domain.AttachmentDesignPDF, Filename: "atlas_dressing_v1.pdf", ContentType: "application/pdf", Locator: "#", UploadedBy: "u2", Date: "2025-12-02"},
			},
			Tasks: []domain.Task{},
			History: []domain.WorkflowEvent{
				{ID: "h6", From: domain.StatusFinished, To: domain.StatusDeliveryPlanned, Date: "2025-12-16 10:00", User: "Hamid"},
			},
			Delivery: &domain.Delivery{ProposedDate: "2025-12-19", ValidatedDate: "2025-12-19", ValidatedBy: "Youssef (Commercial)", ClientNotified: true},
		},
		{
			ID:            "p3",
			ClientName:    "Dr. Tazi",
			OrderNumber:   "BC-2025-0188",
			Phone:         "+212 6 61 00 00 00",
			Address:       "Centre Ville, Fès",
			Type:          "Bureau complet",
			ResponsibleID: "u2",
			Status:        domain.StatusDraft,
			CreatedAt:     "2025-12-10",
			Measurements:  []domain.Measurement{},
			Attachments:   []domain.Attachment{},
			Tasks:         []domain.Task{},
			History:       []domain.WorkflowEvent{},
		},
		{
			ID:                "p4",
			ClientName:        "Mme. Bennani",
			OrderNumber:       "BC-2025-0190",
			Phone:             "+212 6 62 11 22 33",
			Address:           "Agdal, Rabat",
			Type:              "Cuisine",
			ResponsibleID:     "u1",
			Status:            domain.StatusQualityControl,
			CreatedAt:         "2025-11-15",
			EstimatedDeadline: "2025-12-12",
			Measurements:      []domain.Measurement{},
			Attachments:       []domain.Attachment{},
			Tasks: []domain.Task{
				{ID: "t4", Title: "Finitions vernis", Status: domain.TaskInProgress, Progress: 80, Assignee: "u3"},
			},
			History: []domain.WorkflowEvent{},
		},
	}
}

func StockItems() []domain.StockItem {
	return []domain.StockItem{
		{ID: "s1", Name: "Panneau MDF 18mm", Category: "Panneaux", Quantity: 24, Unit: "pcs", MinThreshold: 10, Location: "Rack A"},
		{ID: "s2", Name: "Placage chêne", Category: "Placages", Quantity: 3, Unit: "m2", MinThreshold: 5, Location: "Rack B"},
		{ID: "s3", Name: "Charnières invisibles", Category: "Quincaillerie", Quantity: 40, Unit: "pcs", MinThreshold: 20, Location: "Tiroir 3"},
		{ID: "s4", Name: "Vernis mat", Category: "Finition", Quantity: 2, Unit: "L", MinThreshold: 2, Location: "Armoire F"},
	}
}

func PurchaseOrders() []domain.PurchaseOrder {
	return []domain.PurchaseOrder{
		{
			ID:        "po1",
			Supplier:  "Bois du Saïss",
			Status:    "pending",
			CreatedAt: "2025-12-05",
			ProjectID: "p1",
			Items: []domain.PurchaseOrderItem{
				{ItemName: "Placage chêne", Quantity: 10, Unit: "m2"},
			},
		},
	}
}
