package engine

import (
	"sort"
	"time"

	"atelier/internal/domain"
)

type Lane struct {
	Status   domain.Status    `json:"status"`
	Label    string           `json:"label"`
	Projects []domain.Project `json:"projects"`
}

// WorkshopBoard groups projects into the production-floor lanes.
func WorkshopBoard(projects []domain.Project) []Lane {
	lanes := make([]Lane, 0, len(domain.WorkshopLanes))
	idx := map[domain.Status]int{}
	for i, s := range domain.WorkshopLanes {
		idx[s] = i
		lanes = append(lanes, Lane{Status: s, Label: s.Label(), Projects: []domain.Project{}})
	}
	for _, p := range projects {
		if i, ok := idx[p.Status]; ok {
			lanes[i].Projects = append(lanes[i].Projects, p)
		}
	}
	return lanes
}

type Dashboard struct {
	Total        int                   `json:"total"`
	Late         int                   `json:"late"`
	Approaching  int                   `json:"approaching"`
	InProduction int                   `json:"in_production"`
	Delivered    int                   `json:"delivered"`
	ByStatus     map[domain.Status]int `json:"by_status"`
	LateProjects []Notice              `json:"late_projects"`
}

func BuildDashboard(projects []domain.Project, now time.Time, windowDays int) Dashboard {
	c := ClassifyDeadlines(projects, now, windowDays)
	d := Dashboard{
		Total:        len(projects),
		Late:         len(c.Late),
		Approaching:  len(c.Approaching),
		ByStatus:     map[domain.Status]int{},
		LateProjects: c.Late,
	}
	for _, p := range projects {
		d.ByStatus[p.Status]++
		switch p.Status {
		case domain.StatusInProduction, domain.StatusSentToWorkshop:
			d.InProduction++
		case domain.StatusDelivered:
			d.Delivered++
		}
	}
	return d
}

// LowStock returns items at or below their threshold, lowest first.
func LowStock(items []domain.StockItem) []domain.StockItem {
	var res []domain.StockItem
	for _, it := range items {
		if it.Low() {
			res = append(res, it)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Quantity-res[i].MinThreshold < res[j].Quantity-res[j].MinThreshold
	})
	return res
}
