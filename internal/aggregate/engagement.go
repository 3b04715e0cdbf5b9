// internal/aggregate/engagement.go
package aggregate

import (
	"context"
	"math"
	"time"

	"paperless-analytics/internal/models"
)

// EngagementScore combines visit frequency (max 50), recency (max 30) and
// service diversity (max 20) into 0..100.
func EngagementScore(visitCount, daysSinceLastVisit, distinctServices int) int {
	frequencyScore := math.Min(float64(visitCount)/20, 1) * 50
	recencyScore := math.Max(0, float64(30-daysSinceLastVisit))
	if recencyScore > 30 {
		recencyScore = 30
	}
	diversityScore := math.Min(float64(distinctServices)/5, 1) * 20
	return int(math.Round(frequencyScore + recencyScore + diversityScore))
}

// updateCustomerEngagement recomputes one (customer, branch) record from the
// customer's entire visit history at that branch.
func (s *Service) updateCustomerEngagement(ctx context.Context, branchID, accountNumber string) error {
	visits, err := s.events.ListCustomerVisits(ctx, branchID, accountNumber)
	if err != nil {
		return err
	}
	if len(visits) == 0 {
		return nil
	}

	usage := map[string]int{}
	names := map[string]string{}
	var order []string
	dates := make([]time.Time, 0, len(visits))

	for _, v := range visits {
		dates = append(dates, v.CreatedAt)
		if _, ok := usage[v.ServiceID]; !ok {
			order = append(order, v.ServiceID)
			names[v.ServiceID] = v.ServiceName
		}
		usage[v.ServiceID]++
	}

	// Ties break on first-encountered service.
	mostUsed := models.ServiceUsage{}
	for _, id := range order {
		if usage[id] > mostUsed.Count {
			mostUsed = models.ServiceUsage{
				ServiceID:   id,
				ServiceName: names[id],
				Count:       usage[id],
			}
		}
	}

	last := visits[len(visits)-1].CreatedAt
	daysSince := int(s.clock.Now().In(s.location).Sub(last).Hours() / 24)
	if daysSince < 0 {
		daysSince = 0
	}

	return s.stats.UpsertCustomerEngagement(ctx, models.CustomerEngagement{
		AccountNumber:   accountNumber,
		BranchID:        branchID,
		TotalVisits:     len(visits),
		FirstVisitDate:  visits[0].CreatedAt,
		LastVisitDate:   last,
		MostUsedService: mostUsed,
		EngagementScore: EngagementScore(len(visits), daysSince, len(order)),
		VisitDates:      dates,
	})
}
