// internal/models/stats.go
package models

import "time"

// ServiceBreakdownEntry is one service's visit count within an aggregation window.
type ServiceBreakdownEntry struct {
	ServiceID    string `json:"serviceId"`
	ServiceName  string `json:"serviceName"`
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Count        int    `json:"count"`
}

// ServiceUsage is the trimmed service shape used by roll-ups and engagement records.
type ServiceUsage struct {
	ServiceID   string `json:"serviceId"`
	ServiceName string `json:"serviceName"`
	Count       int    `json:"count"`
}

// DailyStats is one statistics record per (date, branch). Fully replaced on every
// aggregation run for its key.
type DailyStats struct {
	Date                    string                  `json:"date"` // YYYY-MM-DD
	BranchID                string                  `json:"branchId"`
	District                string                  `json:"district"`
	TotalQueueNumbers       int                     `json:"totalQueueNumbers"`
	BankInitiatedQueues     int                     `json:"bankInitiatedQueues"`
	SuperAppInitiatedQueues int                     `json:"superAppInitiatedQueues"`
	QRInitiatedQueues       int                     `json:"qrInitiatedQueues"`
	UniqueCustomers         []string                `json:"uniqueCustomers"`
	UniqueCustomerCount     int                     `json:"uniqueCustomerCount"`
	ServiceBreakdown        []ServiceBreakdownEntry `json:"serviceBreakdown"`
	AvgResponseTime         int                     `json:"avgResponseTime"`
	RepeatCustomers         int                     `json:"repeatCustomers"`
	NewCustomers            int                     `json:"newCustomers"`
}

// WeeklyStats is a roll-up of DailyStats over one ISO week per branch.
type WeeklyStats struct {
	WeekStart           string         `json:"weekStart"` // YYYY-MM-DD
	WeekEnd             string         `json:"weekEnd"`
	BranchID            string         `json:"branchId"`
	District            string         `json:"district"`
	TotalQueueNumbers   int            `json:"totalQueueNumbers"`
	UniqueCustomerCount int            `json:"uniqueCustomerCount"`
	AvgResponseTime     int            `json:"avgResponseTime"`
	TopServices         []ServiceUsage `json:"topServices"`
}

// MonthlyStats is a roll-up of DailyStats over one calendar month per branch.
type MonthlyStats struct {
	Month               string         `json:"month"` // YYYY-MM
	BranchID            string         `json:"branchId"`
	District            string         `json:"district"`
	TotalQueueNumbers   int            `json:"totalQueueNumbers"`
	UniqueCustomerCount int            `json:"uniqueCustomerCount"`
	AvgResponseTime     int            `json:"avgResponseTime"`
	TopServices         []ServiceUsage `json:"topServices"`
}

// BranchPerformance holds cumulative all-time branch metrics. The rank field is
// written only by the ranking engine, never by the aggregator.
type BranchPerformance struct {
	BranchID             string    `json:"branchId"`
	BranchName           string    `json:"branchName"`
	District             string    `json:"district"`
	IsActivated          bool      `json:"isActivated"`
	FirstQueueDate       time.Time `json:"firstQueueDate"`
	LastQueueDate        time.Time `json:"lastQueueDate"`
	TotalQueueNumbers    int       `json:"totalQueueNumbers"`
	TotalUniqueCustomers int       `json:"totalUniqueCustomers"`
	PerformanceScore     int       `json:"performanceScore"` // 0..100
	PerformanceRank      int       `json:"performanceRank"`  // 1..N over activated branches
}

// CustomerEngagement holds the visit history and engagement score for one
// (customer, branch) pair.
type CustomerEngagement struct {
	AccountNumber   string       `json:"accountNumber"`
	BranchID        string       `json:"branchId"`
	TotalVisits     int          `json:"totalVisits"`
	FirstVisitDate  time.Time    `json:"firstVisitDate"`
	LastVisitDate   time.Time    `json:"lastVisitDate"`
	MostUsedService ServiceUsage `json:"mostUsedService"`
	EngagementScore int          `json:"engagementScore"` // 0..100
	VisitDates      []time.Time  `json:"visitDates"`
}
