// internal/models/query_types.go
package models

// TimeRange tokens accepted by the statistics endpoints.
const (
	RangeDaily     = "daily"
	RangeWeekly    = "weekly"
	RangeOneMonth  = "1month"
	Range3Months   = "3months"
	Range6Months   = "6months"
	RangeOneYear   = "1year"
)

// StatsQuery is the common filter accepted by the statistics endpoints.
// An explicit StartDate/EndDate pair wins over TimeRange.
type StatsQuery struct {
	TimeRange string `json:"timeRange"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	District  string `json:"district"`
	BranchID  string `json:"branchId"`
}

// BranchSummary identifies a branch together with its headline volume numbers.
type BranchSummary struct {
	BranchID          string `json:"branchId"`
	BranchName        string `json:"branchName"`
	TotalQueueNumbers int    `json:"totalQueueNumbers"`
	TotalCustomers    int    `json:"totalCustomers"`
}

// RankedBranchSummary is a BranchSummary with its position in a sorted list.
type RankedBranchSummary struct {
	BranchSummary
	Rank int `json:"rank"`
}

type GeneralStatsResponse struct {
	TotalPaperlessActivatedBranches int           `json:"totalPaperlessActivatedBranches"`
	TotalCustomers                  int           `json:"totalCustomers"`
	TotalServices                   int           `json:"totalServices"`
	BestPerformingBranch            BranchSummary `json:"bestPerformingBranch"`
}

type TransactionsPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type TransactionsOverTimeResponse struct {
	TotalTransactionsOverTime []TransactionsPoint `json:"totalTransactionsOverTime"`
}

type MostUsedService struct {
	ServiceID   string `json:"serviceId"`
	ServiceName string `json:"serviceName"`
	Count       int    `json:"count"`
	Percentage  int    `json:"percentage"`
}

type MostUsedServicesResponse struct {
	MostUsedServices []MostUsedService `json:"mostUsedServices"`
}

type BestPerformingBranchResponse struct {
	BestPerformingBranch BranchSummary `json:"bestPerformingBranch"`
}

type BestPerformingBranchesResponse struct {
	BestPerformingBranches []RankedBranchSummary `json:"bestPerformingBranches"`
}

type CustomerEngagementScoreResponse struct {
	CustomerEngagementScore int `json:"customerEngagementScore"`
}

type BranchInsightsResponse struct {
	TotalRegisteredBranches       int           `json:"totalRegisteredBranches"`
	TotalPaperlessEnabledBranches int           `json:"totalPaperlessEnabledBranches"`
	TotalNonPaperlessBranches     int           `json:"totalNonPaperlessBranches"`
	BestPerformingBranch          BranchSummary `json:"bestPerformingBranch"`
	CustomerSatisfactionScore     int           `json:"customerSatisfactionScore"`
}

type BranchDetailResponse struct {
	BranchID                string       `json:"branchId"`
	BranchName              string       `json:"branchName"`
	TotalQueueNumbers       int          `json:"totalQueueNumbers"`
	BankInitiatedQueues     int          `json:"bankInitiatedQueues"`
	SuperAppInitiatedQueues int          `json:"superAppInitiatedQueues"`
	QRInitiatedQueues       int          `json:"qrInitiatedQueues"`
	AvgResponseTime         int          `json:"avgResponseTime"`
	MostServedService       ServiceUsage `json:"mostServedService"`
}

type CustomerStatsResponse struct {
	TotalCustomers            int          `json:"totalCustomers"`
	MostUsedService           ServiceUsage `json:"mostUsedService"`
	CustomerSatisfactionScore int          `json:"customerSatisfactionScore"`
}
