// internal/models/visit.go
package models

import "time"

// Channel is the origination of a visit.
type Channel string

const (
	ChannelBranch Channel = "branch"
	ChannelMobile Channel = "mobile"
	ChannelQR     Channel = "qr"
)

// ChannelGroup collapses branch-counter and QR visits for queue sequencing.
type ChannelGroup string

const (
	GroupMobile     ChannelGroup = "mobile"
	GroupBranchOrQR ChannelGroup = "branch_or_qr"
)

// GroupForChannel maps a channel to its sequencing group.
func GroupForChannel(c Channel) ChannelGroup {
	if c == ChannelMobile {
		return GroupMobile
	}
	return GroupBranchOrQR
}

// ValidChannel reports whether c is one of the known channels.
func ValidChannel(c Channel) bool {
	switch c {
	case ChannelBranch, ChannelMobile, ChannelQR:
		return true
	}
	return false
}

// VisitEvent is one queue-number issuance. Immutable once created.
type VisitEvent struct {
	ID            string    `json:"id"`
	BranchID      string    `json:"branchId"`
	Channel       Channel   `json:"channel"`
	AccountNumber string    `json:"accountNumber"`
	ServiceID     string    `json:"serviceId"`
	CategoryID    string    `json:"categoryId"`
	QueueNumber   int64     `json:"queueNumber"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Visit is a VisitEvent joined with its service's reference attributes,
// the shape the daily aggregator consumes.
type Visit struct {
	VisitEvent
	ServiceName          string `json:"serviceName"`
	CategoryName         string `json:"categoryName"`
	ExpectedResponseTime int    `json:"expectedResponseTime"` // minutes, static per service
}

// Branch is reference data keyed by branch code.
type Branch struct {
	BranchID   string `json:"branchId"`
	BranchName string `json:"branchName"`
	District   string `json:"district"`
}

// Service is reference data for a bank service.
type Service struct {
	ServiceID            string `json:"serviceId"`
	Name                 string `json:"name"`
	CategoryID           string `json:"categoryId"`
	CategoryName         string `json:"categoryName"`
	ExpectedResponseTime int    `json:"expectedResponseTime"`
	IsActive             bool   `json:"isActive"`
}
