package models

// ChartDataItem chart data point
type ChartDataItem struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// GroupStats per group breakdown
type GroupStats struct {
	GroupID        string `json:"groupId"`
	GroupName      string `json:"groupName"`
	Total          int    `json:"total"`
	Done           int    `json:"done"`
	CompletionRate int    `json:"completionRate"` // percent
}

// DashboardStats overview statistics
type DashboardStats struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	InProgress     int `json:"inProgress"`
	Done           int `json:"done"`
	NotDone        int `json:"notDone"`
	CompletionRate int `json:"completionRate"` // percent

	StatusDistribution []ChartDataItem `json:"statusDistribution"`
	ShiftDistribution  []ChartDataItem `json:"shiftDistribution"`
	Groups             []GroupStats    `json:"groups"`
}
