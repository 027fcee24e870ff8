package model

import (
	"github.com/google/uuid"
)

type DashboardTotals struct {
	Books          int `json:"books"`
	AvailableBooks int `json:"availableBooks"`
	Members        int `json:"members"`
	ActiveMembers  int `json:"activeMembers"`
	Categories     int `json:"categories"`
	ActiveLoans    int `json:"activeLoans"`
	OverdueLoans   int `json:"overdueLoans"`
	ReturnedToday  int `json:"returnedToday"`
}

type PopularBook struct {
	BookID    uuid.UUID `json:"bookId" db:"id"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author" db:"author"`
	LoanCount int       `json:"loanCount" db:"loan_count"`
}

type AdminDashboard struct {
	Totals       DashboardTotals `json:"totals"`
	RecentLoans  []LoanView      `json:"recentLoans"`
	OverdueLoans []LoanView      `json:"overdueLoans"`
	PopularBooks []PopularBook   `json:"popularBooks"`
	Activity     []ActivityEntry `json:"activity"`
}

type MemberTab string

const (
	TabAvailable MemberTab = "available"
	TabLoans     MemberTab = "loans"
)

func ParseMemberTab(s string) MemberTab {
	if MemberTab(s) == TabLoans {
		return TabLoans
	}
	return TabAvailable
}

type MemberDashboard struct {
	Tab            MemberTab     `json:"tab"`
	Member         Member        `json:"member"`
	AvailableBooks []BookSummary `json:"availableBooks,omitempty"`
	Loans          []LoanView    `json:"loans,omitempty"`
	ActiveLoans    int           `json:"activeLoans"`
	OverdueLoans   int           `json:"overdueLoans"`
}
