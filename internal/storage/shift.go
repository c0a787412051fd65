package storage

import "time"

type LunchStatus string

const (
	LunchNotTaken   LunchStatus = "NOT_TAKEN"
	LunchInProgress LunchStatus = "IN_PROGRESS"
	LunchTaken      LunchStatus = "TAKEN"
	LunchDeclined   LunchStatus = "DECLINED"
)

type Shift struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"user_id"`
	Date          time.Time   `json:"date"`
	TimeIn        *time.Time  `json:"time_in"`
	TimeOut       *time.Time  `json:"time_out"`
	LunchStatus   LunchStatus `json:"lunch_status"`
	LunchStart    *time.Time  `json:"lunch_start"`
	LunchEnd      *time.Time  `json:"lunch_end"`
	LunchOvertime *int        `json:"lunch_overtime"`
	IsLate        bool        `json:"is_late"`
	PlannedStart  time.Time   `json:"planned_start"`
}

// Actor: кто выполняет операцию над сменой.
type Actor struct {
	UserID     int64
	Privileged bool
}
