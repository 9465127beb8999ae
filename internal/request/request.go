package request

import "time"

type ServiceRequest struct {
	ID            string     `json:"id"`
	CustomerID    string     `json:"customerId"`
	ServiceID     string     `json:"serviceId"`
	ServiceName   string     `json:"serviceName,omitempty"`
	CustomerName  string     `json:"customerName,omitempty"`
	WorkerID      string     `json:"workerId,omitempty"`
	Status        Status     `json:"status"`
	CustomerNotes string     `json:"customerNotes,omitempty"`
	WorkerNotes   string     `json:"workerNotes,omitempty"`
	ScheduledTime *time.Time `json:"scheduledTime,omitempty"`
	CompletedTime *time.Time `json:"completedTime,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type NewRequest struct {
	CustomerID    string
	ServiceID     string
	CustomerNotes string
	ScheduledTime *time.Time
}
