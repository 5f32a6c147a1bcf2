package analytics

// Dashboard is the operational snapshot for a single clinic day. Counters
// that fail to load are reported as zero rather than failing the whole
// dashboard.
type Dashboard struct {
	Date                 string            `json:"date"`
	VisitsByStatus       map[string]int    `json:"visits_by_status"`
	TotalVisits          int               `json:"total_visits"`
	AvgWaitMinutes       float64           `json:"avg_wait_minutes"`
	CompletedByDoctor    []DoctorCompleted `json:"completed_by_doctor"`
	AppointmentsTotal    int               `json:"appointments_total"`
	AppointmentsByStatus map[string]int    `json:"appointments_by_status"`
}

// DoctorCompleted counts one doctor's completed visits for the day.
type DoctorCompleted struct {
	DoctorID   string `json:"doctor_id"`
	DoctorName string `json:"doctor_name"`
	Completed  int    `json:"completed"`
}
