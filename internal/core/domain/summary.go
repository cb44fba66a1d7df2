package domain

// Metric names one count in the summary record.
type Metric string

const (
	MetricTriagePending  Metric = "triagePending"
	MetricInProgress     Metric = "inProgress"
	MetricActiveP1       Metric = "activeP1"
	MetricWaitingForInfo Metric = "waitingForInfo"
	MetricCompleted      Metric = "completed"
	MetricRejected       Metric = "rejected"
)

// SummaryRecord holds the dashboard counters. A record is only ever
// returned with every metric populated.
type SummaryRecord struct {
	TriagePending  int `json:"triagePending"`
	InProgress     int `json:"inProgress"`
	ActiveP1       int `json:"activeP1"`
	WaitingForInfo int `json:"waitingForInfo"`
	Completed      int `json:"completed"`
	Rejected       int `json:"rejected"`
}

// Set stores n under metric m.
func (r *SummaryRecord) Set(m Metric, n int) {
	switch m {
	case MetricTriagePending:
		r.TriagePending = n
	case MetricInProgress:
		r.InProgress = n
	case MetricActiveP1:
		r.ActiveP1 = n
	case MetricWaitingForInfo:
		r.WaitingForInfo = n
	case MetricCompleted:
		r.Completed = n
	case MetricRejected:
		r.Rejected = n
	}
}
