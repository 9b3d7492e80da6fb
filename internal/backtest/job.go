package backtest

import "time"

const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// Params 一次回测任务的请求参数。零值字段由服务的基础配置补齐。
type Params struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	// History 拉取的 K 线数量。
	History int `json:"history"`
	// UseMLEnsemble 为 nil 时跟随功能开关。
	UseMLEnsemble *bool `json:"use_ml_ensemble,omitempty"`
}

// Job 在内存中跟踪一次回测的进度与结果。
type Job struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Params    Params    `json:"params"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Message   string    `json:"message,omitempty"`
	Report    *Report   `json:"report,omitempty"`
}

func (j *Job) copy() Job {
	if j == nil {
		return Job{}
	}
	out := *j
	if j.Report != nil {
		rep := *j.Report
		out.Report = &rep
	}
	return out
}
