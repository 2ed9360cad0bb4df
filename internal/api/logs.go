// ABOUTME: Operation log endpoints of the admin service
// ABOUTME: Filtered listing, detail, summary statistics, and the most recent entries

package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// DefaultRecentLogs is how many entries RecentLogs returns by default.
const DefaultRecentLogs = 10

// OperationLog is one audited action.
type OperationLog struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	ActionType string `json:"action_type"`
	Module     string `json:"module"`
	IPAddress  string `json:"ip_address,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	CreatedAt  string `json:"created_at"`
	Status     int    `json:"status"`
	Remark     string `json:"remark,omitempty"`
}

// LogQuery filters GET /v1/logs. Dates are passed through as ISO-8601 strings.
type LogQuery struct {
	Skip       int
	Limit      int
	Username   string
	ActionType string
	Module     string
	Status     *int
	StartDate  string
	EndDate    string
}

func (q LogQuery) values() url.Values {
	v := url.Values{}
	v.Set("skip", strconv.Itoa(q.Skip))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	for key, val := range map[string]string{
		"username":    q.Username,
		"action_type": q.ActionType,
		"module":      q.Module,
		"start_date":  q.StartDate,
		"end_date":    q.EndDate,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	if q.Status != nil {
		v.Set("status", strconv.Itoa(*q.Status))
	}
	return v
}

// LogList is one page of log entries.
type LogList struct {
	Total int            `json:"total"`
	Items []OperationLog `json:"items"`
}

// LogStatistics summarizes the audit log.
type LogStatistics struct {
	TotalLogs       int            `json:"total_logs"`
	TodayLogs       int            `json:"today_logs"`
	ActionTypeStats map[string]int `json:"action_type_stats"`
	ModuleStats     map[string]int `json:"module_stats"`
	UserStats       map[string]int `json:"user_stats"`
}

// ListLogs returns one page of log entries.
func (c *Client) ListLogs(ctx context.Context, q LogQuery) (*LogList, error) {
	var out LogList
	if err := c.get(ctx, "/v1/logs", &out, WithQuery(q.values())); err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	return &out, nil
}

// GetLog returns one log entry.
func (c *Client) GetLog(ctx context.Context, id int64) (*OperationLog, error) {
	var out OperationLog
	if err := c.get(ctx, "/v1/logs/"+strconv.FormatInt(id, 10), &out); err != nil {
		return nil, fmt.Errorf("getting log %d: %w", id, err)
	}
	return &out, nil
}

// LogStatistics returns the summary counts.
func (c *Client) LogStatistics(ctx context.Context) (*LogStatistics, error) {
	var out LogStatistics
	if err := c.get(ctx, "/v1/logs/statistics/summary", &out); err != nil {
		return nil, fmt.Errorf("getting log statistics: %w", err)
	}
	return &out, nil
}

// RecentLogs returns the newest entries. limit <= 0 uses DefaultRecentLogs.
func (c *Client) RecentLogs(ctx context.Context, limit int) ([]OperationLog, error) {
	if limit <= 0 {
		limit = DefaultRecentLogs
	}
	var out []OperationLog
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/v1/logs/recent", &out, WithQuery(q)); err != nil {
		return nil, fmt.Errorf("getting recent logs: %w", err)
	}
	return out, nil
}
