package models

import "time"

// ClubStats aggregates a club's dashboard numbers for its admin.
type ClubStats struct {
	ClubName            ClubName                  `json:"club_name"`
	TotalEvents         int                       `json:"total_events"`
	UpcomingEvents      int                       `json:"upcoming_events"`
	TotalRegistrations  int                       `json:"total_registrations"`
	TotalRecruitments   int                       `json:"total_recruitments"`
	OpenRecruitments    int                       `json:"open_recruitments"`
	TotalApplications   int                       `json:"total_applications"`
	ApplicationByStatus map[ApplicationStatus]int `json:"applications_by_status"`
	GeneratedAt         time.Time                 `json:"generated_at"`
}

// SystemMetrics is a lightweight snapshot of runtime counters exposed on
// the admin dashboard alongside the Prometheus endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
