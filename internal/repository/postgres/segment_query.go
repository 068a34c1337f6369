package postgres

import (
	"eventcrm/internal/domain"
)

// segmentBase annotates every user with distinct counts computed in per-relationship
// subqueries, so joining several relationships cannot multiply rows.
const segmentBase = `
	WITH owned AS (
		SELECT owner_id AS user_id, COUNT(DISTINCT id) AS n
		FROM events
		GROUP BY owner_id
	), hosting AS (
		SELECT user_id, COUNT(DISTINCT event_id) AS n
		FROM participations
		WHERE role = 'host'
		GROUP BY user_id
	), registered AS (
		SELECT user_id, COUNT(DISTINCT event_id) AS n
		FROM participations
		WHERE role = 'attendee'
		GROUP BY user_id
	), segment AS (
		SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.company, u.job_title,
			u.city, u.state, u.date_joined,
			COALESCE(o.n, 0) AS total_owned_events,
			COALESCE(h.n, 0) AS total_hosting_events,
			COALESCE(a.n, 0) AS total_registered_events
		FROM users u
		LEFT JOIN owned o ON o.user_id = u.id
		LEFT JOIN hosting h ON h.user_id = u.id
		LEFT JOIN registered a ON a.user_id = u.id
	)`

const segmentColumns = `id, username, email, first_name, last_name, company, job_title, city, state, date_joined,
	total_owned_events, total_hosting_events, total_registered_events`

// segmentOrderColumns maps every sortable field to its column in the segment CTE.
var segmentOrderColumns = map[string]string{
	"username":               "username",
	"email":                  "email",
	"date_joined":            "date_joined",
	"company":                "company",
	"job_title":              "job_title",
	"city":                   "city",
	"state":                  "state",
	domain.CounterOwned:      domain.CounterOwned,
	domain.CounterHosting:    domain.CounterHosting,
	domain.CounterRegistered: domain.CounterRegistered,
}

func segmentWhere(c domain.SegmentCriteria) *whereBuilder {
	w := &whereBuilder{}
	text := []struct {
		column string
		value  string
	}{
		{"company", c.Company},
		{"job_title", c.JobTitle},
		{"city", c.City},
		{"state", c.State},
	}
	for _, f := range text {
		if f.value != "" {
			w.add(f.column+` ILIKE ?`, containsPattern(f.value))
		}
	}
	for _, b := range c.Bounds() {
		if b.Min != nil {
			w.add(b.Counter+` >= ?`, *b.Min)
		}
		if b.Max != nil {
			w.add(b.Counter+` <= ?`, *b.Max)
		}
	}
	return w
}

// buildSegmentQuery returns the count and page queries for a segment.
func buildSegmentQuery(c domain.SegmentCriteria, order domain.SortOrder, params domain.PaginationParams) (countQuery, listQuery string, countArgs, listArgs []any) {
	w := segmentWhere(c)
	where := w.clause()
	countQuery = segmentBase + ` SELECT COUNT(*) FROM segment` + where
	limit, listArgs := w.page(params)
	listQuery = segmentBase + ` SELECT ` + segmentColumns + ` FROM segment` + where +
		orderBy(order, domain.DefaultUserSort, segmentOrderColumns, "id") + limit
	return countQuery, listQuery, w.args, listArgs
}
