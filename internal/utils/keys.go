package utils

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	ProjectsCachePrefix = "projects:"
	DashboardStatsKey   = "dashboard:stats:v1"
)

func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func BuildProjectsListCacheKey(limit int, status, projectType, q *string, cursor string) string {
	norm := func(p *string) string {
		if p == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(*p))
	}

	return ProjectsCachePrefix + "list:v1:limit=" + strconv.Itoa(limit) +
		":status=" + norm(status) +
		":type=" + norm(projectType) +
		":q=" + norm(q) +
		":cursor=" + cursor
}
