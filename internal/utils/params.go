package utils

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func paramUint(ctx *gin.Context, name, label string) (uint64, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New(label + " not found")
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid " + label)
	}

	return id, nil
}

func GetStatusPageID(ctx *gin.Context) (uint64, error) {
	return paramUint(ctx, "page_id", "Status Page ID")
}

func GetMonitorID(ctx *gin.Context) (uint64, error) {
	return paramUint(ctx, "monitor_id", "Monitor ID")
}

func GetIncidentID(ctx *gin.Context) (uint64, error) {
	return paramUint(ctx, "incident_id", "Incident ID")
}

func GetMaintenanceID(ctx *gin.Context) (uint64, error) {
	return paramUint(ctx, "window_id", "Maintenance Window ID")
}

func GetPageMonitorID(ctx *gin.Context) (uint64, uint64, error) {
	pageID, err := GetStatusPageID(ctx)

	if err != nil {
		return 0, 0, err
	}

	monitorID, err := GetMonitorID(ctx)

	if err != nil {
		return 0, 0, err
	}

	return pageID, monitorID, nil
}

func ExtractRawDomain(input string) (string, error) {
	if input == "" {
		return "", errors.New("input cannot be empty")
	}

	domain := strings.TrimSpace(input)

	// If it looks like a URL, parse it
	if strings.Contains(domain, "://") {
		parsedURL, err := url.Parse(domain)
		if err != nil {
			return "", errors.New("invalid URL format")
		}

		if parsedURL.Hostname() == "" {
			return "", errors.New("no hostname found in URL")
		}

		domain = parsedURL.Hostname()
	}

	domain = strings.TrimSuffix(domain, "/")

	if strings.HasPrefix(strings.ToLower(domain), "www.") {
		domain = domain[4:]
	}

	if domain == "" {
		return "", errors.New("invalid domain after processing")
	}

	return domain, nil
}
