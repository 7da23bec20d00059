package server

import (
	"abtest-sizer/internal/service"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type reportResponse struct {
	service.Report
	Tiles []service.Tile `json:"tiles"`
}

func newReportResponse(r service.Report) reportResponse {
	return reportResponse{Report: r, Tiles: r.Tiles()}
}
