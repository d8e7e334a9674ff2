package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Storm Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Storm Platform API",
			"description": "Severe-weather alert verification platform cross-referencing NWS alerts against SPC storm reports",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Storm Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/alerts": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List alerts",
					"description": "Retrieve severe-weather alerts with filtering and pagination",
					"parameters": []map[string]interface{}{
						{
							"name":        "event",
							"in":          "query",
							"description": "Filter by event name substring (e.g. Tornado Warning)",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "verified",
							"in":          "query",
							"description": "Filter by verification outcome",
							"required":    false,
							"schema":      map[string]string{"type": "boolean"},
						},
						{
							"name":        "match_method",
							"in":          "query",
							"description": "Filter by match method",
							"required":    false,
							"schema":      map[string]interface{}{"type": "string", "enum": []string{"fips", "latlon", "none"}},
						},
						{
							"name":        "start_date",
							"in":          "query",
							"description": "Filter by effective start date (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "end_date",
							"in":          "query",
							"description": "Filter by effective end date (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "page",
							"in":          "query",
							"description": "Page number (default: 1)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Records per page (default: 100)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"id":               map[string]string{"type": "string"},
														"event":            map[string]string{"type": "string"},
														"area_desc":        map[string]string{"type": "string"},
														"effective":        map[string]string{"type": "string", "format": "date-time"},
														"expires":          map[string]string{"type": "string", "format": "date-time"},
														"verified":         map[string]interface{}{"type": "boolean", "nullable": true},
														"match_method":     map[string]interface{}{"type": "string", "nullable": true},
														"confidence_score": map[string]interface{}{"type": "number", "nullable": true},
														"report_count":     map[string]string{"type": "integer"},
														"verified_at":      map[string]interface{}{"type": "string", "format": "date-time", "nullable": true},
													},
												},
											},
											"total":       map[string]string{"type": "integer"},
											"page":        map[string]string{"type": "integer"},
											"limit":       map[string]string{"type": "integer"},
											"total_pages": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/alerts/{id}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get alert",
					"description": "Retrieve a single alert with its verification outcome and matched report snapshots",
					"parameters": []map[string]interface{}{
						{
							"name":     "id",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
						"404": map[string]interface{}{"description": "Alert not found"},
					},
				},
			},
			"/api/alerts/{id}/verify": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Verify alert",
					"description": "Run verification for a single alert and persist the outcome immediately",
					"parameters": []map[string]interface{}{
						{
							"name":     "id",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Verification completed"},
						"404": map[string]interface{}{"description": "Alert not found"},
						"422": map[string]interface{}{"description": "Alert event type is not eligible for verification"},
					},
				},
			},
			"/api/verification/run": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Run verification batch",
					"description": "Trigger an on-demand verification run over the unverified working set",
					"parameters": []map[string]interface{}{
						{
							"name":        "limit",
							"in":          "query",
							"description": "Maximum alerts to process (default: 100)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Run completed",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"processed": map[string]string{"type": "integer"},
											"matched":   map[string]string{"type": "integer"},
											"updated":   map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
						"409": map[string]interface{}{"description": "A verification run is already in progress"},
					},
				},
			},
			"/api/reports": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List storm reports",
					"description": "Retrieve SPC storm reports with filtering and pagination",
					"parameters": []map[string]interface{}{
						{
							"name":        "report_type",
							"in":          "query",
							"description": "Filter by hazard type",
							"required":    false,
							"schema":      map[string]interface{}{"type": "string", "enum": []string{"tornado", "wind", "hail"}},
						},
						{
							"name":        "state",
							"in":          "query",
							"description": "Filter by two-letter state code",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "start_date",
							"in":          "query",
							"description": "Filter by report start date (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "end_date",
							"in":          "query",
							"description": "Filter by report end date (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "page",
							"in":          "query",
							"description": "Page number (default: 1)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Records per page (default: 100)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API and its store are reachable",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status": map[string]string{"type": "string"},
										},
									},
								},
							},
						},
						"503": map[string]interface{}{"description": "Store is unreachable"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
