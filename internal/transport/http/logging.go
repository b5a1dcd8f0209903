package http

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/lukedavisbbd/security-todos/internal/util"
)

const requestBodyLogKey = "http.request.body.summary"

// Fields whose values never belong in a log line. Tokens and TOTP codes are
// bearer credentials; totpUri embeds the shared secret.
var redactedFields = map[string]bool{
	"password":    true,
	"newpassword": true,
	"twofactor":   true,
	"token":       true,
	"totpuri":     true,
}

func registerLogging(e *echo.Echo) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			userID := "anonymous"
			if claims, ok := CurrentClaims(c); ok {
				userID = claims.Subject
				if userID == "" {
					userID = "authenticated"
				}
			}

			payload := struct {
				Time      string `json:"time"`
				UserID    string `json:"user_id"`
				Method    string `json:"method"`
				URI       string `json:"uri"`
				Status    int    `json:"status"`
				LatencyMS int64  `json:"latency_ms"`
				Body      any    `json:"body,omitempty"`
				Error     string `json:"error,omitempty"`
			}{
				Time:      v.StartTime.Format(time.RFC3339),
				UserID:    userID,
				Method:    v.Method,
				URI:       v.URI,
				Status:    v.Status,
				LatencyMS: v.Latency.Milliseconds(),
			}
			if summary := c.Get(requestBodyLogKey); summary != nil {
				payload.Body = summary
			}
			if v.Error != nil {
				payload.Error = v.Error.Error()
			}

			buf, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			log.Println(string(buf))
			return nil
		},
	}))

	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, _ []byte) {
		if summary := summarizeBody(reqBody); summary != nil {
			c.Set(requestBodyLogKey, summary)
		}
	}))
}

// summarizeBody keeps request logging useful without ever writing a secret.
// Non-JSON bodies are dropped wholesale; this API only speaks JSON.
func summarizeBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return "non-json"
	}
	summary := util.Envelope{}
	for key, value := range data {
		if redactedFields[strings.ToLower(key)] {
			summary[key] = "redacted"
			continue
		}
		summary[key] = value
	}
	return summary
}
