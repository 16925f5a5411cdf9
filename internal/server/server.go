// Package server exposes the read-only metrics report: a JSON API and a
// small HTML table of recent generation runs.
package server

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/previewgen/internal/database"
)

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
  <title>Preview Generation Metrics</title>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
    th { background: #f4f4f4; }
  </style>
</head>
<body>
  <h1>Preview Generation Metrics</h1>
  <table>
    <tr><th>Video File</th><th>HW Accel</th><th>Time (s)</th><th>Speed</th><th>Recorded</th></tr>
    {{range .}}
    <tr>
      <td>{{.VideoFile}}</td>
      <td>{{if .HWAccel}}yes{{else}}no{{end}}</td>
      <td>{{printf "%.1f" .TimeSeconds}}</td>
      <td>{{printf "%.2fx" .Speed}}</td>
      <td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td>
    </tr>
    {{end}}
  </table>
</body>
</html>`

// SetupRouter configures and returns the metrics report router.
func SetupRouter(store *database.MetricsStore, log hclog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(template.Must(template.New("report").Parse(reportTemplate)))

	srvLog := log.Named("server")

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": "previewgen",
			})
		})

		api.GET("/metrics", func(c *gin.Context) {
			limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
			metrics, err := store.Latest(limit)
			if err != nil {
				srvLog.Error("failed to load metrics", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load metrics"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"metrics": metrics})
		})
	}

	r.GET("/", func(c *gin.Context) {
		metrics, err := store.Latest(100)
		if err != nil {
			srvLog.Error("failed to load metrics", "error", err)
			c.String(http.StatusInternalServerError, "failed to load metrics")
			return
		}
		c.HTML(http.StatusOK, "report", metrics)
	})

	return r
}
