package runtime

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	PathVariablesKey   = "pathVariables"
	QueryParametersKey = "queryParameters"
	HeadersKey         = "headers"

	PathVariablesPrefix   = "request.pathVariables"
	QueryParametersPrefix = "request.queryParameters"
	HeadersPrefix         = "request.headers"
	RequestBodyPrefix     = "request.body"
)

// NewHttpHandler registers the flow's http entrypoint on g.
func NewHttpHandler(flow *Flow, app *App, g *gin.Engine) error {
	config := flow.Entrypoint.Config
	method, _ := config["method"].(string)
	path, _ := config["path"].(string)
	if path == "" {
		return fmt.Errorf("http entrypoint requires a path")
	}

	switch strings.ToLower(method) {
	case "get":
		g.GET(path, handleRequest(flow, app, false))
	case "post":
		g.POST(path, handleRequest(flow, app, true))
	default:
		return fmt.Errorf("method %q is not supported", method)
	}
	return nil
}

func handleRequest(flow *Flow, app *App, withBody bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := app.NewExecution(c.Request.Context(), flow)
		if err != nil {
			writeFlowError(c, AsFlowError(err, ""))
			return
		}

		extractRequestData(c, flow, e)

		if withBody {
			if err := extractJSONBody(c, e); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Wrong request body format"})
				return
			}
		}

		if err := app.executor.ExecuteSteps(e); err != nil {
			fe := AsFlowError(err, "")
			app.l.ErrorContext(e, "Flow execution failed",
				"flow", flow.ID,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"error", fe.Error())
			writeFlowError(c, fe)
			return
		}

		toResponse(c, app, e)
	}
}

func writeFlowError(c *gin.Context, fe *FlowError) {
	c.JSON(fe.StatusCode(), gin.H{"error": fe})
}

func extractRequestData(c *gin.Context, f *Flow, e *Execution) {
	if pathVariables, ok := f.Entrypoint.Config[PathVariablesKey].([]any); ok {
		extractValues(e, pathVariables, PathVariablesPrefix, c.Param)
	}

	if queryParameters, ok := f.Entrypoint.Config[QueryParametersKey].([]any); ok {
		extractValues(e, queryParameters, QueryParametersPrefix, c.Query)
	}

	if headers, ok := f.Entrypoint.Config[HeadersKey].([]any); ok {
		extractValues(e, headers, HeadersPrefix, c.GetHeader)
	}
}

func extractValues(e *Execution, keys []any, prefix string, getValue func(string) string) {
	for _, key := range keys {
		if v, ok := key.(string); ok {
			e.AddValue(fmt.Sprintf("%s.%s", prefix, v), getValue(v))
		}
	}
}

func extractJSONBody(c *gin.Context, e *Execution) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return err
	}

	// Stored at every level so both request.body.items and request.body.items.0.url resolve
	e.Store.SetNested(RequestBodyPrefix, parsed)
	return nil
}

func toResponse(c *gin.Context, app *App, e *Execution) {
	if e.ResponseDescriptor == nil {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return
	}

	handler, exists := app.ResponseHandlers.Get(e.ResponseDescriptor.HandlerName)
	if !exists {
		app.l.ErrorContext(e, "Response handler not found",
			"flow", e.Flow.ID,
			"type", e.ResponseDescriptor.HandlerName)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Unknown response type: " + e.ResponseDescriptor.HandlerName,
		})
		return
	}

	if err := handler.Handle(c, e, e.ResponseDescriptor.Args); err != nil {
		app.l.ErrorContext(e, "Response handler execution failed",
			"flow", e.Flow.ID,
			"type", e.ResponseDescriptor.HandlerName,
			"error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Error generating response: " + err.Error(),
		})
	}
}
