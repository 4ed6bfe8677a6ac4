package runtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResponseHandler defines the contract for all response handlers
type ResponseHandler interface {
	Handle(c *gin.Context, exec *Execution, args map[string]any) error
}

// ResponseHandlerRegistry manages all registered response handlers
type ResponseHandlerRegistry struct {
	handlers map[string]ResponseHandler
}

// NewResponseHandlerRegistry creates a registry with the built-in http.json handler
func NewResponseHandlerRegistry() *ResponseHandlerRegistry {
	registry := &ResponseHandlerRegistry{
		handlers: make(map[string]ResponseHandler),
	}
	registry.Register("http.json", &JSONResponseHandler{})
	return registry
}

func (r *ResponseHandlerRegistry) Register(handlerType string, handler ResponseHandler) {
	r.handlers[handlerType] = handler
}

func (r *ResponseHandlerRegistry) Get(handlerType string) (ResponseHandler, bool) {
	handler, exists := r.handlers[handlerType]
	return handler, exists
}

// JSONResponseHandler writes args["body"] as JSON with optional status and headers.
type JSONResponseHandler struct{}

func (h *JSONResponseHandler) Handle(c *gin.Context, exec *Execution, args map[string]any) error {
	statusCode := http.StatusOK
	if status, ok := toStatusCode(args["status"]); ok {
		statusCode = status
	}

	if headers, ok := args["headers"].(map[string]any); ok {
		for key, value := range headers {
			if strValue, ok := value.(string); ok {
				c.Header(key, strValue)
			}
		}
	}

	body := args["body"]
	if body == nil {
		body = gin.H{}
	}

	c.JSON(statusCode, body)
	return nil
}

func toStatusCode(v any) (int, bool) {
	switch s := v.(type) {
	case int:
		return s, true
	case int64:
		return int(s), true
	case float64:
		return int(s), true
	default:
		return 0, false
	}
}
