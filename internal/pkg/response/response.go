package response

import "github.com/gofiber/fiber/v3"

// SemanticResponse is the envelope of every JSON response. Meta is set only
// for list endpoints.
type SemanticResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type Meta struct {
	Count    int  `json:"count"`
	MinScore *int `json:"minScore,omitempty"`
}

const (
	MessageOK                  = "ok"
	MessageBadRequest          = "bad request"
	MessageUnauthorized        = "unauthorized"
	MessageForbidden           = "forbidden"
	MessageNotFound            = "not found"
	MessageConflict            = "conflict"
	MessageUnprocessableEntity = "unprocessable entity"
	MessageInternalServerError = "internal server error"
	MessageBadGateway          = "upstream service error"
	MessageServiceUnavailable  = "service unavailable"
	MessageError               = "error"
)

var defaultMessages = map[int]string{
	fiber.StatusOK:                  MessageOK,
	fiber.StatusBadRequest:          MessageBadRequest,
	fiber.StatusUnauthorized:        MessageUnauthorized,
	fiber.StatusForbidden:           MessageForbidden,
	fiber.StatusNotFound:            MessageNotFound,
	fiber.StatusConflict:            MessageConflict,
	fiber.StatusUnprocessableEntity: MessageUnprocessableEntity,
	fiber.StatusBadGateway:          MessageBadGateway,
	fiber.StatusServiceUnavailable:  MessageServiceUnavailable,
}

func Success(c fiber.Ctx, status int, message string, data interface{}) error {
	return write(c, status, message, data, nil)
}

// List writes items with meta; Count is always len(items).
func List[T any](c fiber.Ctx, items []T, meta Meta) error {
	if items == nil {
		items = []T{}
	}
	meta.Count = len(items)
	return write(c, fiber.StatusOK, MessageOK, items, &meta)
}

func Error(c fiber.Ctx, status int, message string, data interface{}) error {
	return write(c, status, message, data, nil)
}

func write(c fiber.Ctx, status int, message string, data interface{}, meta *Meta) error {
	if status < 100 || status > 599 {
		status = fiber.StatusInternalServerError
	}
	if message == "" {
		message = DefaultMessage(status)
	}
	return c.Status(status).JSON(SemanticResponse{Status: status, Message: message, Data: data, Meta: meta})
}

// DefaultMessage is the client-facing message for a status without one.
func DefaultMessage(status int) string {
	if msg, ok := defaultMessages[status]; ok {
		return msg
	}
	if status >= 500 {
		return MessageInternalServerError
	}
	return MessageError
}
