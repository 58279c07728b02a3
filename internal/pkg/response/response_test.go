package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMessage(t *testing.T) {
	assert.Equal(t, MessageNotFound, DefaultMessage(http.StatusNotFound))
	assert.Equal(t, MessageBadGateway, DefaultMessage(http.StatusBadGateway))
	assert.Equal(t, MessageInternalServerError, DefaultMessage(http.StatusGatewayTimeout))
	assert.Equal(t, MessageError, DefaultMessage(http.StatusTeapot))
}

func TestList_NilBecomesEmpty(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		var items []string
		return List(c, items, Meta{Count: 9})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []any{}, body["data"])
	assert.Equal(t, map[string]any{"count": float64(0)}, body["meta"])
}

func TestError_NormalizesStatus(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		return Error(c, 42, "", nil)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body SemanticResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, MessageInternalServerError, body.Message)
}
