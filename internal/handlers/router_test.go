package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portal/config"
	"portal/internal/app"
	. "portal/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *fiber.App {
	t.Helper()

	a, err := app.NewWithConfig(config.Config{
		Environment:    "test",
		ServerPort:     8288,
		DatabaseDbPath: ":memory:",
		PublicBaseURL:  "https://portal.example",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	server := fiber.New()
	server.Use(a.Middleware.Metrics())
	require.NoError(t, Router(server, a))
	return server
}

func doJSON(t *testing.T, server *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := server.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode[T any](t *testing.T, raw []byte) Envelope[T] {
	t.Helper()
	var envelope Envelope[T]
	require.NoError(t, json.Unmarshal(raw, &envelope), string(raw))
	return envelope
}

func createCustomer(t *testing.T, server *fiber.App, lastName string) CustomerRecord {
	t.Helper()
	resp, raw := doJSON(t, server, http.MethodPost, "/api/customers/", FormData{
		PersonalData: PersonalData{LastName: lastName, Email: "kunde@web.de"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	return decode[CustomerRecord](t, raw).Data
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doJSON(t, server, http.MethodGet, "/api/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"status":"ok"`)
}

func TestCustomerHandler_CRUD(t *testing.T) {
	server := newTestServer(t)

	created := createCustomer(t, server, "Müller")
	assert.NotEmpty(t, created.CustomerID)

	resp, raw := doJSON(t, server, http.MethodGet, "/api/customers/", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[[]CustomerRecord](t, raw)
	assert.True(t, list.Success)
	assert.Len(t, list.Data, 1)

	update := created.FormData
	update.PersonalData.City = "Berlin"
	resp, raw = doJSON(t, server, http.MethodPut, "/api/customers/"+created.CustomerID, update)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "Berlin", decode[CustomerRecord](t, raw).Data.FormData.PersonalData.City)

	resp, _ = doJSON(t, server, http.MethodDelete, "/api/customers/"+created.CustomerID, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, raw = doJSON(t, server, http.MethodGet, "/api/customers/"+created.CustomerID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	envelope := decode[CustomerRecord](t, raw)
	assert.False(t, envelope.Success)
	assert.Equal(t, "customer not found", envelope.Message)
}

func TestCustomerHandler_ValidationErrors(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doJSON(t, server, http.MethodPost, "/api/customers/", FormData{
		PersonalData: PersonalData{Email: "invalid"},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Success bool              `json:"success"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.False(t, body.Success)
	assert.Equal(t, map[string]string{"lastName": "required", "email": "email_basic"}, body.Errors)

	req := httptest.NewRequest(http.MethodPost, "/api/customers/", strings.NewReader("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	badResp, err := server.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, badResp.StatusCode)
}

func TestCustomerHandler_MockAndExport(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doJSON(t, server, http.MethodPost, "/api/customers/mock", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	mock := decode[CustomerRecord](t, raw).Data
	assert.NotEmpty(t, mock.FormData.VehicleData.VIN)

	resp, raw = doJSON(t, server, http.MethodGet, "/api/customers/export.csv", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "customers.csv")
	assert.Equal(t, 2, strings.Count(string(raw), "\n"))
	assert.Contains(t, string(raw), mock.CustomerID)
}

func TestPublicHandler_Flow(t *testing.T) {
	server := newTestServer(t)
	created := createCustomer(t, server, "Weber")

	resp, raw := doJSON(t, server, http.MethodPost, "/api/customers/"+created.CustomerID+"/public-link", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	link := decode[PublicLink](t, raw).Data
	assert.Equal(t, "https://portal.example"+link.Path, link.URL)

	publicPath := "/api/public/customers/" + created.CustomerID + "/"

	resp, _ = doJSON(t, server, http.MethodGet, publicPath+"short", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, server, http.MethodGet, publicPath+"wrong-but-well-formed", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, raw = doJSON(t, server, http.MethodGet, publicPath+link.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	form := decode[CustomerRecord](t, raw).Data.FormData
	assert.False(t, form.EditedByCustomer)

	form.PersonalData.Street = "Hauptstraße"
	resp, raw = doJSON(t, server, http.MethodPut, publicPath+link.AccessToken, form)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	assert.True(t, decode[CustomerRecord](t, raw).Data.FormData.EditedByCustomer)

	resp, _ = doJSON(t, server, http.MethodPut, publicPath+link.AccessToken, form)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, raw = doJSON(t, server, http.MethodPost, "/api/customers/"+created.CustomerID+"/reset-edited", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, decode[CustomerRecord](t, raw).Data.FormData.EditedByCustomer)
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	doJSON(t, server, http.MethodGet, "/api/health", nil)
	resp, raw := doJSON(t, server, http.MethodGet, "/metrics", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "portal_http_requests_total")
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, server, http.MethodGet, "/ws", nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
