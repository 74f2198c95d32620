package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kendall-kelly/restaurant-pos-api/config"
	"github.com/kendall-kelly/restaurant-pos-api/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveServer runs the wired router on a real listener
type liveServer struct {
	app *application
	url string
}

func startServer(t *testing.T, driver string) *liveServer {
	t.Helper()
	app, router := newTestApp(t, driver)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		app.hub.CloseAll()
		srv.Close()
	})
	return &liveServer{app: app, url: srv.URL}
}

func (ls *liveServer) do(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, ls.url+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ls.send(t, req)
}

func (ls *liveServer) send(t *testing.T, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	return resp.StatusCode, response
}

func (ls *liveServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	before := ls.app.hub.ClientCount()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ls.url, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return ls.app.hub.ClientCount() == before+1 },
		2*time.Second, 10*time.Millisecond)
	return conn
}

type wsMessage struct {
	Type    string                   `json:"type"`
	Order   map[string]interface{}   `json:"order"`
	Orders  []map[string]interface{} `json:"orders"`
	Message string                   `json:"message"`
}

func readWS(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// TestKitchenFlowAcceptance follows an order from the till to the kitchen
// display and back out to the counter screen
func TestKitchenFlowAcceptance(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			ls := startServer(t, driver)

			kitchen := ls.dial(t)
			require.NoError(t, kitchen.WriteJSON(realtime.Inbound{Type: realtime.TypeRegister, IsKitchen: true}))
			snapshot := readWS(t, kitchen)
			require.Equal(t, realtime.TypeActiveOrders, snapshot.Type)
			assert.Empty(t, snapshot.Orders)

			counter := ls.dial(t)

			status, response := ls.do(t, http.MethodPost, "/api/orders", map[string]interface{}{
				"items": []map[string]interface{}{
					{"menuItemId": 1, "name": "Chips", "price": 250, "quantity": 2, "notes": "extra salt"},
					{"menuItemId": 2, "name": "Cheeseburger", "price": 550, "quantity": 1},
				},
			}, "")
			require.Equal(t, http.StatusCreated, status, response)
			order := response["data"].(map[string]interface{})
			orderID := uint(order["id"].(float64))
			assert.Equal(t, float64(1050), order["totalAmount"])

			created := readWS(t, kitchen)
			require.Equal(t, realtime.TypeNewOrder, created.Type)
			assert.Equal(t, order["orderNumber"], created.Order["orderNumber"])
			assert.Len(t, created.Order["items"], 2)

			// the kitchen bumps the order over the socket
			require.NoError(t, kitchen.WriteJSON(realtime.Inbound{
				Type:    realtime.TypeUpdateStatus,
				OrderID: orderID,
				Status:  "ready",
			}))
			for _, conn := range []*websocket.Conn{kitchen, counter} {
				update := readWS(t, conn)
				require.Equal(t, realtime.TypeOrderUpdate, update.Type)
				assert.Equal(t, "ready", update.Order["status"])
			}

			// the counter serves it over REST
			status, response = ls.do(t, http.MethodPatch, fmt.Sprintf("/api/orders/%d/status", orderID),
				map[string]string{"status": "served"}, "")
			require.Equal(t, http.StatusOK, status, response)
			for _, conn := range []*websocket.Conn{kitchen, counter} {
				assert.Equal(t, "served", readWS(t, conn).Order["status"])
			}

			status, response = ls.do(t, http.MethodGet, "/api/orders/active", nil, "")
			require.Equal(t, http.StatusOK, status)
			assert.Empty(t, response["data"])

			// a rejected command is reported to the sender only
			require.NoError(t, kitchen.WriteJSON(realtime.Inbound{
				Type:    realtime.TypeUpdateStatus,
				OrderID: orderID + 100,
				Status:  "ready",
			}))
			failed := readWS(t, kitchen)
			assert.Equal(t, realtime.TypeError, failed.Type)
			assert.Equal(t, "order not found", failed.Message)
		})
	}
}

// TestAdminMenuAcceptance builds a new menu entry through the admin panel and
// checks the ordering screen sees it
func TestAdminMenuAcceptance(t *testing.T) {
	ls := startServer(t, config.DriverSQLite)

	status, _ := ls.do(t, http.MethodPost, "/api/admin/login",
		map[string]string{"password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, response := ls.do(t, http.MethodPost, "/api/admin/login",
		map[string]string{"password": testAdminPassword}, "")
	require.Equal(t, http.StatusOK, status, response)
	token := response["data"].(map[string]interface{})["token"].(string)

	status, response = ls.do(t, http.MethodPost, "/api/admin/categories",
		map[string]interface{}{"name": "Desserts", "icon": "🍨", "displayOrder": 10}, token)
	require.Equal(t, http.StatusCreated, status, response)
	categoryID := uint(response["data"].(map[string]interface{})["id"].(float64))

	status, response = ls.do(t, http.MethodPost, "/api/admin/menu-items", map[string]interface{}{
		"categoryId":  categoryID,
		"name":        "Ice Cream",
		"price":       300,
		"hasFlavors":  true,
		"flavors":     []string{"Vanilla", "Chocolate"},
		"description": "Two scoops",
	}, token)
	require.Equal(t, http.StatusCreated, status, response)
	itemID := uint(response["data"].(map[string]interface{})["id"].(float64))

	// upload a photo to local disk
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "ice-cream.webp")
	require.NoError(t, err)
	_, err = part.Write([]byte("webp bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/admin/menu-items/%d/image", ls.url, itemID), body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	status, response = ls.send(t, req)
	require.Equal(t, http.StatusOK, status, response)
	imageURL := response["data"].(map[string]interface{})["imageUrl"].(string)
	assert.True(t, strings.HasPrefix(imageURL, "/api/uploads/"))

	status, response = ls.do(t, http.MethodGet, fmt.Sprintf("/api/categories/%d/items", categoryID), nil, "")
	require.Equal(t, http.StatusOK, status)
	items := response["data"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "Ice Cream", item["name"])
	assert.Equal(t, []interface{}{"Vanilla", "Chocolate"}, item["flavors"])
	assert.Equal(t, imageURL, item["imageUrl"])

	resp, err := http.Get(ls.url + imageURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/webp", resp.Header.Get("Content-Type"))
	content, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "webp bytes", string(content))

	// a category with items can't be removed until the item is gone
	status, _ = ls.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/categories/%d", categoryID), nil, token)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = ls.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/menu-items/%d", itemID), nil, token)
	assert.Equal(t, http.StatusOK, status)
	status, _ = ls.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/categories/%d", categoryID), nil, token)
	assert.Equal(t, http.StatusOK, status)
}
