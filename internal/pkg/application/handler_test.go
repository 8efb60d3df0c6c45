package application

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/auth"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/config"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/database"
)

const testSecret = "handler-test-secret"

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}

func newRouterForTest(t *testing.T) *RequestRouter {
	log := logging.NewDiscardLogger()

	db, err := database.NewDatabaseConnection(database.NewSQLiteConnector(""), log)
	if err != nil {
		t.Fatalf("failed to open test database: %s", err.Error())
	}

	cfg := &config.Config{
		Service: config.ServiceConfig{Port: 8880},
		Auth:    config.AuthConfig{Secret: testSecret, TokenTTL: time.Hour},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	return createRequestRouter(log, cfg, db)
}

func tokenFor(username string, superuser bool) string {
	token, _ := auth.GenerateToken(username, superuser, testSecret, time.Hour)
	return token
}

func do(router *RequestRouter, method, url, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if s, ok := body.(string); ok {
		reader = bytes.NewBufferString(s)
	} else if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewBuffer(b)
	} else {
		reader = &bytes.Buffer{}
	}

	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Errorf("status = %d, want %d (body: %s)", w.Code, status, w.Body.String())
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) Error {
	e := Error{}
	if err := json.NewDecoder(w.Body).Decode(&e); err != nil {
		t.Fatalf("failed to decode error body: %s", err.Error())
	}
	return e
}

func seed(t *testing.T, router *RequestRouter, token string) {
	expectStatus(t, do(router, "POST", createURL("/device"), token, map[string]string{"device_id": "dev1", "name": "Weather station"}), http.StatusCreated)
	expectStatus(t, do(router, "POST", createURL("/tag"), token, map[string]string{"tag_id": "TT1", "name": "Temperature", "device": "dev1", "value_type": "dec"}), http.StatusCreated)
	expectStatus(t, do(router, "POST", createURL("/tag"), token, map[string]string{"tag_id": "TT2", "name": "Door open", "device": "dev1", "value_type": "bool"}), http.StatusCreated)
}

func TestThatHealthzDoesNotRequireAToken(t *testing.T) {
	router := newRouterForTest(t)
	expectStatus(t, do(router, "GET", createURL("/healthz"), "", nil), http.StatusOK)
}

func TestThatApiRequiresAValidToken(t *testing.T) {
	router := newRouterForTest(t)

	w := do(router, "GET", createURL("/data"), "", nil)
	expectStatus(t, w, http.StatusUnauthorized)
	if e := decodeError(t, w); e.Code != "unauthorised" {
		t.Errorf("error code = %s, want unauthorised", e.Code)
	}

	expired, _ := auth.GenerateToken("alice", false, testSecret, -time.Minute)
	expectStatus(t, do(router, "GET", createURL("/device"), expired, nil), http.StatusUnauthorized)
}

func TestThatPostedDataIsReturnedTyped(t *testing.T) {
	router := newRouterForTest(t)
	alice := tokenFor("alice", false)
	seed(t, router, alice)

	w := do(router, "POST", createURL("/data"), alice, `{"tag":"TT1","value":"37.25","timestamp":"2020-01-01T10:00:00+01:00"}`)
	expectStatus(t, w, http.StatusCreated)

	dp := map[string]interface{}{}
	json.NewDecoder(w.Body).Decode(&dp)

	if dp["value"] != "37.250" || dp["tag"] != "TT1" || dp["owner"] != "alice" || dp["type"] != "dec" {
		t.Errorf("unexpected data point %v", dp)
	}
	if dp["timestamp"] != "2020-01-01T09:00:00Z" {
		t.Errorf("timestamp = %v, want 2020-01-01T09:00:00Z", dp["timestamp"])
	}

	w = do(router, "POST", createURL("/data"), alice, `{"tag":"TT2","value":true}`)
	expectStatus(t, w, http.StatusCreated)
	dp = map[string]interface{}{}
	json.NewDecoder(w.Body).Decode(&dp)
	if dp["value"] != true {
		t.Errorf("boolean value = %v, want true", dp["value"])
	}
}

func TestThatInvalidValuesAreRejectedOnTheValueField(t *testing.T) {
	router := newRouterForTest(t)
	alice := tokenFor("alice", false)
	seed(t, router, alice)

	w := do(router, "POST", createURL("/data"), alice, `{"tag":"TT1","value":"123456.1"}`)
	expectStatus(t, w, http.StatusBadRequest)

	e := decodeError(t, w)
	if e.Code != "validation_error" || len(e.Fields["value"]) != 1 || !strings.Contains(e.Fields["value"][0], "5 digits before") {
		t.Errorf("unexpected error body %+v", e)
	}

	w = do(router, "POST", createURL("/data"), alice, `{"tag":"TT2","value":"maybe"}`)
	expectStatus(t, w, http.StatusBadRequest)

	expectStatus(t, do(router, "POST", createURL("/data"), alice, `{"tag":"TT2"`), http.StatusBadRequest)
}

func TestThatQueryParametersAreValidated(t *testing.T) {
	router := newRouterForTest(t)
	alice := tokenFor("alice", false)

	w := do(router, "GET", createURL("/data", "begin=2020-01-01"), alice, nil)
	expectStatus(t, w, http.StatusBadRequest)
	if e := decodeError(t, w); len(e.Fields["begin"]) != 1 || !strings.Contains(e.Fields["begin"][0], "2010-06-30T15:30:00Z") {
		t.Errorf("unexpected error body %+v", e)
	}

	expectStatus(t, do(router, "GET", createURL("/data", "max=-3"), alice, nil), http.StatusBadRequest)
}

func TestThatQueryAndCurrentReturnArrays(t *testing.T) {
	router := newRouterForTest(t)
	alice := tokenFor("alice", false)
	seed(t, router, alice)

	for _, body := range []string{
		`{"tag":"TT1","value":1,"timestamp":"2020-01-01T00:00:00Z"}`,
		`{"tag":"TT1","value":2,"timestamp":"2020-01-01T12:00:00Z"}`,
		`{"tag":"TT1","value":3,"timestamp":"2020-01-02T00:00:00Z"}`,
		`{"tag":"TT1","value":4,"timestamp":"2020-01-03T00:00:00Z"}`,
	} {
		expectStatus(t, do(router, "POST", createURL("/data"), alice, body), http.StatusCreated)
	}

	w := do(router, "GET", createURL("/data", "tag=TT1", "begin=2020-01-01T00:00:00Z", "end=2020-01-02T00:00:00Z", "max=2"), alice, nil)
	expectStatus(t, w, http.StatusOK)

	points := []map[string]interface{}{}
	json.NewDecoder(w.Body).Decode(&points)
	if len(points) != 2 || points[0]["value"] != "1.000" || points[1]["value"] != "2.000" {
		t.Errorf("unexpected query result %v", points)
	}

	w = do(router, "GET", createURL("/tagdata/TT1", "after=2020-01-02T00:00:00Z"), alice, nil)
	expectStatus(t, w, http.StatusOK)
	points = []map[string]interface{}{}
	json.NewDecoder(w.Body).Decode(&points)
	if len(points) != 1 || points[0]["value"] != "4.000" {
		t.Errorf("unexpected tagdata result %v", points)
	}

	w = do(router, "GET", createURL("/data/current", "tag=TT1"), alice, nil)
	expectStatus(t, w, http.StatusOK)
	points = []map[string]interface{}{}
	json.NewDecoder(w.Body).Decode(&points)
	if len(points) != 1 || points[0]["value"] != "4.000" {
		t.Errorf("unexpected current result %v", points)
	}

	w = do(router, "GET", createURL("/data/current", "tag=TT2"), alice, nil)
	expectStatus(t, w, http.StatusOK)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("a tag without data should return an empty array, got %s", w.Body.String())
	}
}

func TestThatOtherPrincipalsGetNotFound(t *testing.T) {
	router := newRouterForTest(t)
	alice := tokenFor("alice", false)
	bob := tokenFor("bob", false)
	seed(t, router, alice)

	expectStatus(t, do(router, "POST", createURL("/data"), alice, `{"tag":"TT1","value":"1"}`), http.StatusCreated)

	expectStatus(t, do(router, "POST", createURL("/data"), bob, `{"tag":"TT1","value":"1"}`), http.StatusNotFound)
	expectStatus(t, do(router, "GET", createURL("/data", "tag=TT1"), bob, nil), http.StatusNotFound)
	expectStatus(t, do(router, "GET", createURL("/device/dev1"), bob, nil), http.StatusNotFound)
	expectStatus(t, do(router, "GET", createURL("/devicetag/dev1"), bob, nil), http.StatusNotFound)
	expectStatus(t, do(router, "DELETE", createURL("/tag/TT1"), bob, nil), http.StatusNotFound)

	w := do(router, "GET", createURL("/data"), bob, nil)
	expectStatus(t, w, http.StatusOK)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("bob should see no data, got %s", w.Body.String())
	}
}

func TestInventoryEndpoints(t *testing.T) {
	router := newRouterForTest(t)
	alice := tokenFor("alice", false)
	seed(t, router, alice)

	w := do(router, "PATCH", createURL("/device/dev1"), alice, map[string]string{"description": "On the roof"})
	expectStatus(t, w, http.StatusOK)

	w = do(router, "GET", createURL("/devicetag"), alice, nil)
	expectStatus(t, w, http.StatusOK)

	devices := []map[string]interface{}{}
	json.NewDecoder(w.Body).Decode(&devices)
	if len(devices) != 1 || devices[0]["description"] != "On the roof" {
		t.Fatalf("unexpected devicetag result %v", devices)
	}
	if tags, ok := devices[0]["device_tags"].([]interface{}); !ok || len(tags) != 2 {
		t.Errorf("expected two nested tags, got %v", devices[0]["device_tags"])
	}

	w = do(router, "POST", createURL("/device"), alice, map[string]string{"device_id": "dev1", "name": "again"})
	expectStatus(t, w, http.StatusBadRequest)
	if e := decodeError(t, w); len(e.Fields["device_id"]) != 1 {
		t.Errorf("duplicate device should be reported on device_id, got %+v", e)
	}

	expectStatus(t, do(router, "DELETE", createURL("/device/dev1"), alice, nil), http.StatusConflict)
	expectStatus(t, do(router, "DELETE", createURL("/tag/TT2"), alice, nil), http.StatusNoContent)
	expectStatus(t, do(router, "GET", createURL("/tag/TT2"), alice, nil), http.StatusNotFound)
}

func TestValueTypeEndpoints(t *testing.T) {
	router := newRouterForTest(t)
	alice := tokenFor("alice", false)
	admin := tokenFor("admin", true)
	seed(t, router, alice)

	w := do(router, "GET", createURL("/valuetype"), alice, nil)
	expectStatus(t, w, http.StatusOK)
	valueTypes := []map[string]interface{}{}
	json.NewDecoder(w.Body).Decode(&valueTypes)
	if len(valueTypes) != 4 {
		t.Errorf("expected the 4 seeded value types, got %v", valueTypes)
	}

	body := map[string]string{"value_type_id": "pct", "name": "Percentage", "kind": "int"}
	expectStatus(t, do(router, "POST", createURL("/valuetype"), alice, body), http.StatusForbidden)
	expectStatus(t, do(router, "POST", createURL("/valuetype"), admin, body), http.StatusCreated)
	expectStatus(t, do(router, "GET", createURL("/valuetype/pct"), alice, nil), http.StatusOK)

	w = do(router, "DELETE", createURL("/valuetype/dec"), admin, nil)
	expectStatus(t, w, http.StatusConflict)
	if e := decodeError(t, w); e.Code != "conflict" {
		t.Errorf("error code = %s, want conflict", e.Code)
	}
	expectStatus(t, do(router, "GET", createURL("/valuetype/dec"), alice, nil), http.StatusOK)
}

func createURL(path string, params ...string) string {
	url := "http://localhost:8880" + path

	if len(params) > 0 {
		url = url + "?"

		for _, p := range params {
			url = url + p + "&"
		}

		url = strings.TrimSuffix(url, "&")
	}

	return url
}

func TestThatTagAliasesIngestAndReadCurrent(t *testing.T) {
	router := newRouterForTest(t)
	alice := tokenFor("alice", false)
	bob := tokenFor("bob", false)
	seed(t, router, alice)

	expectStatus(t, do(router, "POST", createURL("/tagupdate"), alice, `{"tag":"TT1","value":"5","timestamp":"2020-01-01T00:00:00Z"}`), http.StatusCreated)
	expectStatus(t, do(router, "POST", createURL("/tagupdate"), alice, `{"tag":"TT1","value":"6","timestamp":"2020-01-02T00:00:00Z"}`), http.StatusCreated)

	w := do(router, "GET", createURL("/tagcurrent/TT1"), alice, nil)
	expectStatus(t, w, http.StatusOK)
	points := []map[string]interface{}{}
	json.NewDecoder(w.Body).Decode(&points)
	if len(points) != 1 || points[0]["value"] != "6.000" || points[0]["tag"] != "TT1" {
		t.Errorf("unexpected tagcurrent result %v", points)
	}

	expectStatus(t, do(router, "GET", createURL("/tagcurrent/TT1"), bob, nil), http.StatusNotFound)
	expectStatus(t, do(router, "POST", createURL("/tagupdate"), bob, `{"tag":"TT1","value":"7"}`), http.StatusNotFound)
}

type loggerMock struct {
	logging.Logger
	errors []string
}

func (l *loggerMock) Errorf(format string, args ...interface{}) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (b brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestThatFailedResponseWritesAreLogged(t *testing.T) {
	log := &loggerMock{Logger: logging.NewDiscardLogger()}
	h := &handlers{log: log}

	h.writeJSON(brokenWriter{httptest.NewRecorder()}, http.StatusOK, map[string]string{"status": "ok"})

	if len(log.errors) != 1 || !strings.Contains(log.errors[0], "connection reset by peer") {
		t.Errorf("expected the write failure to be logged, got %v", log.errors)
	}
}
