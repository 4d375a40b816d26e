package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"boqtracker/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// newJSONRequest builds a request carrying a JSON body.
func newJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// handlerTestApp bundles a test app with a small three-item fixture:
// 01.01.010 (price 10, qty 5), 01.01.020 (price 20, qty 3) and
// 02.01.010 (price 50, qty 4).
type handlerTestApp struct {
	app                 *pocketbase.PocketBase
	item1, item2, item3 *core.Record
}

func newHandlerTestApp(t *testing.T) *handlerTestApp {
	t.Helper()
	app := testhelpers.NewTestApp(t)
	return &handlerTestApp{
		app:   app,
		item1: testhelpers.CreateTestItem(t, app, "01.01.010", 10, 5),
		item2: testhelpers.CreateTestItem(t, app, "01.01.020", 20, 3),
		item3: testhelpers.CreateTestItem(t, app, "02.01.010", 50, 4),
	}
}
