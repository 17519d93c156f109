package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/chargedblocks/internal/api"
	"github.com/mcoot/chargedblocks/internal/api/apierr"
	"github.com/mcoot/chargedblocks/internal/api/middleware"
	"github.com/mcoot/chargedblocks/internal/api/response"
	"github.com/mcoot/chargedblocks/internal/factory"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage"
	"github.com/mcoot/chargedblocks/internal/storage/memory"
	"github.com/mcoot/chargedblocks/internal/token"
	"github.com/mcoot/chargedblocks/internal/world"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithStorage(t, memory.New())
}

func newTestServerWithStorage(t *testing.T, store storage.Storage) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app := factory.NewTestAppWithStorage(store)
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Bindings:    app.Bindings,
		Reconcile:   app.Reconcile,
		Favorites:   app.Favorites,
		Session:     app.Session,
		Codec:       app.Codec,
		World:       app.World,
		Catalog:     app.Catalog,
		Migration:   app.Migration,
		StorageType: "memory",
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, actor model.PlayerID) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if actor != (model.PlayerID{}) {
		req.Header.Set(middleware.ActorHeader, actor.String())
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// bind creates a bound token in the player's inventory
func (ts *testServer) bind(t *testing.T, p *world.Player, kind model.Kind, uses int32) (*token.Item, model.TokenID) {
	t.Helper()
	item := token.New(kind)
	require.NoError(t, ts.app.Codec.SetUses(item, uses))
	id, err := ts.app.Bindings.Bind(t.Context(), p.ID, item)
	require.NoError(t, err)
	p.Inventory.Add(item)
	return item, id
}

func bindingsPath(owner model.PlayerID) string {
	return "/api/v1/players/" + owner.String() + "/bindings"
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, model.PlayerID{})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	health := decode[response.Health](t, rr)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "enabled", health.Registry)
}

func TestHealthCheckDisabledRegistry(t *testing.T) {
	ts := newTestServerWithStorage(t, nil)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, model.PlayerID{})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "disabled", decode[response.Health](t, rr).Registry)
}

func TestUnauthorizedWithoutActor(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, bindingsPath(uuid.New()), nil, model.PlayerID{})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestOtherPlayersBindingsForbidden(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.app.JoinPlayer("Alice")

	rr := ts.request(http.MethodGet, bindingsPath(alice.ID), nil, uuid.New())
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeNotOwner, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestListBindings(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.app.JoinPlayer("Alice")
	ts.bind(t, alice, "GOLD_BLOCK", 3)
	_, diamond := ts.bind(t, alice, "DIAMOND_BLOCK", 10)

	rr := ts.request(http.MethodGet, bindingsPath(alice.ID), nil, alice.ID)
	require.Equal(t, http.StatusOK, rr.Code)

	list := decode[response.BindingList](t, rr)
	require.Len(t, list.Bindings, 2)
	assert.Equal(t, diamond.String(), list.Bindings[0].TokenID)
	assert.Equal(t, "Diamond Block", list.Bindings[0].DisplayName)
	assert.Equal(t, int32(10), list.Bindings[0].Uses)
	assert.Equal(t, "GOLD_BLOCK", list.Bindings[1].Kind)
}

func TestSearchNarrowsList(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.app.JoinPlayer("Alice")
	ts.bind(t, alice, "GOLD_BLOCK", 3)
	ts.bind(t, alice, "DIAMOND_BLOCK", 10)

	rr := ts.request(http.MethodPut, "/api/v1/players/"+alice.ID.String()+"/search",
		map[string]string{"search": "gold"}, alice.ID)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, bindingsPath(alice.ID), nil, alice.ID)
	list := decode[response.BindingList](t, rr)
	assert.Equal(t, "gold", list.Search)
	require.Len(t, list.Bindings, 1)
	assert.Equal(t, "GOLD_BLOCK", list.Bindings[0].Kind)
}

func TestHideNeedsDoubleClick(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.app.JoinPlayer("Alice")
	_, id := ts.bind(t, alice, "DIAMOND_BLOCK", 10)
	hidePath := bindingsPath(alice.ID) + "/" + id.String() + "/hide"

	rr := ts.request(http.MethodPost, hidePath, nil, alice.ID)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[response.HideResponse](t, rr).Confirmed)

	ts.app.MockClock.Advance(100 * time.Millisecond)
	rr = ts.request(http.MethodPost, hidePath, nil, alice.ID)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[response.HideResponse](t, rr).Confirmed)

	rr = ts.request(http.MethodGet, bindingsPath(alice.ID), nil, alice.ID)
	assert.Empty(t, decode[response.BindingList](t, rr).Bindings)

	rr = ts.request(http.MethodGet, bindingsPath(alice.ID)+"?hidden=true", nil, alice.ID)
	hidden := decode[response.BindingList](t, rr)
	require.Len(t, hidden.Bindings, 1)
	assert.True(t, hidden.Bindings[0].Hidden)

	rr = ts.request(http.MethodPost, bindingsPath(alice.ID)+"/"+id.String()+"/unhide", nil, alice.ID)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = ts.request(http.MethodGet, bindingsPath(alice.ID), nil, alice.ID)
	assert.Len(t, decode[response.BindingList](t, rr).Bindings, 1)
}

func TestSlowSecondClickOnlyRearms(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.app.JoinPlayer("Alice")
	_, id := ts.bind(t, alice, "DIAMOND_BLOCK", 10)
	hidePath := bindingsPath(alice.ID) + "/" + id.String() + "/hide"

	ts.request(http.MethodPost, hidePath, nil, alice.ID)
	ts.app.MockClock.Advance(time.Second)
	rr := ts.request(http.MethodPost, hidePath, nil, alice.ID)
	assert.False(t, decode[response.HideResponse](t, rr).Confirmed)
}

func TestHideUnknownBinding(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.app.JoinPlayer("Alice")

	rr := ts.request(http.MethodPost, bindingsPath(alice.ID)+"/"+uuid.NewString()+"/hide", nil, alice.ID)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInvalidTokenID(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.app.JoinPlayer("Alice")

	rr := ts.request(http.MethodGet, bindingsPath(alice.ID)+"/not-a-uuid", nil, alice.ID)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRetrieve(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.app.JoinPlayer("Alice")
	bob := ts.app.JoinPlayer("Bob")
	item, id := ts.bind(t, alice, "DIAMOND_BLOCK", 10)
	bob.Inventory.Add(item.Clone())

	rr := ts.request(http.MethodPost, bindingsPath(alice.ID)+"/"+id.String()+"/retrieve", nil, alice.ID)
	require.Equal(t, http.StatusOK, rr.Code)

	res := decode[response.RetrieveResponse](t, rr)
	assert.Equal(t, 2, res.Removed)
	assert.False(t, res.Dropped)
	assert.Equal(t, id.String(), res.Binding.TokenID)
	assert.Empty(t, bob.Inventory.Items())
	assert.Len(t, alice.Inventory.Items(), 1)
}

func TestRetrieveWhileOffline(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.app.JoinPlayer("Alice")
	_, id := ts.bind(t, alice, "DIAMOND_BLOCK", 10)

	rr := ts.request(http.MethodDelete, "/api/v1/players/"+alice.ID.String()+"/presence", nil, alice.ID)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPost, bindingsPath(alice.ID)+"/"+id.String()+"/retrieve", nil, alice.ID)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodePlayerOffline, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestPresence(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()

	rr := ts.request(http.MethodPut, "/api/v1/players/"+id.String()+"/presence",
		map[string]string{"name": "Carol"}, id)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "overworld", decode[response.Presence](t, rr).Region)

	p, ok := ts.app.World.Player(id)
	require.True(t, ok)
	assert.Equal(t, "Carol", p.Name)

	rr = ts.request(http.MethodPut, "/api/v1/players/"+id.String()+"/presence", map[string]string{}, id)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteAndClear(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.app.JoinPlayer("Alice")
	_, first := ts.bind(t, alice, "DIAMOND_BLOCK", 10)
	ts.bind(t, alice, "GOLD_BLOCK", 10)

	rr := ts.request(http.MethodDelete, bindingsPath(alice.ID)+"/"+first.String(), nil, alice.ID)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = ts.request(http.MethodGet, bindingsPath(alice.ID), nil, alice.ID)
	assert.Len(t, decode[response.BindingList](t, rr).Bindings, 1)

	rr = ts.request(http.MethodDelete, bindingsPath(alice.ID), nil, alice.ID)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = ts.request(http.MethodGet, bindingsPath(alice.ID), nil, alice.ID)
	assert.Empty(t, decode[response.BindingList](t, rr).Bindings)
}

func TestFavorites(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.app.JoinPlayer("Alice")
	base := "/api/v1/players/" + alice.ID.String() + "/favorites"

	rr := ts.request(http.MethodPost, base+"/GOLD_BLOCK/toggle", nil, alice.ID)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[response.ToggleResponse](t, rr).Favorited)

	rr = ts.request(http.MethodGet, base, nil, alice.ID)
	favs := decode[response.FavoriteList](t, rr)
	require.Len(t, favs.Favorites, 1)
	assert.Equal(t, "Gold Block", favs.Favorites[0].DisplayName)

	rr = ts.request(http.MethodPost, base+"/GOLD_BLOCK/toggle", nil, alice.ID)
	assert.False(t, decode[response.ToggleResponse](t, rr).Favorited)

	rr = ts.request(http.MethodGet, base, nil, alice.ID)
	assert.Empty(t, decode[response.FavoriteList](t, rr).Favorites)
}

func TestDisabledRegistryRejectsWrites(t *testing.T) {
	ts := newTestServerWithStorage(t, nil)
	alice := ts.app.JoinPlayer("Alice")

	rr := ts.request(http.MethodDelete, bindingsPath(alice.ID), nil, alice.ID)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = ts.request(http.MethodGet, bindingsPath(alice.ID), nil, alice.ID)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.BindingList](t, rr).Bindings)
}

func TestMigrationStats(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/migration/stats", nil, model.PlayerID{})
	require.Equal(t, http.StatusOK, rr.Code)

	stats := decode[response.MigrationStats](t, rr)
	assert.False(t, stats.NeedsMigration)
	assert.False(t, stats.Valid)
}
