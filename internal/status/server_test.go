package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-signal/internal/bus"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	suite.Suite
	bus    *bus.Bus
	server *Server
	http   *httptest.Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	suite.bus = bus.New()

	server, err := New("BTCUSDT", suite.bus, metrics.New(), nil)
	suite.Require().NoError(err)
	server.SetPollInterval(10 * time.Millisecond)

	suite.server = server
	suite.http = httptest.NewServer(server.Router())
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.http.Close()
}

func (suite *ServerTestSuite) publish(quantity string) {
	suite.bus.Publish(&types.Recommendation{ //nolint:exhaustruct
		Symbol:   "BTCUSDT",
		Valid:    true,
		Side:     types.PositionSideLong,
		Signal:   types.ActionOpenLong,
		Quantity: decimal.RequireFromString(quantity),
	})
}

func (suite *ServerTestSuite) get(path string) (*http.Response, map[string]any) {
	resp, err := http.Get(suite.http.URL + path)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var body map[string]any
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))

	return resp, body
}

func (suite *ServerTestSuite) TestHealth() {
	suite.publish("1")

	resp, body := suite.get("/healthz")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("ok", body["status"])
	suite.Equal("BTCUSDT", body["symbol"])
	suite.Equal(1.0, body["bus_version"])
}

func (suite *ServerTestSuite) TestRecommendation() {
	resp, body := suite.get("/recommendation")
	suite.Equal(http.StatusNotFound, resp.StatusCode)
	suite.Contains(body, "error")

	suite.publish("0.75")

	resp, body = suite.get("/recommendation")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("LONG", body["side"])
	suite.Equal("0.75", body["quantity"])

	resp, body = suite.get("/recommendation?mode=position")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("0.75", body["signal_position"])
	suite.NotContains(body, "side")

	resp, _ = suite.get("/recommendation?mode=compact")
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (suite *ServerTestSuite) TestMetrics() {
	resp, err := http.Get(suite.http.URL + "/metrics")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)
}

func (suite *ServerTestSuite) TestStreamPushesNewSnapshots() {
	url := "ws" + strings.TrimPrefix(suite.http.URL, "http") + "/stream"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	suite.Require().NoError(err)
	defer conn.Close()

	suite.publish("1")

	var first types.Recommendation
	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	suite.Require().NoError(conn.ReadJSON(&first))
	suite.Equal(uint64(1), first.Seq)

	suite.publish("2")

	var second types.Recommendation
	suite.Require().NoError(conn.ReadJSON(&second))
	suite.Equal(uint64(2), second.Seq)
	suite.Equal("2", second.Quantity.String())
}

func (suite *ServerTestSuite) TestStartAndShutdown() {
	server, err := New("ETHUSDT", bus.New(), nil, nil)
	suite.Require().NoError(err)
	suite.Empty(server.Addr())

	suite.Require().NoError(server.Start("127.0.0.1:0"))
	suite.Error(server.Start("127.0.0.1:0"))
	suite.NotEmpty(server.Addr())

	resp, err := http.Get("http://" + server.Addr() + "/healthz")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	suite.NoError(server.Shutdown(ctx))
	suite.NoError(server.Shutdown(ctx))
}

func (suite *ServerTestSuite) TestRequiresBus() {
	_, err := New("BTCUSDT", nil, nil, nil)
	suite.Error(err)
}
