package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ashenafi-pixel/limbo-crash-engine/config"
	"github.com/Ashenafi-pixel/limbo-crash-engine/games/crash"
	"github.com/Ashenafi-pixel/limbo-crash-engine/metrics"
	"github.com/Ashenafi-pixel/limbo-crash-engine/round"
	"github.com/Ashenafi-pixel/limbo-crash-engine/wallet"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

type fixedCrash float64

func (f fixedCrash) Generate() float64 { return float64(f) }

// newTestServer returns a server around a manually ticked engine.
func newTestServer(t *testing.T, crashValue float64) (*Server, *round.Controller, *httptest.Server) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	opts := round.DefaultOptions()
	opts.Funds = wallet.New(decimal.NewFromInt(100))
	opts.Recorders = []round.Recorder{m}
	engine := round.NewController(fixedCrash(crashValue), opts)
	s := newServer(&config.Config{Port: 8081}, nil, engine, m, reg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, engine, ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

var base = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestHealth(t *testing.T) {
	_, _, ts := newTestServer(t, 2)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	body := decode[map[string]string](t, resp)
	if body["status"] != "ok" {
		t.Errorf("health %v", body)
	}
}

func TestRoundLifecycleOverHTTP(t *testing.T) {
	_, engine, ts := newTestServer(t, 5.00)

	resp := postJSON(t, ts.URL+"/api/round/start", `{"betAmount":10,"targetMultiplier":2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	start := decode[RoundStartResponse](t, resp)
	if !start.Accepted || start.State.Phase != round.PhaseRunning {
		t.Fatalf("start response %+v", start)
	}
	if start.State.Balance == nil || !start.State.Balance.Equal(decimal.NewFromInt(90)) {
		t.Errorf("balance after stake %v want 90", start.State.Balance)
	}

	again := decode[RoundStartResponse](t, postJSON(t, ts.URL+"/api/round/start", `{"betAmount":10,"targetMultiplier":2}`))
	if again.Accepted {
		t.Error("second start accepted while running")
	}

	engine.Tick(base)
	engine.Tick(base.Add(1300 * time.Millisecond))

	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	st := decode[round.State](t, resp)
	if st.Phase != round.PhaseEnded || st.Outcome == nil || st.Outcome.Status != crash.StatusWin {
		t.Fatalf("state %+v", st)
	}
	if st.Multiplier != 2 || !st.Outcome.Payout.Decimal.Equal(decimal.NewFromInt(20)) {
		t.Errorf("multiplier %v payout %v", st.Multiplier, st.Outcome.Payout)
	}
	if len(st.History) != 1 || st.History[0] != 5 {
		t.Errorf("history %v", st.History)
	}

	st = decode[round.State](t, postJSON(t, ts.URL+"/api/round/reset", ``))
	if st.Phase != round.PhaseIdle || st.Outcome != nil || st.Multiplier != 1 || len(st.History) != 1 {
		t.Errorf("state after reset %+v", st)
	}
}

func TestRoundStart_RejectedIsNotAnError(t *testing.T) {
	_, _, ts := newTestServer(t, 5.00)
	for _, body := range []string{
		`{"betAmount":0,"targetMultiplier":2}`,
		`{"betAmount":10,"targetMultiplier":1}`,
		`{"betAmount":1000,"targetMultiplier":2}`,
		`{"betAmount":"10"}`,
	} {
		resp := postJSON(t, ts.URL+"/api/round/start", body)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status %d want 200", body, resp.StatusCode)
		}
		got := decode[RoundStartResponse](t, resp)
		if got.Accepted || got.State.Phase != round.PhaseIdle {
			t.Errorf("%s: %+v want rejected idle", body, got)
		}
	}
}

func TestRoundStart_MalformedBody(t *testing.T) {
	_, _, ts := newTestServer(t, 5.00)
	resp := postJSON(t, ts.URL+"/api/round/start", `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d want 400", resp.StatusCode)
	}
	apiErr := decode[APIError](t, resp)
	if apiErr.Code != "INVALID_BODY" {
		t.Errorf("code %q", apiErr.Code)
	}
}

func TestCanStart(t *testing.T) {
	_, _, ts := newTestServer(t, 5.00)
	cases := []struct {
		query string
		want  bool
	}{
		{"betAmount=10&targetMultiplier=2", true},
		{"betAmount=10&targetMultiplier=1.01", true},
		{"betAmount=10&targetMultiplier=1.001", false},
		{"betAmount=0&targetMultiplier=2", false},
		{"betAmount=100.01&targetMultiplier=2", false},
		{"betAmount=0.004&targetMultiplier=2.5", false},
		{"betAmount=0.01&targetMultiplier=2.5", true},
	}
	for _, c := range cases {
		resp, err := http.Get(ts.URL + "/api/round/can-start?" + c.query)
		if err != nil {
			t.Fatal(err)
		}
		got := decode[map[string]bool](t, resp)
		if got["canStart"] != c.want {
			t.Errorf("%s: canStart %v want %v", c.query, got["canStart"], c.want)
		}
	}
	resp, err := http.Get(ts.URL + "/api/round/can-start?betAmount=abc&targetMultiplier=2")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed query status %d want 400", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, _, ts := newTestServer(t, 5.00)
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/round/start", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status %d want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, engine, ts := newTestServer(t, 1.50)
	postJSON(t, ts.URL+"/api/round/start", `{"betAmount":10,"targetMultiplier":2}`).Body.Close()
	engine.Tick(base)
	engine.Tick(base.Add(time.Second))

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`crash_rounds_settled_total{status="loss"} 1`,
		`http_requests_total{endpoint="POST /api/round/start",method="POST"} 1`,
	} {
		if !bytes.Contains(body, []byte(want)) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestStateStream(t *testing.T) {
	s, engine, ts := newTestServer(t, 1.50)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	read := func() round.State {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var st round.State
		if err := conn.ReadJSON(&st); err != nil {
			t.Fatal(err)
		}
		return st
	}

	if st := read(); st.Phase != round.PhaseIdle {
		t.Fatalf("initial phase %s", st.Phase)
	}
	// The hub registers the client right after the initial write.
	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	engine.Start(round.Config{Bet: decimal.NewFromInt(10), Target: 2})
	if st := read(); st.Phase != round.PhaseRunning {
		t.Fatalf("phase %s want running", st.Phase)
	}
	engine.Tick(base)
	if st := read(); st.Phase != round.PhaseRunning || st.Multiplier != 1 {
		t.Fatalf("first tick state %+v", st)
	}
	engine.Tick(base.Add(time.Second))
	st := read()
	if st.Phase != round.PhaseEnded || st.Multiplier != 1.5 || st.Outcome == nil || st.Outcome.Status != crash.StatusLoss {
		t.Fatalf("final state %+v", st)
	}
}
