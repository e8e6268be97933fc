package integration

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"tapearn/internal/domain"
	"tapearn/internal/game"
	httpserver "tapearn/internal/http"
	"tapearn/internal/http/handlers"
	"tapearn/internal/service"
	"tapearn/internal/telegram"
	"tapearn/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const e2eBotToken = "123456:e2e-token"

func TestE2EAuthTapAndLiveFeed(t *testing.T) {
	pool := testPool(t)
	const id = int64(880010)
	resetAccounts(t, pool, id)

	gin.SetMode(gin.TestMode)
	service.InitJWT("e2e-secret")

	hub := ws.NewHub()
	defer hub.Close()
	s := newServices(pool, hub)
	minigames := service.NewMinigameService(s.ledger, game.DefaultCatalog(), game.NewWheel(game.DefaultWheelSegments()))

	h := handlers.NewHandler(handlers.Services{
		Accounts:    s.accounts,
		Referrals:   s.referrals,
		Withdrawals: s.withdrawals,
		Minigames:   minigames,
		Admin:       s.admin,
		Audit:       s.audit,
	}, handlers.AuthConfig{BotToken: e2eBotToken, MaxAge: time.Hour, Roster: domain.AdminRoster{}})

	r := httpserver.NewEngine("")
	httpserver.RegisterRoutes(r, httpserver.Options{
		Handler: h,
		Health:  handlers.NewHealthHandler(pool.Ping, nil, "e2e"),
		Hub:     hub,
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	// login with signed init data
	vals := url.Values{}
	vals.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	vals.Set("user", `{"id":880010,"username":"e2e","first_name":"Eve"}`)
	vals.Set("hash", hex.EncodeToString(telegram.Sign(vals, e2eBotToken)))
	body, _ := json.Marshal(gin.H{"init_data": vals.Encode()})

	resp, err := http.Post(srv.URL+"/api/v1/auth", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token   string         `json:"token"`
		Created bool           `json:"created"`
		User    domain.Account `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	assert.True(t, login.Created)
	assert.Equal(t, int64(2500), login.User.Coins)

	// live feed
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + login.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() ws.Event {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var ev ws.Event
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}
	require.Equal(t, ws.MsgReady, read().Type)

	// tap through the API
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/tap", strings.NewReader(`{"taps":5}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+login.Token)
	tapResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer tapResp.Body.Close()
	require.Equal(t, http.StatusOK, tapResp.StatusCode)

	var tap map[string]any
	require.NoError(t, json.NewDecoder(tapResp.Body).Decode(&tap))
	assert.EqualValues(t, 2505, tap["coins"])
	assert.EqualValues(t, 95, tap["energy"])

	ev := read()
	require.Equal(t, ws.MsgBalance, ev.Type)
	data, ok := ev.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2505, data["coins"])
	assert.EqualValues(t, 95, data["energy"])
}
