package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stocki/internal/logger"
	"github.com/example/stocki/internal/repository"
	"github.com/example/stocki/internal/services"
	"github.com/example/stocki/internal/testutil"
	"github.com/example/stocki/internal/utils"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	app      *fiber.App
	notifier *testutil.RecordingNotifier
	clock    *testClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	log := logger.Discard()
	clock := &testClock{now: time.Now().UTC()}
	notifier := &testutil.RecordingNotifier{}
	sessions := utils.NewSessionIssuer("test-secret", 24*time.Hour)

	auth := services.NewAuthService(repository.NewUserRepository(db), notifier, sessions, log,
		services.WithClock(clock.Now))
	ledger := services.NewLedgerService(repository.NewLedgerRepository(db), log)

	app := NewApp(Dependencies{
		DB:        db,
		Logger:    log,
		Auth:      auth,
		Ledger:    ledger,
		Sessions:  sessions,
		AccessLog: io.Discard,
	})
	return &harness{app: app, notifier: notifier, clock: clock}
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode(t *testing.T, raw []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v), string(raw))
}

func message(t *testing.T, raw []byte) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, raw, &body)
	return body.Message
}

func TestEndToEndScenario(t *testing.T) {
	h := newHarness(t)

	status, raw := h.do(t, http.MethodPost, "/api/register", "", fiber.Map{
		"name": "A", "email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var reg struct {
		UserID               string `json:"userId"`
		RequiresVerification bool   `json:"requiresVerification"`
	}
	decode(t, raw, &reg)
	assert.True(t, reg.RequiresVerification)

	verifyCode, ok := h.notifier.Last("verification", "a@x.com")
	require.True(t, ok)
	assert.NotContains(t, string(raw), verifyCode)

	wrong := "000000"
	if verifyCode == wrong {
		wrong = "111111"
	}
	status, raw = h.do(t, http.MethodPost, "/api/verify-account", "", fiber.Map{"userId": reg.UserID, "code": wrong})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, message(t, raw))

	status, _ = h.do(t, http.MethodPost, "/api/verify-account", "", fiber.Map{"userId": reg.UserID, "code": verifyCode})
	require.Equal(t, http.StatusOK, status)

	status, raw = h.do(t, http.MethodPost, "/api/login", "", fiber.Map{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, status, string(raw))
	var login struct {
		Requires2FA bool   `json:"requires2FA"`
		UserID      string `json:"userId"`
	}
	decode(t, raw, &login)
	assert.True(t, login.Requires2FA)
	assert.Equal(t, reg.UserID, login.UserID)

	loginCode, ok := h.notifier.Last("login", "a@x.com")
	require.True(t, ok)
	assert.NotContains(t, string(raw), loginCode)

	h.clock.Advance(services.DefaultLoginCodeTTL + time.Second)
	status, raw = h.do(t, http.MethodPost, "/api/verify-login", "", fiber.Map{"userId": reg.UserID, "code": loginCode})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid or expired code", message(t, raw))

	status, _ = h.do(t, http.MethodPost, "/api/resend-2fa", "", fiber.Map{"userId": reg.UserID})
	require.Equal(t, http.StatusOK, status)
	loginCode, _ = h.notifier.Last("login", "a@x.com")

	status, raw = h.do(t, http.MethodPost, "/api/verify-login", "", fiber.Map{"userId": reg.UserID, "code": loginCode})
	require.Equal(t, http.StatusOK, status, string(raw))
	var session struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decode(t, raw, &session)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, "a@x.com", session.User.Email)
	token := session.Token

	var ref struct {
		ID string `json:"id"`
	}
	status, raw = h.do(t, http.MethodPost, "/api/magasins", token, fiber.Map{"nom": "Central"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	decode(t, raw, &ref)
	magasinID := ref.ID

	status, raw = h.do(t, http.MethodPost, "/api/categories", token, fiber.Map{"name": "Electronique"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	decode(t, raw, &ref)
	categorieID := ref.ID

	status, raw = h.do(t, http.MethodPost, "/api/produits", token, fiber.Map{"nom": "Smartphone", "prix": 5})
	require.Equal(t, http.StatusCreated, status, string(raw))
	decode(t, raw, &ref)
	produitID := ref.ID

	movement := func(typ string, qty int) (int, []byte) {
		return h.do(t, http.MethodPost, "/api/mouvements", token, fiber.Map{
			"produit_id":     produitID,
			"magasin_id":     magasinID,
			"categorie_id":   categorieID,
			"type_mouvement": typ,
			"quantite":       qty,
			"prix_unitaire":  5,
			"date_mouvement": "2026-10-19",
			"motif":          "test",
		})
	}
	status, raw = movement("entree", 10)
	require.Equal(t, http.StatusCreated, status, string(raw))
	status, raw = movement("sortie", 3)
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, raw = movement("sortie", 0)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "quantite must be positive", message(t, raw))

	status, raw = h.do(t, http.MethodGet, "/api/stock", token, nil)
	require.Equal(t, http.StatusOK, status)
	var stock []struct {
		Quantite    int64   `json:"quantite"`
		ValeurStock float64 `json:"valeur_stock"`
		ProduitNom  string  `json:"produit_nom"`
		MagasinNom  string  `json:"magasin_nom"`
	}
	decode(t, raw, &stock)
	require.Len(t, stock, 1)
	assert.EqualValues(t, 7, stock[0].Quantite)
	assert.InDelta(t, 35.0, stock[0].ValeurStock, 0.001)
	assert.Equal(t, "Smartphone", stock[0].ProduitNom)
	assert.Equal(t, "Central", stock[0].MagasinNom)

	status, raw = h.do(t, http.MethodGet, "/api/mouvements", token, nil)
	require.Equal(t, http.StatusOK, status)
	var movements []map[string]interface{}
	decode(t, raw, &movements)
	assert.Len(t, movements, 2)

	status, raw = h.do(t, http.MethodGet, "/api/ventes", token, nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, raw, &movements)
	assert.Len(t, movements, 1)

	status, raw = h.do(t, http.MethodGet, "/api/stock/verify", token, nil)
	require.Equal(t, http.StatusOK, status)
	var checks []struct {
		Consistent bool `json:"consistent"`
	}
	decode(t, raw, &checks)
	require.Len(t, checks, 1)
	assert.True(t, checks[0].Consistent)

	status, raw = h.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"is_verified":true`)

	status, _ = h.do(t, http.MethodGet, "/api/dashboard", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/api/mouvements", "/api/stock", "/api/magasins", "/api/dashboard"} {
		status, raw := h.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.NotEmpty(t, message(t, raw), path)
	}

	status, _ := h.do(t, http.MethodGet, "/api/stock", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginErrorsAreIdentical(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(t, http.MethodPost, "/api/register", "", fiber.Map{
		"name": "A", "email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)

	_, unknown := h.do(t, http.MethodPost, "/api/login", "", fiber.Map{"email": "b@x.com", "password": "secret1"})
	_, wrong := h.do(t, http.MethodPost, "/api/login", "", fiber.Map{"email": "a@x.com", "password": "bad-pass"})
	assert.Equal(t, string(unknown), string(wrong))
	assert.Equal(t, "incorrect email or password", message(t, unknown))
}

func TestRegisterErrors(t *testing.T) {
	h := newHarness(t)

	status, raw := h.do(t, http.MethodPost, "/api/register", "", fiber.Map{"name": "A", "email": "a@x.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, strings.HasPrefix(message(t, raw), "password"))

	status, _ = h.do(t, http.MethodPost, "/api/register", "", fiber.Map{"name": "A", "email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, status)

	status, raw = h.do(t, http.MethodPost, "/api/register", "", fiber.Map{"name": "A", "email": "a@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email already registered", message(t, raw))

	status, raw = h.do(t, http.MethodPost, "/api/verify-account", "", fiber.Map{"userId": "nope", "code": "123456"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid userId", message(t, raw))
}

func issue(t *testing.T, sessions *utils.SessionIssuer) string {
	t.Helper()
	token, _, err := sessions.Issue(uuid.New(), "u@x.com", "U")
	require.NoError(t, err)
	return token
}

func TestCatalogIsScopedToOwner(t *testing.T) {
	h := newHarness(t)
	sessions := utils.NewSessionIssuer("test-secret", time.Hour)

	tokenA := issue(t, sessions)
	tokenB := issue(t, sessions)

	status, raw := h.do(t, http.MethodPost, "/api/magasins", tokenA, fiber.Map{"nom": "Central"})
	require.Equal(t, http.StatusCreated, status)
	var m struct {
		ID string `json:"id"`
	}
	decode(t, raw, &m)

	status, _ = h.do(t, http.MethodGet, "/api/magasins/"+m.ID, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(t, http.MethodDelete, "/api/magasins/"+m.ID, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = h.do(t, http.MethodGet, "/api/magasins", tokenB, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(raw))

	status, raw = h.do(t, http.MethodPut, "/api/magasins/"+m.ID, tokenA, fiber.Map{"nom": "Nord"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"nom":"Nord"`)

	status, _ = h.do(t, http.MethodDelete, "/api/magasins/"+m.ID, tokenA, nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestMovementsRejectAnotherUsersCatalog(t *testing.T) {
	h := newHarness(t)
	sessions := utils.NewSessionIssuer("test-secret", time.Hour)
	tokenA := issue(t, sessions)
	tokenB := issue(t, sessions)

	create := func(path string, body fiber.Map) string {
		status, raw := h.do(t, http.MethodPost, path, tokenB, body)
		require.Equal(t, http.StatusCreated, status, string(raw))
		var ref struct {
			ID string `json:"id"`
		}
		decode(t, raw, &ref)
		return ref.ID
	}
	produitID := create("/api/produits", fiber.Map{"nom": "SecretProdB"})
	magasinID := create("/api/magasins", fiber.Map{"nom": "SecretStoreB"})
	categorieID := create("/api/categories", fiber.Map{"name": "SecretCatB"})

	status, raw := h.do(t, http.MethodPost, "/api/mouvements", tokenA, fiber.Map{
		"produit_id":     produitID,
		"magasin_id":     magasinID,
		"categorie_id":   categorieID,
		"type_mouvement": "entree",
		"quantite":       5,
		"prix_unitaire":  2,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "produit_id not found", message(t, raw))

	status, raw = h.do(t, http.MethodGet, "/api/stock", tokenA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(raw))
	assert.NotContains(t, string(raw), "SecretProdB")

	status, raw = h.do(t, http.MethodGet, "/api/mouvements", tokenA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(raw))
}

func TestContactAndHealth(t *testing.T) {
	h := newHarness(t)

	status, raw := h.do(t, http.MethodPost, "/api/contact", "", fiber.Map{
		"name": "Bob", "email": "bob@x.com", "subject": "Hi", "message": "Bonjour",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	assert.Contains(t, string(raw), "contactId")

	status, _ = h.do(t, http.MethodPost, "/api/contact", "", fiber.Map{"name": "Bob"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))

	status, _ = h.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
}
