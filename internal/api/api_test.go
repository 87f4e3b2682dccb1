package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"nft_marketplace/internal/apperr"
	"nft_marketplace/internal/cache"
	"nft_marketplace/internal/repository"
	"nft_marketplace/internal/service"
	"nft_marketplace/internal/testutil"
	"nft_marketplace/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router    *gin.Engine
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := repository.New(testutil.NewDB(t))
	rdb, _ := testutil.NewRedis(t)
	c := cache.New(rdb)
	dir := t.TempDir()
	r := NewRouter(Deps{
		Auth:           service.NewAuth(store, utils.NewTokenIssuer("test-secret", 0), c),
		Market:         service.NewMarketplace(store, c),
		Profiles:       service.NewProfiles(store),
		Store:          store,
		UploadDir:      dir,
		AllowedOrigins: []string{"http://localhost:3000"},
		AuthRatePerMin: 1000,
	})
	return &testServer{router: r, uploadDir: dir}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var out map[string]any
	if bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

// register returns the token and user id of a new account
func (s *testServer) register(t *testing.T, name string) (string, string) {
	t.Helper()
	w, body := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": name, "email": name + "@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return body["token"].(string), body["user"].(map[string]any)["id"].(string)
}

func (s *testServer) createNFT(t *testing.T, token string, fields map[string]string, withImage bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withImage {
		part, err := mw.CreateFormFile("image", "art.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG fake image"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/nft", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return s.serve(t, req)
}

func validFields() map[string]string {
	return map[string]string{
		"name":        "Sunset",
		"description": "Orange sky",
		"price":       "1",
		"category":    "Art",
		"tags":        "sky, orange",
		"properties":  `{"rarity":"rare"}`,
	}
}

func uploadCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestStatusOf(t *testing.T) {
	cases := map[error]int{
		apperr.Validation("x"):                        http.StatusBadRequest,
		apperr.Unauthenticated("x"):                   http.StatusUnauthorized,
		apperr.Forbidden("x"):                         http.StatusForbidden,
		apperr.NotFound("x"):                          http.StatusNotFound,
		apperr.Conflict(apperr.CodeNFTNotListed, "x"): http.StatusConflict,
		apperr.Transient(os.ErrDeadlineExceeded):      http.StatusServiceUnavailable,
		apperr.Internal(os.ErrClosed):                 http.StatusInternalServerError,
		os.ErrNotExist:                                http.StatusInternalServerError,
	}
	for err, status := range cases {
		assert.Equal(t, status, StatusOf(err), err.Error())
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", body["status"])
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")

	w, body := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "email": "other@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperr.CodeUserExists, body["code"])

	w, body = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "password")

	w, body = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "nope!!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid credentials", body["error"])

	w, _ = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthenticatedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/nft"},
		{http.MethodPut, "/api/nft/x"},
		{http.MethodDelete, "/api/nft/x"},
		{http.MethodPost, "/api/nft/x/buy"},
		{http.MethodPut, "/api/user/profile"},
		{http.MethodGet, "/api/user/transactions"},
	} {
		w, body := s.do(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
		assert.Equal(t, apperr.CodeUnauthorized, body["code"], route.path)
	}
}

func TestCreateNFT(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.register(t, "alice")

	w, body := s.createNFT(t, token, validFields(), false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Image is required", body["message"])

	bad := validFields()
	bad["category"] = "Food"
	w, _ = s.createNFT(t, token, bad, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, uploadCount(t, s.uploadDir), "rejected uploads are removed")

	w, body = s.createNFT(t, token, validFields(), true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	nft := body["nft"].(map[string]any)
	assert.Equal(t, "Sunset", nft["name"])
	assert.Equal(t, "ETH", nft["currency"])
	assert.Equal(t, true, nft["isListed"])
	assert.Equal(t, []any{"sky", "orange"}, nft["tags"])
	assert.Equal(t, userID, nft["creator"].(map[string]any)["id"])
	assert.Equal(t, userID, nft["owner"].(map[string]any)["id"])
	assert.Equal(t, 1, uploadCount(t, s.uploadDir))

	// the stored image is served back
	w, _ = s.do(t, http.MethodGet, nft["image"].(string), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBuyOverHTTP(t *testing.T) {
	s := newTestServer(t)
	aliceToken, aliceID := s.register(t, "alice")
	bobToken, bobID := s.register(t, "bob")

	_, body := s.createNFT(t, aliceToken, validFields(), true)
	id := body["nft"].(map[string]any)["id"].(string)

	w, body := s.do(t, http.MethodPost, "/api/nft/"+id+"/buy", aliceToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperr.CodeNFTAlreadyOwned, body["code"])

	w, body = s.do(t, http.MethodPost, "/api/nft/"+id+"/buy", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, bobID, body["nft"].(map[string]any)["owner"].(map[string]any)["id"])
	assert.Equal(t, false, body["nft"].(map[string]any)["isListed"])
	tx := body["transaction"].(map[string]any)
	assert.Equal(t, "completed", tx["status"])
	assert.Equal(t, aliceID, tx["seller"].(map[string]any)["id"])
	assert.Equal(t, float64(1), tx["price"])

	w, body = s.do(t, http.MethodPost, "/api/nft/"+id+"/buy", bobToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperr.CodeNFTNotListed, body["code"])

	w, _ = s.do(t, http.MethodPost, "/api/nft/missing/buy", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// both parties see the sale
	for _, token := range []string{aliceToken, bobToken} {
		w, body = s.do(t, http.MethodGet, "/api/user/transactions", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, body["transactions"], 1)
		assert.Equal(t, float64(10), body["pagination"].(map[string]any)["limit"])
	}

	w, body = s.do(t, http.MethodGet, "/api/user/profile/"+bobID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"createdNFTs": float64(0), "ownedNFTs": float64(1), "transactions": float64(1)}, body["stats"])
	assert.NotContains(t, body["user"], "email")
}

func TestUpdateAndDeleteOverHTTP(t *testing.T) {
	s := newTestServer(t)
	aliceToken, _ := s.register(t, "alice")
	bobToken, _ := s.register(t, "bob")
	_, body := s.createNFT(t, aliceToken, validFields(), true)
	id := body["nft"].(map[string]any)["id"].(string)

	w, _ := s.do(t, http.MethodPut, "/api/nft/"+id, bobToken, gin.H{"name": "Stolen", "price": 0.01})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/nft/"+id, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = s.do(t, http.MethodGet, "/api/nft/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code, "refused calls leave the NFT in place")
	assert.Equal(t, "Sunset", body["name"])
	assert.Equal(t, 1.0, body["price"])

	w, body = s.do(t, http.MethodPut, "/api/nft/"+id, aliceToken, gin.H{"price": 3.5, "isListed": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	nft := body["nft"].(map[string]any)
	assert.Equal(t, 3.5, nft["price"])
	assert.Equal(t, "Sunset", nft["name"])

	w, body = s.do(t, http.MethodGet, "/api/nft", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["nfts"], "delisted NFTs leave the catalog")

	w, body = s.do(t, http.MethodGet, "/api/nft/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["isListed"])

	w, _ = s.do(t, http.MethodDelete, "/api/nft/"+id, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/nft/"+id, aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/nft/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateCannotReassignCreatorOrOwner(t *testing.T) {
	s := newTestServer(t)
	aliceToken, aliceID := s.register(t, "alice")
	_, bobID := s.register(t, "bob")
	_, body := s.createNFT(t, aliceToken, validFields(), true)
	id := body["nft"].(map[string]any)["id"].(string)

	w, body := s.do(t, http.MethodPut, "/api/nft/"+id, aliceToken, gin.H{
		"name":      "Gift",
		"creatorId": bobID,
		"creator":   bobID,
		"ownerId":   bobID,
		"owner":     bobID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Gift", body["nft"].(map[string]any)["name"])

	w, body = s.do(t, http.MethodGet, "/api/nft/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, aliceID, body["creator"].(map[string]any)["id"])
	assert.Equal(t, aliceID, body["owner"].(map[string]any)["id"])
}

func TestCatalogQueries(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.register(t, "alice")
	for _, f := range []map[string]string{
		{"name": "Cheap", "price": "1", "category": "Art"},
		{"name": "Mid", "price": "5", "category": "Art"},
		{"name": "Loud", "price": "9", "category": "Music"},
	} {
		fields := validFields()
		for k, v := range f {
			fields[k] = v
		}
		w, _ := s.createNFT(t, token, fields, true)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, body := s.do(t, http.MethodGet, "/api/nft?category=Art&minPrice=2&sortBy=price&sortOrder=asc&page=abc&limit=-3", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	nfts := body["nfts"].([]any)
	require.Len(t, nfts, 1)
	assert.Equal(t, "Mid", nfts[0].(map[string]any)["name"])
	assert.Equal(t, map[string]any{"page": float64(1), "limit": float64(12), "total": float64(1), "pages": float64(1)}, body["pagination"])

	w, body = s.do(t, http.MethodGet, "/api/nft?sortBy=price&sortOrder=desc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Loud", body["nfts"].([]any)[0].(map[string]any)["name"])

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nft/user/"+userID+"?type=owned", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var owned []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &owned))
	assert.Len(t, owned, 3)
}

func TestUpdateProfileOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.register(t, "alice")

	w, body := s.do(t, http.MethodPut, "/api/user/profile", token, gin.H{"bio": "painter", "avatar": "https://example.com/a.png"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "painter", body["user"].(map[string]any)["bio"])

	w, body = s.do(t, http.MethodGet, "/api/user/profile/"+userID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://example.com/a.png", body["user"].(map[string]any)["avatar"])

	w, _ = s.do(t, http.MethodGet, "/api/user/profile/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
