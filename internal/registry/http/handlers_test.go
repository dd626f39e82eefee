package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registro-museografico/museum-registry/internal/registry/imagehost"
	"github.com/registro-museografico/museum-registry/internal/registry/repository"
	"github.com/registro-museografico/museum-registry/internal/registry/service"
	"github.com/registro-museografico/museum-registry/internal/registry/staging"
	"github.com/registro-museografico/museum-registry/internal/registry/webhook"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type testEnv struct {
	router      *gin.Engine
	handler     *Handler
	hostStatus  atomic.Int32
	hostBody    atomic.Value
	hostCalls   atomic.Int32
	webhookHits atomic.Int32
	webhookCode atomic.Int32
	lastPayload atomic.Value
}

func setupTestEnv(t *testing.T, configured bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := &testEnv{}
	env.hostStatus.Store(http.StatusOK)
	env.hostBody.Store(`{"success":true,"result":{"id":"img-1","variants":["https://imagedelivery.net/acc/img-1/public"]}}`)
	env.webhookCode.Store(http.StatusOK)

	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.hostCalls.Add(1)
		w.WriteHeader(int(env.hostStatus.Load()))
		w.Write([]byte(env.hostBody.Load().(string)))
	}))
	t.Cleanup(host.Close)

	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.webhookHits.Add(1)
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		env.lastPayload.Store(body)
		w.WriteHeader(int(env.webhookCode.Load()))
	}))
	t.Cleanup(hook.Close)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	area, err := staging.NewArea(t.TempDir())
	require.NoError(t, err)

	token := "secret"
	if !configured {
		token = ""
	}
	images := imagehost.New(imagehost.Config{AccountID: "acc", APIToken: token, APIBaseURL: host.URL})

	drafts := service.NewDraftService(
		repository.NewDraftRepository(client, time.Hour),
		area,
		service.NewOrchestrator(images, area, webhook.New(hook.URL)),
	)

	env.handler = New(drafts, images)
	env.handler.pollInterval = 20 * time.Millisecond

	env.router = gin.New()
	api := env.router.Group("/api/v1")
	env.handler.Register(api)
	env.handler.RegisterPublic(api)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

type filePart struct {
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, path string, files ...filePart) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+f.name+`"`)
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		part.Write(f.data)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (e *testEnv) createDraft(t *testing.T) string {
	t.Helper()
	w, body := e.do(t, http.MethodPost, "/api/v1/drafts", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	return body["draft"].(map[string]any)["id"].(string)
}

func (e *testEnv) fillRequired(t *testing.T, id string) {
	t.Helper()
	w, _ := e.do(t, http.MethodPatch, "/api/v1/drafts/"+id, map[string]any{
		"nombre":      "Vasija",
		"categoria":   "Cerámica",
		"descripcion": "Vasija ceremonial",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDraftRoutes_EditAndSubmit(t *testing.T) {
	env := setupTestEnv(t, true)
	id := env.createDraft(t)

	w, body := env.do(t, http.MethodPatch, "/api/v1/drafts/"+id, map[string]any{
		"nombre":      "Cráneo de Mosasaurio",
		"categoria":   "Fósil",
		"descripcion": "Cráneo casi completo",
		"metadata":    map[string]any{"sala": "Sala 1"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	form := body["draft"].(map[string]any)["form"].(map[string]any)
	assert.Equal(t, "Cráneo de Mosasaurio", form["nombre"])

	w, body = env.do(t, http.MethodPost, "/api/v1/drafts/"+id+"/materials", map[string]any{"material": "Resina"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["added"])
	_, body = env.do(t, http.MethodPost, "/api/v1/drafts/"+id+"/materials", map[string]any{"material": "Resina"})
	assert.Equal(t, false, body["added"])

	req := multipartRequest(t, "/api/v1/drafts/"+id+"/images",
		filePart{name: "craneo.png", contentType: "image/png", data: pngBytes},
		filePart{name: "notas.txt", contentType: "text/plain", data: []byte("hola")},
	)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var staged map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &staged))
	assert.Len(t, staged["staged"], 1)
	assert.Equal(t, float64(1), staged["skipped"])

	preview := staged["staged"].([]any)[0].(map[string]any)["preview"].(string)
	w, _ = env.do(t, http.MethodGet, preview, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, w.Body.Bytes())

	w, body = env.do(t, http.MethodPost, "/api/v1/drafts/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	status := body["status"].(map[string]any)
	assert.Equal(t, "succeeded", status["state"])
	assert.Equal(t, service.SuccessMessage, status["message"])

	payload := env.lastPayload.Load().(map[string]any)
	assert.Equal(t, "Cráneo de Mosasaurio", payload["nombre"])
	assert.Equal(t, []any{"https://imagedelivery.net/acc/img-1/public"}, payload["imagenes"])
	assert.Equal(t, []any{"Resina"}, payload["materiales"])

	_, body = env.do(t, http.MethodGet, "/api/v1/drafts/"+id, nil)
	form = body["draft"].(map[string]any)["form"].(map[string]any)
	assert.Equal(t, "", form["nombre"], "form is reset after success")

	w, _ = env.do(t, http.MethodGet, preview, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "preview is released after success")
}

func TestDraftRoutes_SubmitFailure(t *testing.T) {
	env := setupTestEnv(t, true)
	env.webhookCode.Store(http.StatusInternalServerError)
	id := env.createDraft(t)
	env.fillRequired(t, id)

	w, body := env.do(t, http.MethodPost, "/api/v1/drafts/"+id+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Error al enviar registro (500). Intenta nuevamente.", body["error"])

	_, body = env.do(t, http.MethodGet, "/api/v1/drafts/"+id, nil)
	form := body["draft"].(map[string]any)["form"].(map[string]any)
	assert.Equal(t, "Vasija", form["nombre"])

	_, body = env.do(t, http.MethodGet, "/api/v1/drafts/"+id+"/status", nil)
	assert.Equal(t, "failed", body["status"].(map[string]any)["state"])
}

func TestDraftRoutes_UploadFailureReportsIndex(t *testing.T) {
	env := setupTestEnv(t, true)
	env.hostStatus.Store(http.StatusBadRequest)
	env.hostBody.Store(`{"success":false,"errors":[{"message":"Bad image"}]}`)
	id := env.createDraft(t)
	env.fillRequired(t, id)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, multipartRequest(t, "/api/v1/drafts/"+id+"/images",
		filePart{name: "a.png", contentType: "image/png", data: pngBytes}))
	require.Equal(t, http.StatusCreated, rec.Code)

	w, body := env.do(t, http.MethodPost, "/api/v1/drafts/"+id+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Error en imagen 1: Bad image", body["error"])
	assert.Zero(t, env.webhookHits.Load(), "nothing is sent after an upload failure")
}

func TestDraftRoutes_SubmitIncompleteForm(t *testing.T) {
	env := setupTestEnv(t, true)
	id := env.createDraft(t)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, multipartRequest(t, "/api/v1/drafts/"+id+"/images",
		filePart{name: "a.png", contentType: "image/png", data: pngBytes}))
	require.Equal(t, http.StatusCreated, rec.Code)

	w, body := env.do(t, http.MethodPost, "/api/v1/drafts/"+id+"/submit", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "nombre", body["field"])
	assert.Equal(t, "Completa el campo obligatorio: nombre.", body["error"])
	assert.Zero(t, env.hostCalls.Load(), "no image is uploaded")
	assert.Zero(t, env.webhookHits.Load(), "nothing is sent")

	_, body = env.do(t, http.MethodGet, "/api/v1/drafts/"+id+"/status", nil)
	assert.Equal(t, "idle", body["status"].(map[string]any)["state"])
}

func TestDraftRoutes_RemoveMaterialWithSlash(t *testing.T) {
	env := setupTestEnv(t, true)
	id := env.createDraft(t)
	materials := "/api/v1/drafts/" + id + "/materials"

	env.do(t, http.MethodPost, materials, map[string]any{"material": "Oro/plata"})
	env.do(t, http.MethodPost, materials, map[string]any{"material": "Cobre"})

	w, body := env.do(t, http.MethodDelete, materials+"?material="+url.QueryEscape("Oro/plata"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	form := body["draft"].(map[string]any)["form"].(map[string]any)
	assert.Equal(t, []any{"Cobre"}, form["materiales"])

	w, body = env.do(t, http.MethodDelete, materials, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "material", body["field"])
}

func TestDraftRoutes_Errors(t *testing.T) {
	env := setupTestEnv(t, true)

	w, _ := env.do(t, http.MethodGet, "/api/v1/drafts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	id := env.createDraft(t)
	w, body := env.do(t, http.MethodPatch, "/api/v1/drafts/"+id, map[string]any{"museo": "Museo del Oro"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "museo", body["field"])

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, multipartRequest(t, "/api/v1/drafts/"+id+"/images",
		filePart{name: "logo.svg", contentType: "image/svg+xml", data: []byte("<svg/>")}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Formato no soportado: image/svg+xml")

	w, _ = env.do(t, http.MethodDelete, "/api/v1/drafts/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, http.MethodDelete, "/api/v1/drafts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadImage(t *testing.T) {
	t.Run("returns delivery urls", func(t *testing.T) {
		env := setupTestEnv(t, true)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, multipartRequest(t, "/api/v1/upload-image",
			filePart{name: "a.png", contentType: "image/png", data: pngBytes}))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "img-1", body["imageId"])
		assert.Equal(t, "https://imagedelivery.net/acc/img-1/public", body["url"])
		assert.Equal(t, "https://imagedelivery.net/acc/img-1/thumbnail", body["thumbnail"])
	})

	t.Run("unconfigured answers 503", func(t *testing.T) {
		env := setupTestEnv(t, false)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, multipartRequest(t, "/api/v1/upload-image",
			filePart{name: "a.png", contentType: "image/png", data: pngBytes}))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Zero(t, env.hostCalls.Load())
	})

	t.Run("missing file answers 400", func(t *testing.T) {
		env := setupTestEnv(t, true)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, multipartRequest(t, "/api/v1/upload-image"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No se recibió ningún archivo.")
	})

	t.Run("bad type answers 400 without calling the host", func(t *testing.T) {
		env := setupTestEnv(t, true)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, multipartRequest(t, "/api/v1/upload-image",
			filePart{name: "a.pdf", contentType: "application/pdf", data: []byte("%PDF")}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, env.hostCalls.Load())
	})

	t.Run("upstream status is mirrored", func(t *testing.T) {
		env := setupTestEnv(t, true)
		env.hostStatus.Store(http.StatusForbidden)
		env.hostBody.Store(`{"success":false,"errors":[{"message":"Authentication error"}]}`)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, multipartRequest(t, "/api/v1/upload-image",
			filePart{name: "a.png", contentType: "image/png", data: pngBytes}))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Authentication error")
	})

	t.Run("2xx without success answers 502", func(t *testing.T) {
		env := setupTestEnv(t, true)
		env.hostBody.Store(`{"success":false}`)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, multipartRequest(t, "/api/v1/upload-image",
			filePart{name: "a.png", contentType: "image/png", data: pngBytes}))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "Error Cloudflare (200)")
	})
}

func TestOptions(t *testing.T) {
	env := setupTestEnv(t, true)
	w, body := env.do(t, http.MethodGet, "/api/v1/registry/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["museums"], 2)
	assert.Equal(t, []any{"Excelente", "Bueno", "Regular", "Deteriorado"}, body["conservation_states"])
}

func TestStreamStatus(t *testing.T) {
	env := setupTestEnv(t, true)
	id := env.createDraft(t)

	server := httptest.NewServer(env.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/drafts/"+id+"/status/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if line := sc.Text(); strings.HasPrefix(line, "event: ") {
				events <- strings.TrimPrefix(line, "event: ")
			}
		}
		close(events)
	}()

	assert.Equal(t, "initial", <-events)

	env.fillRequired(t, id)
	env.do(t, http.MethodPost, "/api/v1/drafts/"+id+"/submit", nil)
	select {
	case ev := <-events:
		assert.Equal(t, "update", ev)
	case <-ctx.Done():
		t.Fatal("no update event")
	}

	env.do(t, http.MethodDelete, "/api/v1/drafts/"+id, nil)
	for ev := range events {
		if ev == "deleted" {
			return
		}
	}
	t.Fatal("no deleted event")
}
