package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joao-fontenele/mercado-api/internal/auth"
	"github.com/joao-fontenele/mercado-api/internal/database"
	"github.com/joao-fontenele/mercado-api/internal/domain"
)

type fakeStores struct {
	created *StoreInput
	updated *StoreInput
	deleted int64
}

func (f *fakeStores) Create(_ context.Context, in StoreInput) (int64, error) {
	f.created = &in
	return 3, nil
}

func (f *fakeStores) List(context.Context) ([]domain.Store, error) {
	return []domain.Store{{ID: 3, Name: "Tienda"}}, nil
}

func (f *fakeStores) Get(_ context.Context, id int64) (*domain.Store, error) {
	if id != 3 {
		return nil, domain.ErrNotFound
	}
	return &domain.Store{ID: 3, Name: "Tienda"}, nil
}

func (f *fakeStores) Update(_ context.Context, _ int64, in StoreInput) error {
	upd := profileUpdate("negocios", "informacion", in.Profile).SetBytes("foto", in.Photo)
	if upd.Len() == 0 {
		return fmt.Errorf("%w: %v", domain.ErrValidation, database.ErrNoFields)
	}
	f.updated = &in
	return nil
}

func (f *fakeStores) Delete(_ context.Context, id int64) error {
	f.deleted = id
	return nil
}

type fakeSuppliers struct {
	created  *SupplierInput
	deleted  int64
	products []int64
	err      error
}

func (f *fakeSuppliers) Create(_ context.Context, in SupplierInput) (int64, error) {
	f.created = &in
	return 5, nil
}

func (f *fakeSuppliers) List(context.Context) ([]domain.Supplier, error) { return nil, nil }

func (f *fakeSuppliers) Get(_ context.Context, _ int64) (*domain.Supplier, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeSuppliers) Update(context.Context, int64, SupplierInput) error { return nil }

func (f *fakeSuppliers) Delete(_ context.Context, id int64) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = id
	return f.products, nil
}

type fakeCache struct {
	dropped []int64
	err     error
}

func (f *fakeCache) Delete(_ context.Context, id int64) error {
	f.dropped = append(f.dropped, id)
	return f.err
}

func newTestMux(stores *fakeStores, suppliers *fakeSuppliers) *http.ServeMux {
	return newTestMuxWithCache(stores, suppliers, nil)
}

func newTestMuxWithCache(stores *fakeStores, suppliers *fakeSuppliers, cache ProductCache) *http.ServeMux {
	h := NewHandler(stores, suppliers, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /negocios", h.HandleCreateStore)
	mux.HandleFunc("GET /negocios", h.HandleListStores)
	mux.HandleFunc("GET /negocios/{id}", h.HandleGetStore)
	mux.HandleFunc("PUT /negocios/{id}", h.HandleUpdateStore)
	mux.HandleFunc("DELETE /negocios/{id}", h.HandleDeleteStore)
	mux.HandleFunc("POST /empresas", h.HandleCreateSupplier)
	mux.HandleFunc("GET /empresas/{id}", h.HandleGetSupplier)
	mux.HandleFunc("PUT /empresas/{id}", h.HandleUpdateSupplier)
	mux.HandleFunc("DELETE /empresas/{id}", h.HandleDeleteSupplier)
	return mux
}

func as(r *http.Request, id int64, kind domain.ActorType) *http.Request {
	return r.WithContext(auth.WithActor(r.Context(), domain.Actor{ID: id, Type: kind}))
}

func TestHandleCreateStore(t *testing.T) {
	t.Run("hashes password and keeps photo", func(t *testing.T) {
		stores := &fakeStores{}
		mux := newTestMux(stores, &fakeSuppliers{})

		req := multipartRequest(t, http.MethodPost, "/negocios",
			map[string]string{"nombre": "Tienda", "correo": "t@x.com", "contrasenia": "secreta"},
			upload{"foto", "tienda.jpg", "image/jpeg", []byte("jpegdata")})
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}
		if stores.created == nil {
			t.Fatal("expected store to be created")
		}
		digest := *stores.created.PasswordHash
		if digest == "secreta" {
			t.Error("expected password to be hashed")
		}
		if ok, _ := auth.VerifyPassword("secreta", digest); !ok {
			t.Error("expected digest to verify against the original password")
		}
		if string(stores.created.Photo) != "jpegdata" {
			t.Errorf("expected photo bytes to be kept, got %q", stores.created.Photo)
		}
	})

	t.Run("missing required fields", func(t *testing.T) {
		stores := &fakeStores{}
		mux := newTestMux(stores, &fakeSuppliers{})

		req := multipartRequest(t, http.MethodPost, "/negocios", map[string]string{"nombre": "Tienda"})
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
		if stores.created != nil {
			t.Error("expected nothing to be stored")
		}
	})

	t.Run("rejected image type", func(t *testing.T) {
		mux := newTestMux(&fakeStores{}, &fakeSuppliers{})

		req := multipartRequest(t, http.MethodPost, "/negocios",
			map[string]string{"nombre": "Tienda", "correo": "t@x.com", "contrasenia": "secreta"},
			upload{"foto", "doc.pdf", "application/pdf", []byte("%PDF")})
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})
}

func TestHandleGetStore(t *testing.T) {
	mux := newTestMux(&fakeStores{}, &fakeSuppliers{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/negocios/3", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var got domain.Store
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Name != "Tienda" {
		t.Errorf("expected nombre Tienda, got %q", got.Name)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/negocios/4", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestHandleUpdateStore(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		actor  domain.Actor
		fields map[string]string
		status int
	}{
		{"self update", "/negocios/3", domain.Actor{ID: 3, Type: domain.ActorStore}, map[string]string{"contacto": "999"}, http.StatusOK},
		{"no fields", "/negocios/3", domain.Actor{ID: 3, Type: domain.ActorStore}, map[string]string{}, http.StatusBadRequest},
		{"other store", "/negocios/3", domain.Actor{ID: 4, Type: domain.ActorStore}, map[string]string{"contacto": "999"}, http.StatusForbidden},
		{"supplier with same id", "/negocios/3", domain.Actor{ID: 3, Type: domain.ActorSupplier}, map[string]string{"contacto": "999"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(&fakeStores{}, &fakeSuppliers{})

			req := multipartRequest(t, http.MethodPut, tt.path, tt.fields)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, as(req, tt.actor.ID, tt.actor.Type))

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleDeleteStore(t *testing.T) {
	stores := &fakeStores{}
	mux := newTestMux(stores, &fakeSuppliers{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, as(httptest.NewRequest(http.MethodDelete, "/negocios/3", nil), 3, domain.ActorStore))
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if stores.deleted != 3 {
		t.Errorf("expected store 3 to be deleted, got %d", stores.deleted)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/negocios/3", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without actor, got %d", w.Code)
	}
}

func TestHandleDeleteSupplier(t *testing.T) {
	t.Run("drops cached products of the supplier", func(t *testing.T) {
		suppliers := &fakeSuppliers{products: []int64{11, 12}}
		cache := &fakeCache{}
		mux := newTestMuxWithCache(&fakeStores{}, suppliers, cache)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, as(httptest.NewRequest(http.MethodDelete, "/empresas/5", nil), 5, domain.ActorSupplier))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if suppliers.deleted != 5 {
			t.Errorf("expected supplier 5 to be deleted, got %d", suppliers.deleted)
		}
		if len(cache.dropped) != 2 || cache.dropped[0] != 11 || cache.dropped[1] != 12 {
			t.Errorf("expected products 11 and 12 dropped from cache, got %v", cache.dropped)
		}
	})

	t.Run("cache failures do not fail the delete", func(t *testing.T) {
		cache := &fakeCache{err: errors.New("redis down")}
		mux := newTestMuxWithCache(&fakeStores{}, &fakeSuppliers{products: []int64{11}}, cache)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, as(httptest.NewRequest(http.MethodDelete, "/empresas/5", nil), 5, domain.ActorSupplier))

		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}
	})

	t.Run("missing supplier leaves the cache alone", func(t *testing.T) {
		cache := &fakeCache{}
		mux := newTestMuxWithCache(&fakeStores{}, &fakeSuppliers{err: domain.ErrNotFound}, cache)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, as(httptest.NewRequest(http.MethodDelete, "/empresas/5", nil), 5, domain.ActorSupplier))

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", w.Code)
		}
		if len(cache.dropped) != 0 {
			t.Errorf("expected no cache deletes, got %v", cache.dropped)
		}
	})

	t.Run("store with same id is forbidden", func(t *testing.T) {
		suppliers := &fakeSuppliers{}
		mux := newTestMux(&fakeStores{}, suppliers)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, as(httptest.NewRequest(http.MethodDelete, "/empresas/5", nil), 5, domain.ActorStore))

		if w.Code != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", w.Code)
		}
		if suppliers.deleted != 0 {
			t.Error("expected nothing deleted")
		}
	})
}

func TestHandleCreateSupplier(t *testing.T) {
	suppliers := &fakeSuppliers{}
	mux := newTestMux(&fakeStores{}, suppliers)

	req := multipartRequest(t, http.MethodPost, "/empresas",
		map[string]string{"nombre": "Distribuidora", "correo": "d@x.com", "contrasenia": "secreta", "descripcion": "mayorista"},
		upload{"logo", "logo.webp", "image/webp", []byte("RIFF")},
		upload{"QR_pago", "qr.png", "image/png", []byte("png")})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if *suppliers.created.About != "mayorista" {
		t.Errorf("expected descripcion mayorista, got %q", *suppliers.created.About)
	}
	if string(suppliers.created.Logo) != "RIFF" || string(suppliers.created.PaymentQR) != "png" {
		t.Error("expected both images to be kept")
	}
}
