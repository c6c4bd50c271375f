package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"my-pet/internal/adapters/storage/sqlstore"
	"my-pet/internal/router"
)

const (
	adminID    = "0x1"
	headID     = "0xa" // responsable del hospital
	vetID      = "0xc" // staff del hospital
	ownerID    = "0xb"
	strangerID = "0xd"
)

func newServer(t *testing.T, sql bool) *httptest.Server {
	t.Helper()

	opts := router.Options{AuthVerifier: nil, RegistryOwner: adminID}
	if sql {
		db, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		if err := db.Migrate(context.Background()); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		opts.DB = db
	}

	ts := httptest.NewServer(router.NewRouter(opts))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_Registries(t *testing.T) {
	for _, backend := range []struct {
		name string
		sql  bool
	}{
		{"memory", false},
		{"sqlite", true},
	} {
		t.Run(backend.name, func(t *testing.T) {
			ts := newServer(t, backend.sql)

			// 1) Solo el owner del registro da de alta instituciones
			{
				st, body := doReq(t, ts.URL, "POST", "/institutions", ownerID, map[string]any{
					"name": "Vet Central", "kind": "Hospital", "responsible_person": headID,
				})
				expectError(t, st, body, http.StatusForbidden, "unauthorized")
			}
			instID := createInstitution(t, ts.URL, map[string]any{
				"name": "Vet Central", "kind": "Hospital", "responsible_person": headID,
			})
			if instID != 1 {
				t.Fatalf("expected first institution id 1, got %d", instID)
			}
			{
				st, body := doReq(t, ts.URL, "POST", "/institutions", adminID, map[string]any{
					"name": "Otra", "kind": "Shelter", "responsible_person": headID,
				})
				expectError(t, st, body, http.StatusConflict, "duplicate_responsible_person")
			}

			// 2) El responsable suma staff; el rol se deriva
			{
				path := fmt.Sprintf("/institutions/%d/staff/%s", instID, vetID)
				st, body := doReq(t, ts.URL, "PUT", path, headID, nil)
				if st != http.StatusOK {
					t.Fatalf("expected 200 add staff, got %d body=%s", st, string(body))
				}
			}
			if role := roleOf(t, ts.URL, vetID); role != "Hospital" {
				t.Fatalf("expected Hospital role for staff, got %q", role)
			}
			if role := roleOf(t, ts.URL, adminID); role != "Admin" {
				t.Fatalf("expected Admin role for registry owner, got %q", role)
			}

			// 3) Perfiles
			setProfile(t, ts.URL, ownerID, map[string]any{
				"name": "Bob", "email": "bob@example.com", "user_type": "Personal",
			})
			setProfile(t, ts.URL, vetID, map[string]any{
				"name": "Dra. Vet", "email": "vet@example.com", "user_type": "Institutional", "org_id": instID,
			})
			{
				st, body := doReq(t, ts.URL, "PUT", "/me/profile", strangerID, map[string]any{
					"name": "Eve", "user_type": "Institutional", "org_id": 0,
				})
				expectError(t, st, body, http.StatusBadRequest, "org_required")
			}

			// 4) Mascota: solo el dueño la edita
			petID := createPet(t, ts.URL, ownerID, map[string]any{"name": "Milo", "species": "dog"})
			{
				st, body := doReq(t, ts.URL, "PUT", fmt.Sprintf("/pets/%d", petID), strangerID, map[string]any{
					"name": "Robado", "species": "dog",
				})
				expectError(t, st, body, http.StatusForbidden, "not_owner")
			}
			{
				st, body := doReq(t, ts.URL, "PUT", fmt.Sprintf("/pets/%d", petID), ownerID, map[string]any{
					"name": "Milo", "species": "dog", "age": 3, "adoption_status": "Available",
				})
				if st != http.StatusOK {
					t.Fatalf("expected 200 update pet, got %d body=%s", st, string(body))
				}
			}

			// 5) Evento médico: solo personal de hospital
			{
				st, body := doReq(t, ts.URL, "POST", fmt.Sprintf("/pets/%d/medical-events", petID), ownerID, map[string]any{
					"diagnosis": "x", "treatment": "y",
				})
				expectError(t, st, body, http.StatusForbidden, "unauthorized")
			}
			{
				st, body := doReq(t, ts.URL, "POST", fmt.Sprintf("/pets/%d/medical-events", petID), vetID, map[string]any{
					"diagnosis": "Otitis", "treatment": "Gotas 7 días",
				})
				if st != http.StatusCreated {
					t.Fatalf("expected 201 medical event, got %d body=%s", st, string(body))
				}
				var ev map[string]any
				mustJSON(t, body, &ev)
				if ev["doctor"] != vetID || ev["hospital"] != headID {
					t.Fatalf("unexpected medical event defaults: %v", ev)
				}
			}
			{
				st, body := doReq(t, ts.URL, "GET", fmt.Sprintf("/pets/%d", petID), "", nil)
				if st != http.StatusOK {
					t.Fatalf("expected 200 get pet, got %d body=%s", st, string(body))
				}
				var pet map[string]any
				mustJSON(t, body, &pet)
				if ids, _ := pet["medical_record_ids"].([]any); len(ids) != 1 {
					t.Fatalf("expected one medical record on pet, got %v", pet["medical_record_ids"])
				}
			}
			{
				st, body := doReq(t, ts.URL, "GET", fmt.Sprintf("/pets/%d/medical-events?q=otitis", petID), "", nil)
				if st != http.StatusOK || countItems(t, body) != 1 {
					t.Fatalf("expected 1 matching medical event, got %d body=%s", st, string(body))
				}
			}
			{
				st, body := doReq(t, ts.URL, "GET", fmt.Sprintf("/pets/%d/medical-events?from=ayer", petID), "", nil)
				expectError(t, st, body, http.StatusBadRequest, "validation_error")
			}

			// 6) Disponible para adopción, luego adopción por el dueño
			{
				st, body := doReq(t, ts.URL, "GET", "/pets?adoption_status=Available", "", nil)
				if st != http.StatusOK || countItems(t, body) != 1 {
					t.Fatalf("expected 1 available pet, got %d body=%s", st, string(body))
				}
			}
			{
				st, body := doReq(t, ts.URL, "POST", fmt.Sprintf("/pets/%d/adoptions", petID), ownerID, map[string]any{
					"adopter": strangerID, "notes": "familia nueva",
				})
				if st != http.StatusCreated {
					t.Fatalf("expected 201 adoption, got %d body=%s", st, string(body))
				}
			}
			{
				st, body := doReq(t, ts.URL, "GET", "/owners/"+strangerID+"/pets", "", nil)
				if st != http.StatusOK || countItems(t, body) != 1 {
					t.Fatalf("expected adopter to own 1 pet, got %d body=%s", st, string(body))
				}
				st, body = doReq(t, ts.URL, "GET", "/owners/"+ownerID+"/pets", "", nil)
				if st != http.StatusOK || countItems(t, body) != 0 {
					t.Fatalf("expected previous owner to own 0 pets, got %d body=%s", st, string(body))
				}
			}

			// 7) Rescate
			rescueID := createRescue(t, ts.URL, ownerID, map[string]any{
				"location": "Plaza", "description": "Perro herido", "urgency_level": 2,
			})
			statusPath := fmt.Sprintf("/rescue-requests/%d/status", rescueID)
			{
				st, body := doReq(t, ts.URL, "PUT", statusPath, ownerID, map[string]any{"status": "in_progress"})
				expectError(t, st, body, http.StatusForbidden, "unauthorized")
			}
			{
				st, body := doReq(t, ts.URL, "PUT", statusPath, adminID, map[string]any{"status": "pending"})
				expectError(t, st, body, http.StatusConflict, "noop_transition")
			}
			{
				st, body := doReq(t, ts.URL, "PUT", statusPath, vetID, map[string]any{
					"status": "in_progress", "responder_org_id": instID,
				})
				if st != http.StatusOK {
					t.Fatalf("expected 200 rescue status update, got %d body=%s", st, string(body))
				}
			}
			{
				st, body := doReq(t, ts.URL, "GET", "/rescue-requests?status=in_progress", "", nil)
				if st != http.StatusOK || countItems(t, body) != 1 {
					t.Fatalf("expected 1 in_progress rescue, got %d body=%s", st, string(body))
				}
				st, body = doReq(t, ts.URL, "GET", "/requesters/"+ownerID+"/rescue-requests", "", nil)
				if st != http.StatusOK || countItems(t, body) != 1 {
					t.Fatalf("expected 1 rescue by requester, got %d body=%s", st, string(body))
				}
			}

			// 8) Listado de usuarios: solo Admin
			{
				st, body := doReq(t, ts.URL, "GET", "/users", ownerID, nil)
				expectError(t, st, body, http.StatusForbidden, "unauthorized")
			}
			{
				st, body := doReq(t, ts.URL, "GET", "/users", adminID, nil)
				if st != http.StatusOK || countItems(t, body) != 2 {
					t.Fatalf("expected 2 users for admin, got %d body=%s", st, string(body))
				}
			}
		})
	}
}

func TestHTTP_RequiresCaller(t *testing.T) {
	ts := newServer(t, false)

	st, body := doReq(t, ts.URL, "POST", "/pets", "", map[string]any{"name": "Milo", "species": "dog"})
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without caller, got %d body=%s", st, string(body))
	}

	// Header con identidad inválida => igual que sin caller
	st, body = doReq(t, ts.URL, "PUT", "/me/profile", "not-an-identity", map[string]any{"name": "x"})
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 with malformed identity, got %d body=%s", st, string(body))
	}
}

func TestHTTP_RemovedPet(t *testing.T) {
	ts := newServer(t, false)

	setProfile(t, ts.URL, ownerID, map[string]any{"name": "Bob", "user_type": "Personal"})
	petID := createPet(t, ts.URL, ownerID, map[string]any{"name": "Milo", "species": "dog"})

	st, body := doReq(t, ts.URL, "DELETE", fmt.Sprintf("/pets/%d", petID), ownerID, nil)
	if st != http.StatusNoContent {
		t.Fatalf("expected 204 remove pet, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "PUT", fmt.Sprintf("/pets/%d", petID), ownerID, map[string]any{
		"name": "Milo", "species": "dog",
	})
	expectError(t, st, body, http.StatusNotFound, "pet_not_found")

	st, body = doReq(t, ts.URL, "GET", "/owners/"+ownerID+"/pets", "", nil)
	if st != http.StatusOK || countItems(t, body) != 0 {
		t.Fatalf("expected removed pet out of owner list, got %d body=%s", st, string(body))
	}
}

func TestHTTP_OpsEndpoints(t *testing.T) {
	ts := newServer(t, false)

	for _, path := range []string{"/health", "/metrics"} {
		st, body := doReq(t, ts.URL, "GET", path, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 on %s, got %d body=%s", path, st, string(body))
		}
	}

	// docs/ no se versiona: sin doc registrado no hay /swagger.
	if st, _ := doReq(t, ts.URL, "GET", "/swagger/index.html", "", nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 on /swagger without generated docs, got %d", st)
	}

	// Una mutación rechazada queda contada con su código.
	_, _ = doReq(t, ts.URL, "POST", "/institutions", ownerID, map[string]any{
		"name": "X", "kind": "Hospital", "responsible_person": headID,
	})
	_, body := doReq(t, ts.URL, "GET", "/metrics", "", nil)
	if !strings.Contains(string(body), `outcome="unauthorized"`) {
		t.Fatalf("expected unauthorized outcome in metrics, got:\n%s", string(body))
	}
}

// --- helpers ---

func createInstitution(t *testing.T, baseURL string, payload map[string]any) uint64 {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/institutions", adminID, payload)
	if st != http.StatusCreated {
		t.Fatalf("create institution expected 201, got %d body=%s", st, string(body))
	}
	return idOf(t, body)
}

func setProfile(t *testing.T, baseURL, caller string, payload map[string]any) {
	t.Helper()
	st, body := doReq(t, baseURL, "PUT", "/me/profile", caller, payload)
	if st != http.StatusOK {
		t.Fatalf("set profile expected 200, got %d body=%s", st, string(body))
	}
}

func createPet(t *testing.T, baseURL, caller string, payload map[string]any) uint64 {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/pets", caller, payload)
	if st != http.StatusCreated {
		t.Fatalf("create pet expected 201, got %d body=%s", st, string(body))
	}
	return idOf(t, body)
}

func createRescue(t *testing.T, baseURL, caller string, payload map[string]any) uint64 {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/rescue-requests", caller, payload)
	if st != http.StatusCreated {
		t.Fatalf("create rescue expected 201, got %d body=%s", st, string(body))
	}
	return idOf(t, body)
}

func roleOf(t *testing.T, baseURL, who string) string {
	t.Helper()
	st, body := doReq(t, baseURL, "GET", "/users/"+who+"/role", "", nil)
	if st != http.StatusOK {
		t.Fatalf("role expected 200, got %d body=%s", st, string(body))
	}
	var resp struct {
		Role string `json:"role"`
	}
	mustJSON(t, body, &resp)
	return resp.Role
}

func expectError(t *testing.T, gotStatus int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if gotStatus != wantStatus {
		t.Fatalf("expected %d, got %d body=%s", wantStatus, gotStatus, string(body))
	}
	var resp struct {
		Error string `json:"error"`
	}
	mustJSON(t, body, &resp)
	if resp.Error != wantCode {
		t.Fatalf("expected error %q, got %q", wantCode, resp.Error)
	}
}

func idOf(t *testing.T, body []byte) uint64 {
	t.Helper()
	var resp struct {
		ID uint64 `json:"id"`
	}
	mustJSON(t, body, &resp)
	if resp.ID == 0 {
		t.Fatalf("missing id in response: %s", string(body))
	}
	return resp.ID
}

func countItems(t *testing.T, body []byte) int {
	t.Helper()
	var items []json.RawMessage
	mustJSON(t, body, &items)
	return len(items)
}

func mustJSON(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("invalid json: %v body=%s", err, string(body))
	}
}

func doReq(t *testing.T, baseURL, method, path, debugIdentity string, payload any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugIdentity != "" {
		req.Header.Set("X-Debug-Identity", debugIdentity)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}
