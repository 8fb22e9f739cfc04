package boundary

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spirilis/pima-adapter"
)

// fakeSupervisor is a canned-response stand-in for pima.Supervisor, in the
// spirit of the fake Transport used to dry-test the protocol core.
type fakeSupervisor struct {
	status   *pima.StatusRecord
	armMode  pima.ArmMode
	armParts []int
	armErr   error
}

func (f *fakeSupervisor) CurrentStatus() *pima.StatusRecord { return f.status }

func (f *fakeSupervisor) Arm(mode pima.ArmMode, partitions []int) (*pima.StatusRecord, error) {
	f.armMode = mode
	f.armParts = partitions
	if f.armErr != nil {
		return nil, f.armErr
	}
	return f.status, nil
}

func TestHandleStatusUnauthorized(t *testing.T) {
	sup := &fakeSupervisor{status: &pima.StatusRecord{LoggedIn: true}}
	srv := NewHTTPServer(sup, "secret", nil)

	req := httptest.NewRequest(http.MethodGet, "/pima/status?api_key=wrong", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestHandleStatusOK(t *testing.T) {
	sup := &fakeSupervisor{status: &pima.StatusRecord{LoggedIn: true}}
	srv := NewHTTPServer(sup, "secret", nil)

	req := httptest.NewRequest(http.MethodGet, "/pima/status?api_key=secret", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"logged_in":true`) {
		t.Errorf("body = %s, want logged_in:true", rr.Body.String())
	}
}

func TestHandleArmDefaultsPartitions(t *testing.T) {
	sup := &fakeSupervisor{status: &pima.StatusRecord{LoggedIn: true}}
	srv := NewHTTPServer(sup, "secret", nil)

	body := strings.NewReader(`{"mode":"full_arm"}`)
	req := httptest.NewRequest(http.MethodPost, "/pima/arm?api_key=secret", body)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if sup.armMode != pima.FullArm {
		t.Errorf("armMode = %v, want FullArm", sup.armMode)
	}
	if len(sup.armParts) != 1 || sup.armParts[0] != 1 {
		t.Errorf("armParts = %v, want [1]", sup.armParts)
	}
}

func TestHandleArmInvalidMode(t *testing.T) {
	sup := &fakeSupervisor{status: &pima.StatusRecord{LoggedIn: true}}
	srv := NewHTTPServer(sup, "secret", nil)

	body := strings.NewReader(`{"mode":"bogus"}`)
	req := httptest.NewRequest(http.MethodPost, "/pima/arm?api_key=secret", body)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotImplemented)
	}
}

func TestHandleArmMissingBody(t *testing.T) {
	sup := &fakeSupervisor{status: &pima.StatusRecord{LoggedIn: true}}
	srv := NewHTTPServer(sup, "secret", nil)

	req := httptest.NewRequest(http.MethodPost, "/pima/arm?api_key=secret", nil)
	req.Body = nil
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
