package broker

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*Broker, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		Host:      "127.0.0.1",
		Port:      0,
		StaticDir: dir,
		PrefsPath: filepath.Join(dir, "preferences.json"),
	}
	b := New(cfg, nil)
	srv := httptest.NewServer(b.newRouter())
	t.Cleanup(srv.Close)
	return b, srv
}

func get(t *testing.T, srv *httptest.Server, path string) string {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := readBody(resp)
	require.NoError(t, err)
	return body
}

func readBody(resp *http.Response) (string, error) {
	buf := new(bytes.Buffer)
	_, err := buf.ReadFrom(resp.Body)
	return buf.String(), err
}

// A value written through setreg reads back identically through getreg.
func TestSetRegThenGetReg(t *testing.T) {
	_, srv := newTestBroker(t)

	body := get(t, srv, "/api/setreg/output=0x0000FFFF")
	assert.Contains(t, body, ">SUCC;output;0x0000FFFF")

	body = get(t, srv, "/api/getreg/output")
	assert.Contains(t, body, ">SUCC;output;0x0000FFFF")
}

// getpin after setpin only agrees once output is set directly, because
// setpin writes Input and getpin reads Output.
func TestSetPinGetPinAsymmetry(t *testing.T) {
	_, srv := newTestBroker(t)

	body := get(t, srv, "/api/setpin/7=HIGH")
	assert.Contains(t, body, ">SUCC;7;1")

	body = get(t, srv, "/api/getpin/7")
	assert.Contains(t, body, ">SUCC;7;0")

	body = get(t, srv, "/api/setreg/output=0x00000080")
	assert.Contains(t, body, ">SUCC;output;0x00000080")

	body = get(t, srv, "/api/getpin/7")
	assert.Contains(t, body, ">SUCC;7;1")
}

// An unrecognized action name fails with UNKACT instead of a 404 or panic.
func TestUnknownAction(t *testing.T) {
	_, srv := newTestBroker(t)
	body := get(t, srv, "/api/action/foobar")
	assert.Contains(t, body, "op:action")
	assert.Contains(t, body, ">FAIL~UNKACT;foobar;Invalid action name.")
}

// The terminate action replies SUCC before shutting the broker down.
func TestActionTerminate(t *testing.T) {
	b, srv := newTestBroker(t)
	body := get(t, srv, "/api/action/terminate")
	assert.Contains(t, body, ">SUCC;terminate;Exiting...")
	select {
	case <-b.Done():
	default:
		// Close() runs asynchronously; give it a moment via Close itself
		// which is idempotent.
		_ = b.Close()
	}
}

func TestGetPinOutOfRange(t *testing.T) {
	_, srv := newTestBroker(t)
	body := get(t, srv, "/api/getpin/100")
	assert.Contains(t, body, ">FAIL~PNF;100;pin not found")
}

func TestGetRegUnknown(t *testing.T) {
	_, srv := newTestBroker(t)
	body := get(t, srv, "/api/getreg/bogus")
	assert.Contains(t, body, ">FAIL~UNKREG;bogus;unknown register")
}

func TestUnknownAPICall(t *testing.T) {
	_, srv := newTestBroker(t)
	body := get(t, srv, "/api/frobnicate")
	assert.Contains(t, body, "UNKAPICALL")
}

func TestActionReset(t *testing.T) {
	_, srv := newTestBroker(t)
	get(t, srv, "/api/setreg/output=0x000000FF")
	body := get(t, srv, "/api/action/reset")
	assert.Contains(t, body, ">SUCC;reset;Reset done.")

	body = get(t, srv, "/api/getreg/output;config")
	assert.Contains(t, body, ">SUCC;output;0x00000000")
	assert.Contains(t, body, ">SUCC;config;0xFFFFFFFF")
}

func TestBatchSetRegPartialFailureStillSetsValidRegisters(t *testing.T) {
	_, srv := newTestBroker(t)
	body := get(t, srv, "/api/setreg/output=0x0000000A;bogus=0x1;config=0x00000001")
	assert.Contains(t, body, ">SUCC;output;0x0000000A")
	assert.Contains(t, body, ">FAIL~UNKREG;bogus;unknown register")
	assert.Contains(t, body, ">SUCC;config;0x00000001")

	body = get(t, srv, "/api/getreg/output;config")
	assert.Contains(t, body, ">SUCC;output;0x0000000A")
	assert.Contains(t, body, ">SUCC;config;0x00000001")
}

func TestPrefsRoundTrip(t *testing.T) {
	_, srv := newTestBroker(t)

	payload := `{"theme":"dark"}`
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/prefs", bytes.NewBufferString(payload))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := get(t, srv, "/api/prefs")
	assert.Equal(t, payload, body)
}

func TestPrefsGetIOError(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Host: "127.0.0.1", StaticDir: dir, PrefsPath: filepath.Join(dir, "missing", "preferences.json")}
	b := New(cfg, nil)
	srv := httptest.NewServer(b.newRouter())
	defer srv.Close()

	body := get(t, srv, "/api/prefs")
	assert.Contains(t, body, "FAIL~IOERROR")
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("hello"), 0o644))
	cfg := Config{Host: "127.0.0.1", StaticDir: dir, PrefsPath: filepath.Join(dir, "preferences.json")}
	b := New(cfg, nil)
	srv := httptest.NewServer(b.newRouter())
	defer srv.Close()

	body := get(t, srv, "/index.html")
	assert.Equal(t, "hello", body)
}
