package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cfadjust/internal/domain"
	"github.com/iho/cfadjust/internal/infrastructure/metrics"
)

type recordedRequest struct {
	method string
	path   string
	query  url.Values
	header http.Header
	form   url.Values
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]recordedRequest) {
	t.Helper()

	var recorded []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		recorded = append(recorded, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.Query(),
			header: r.Header.Clone(),
			form:   form,
		})
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL:   server.URL,
		Cookie:    "_session=abc",
		CSRFToken: "token-1",
		Timeout:   5 * time.Second,
	}, metrics.New(prometheus.NewRegistry()), zerolog.Nop())
	require.NoError(t, err)

	return client, &recorded
}

func scriptHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	_, _ = w.Write([]byte(`$("#cf-detail-table").load();`))
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"}, metrics.New(prometheus.NewRegistry()), zerolog.Nop())
	require.Error(t, err)
}

func TestConvertToTransfer(t *testing.T) {
	client, recorded := newTestClient(t, scriptHandler)

	resp, err := client.ConvertToTransfer(context.Background(), "entry-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Script, "cf-detail-table")

	require.Len(t, *recorded, 1)
	got := (*recorded)[0]
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/cf/update.js", got.path)
	assert.Equal(t, "enable_transfer", got.query.Get("change_type"))
	assert.Equal(t, "entry-1", got.query.Get("id"))
	assert.Equal(t, "token-1", got.header.Get("X-CSRF-Token"))
	assert.Equal(t, "XMLHttpRequest", got.header.Get("X-Requested-With"))
	assert.Equal(t, "ja", got.header.Get("Accept-Language"))
	assert.Equal(t, acceptHeader, got.header.Get("Accept"))
	assert.Equal(t, "_session=abc", got.header.Get("Cookie"))
}

func TestSetCounterparty(t *testing.T) {
	client, recorded := newTestClient(t, scriptHandler)

	_, err := client.SetCounterparty(context.Background(), "entry-1", "acct-9", "sub-9")
	require.NoError(t, err)

	got := (*recorded)[0]
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/cf/update", got.path)
	assert.Equal(t, "entry-1", got.form.Get("user_asset_act[id]"))
	assert.Equal(t, "acct-9", got.form.Get("user_asset_act[partner_account_id_hash]"))
	assert.Equal(t, "sub-9", got.form.Get("user_asset_act[partner_sub_account_id_hash]"))
	assert.Equal(t, "設定を保存", got.form.Get("commit"))
}

func TestCreateEntry(t *testing.T) {
	client, recorded := newTestClient(t, scriptHandler)

	req := domain.NewEntryRequest{
		Payment:          domain.DefaultPayment,
		Date:             domain.NewDate(2024, time.February, 1),
		Recurring:        domain.Recurring{Frequency: "daily"},
		Amount:           -1000,
		SubAccountID:     "sub-9",
		LargeCategoryID:  11,
		MiddleCategoryID: 0,
		Content:          "Dinner",
		Memo:             "インポートしたデータの日付変更（元:2024/01/20)",
	}
	_, err := client.CreateEntry(context.Background(), req)
	require.NoError(t, err)

	got := (*recorded)[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/cf/create", got.path)
	assert.Equal(t, "application/x-www-form-urlencoded; charset=UTF-8", got.header.Get("Content-Type"))
	assert.Equal(t, "2024/02/01", got.form.Get("user_asset_act[updated_at]"))
	assert.Equal(t, "2024-02", got.form.Get("month"))
	assert.Equal(t, "-1000", got.form.Get("user_asset_act[amount]"))
	assert.Equal(t, "11", got.form.Get("user_asset_act[large_category_id]"))
	assert.Equal(t, []string{""}, got.form["user_asset_act[middle_category_id]"])
	assert.Equal(t, "インポートしたデータの日付変更（元:20", got.form.Get("user_asset_act[memo]"))
	assert.Equal(t, "保存する", got.form.Get("commit"))
}

func TestCreateEntryRejectsInvalidRequest(t *testing.T) {
	client, recorded := newTestClient(t, scriptHandler)

	_, err := client.CreateEntry(context.Background(), domain.NewEntryRequest{Date: domain.NewDate(2024, 1, 1)})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, *recorded)
}

func TestNonSuccessStatusIsRemoteCallError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := client.ConvertToTransfer(context.Background(), "entry-1")
	require.ErrorIs(t, err, domain.ErrRemoteCallFailed)

	var remoteErr *domain.RemoteCallError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, OpConvertToTransfer, remoteErr.Op)
	assert.Equal(t, http.StatusUnprocessableEntity, remoteErr.StatusCode)
}

func TestNonScriptResponseHasNoScript(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	})

	resp, err := client.SetCounterparty(context.Background(), "entry-1", "a", "s")
	require.NoError(t, err)
	assert.Empty(t, resp.Script)
}

func TestCanceledContextIsRemoteCallError(t *testing.T) {
	client, recorded := newTestClient(t, scriptHandler)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ConvertToTransfer(ctx, "entry-1")
	require.ErrorIs(t, err, domain.ErrRemoteCallFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *recorded)
}

func TestFetchPage(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>ledger</html>"))
	})

	body, err := client.FetchPage(context.Background(), LedgerPagePath)
	require.NoError(t, err)
	assert.Equal(t, "<html>ledger</html>", string(body))
	assert.Equal(t, "/cf", (*recorded)[0].path)
	assert.Equal(t, "_session=abc", (*recorded)[0].header.Get("Cookie"))
}

func TestWithCSRFToken(t *testing.T) {
	client, recorded := newTestClient(t, scriptHandler)

	_, err := client.WithCSRFToken("from-page").ConvertToTransfer(context.Background(), "entry-1")
	require.NoError(t, err)
	assert.Equal(t, "from-page", (*recorded)[0].header.Get("X-CSRF-Token"))
}
