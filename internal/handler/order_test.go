package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitdesk/internal/apiclient"
	"remitdesk/internal/models"
	"remitdesk/internal/terms"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validCreateParams() models.CreateOrderParams {
	return models.CreateOrderParams{
		Amount:   decimal.NewFromInt(2500),
		Currency: "eur",
		Beneficiary: models.Beneficiary{
			Name:        "Acme GmbH",
			IBAN:        "DE89370400440532013000",
			BankName:    "Commerzbank",
			BIC:         "cobadeffxxx",
			BankCountry: "DE",
		},
		Purpose: "Invoice 42",
	}
}

func TestGetOrderIncludesBreakdown(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, clientUser())
	o := env.platform.addOrder(models.OrderStatusCheck, &models.Terms{
		RemunerationType:       models.RemunerationPercent,
		RemunerationPercentage: dec("2"),
		ExchangeRate:           dec("15000"),
		ClientCurrency:         "IDR",
	})

	rec := env.do(t, http.MethodGet, "/api/v1/orders/"+o.ID.String(), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var view OrderView
	resp := decodeEnvelope(t, rec, &view)
	assert.True(t, resp.Success)
	require.NotNil(t, view.Breakdown)
	assert.True(t, view.Breakdown.AmountRemuneration.Equal(decimal.NewFromInt(20)))
	assert.True(t, view.Breakdown.FaceValue.Equal(decimal.NewFromInt(15_000_000)))
	assert.True(t, view.Breakdown.RemunerationInClientCurrency.Equal(decimal.NewFromInt(300_000)))
	assert.True(t, view.Breakdown.Total.Equal(decimal.NewFromInt(15_300_000)))
	assert.Equal(t, []models.OrderStatus{models.OrderStatusCancelled}, view.NextStatuses)
	assert.True(t, view.Cancellable)
	assert.False(t, view.Deletable)
	assert.False(t, view.Editable)
}

func TestGetOrderWithoutTerms(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, staffUser())
	o := env.platform.addOrder(models.OrderStatusCreated, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/orders/"+o.ID.String(), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var view OrderView
	decodeEnvelope(t, rec, &view)
	assert.Nil(t, view.Breakdown)
	assert.ElementsMatch(t, []models.OrderStatus{
		models.OrderStatusCheck, models.OrderStatusRejected, models.OrderStatusCancelled,
	}, view.NextStatuses)
	assert.True(t, view.Editable)
}

func TestGetOrderNotFound(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, clientUser())

	rec := env.do(t, http.MethodGet, "/api/v1/orders/1b4e28ba-2fa1-11d2-883f-0016d3cca427", nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/orders/not-a-uuid", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrdersRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, clientUser())
	env.platform.addOrder(models.OrderStatusCreated, nil)
	env.platform.addOrder(models.OrderStatusReleased, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/orders?status=released", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var page apiclient.OrderPage
	decodeEnvelope(t, rec, &page)
	assert.Equal(t, 1, page.Total)

	rec = env.do(t, http.MethodGet, "/api/v1/orders?status=shipped", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, clientUser())

	rec := env.do(t, http.MethodPost, "/api/v1/orders", validCreateParams(), cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	var view OrderView
	decodeEnvelope(t, rec, &view)
	assert.Equal(t, "EUR", view.Currency)
	assert.Equal(t, "COBADEFFXXX", view.Beneficiary.BIC)
	assert.Equal(t, models.OrderStatusCreated, view.Status)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, clientUser())

	bad := validCreateParams()
	bad.Beneficiary.BIC = "NOPE"
	rec := env.do(t, http.MethodPost, "/api/v1/orders", bad, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad = validCreateParams()
	bad.Amount = decimal.Zero
	rec = env.do(t, http.MethodPost, "/api/v1/orders", bad, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Zero(t, env.platform.creates())
}

func TestCreateOrderIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, clientUser())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", jsonBody(t, validCreateParams()))
		req.Header.Set("Idempotency-Key", "order-1")
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code)
	second := send()
	require.Equal(t, http.StatusOK, second.Code)

	var a, b OrderView
	decodeEnvelope(t, first, &a)
	decodeEnvelope(t, second, &b)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, 1, env.platform.creates())
}

func TestUpdateOrderOnlyWhileCreated(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, clientUser())
	purpose := "Invoice 43"

	editable := env.platform.addOrder(models.OrderStatusCreated, nil)
	rec := env.do(t, http.MethodPatch, "/api/v1/orders/"+editable.ID.String(), models.UpdateOrderParams{Purpose: &purpose}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var view OrderView
	decodeEnvelope(t, rec, &view)
	assert.Equal(t, purpose, view.Purpose)

	locked := env.platform.addOrder(models.OrderStatusCheck, nil)
	rec = env.do(t, http.MethodPatch, "/api/v1/orders/"+locked.ID.String(), models.UpdateOrderParams{Purpose: &purpose}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelOrder(t *testing.T) {
	tests := []struct {
		name       string
		status     models.OrderStatus
		wantStatus int
		wantCall   bool
	}{
		{"from created", models.OrderStatusCreated, http.StatusOK, true},
		{"from check", models.OrderStatusCheck, http.StatusOK, true},
		{"from pending payment", models.OrderStatusPendingPayment, http.StatusOK, true},
		{"from on execution", models.OrderStatusOnExecution, http.StatusConflict, false},
		{"from released", models.OrderStatusReleased, http.StatusConflict, false},
		{"already cancelled", models.OrderStatusCancelled, http.StatusConflict, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			cookie := env.signIn(t, clientUser())
			o := env.platform.addOrder(tt.status, nil)

			rec := env.do(t, http.MethodPost, "/api/v1/orders/"+o.ID.String()+"/cancel", nil, cookie)
			assert.Equal(t, tt.wantStatus, rec.Code)

			call, called := env.platform.lastStatusCall()
			assert.Equal(t, tt.wantCall, called)
			if tt.wantCall {
				assert.Equal(t, models.OrderStatusCancelled, call.Status)
			}
		})
	}
}

func TestDeleteOnlyRejectedOrders(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, clientUser())

	live := env.platform.addOrder(models.OrderStatusCreated, nil)
	rec := env.do(t, http.MethodDelete, "/api/v1/orders/"+live.ID.String(), nil, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rejected := env.platform.addOrder(models.OrderStatusRejected, nil)
	rec = env.do(t, http.MethodDelete, "/api/v1/orders/"+rejected.ID.String(), nil, cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, env.platform.hasOrder(rejected.ID))
}

func multipartUpload(t *testing.T, kind, fileName, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("kind", kind))

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, clientUser())
	o := env.platform.addOrder(models.OrderStatusCreated, nil)

	upload := func(kind, fileName, contentType string, content []byte) *httptest.ResponseRecorder {
		body, ct := multipartUpload(t, kind, fileName, contentType, content)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+o.ID.String()+"/documents", body)
		req.Header.Set("Content-Type", ct)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("invoice", "invoice.pdf", "application/pdf", []byte("%PDF-1.4 test"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc models.Document
	decodeEnvelope(t, rec, &doc)
	assert.Equal(t, models.DocumentKindInvoice, doc.Kind)
	assert.Equal(t, "invoice.pdf", doc.FileName)

	rec = upload("invoice", "notes.txt", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = upload("passport", "scan.pdf", "application/pdf", []byte("%PDF-1.4"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload("invoice", "big.pdf", "application/pdf", bytes.Repeat([]byte("a"), 1<<16+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	// Far past the limit the body reader gives up before the form is parsed.
	rec = upload("invoice", "huge.pdf", "application/pdf", bytes.Repeat([]byte("a"), 1<<16+2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	resp := decodeEnvelope(t, rec, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FILE_TOO_LARGE", resp.Error.Code)

	assert.Equal(t, []string{"invoice.pdf"}, env.platform.uploaded())
}

func TestUploadDocumentSniffsType(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, clientUser())
	o := env.platform.addOrder(models.OrderStatusCreated, nil)

	body, ct := multipartUpload(t, "swift", "mt103.pdf", "application/octet-stream", []byte("%PDF-1.7\n..."))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+o.ID.String()+"/documents", body)
	req.Header.Set("Content-Type", ct)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var doc models.Document
	decodeEnvelope(t, rec, &doc)
	assert.Equal(t, "application/pdf", doc.ContentType)
}

func TestPreviewTerms(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, clientUser())

	rec := env.do(t, http.MethodPost, "/api/v1/terms/preview", PreviewRequest{
		Amount:   decimal.NewFromInt(1000),
		Currency: "USD",
		Terms: models.Terms{
			RemunerationType:  models.RemunerationFixed,
			RemunerationFixed: dec("25"),
			ExchangeRate:      dec("0.92"),
			ClientCurrency:    "EUR",
		},
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var b terms.Breakdown
	decodeEnvelope(t, rec, &b)
	assert.True(t, b.AmountRemuneration.Equal(decimal.NewFromInt(25)))
	assert.True(t, b.FaceValue.Equal(decimal.NewFromInt(920)))
	assert.True(t, b.RemunerationInClientCurrency.Equal(decimal.RequireFromString("23")))
	assert.True(t, b.Total.Equal(decimal.NewFromInt(943)))

	rec = env.do(t, http.MethodPost, "/api/v1/terms/preview", PreviewRequest{
		Amount: decimal.NewFromInt(1000),
		Terms: models.Terms{
			RemunerationType:       models.RemunerationPercent,
			RemunerationPercentage: dec("120"),
		},
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
